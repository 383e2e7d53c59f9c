// Package identity issues and tracks the anonymous identity used to key
// the remote user document.
package identity

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"

	"github.com/charmbracelet/log"
)

// refreshTokenKey is the credential cache key for the refresh token.
const refreshTokenKey = "identity-refresh-token"

// TokenCache persists the refresh token between runs.
// The production implementation is backed by the system keyring.
type TokenCache interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Provider resolves the current anonymous identity and notifies on changes.
// At most one identity is active at a time; a new one is only issued on
// first run or after SignOut.
type Provider struct {
	client *Client
	tokens TokenCache
	logger *log.Logger

	mu      gosync.Mutex
	current *Identity
	events  chan string
}

// NewProvider creates a Provider using the given client and token cache.
func NewProvider(client *Client, tokens TokenCache, logger *log.Logger) *Provider {
	return &Provider{
		client: client,
		tokens: tokens,
		logger: logger,
		events: make(chan string, 4),
	}
}

// Events returns the identity change stream. The current user ID is sent
// after every successful sign-in, including the initial one.
func (p *Provider) Events() <-chan string {
	return p.events
}

// Current returns the active identity, or nil before the first sign-in.
func (p *Provider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// SignIn resolves an identity: a cached refresh token is exchanged for the
// existing anonymous account; with no usable token a fresh anonymous
// account is created. The resulting user ID is emitted on the event stream.
func (p *Provider) SignIn(ctx context.Context) (*Identity, error) {
	id, err := p.resolve(ctx)
	if err != nil {
		return nil, err
	}

	if cacheErr := p.tokens.Set(refreshTokenKey, id.RefreshToken); cacheErr != nil {
		// Not fatal: the session works, only the next run re-signs up.
		p.logger.Warn("caching refresh token", "err", cacheErr)
	}

	p.mu.Lock()
	p.current = &id
	p.mu.Unlock()

	p.emit(id.UserID)
	return &id, nil
}

// SignOut discards the active identity and its cached token. The next
// SignIn issues a fresh anonymous account with an empty document.
func (p *Provider) SignOut() error {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	if err := p.tokens.Delete(refreshTokenKey); err != nil {
		return fmt.Errorf("clearing cached token: %w", err)
	}
	return nil
}

// resolve picks the sign-in path based on the cached token state.
func (p *Provider) resolve(ctx context.Context) (Identity, error) {
	cached, err := p.tokens.Get(refreshTokenKey)
	if err != nil || cached == "" {
		p.logger.Debug("no cached refresh token, creating anonymous account")
		return p.client.SignUpAnonymous(ctx)
	}

	id, err := p.client.Refresh(ctx, cached)
	if err == nil {
		return id, nil
	}

	if errors.Is(err, ErrInvalidToken) {
		p.logger.Info("cached token rejected, creating fresh anonymous account")
		_ = p.tokens.Delete(refreshTokenKey)
		return p.client.SignUpAnonymous(ctx)
	}

	return Identity{}, err
}

// emit delivers an identity change without blocking the caller.
func (p *Provider) emit(userID string) {
	select {
	case p.events <- userID:
	default:
		p.logger.Warn("identity event dropped, consumer not keeping up")
	}
}
