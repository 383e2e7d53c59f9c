package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Default endpoints for the Google Identity Toolkit and Secure Token services.
const (
	defaultSignInBaseURL = "https://identitytoolkit.googleapis.com"
	defaultTokenBaseURL  = "https://securetoken.googleapis.com"
)

// ErrInvalidToken indicates that a cached refresh token was rejected by the
// token service. Callers should discard the token and sign up again.
var ErrInvalidToken = errors.New("refresh token invalid or expired")

// Identity is an anonymous account issued by the identity service.
type Identity struct {
	// UserID is the stable anonymous identifier (Identity Toolkit localId).
	UserID string

	// IDToken is the short-lived token proving the identity.
	IDToken string

	// RefreshToken exchanges for a new IDToken after expiry. It is the
	// only credential persisted between runs.
	RefreshToken string

	// ExpiresIn is the IDToken lifetime reported by the service.
	ExpiresIn time.Duration
}

// Client is a thin HTTP client for the Identity Toolkit REST API.
// It handles anonymous sign-up, refresh-token exchange, JSON marshaling,
// and automatic retry with exponential backoff on HTTP 429.
type Client struct {
	signInBaseURL string
	tokenBaseURL  string
	apiKey        string
	httpClient    *http.Client
	maxRetries    int
}

// NewClient creates a new identity client using the project's web API key.
func NewClient(apiKey string) *Client {
	return NewClientWithEndpoints(apiKey, defaultSignInBaseURL, defaultTokenBaseURL)
}

// NewClientWithEndpoints creates a client with custom service endpoints.
// Used for tests and local auth emulators.
func NewClientWithEndpoints(apiKey, signInBaseURL, tokenBaseURL string) *Client {
	return &Client{
		signInBaseURL: strings.TrimRight(signInBaseURL, "/"),
		tokenBaseURL:  strings.TrimRight(tokenBaseURL, "/"),
		apiKey:        apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// signUpResponse is the Identity Toolkit accounts:signUp payload.
type signUpResponse struct {
	LocalID      string `json:"localId"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// refreshResponse is the Secure Token service token payload.
type refreshResponse struct {
	UserID       string `json:"user_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

// errorResponse is the Google API error envelope.
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignUpAnonymous creates a fresh anonymous account and returns its identity.
func (c *Client) SignUpAnonymous(ctx context.Context) (Identity, error) {
	endpoint := c.signInBaseURL + "/v1/accounts:signUp?key=" + url.QueryEscape(c.apiKey)
	body := map[string]bool{"returnSecureToken": true}

	var resp signUpResponse
	if err := c.postJSON(ctx, endpoint, body, &resp); err != nil {
		return Identity{}, fmt.Errorf("anonymous sign-up: %w", err)
	}
	if resp.LocalID == "" {
		return Identity{}, fmt.Errorf("anonymous sign-up: empty localId in response")
	}

	return Identity{
		UserID:       resp.LocalID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    parseExpiry(resp.ExpiresIn),
	}, nil
}

// Refresh exchanges a persisted refresh token for a fresh identity.
// Returns ErrInvalidToken when the service rejects the token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Identity, error) {
	endpoint := c.tokenBaseURL + "/v1/token?key=" + url.QueryEscape(c.apiKey)
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	var resp refreshResponse
	if err := c.postForm(ctx, endpoint, form, &resp); err != nil {
		return Identity{}, fmt.Errorf("refreshing token: %w", err)
	}
	if resp.UserID == "" {
		return Identity{}, fmt.Errorf("refreshing token: empty user_id in response")
	}

	return Identity{
		UserID:       resp.UserID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    parseExpiry(resp.ExpiresIn),
	}, nil
}

// postJSON performs a POST with a JSON body and unmarshals the JSON response.
func (c *Client) postJSON(ctx context.Context, endpoint string, body, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}
	return c.do(ctx, endpoint, "application/json", data, result)
}

// postForm performs a POST with a form-encoded body and unmarshals the
// JSON response.
func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, result interface{}) error {
	return c.do(ctx, endpoint, "application/x-www-form-urlencoded", []byte(form.Encode()), result)
}

// do is the core HTTP method that builds the request, handles rate limiting
// with exponential backoff, and JSON deserialization.
func (c *Client) do(
	ctx context.Context,
	endpoint string,
	contentType string,
	reqBody []byte,
	result interface{},
) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody),
		)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request: %w", err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429)")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var apiErr errorResponse
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
				if isTokenRejection(apiErr.Error.Message) {
					return fmt.Errorf("%s: %w", apiErr.Error.Message, ErrInvalidToken)
				}
				return fmt.Errorf(
					"identity API error (%d): %s",
					resp.StatusCode, apiErr.Error.Message,
				)
			}
			return fmt.Errorf(
				"unexpected status %d: %s",
				resp.StatusCode, string(respBody),
			)
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response: %w", err)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// isTokenRejection matches the Secure Token error codes that mean the
// refresh token is no longer usable.
func isTokenRejection(message string) bool {
	switch {
	case strings.Contains(message, "TOKEN_EXPIRED"),
		strings.Contains(message, "INVALID_REFRESH_TOKEN"),
		strings.Contains(message, "USER_DISABLED"),
		strings.Contains(message, "USER_NOT_FOUND"):
		return true
	}
	return false
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration, falling back to exponential backoff.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return time.Duration(1<<attempt) * time.Second
}

// parseExpiry converts the service's seconds-as-string expiry field.
func parseExpiry(raw string) time.Duration {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return time.Hour
	}
	return time.Duration(seconds) * time.Second
}
