package identity

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
)

// memoryCache is an in-memory TokenCache for tests.
type memoryCache struct {
	values map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]string)}
}

func (m *memoryCache) Get(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (m *memoryCache) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *memoryCache) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestSignIn_FirstRunCreatesAnonymousAccount(t *testing.T) {
	signUps := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signUps++
		w.Write([]byte(`{"localId": "anon-new", "idToken": "t", "refreshToken": "fresh-rt", "expiresIn": "3600"}`))
	}))
	defer srv.Close()

	cache := newMemoryCache()
	p := NewProvider(NewClientWithEndpoints("k", srv.URL, srv.URL), cache, testLogger())

	id, err := p.SignIn(context.Background())
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if signUps != 1 {
		t.Errorf("expected 1 sign-up call, got %d", signUps)
	}
	if id.UserID != "anon-new" {
		t.Errorf("expected anon-new, got %q", id.UserID)
	}
	if got, _ := cache.Get(refreshTokenKey); got != "fresh-rt" {
		t.Errorf("expected refresh token cached, got %q", got)
	}

	select {
	case userID := <-p.Events():
		if userID != "anon-new" {
			t.Errorf("expected identity event anon-new, got %q", userID)
		}
	default:
		t.Error("expected an identity event after sign-in")
	}
}

func TestSignIn_CachedTokenKeepsIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/token" {
			t.Errorf("expected token refresh, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"user_id": "anon-old", "id_token": "t", "refresh_token": "rotated", "expires_in": "3600"}`))
	}))
	defer srv.Close()

	cache := newMemoryCache()
	cache.Set(refreshTokenKey, "cached-rt")
	p := NewProvider(NewClientWithEndpoints("k", srv.URL, srv.URL), cache, testLogger())

	id, err := p.SignIn(context.Background())
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if id.UserID != "anon-old" {
		t.Errorf("expected anon-old, got %q", id.UserID)
	}
	if got, _ := cache.Get(refreshTokenKey); got != "rotated" {
		t.Errorf("expected rotated token cached, got %q", got)
	}
}

func TestSignIn_RejectedTokenFallsBackToSignUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/token" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"code": 400, "message": "INVALID_REFRESH_TOKEN"}}`))
			return
		}
		w.Write([]byte(`{"localId": "anon-replacement", "idToken": "t", "refreshToken": "rt2", "expiresIn": "3600"}`))
	}))
	defer srv.Close()

	cache := newMemoryCache()
	cache.Set(refreshTokenKey, "stale-rt")
	p := NewProvider(NewClientWithEndpoints("k", srv.URL, srv.URL), cache, testLogger())

	id, err := p.SignIn(context.Background())
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if id.UserID != "anon-replacement" {
		t.Errorf("expected replacement identity, got %q", id.UserID)
	}
}

func TestSignOut_ClearsCachedToken(t *testing.T) {
	cache := newMemoryCache()
	cache.Set(refreshTokenKey, "rt")
	p := NewProvider(NewClientWithEndpoints("k", "http://example.invalid", "http://example.invalid"), cache, testLogger())

	if err := p.SignOut(); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	if _, err := cache.Get(refreshTokenKey); err == nil {
		t.Error("expected cached token removed")
	}
	if p.Current() != nil {
		t.Error("expected no current identity after sign-out")
	}
}
