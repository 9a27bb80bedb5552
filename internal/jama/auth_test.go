package jama

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) install(t *testing.T) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return c.now }
	t.Cleanup(func() { timeNow = orig })
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestStaticTokenSource(t *testing.T) {
	src := NewStaticTokenSource("abc123")
	token, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "abc123" {
		t.Errorf("token = %q", token)
	}

	if _, err := NewStaticTokenSource("").Token(context.Background()); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestOAuthTokenSourceFetchesAndCaches(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	clk.install(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Path != "/rest/oauth/token" {
			t.Errorf("path = %q, want /rest/oauth/token", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		fmt.Fprintf(w, `{"access_token": "tok-%d", "token_type": "bearer", "expires_in": 3600}`, n)
	}))
	t.Cleanup(srv.Close)

	src := NewOAuthTokenSource(srv.URL, "client-id", "client-secret", srv.Client(), nil)

	token, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "tok-1" {
		t.Errorf("token = %q, want tok-1", token)
	}

	// Well within the token lifetime: served from cache.
	clk.advance(30 * time.Minute)
	token, err = src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "tok-1" {
		t.Errorf("token = %q, want cached tok-1", token)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("token endpoint saw %d calls, want 1", got)
	}

	// Inside the refresh window (less than 5m to expiry): refreshed.
	clk.advance(26 * time.Minute)
	token, err = src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "tok-2" {
		t.Errorf("token = %q, want refreshed tok-2", token)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("token endpoint saw %d calls, want 2", got)
	}
}

func TestOAuthTokenSourceDefaultsExpiry(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	clk.install(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"access_token": "tok", "token_type": "bearer"}`)
	}))
	t.Cleanup(srv.Close)

	src := NewOAuthTokenSource(srv.URL, "id", "secret", srv.Client(), nil)
	for i := 0; i < 3; i++ {
		if _, err := src.Token(context.Background()); err != nil {
			t.Fatalf("Token: %v", err)
		}
	}
	// Missing expires_in falls back to one hour, so repeat calls hit the cache.
	if got := calls.Load(); got != 1 {
		t.Errorf("token endpoint saw %d calls, want 1", got)
	}
}

func TestOAuthTokenSourceRejectsBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"meta": {"message": "Bad client credentials"}}`)
	}))
	t.Cleanup(srv.Close)

	src := NewOAuthTokenSource(srv.URL, "id", "wrong", srv.Client(), nil)
	_, err := src.Token(context.Background())
	if err == nil {
		t.Fatal("expected error for 401 token response")
	}
	if !strings.Contains(err.Error(), "refreshing OAuth token") {
		t.Errorf("err = %v", err)
	}
	if IsRetryable(err) {
		t.Error("authentication failure must not be retryable")
	}
}

func TestOAuthTokenSourceMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"token_type": "bearer", "expires_in": 3600}`)
	}))
	t.Cleanup(srv.Close)

	src := NewOAuthTokenSource(srv.URL, "id", "secret", srv.Client(), nil)
	if _, err := src.Token(context.Background()); err == nil {
		t.Fatal("expected error for response without access_token")
	}
}
