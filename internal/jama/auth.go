package jama

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// refreshSkew is how long before expiry a token is refreshed. Jama OAuth
// tokens last one hour; refreshing early avoids mid-request expiry.
const refreshSkew = 5 * time.Minute

// timeNow is swapped out by tests to control token expiry.
var timeNow = time.Now

// TokenSource supplies bearer tokens for Jama API requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// --- Static token ---

// StaticTokenSource returns a pre-issued bearer token unchanged. Used
// when the operator supplies a token directly instead of OAuth
// credentials.
type StaticTokenSource struct {
	token string
}

func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", fmt.Errorf("bearer token is empty")
	}
	return s.token, nil
}

// --- OAuth client credentials ---

// OAuthTokenSource implements Jama's client-credentials flow against
// /rest/oauth/token. Tokens are cached and refreshed refreshSkew before
// they expire.
type OAuthTokenSource struct {
	tokenURL     string
	clientID     string
	clientSecret string
	http         *http.Client
	log          *zap.Logger

	mu      sync.Mutex
	current string
	expiry  time.Time
}

// NewOAuthTokenSource builds a token source for the Jama instance at
// host, e.g. "https://example.jamacloud.com".
func NewOAuthTokenSource(host, clientID, clientSecret string, httpClient *http.Client, log *zap.Logger) *OAuthTokenSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OAuthTokenSource{
		tokenURL:     strings.TrimRight(host, "/") + "/rest/oauth/token",
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         httpClient,
		log:          log,
	}
}

func (o *OAuthTokenSource) Token(ctx context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != "" && timeNow().Before(o.expiry.Add(-refreshSkew)) {
		return o.current, nil
	}

	token, expiresIn, err := o.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("refreshing OAuth token: %w", err)
	}

	o.current = token
	o.expiry = timeNow().Add(time.Duration(expiresIn) * time.Second)
	o.log.Debug("refreshed OAuth token",
		zap.Time("expiry", o.expiry),
		zap.Int("expires_in_seconds", expiresIn),
	)
	return o.current, nil
}

func (o *OAuthTokenSource) fetch(ctx context.Context) (string, int, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.SetBasicAuth(o.clientID, o.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.http.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, errorFromStatus(resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", 0, fmt.Errorf("decoding token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", 0, fmt.Errorf("token response contained no access_token")
	}
	if payload.ExpiresIn <= 0 {
		payload.ExpiresIn = 3600
	}
	return payload.AccessToken, payload.ExpiresIn, nil
}
