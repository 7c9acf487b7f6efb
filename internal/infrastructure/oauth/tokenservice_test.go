package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/infrastructure/cache"
	"github.com/vitalink-io/vitalink/internal/infrastructure/providers"
	apperrors "github.com/vitalink-io/vitalink/internal/shared/errors"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// nopLogger is a no-op logger for testing.
type nopLogger struct{}

func newNopLogger() logger.Interface { return &nopLogger{} }

func (l *nopLogger) Debug(msg string, args ...any)                   {}
func (l *nopLogger) Info(msg string, args ...any)                    {}
func (l *nopLogger) Warn(msg string, args ...any)                    {}
func (l *nopLogger) Error(msg string, args ...any)                   {}
func (l *nopLogger) With(args ...any) logger.Interface               { return l }
func (l *nopLogger) Named(name string) logger.Interface              { return l }
func (l *nopLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Errorw(msg string, keysAndValues ...interface{}) {}

// fakeConfigSource serves one provider config with test-server endpoints.
type fakeConfigSource struct {
	cfg *providers.Config
}

func (f *fakeConfigSource) Get(provider wearable.Provider) (*providers.Config, error) {
	if f.cfg == nil || f.cfg.Provider != provider {
		return nil, apperrors.NewProviderNotConfiguredError(provider.String())
	}
	return f.cfg, nil
}

// memStates is an in-memory StateStore for tests.
type memStates struct {
	entries map[string]cache.OAuthState
}

func newMemStates() *memStates { return &memStates{entries: make(map[string]cache.OAuthState)} }

func (m *memStates) Set(_ context.Context, state string, data cache.OAuthState) error {
	m.entries[state] = data
	return nil
}

func (m *memStates) Consume(_ context.Context, state string) (*cache.OAuthState, error) {
	data, ok := m.entries[state]
	if !ok {
		return nil, apperrors.NewInvalidOAuthStateError()
	}
	delete(m.entries, state)
	return &data, nil
}

// memConnections is an in-memory ConnectionRepository for tests.
type memConnections struct {
	conns map[string]*wearable.Connection
}

func newMemConnections() *memConnections {
	return &memConnections{conns: make(map[string]*wearable.Connection)}
}

func (m *memConnections) key(userID uint, provider wearable.Provider) string {
	return fmt.Sprintf("%d:%s", userID, provider)
}

func (m *memConnections) GetByUserAndProvider(_ context.Context, userID uint, provider wearable.Provider) (*wearable.Connection, error) {
	return m.conns[m.key(userID, provider)], nil
}

func (m *memConnections) Upsert(_ context.Context, conn *wearable.Connection) error {
	m.conns[m.key(conn.UserID, conn.Provider)] = conn
	return nil
}

func (m *memConnections) Delete(_ context.Context, userID uint, provider wearable.Provider) error {
	delete(m.conns, m.key(userID, provider))
	return nil
}

func (m *memConnections) ListAll(_ context.Context) ([]*wearable.Connection, error) {
	out := make([]*wearable.Connection, 0, len(m.conns))
	for _, c := range m.conns {
		out = append(out, c)
	}
	return out, nil
}

type nopConnCache struct{}

func (nopConnCache) Get(context.Context, uint, wearable.Provider) *wearable.Connection { return nil }
func (nopConnCache) Set(context.Context, *wearable.Connection)                         {}
func (nopConnCache) Invalidate(context.Context, uint, wearable.Provider)               {}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	UserID       string `json:"user_id,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// newTokenServer records token-endpoint form posts and serves resp.
func newTokenServer(t *testing.T, resp tokenResponse, status int) (*httptest.Server, *url.Values) {
	t.Helper()

	var lastForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		lastForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &lastForm
}

func testConfig(provider wearable.Provider, tokenURL string, usesPKCE bool) *providers.Config {
	return &providers.Config{
		Provider:     provider,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://vitalink.example/api/v1/wearables/callback/" + provider.String(),
		AuthURL:      "https://provider.example/authorize",
		TokenURL:     tokenURL,
		Scopes:       []string{"activity", "sleep"},
		UsesPKCE:     usesPKCE,
		SyncDays:     2,
	}
}

func TestAuthorizer_AuthorizationURL_PKCE(t *testing.T) {
	cfg := testConfig(wearable.ProviderFitbit, "https://provider.example/token", true)
	states := newMemStates()
	authorizer := NewAuthorizer(&fakeConfigSource{cfg: cfg}, states, newNopLogger())

	rawURL, err := authorizer.AuthorizationURL(context.Background(), 42, wearable.ProviderFitbit)
	require.NoError(t, err)

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Len(t, q.Get("state"), 64, "state is 32 random bytes hex encoded")

	stored, ok := states.entries[q.Get("state")]
	require.True(t, ok, "state must be stored before the URL is returned")
	assert.Equal(t, uint(42), stored.UserID)
	assert.NotEmpty(t, stored.CodeVerifier)
}

func TestAuthorizer_AuthorizationURL_NoPKCE(t *testing.T) {
	cfg := testConfig(wearable.ProviderPolar, "https://provider.example/token", false)
	states := newMemStates()
	authorizer := NewAuthorizer(&fakeConfigSource{cfg: cfg}, states, newNopLogger())

	rawURL, err := authorizer.AuthorizationURL(context.Background(), 7, wearable.ProviderPolar)
	require.NoError(t, err)

	q, err := url.Parse(rawURL)
	require.NoError(t, err)
	assert.Empty(t, q.Query().Get("code_challenge"))

	stored := states.entries[q.Query().Get("state")]
	assert.Empty(t, stored.CodeVerifier)
}

func TestAuthorizer_UnconfiguredProvider(t *testing.T) {
	authorizer := NewAuthorizer(&fakeConfigSource{}, newMemStates(), newNopLogger())

	_, err := authorizer.AuthorizationURL(context.Background(), 1, wearable.ProviderOura)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProviderNotConfigured))
}

func TestTokenService_Exchange_CreatesConnection(t *testing.T) {
	srv, form := newTokenServer(t, tokenResponse{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		TokenType:    "Bearer",
		ExpiresIn:    28800,
		UserID:       "FITBIT123",
		Scope:        "activity sleep",
	}, http.StatusOK)

	cfg := testConfig(wearable.ProviderFitbit, srv.URL, true)
	states := newMemStates()
	conns := newMemConnections()
	svc := NewTokenService(&fakeConfigSource{cfg: cfg}, states, conns, nopConnCache{}, newNopLogger())

	require.NoError(t, states.Set(context.Background(), "the-state", cache.OAuthState{
		UserID:       42,
		Provider:     wearable.ProviderFitbit,
		CodeVerifier: "the-verifier",
	}))

	conn, err := svc.Exchange(context.Background(), wearable.ProviderFitbit, "the-state", "the-code")
	require.NoError(t, err)

	assert.Equal(t, "new-access", conn.AccessToken)
	assert.Equal(t, "new-refresh", conn.RefreshToken)
	assert.Equal(t, "FITBIT123", conn.ExternalUserID)
	assert.Equal(t, []string{"activity", "sleep"}, conn.Scopes)
	require.NotNil(t, conn.ExpiresAt)
	assert.True(t, conn.ExpiresAt.After(time.Now().Add(7*time.Hour)))

	assert.Equal(t, "the-verifier", form.Get("code_verifier"), "PKCE verifier must reach the token endpoint")
	assert.Equal(t, "the-code", form.Get("code"))

	stored, err := conns.GetByUserAndProvider(context.Background(), 42, wearable.ProviderFitbit)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "new-access", stored.AccessToken)
}

func TestTokenService_Exchange_StateIsConsumeOnce(t *testing.T) {
	srv, _ := newTokenServer(t, tokenResponse{AccessToken: "a", TokenType: "Bearer"}, http.StatusOK)
	cfg := testConfig(wearable.ProviderPolar, srv.URL, false)
	states := newMemStates()
	svc := NewTokenService(&fakeConfigSource{cfg: cfg}, states, newMemConnections(), nopConnCache{}, newNopLogger())
	ctx := context.Background()

	require.NoError(t, states.Set(ctx, "s1", cache.OAuthState{UserID: 1, Provider: wearable.ProviderPolar}))

	_, err := svc.Exchange(ctx, wearable.ProviderPolar, "s1", "code")
	require.NoError(t, err)

	_, err = svc.Exchange(ctx, wearable.ProviderPolar, "s1", "code")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidOAuthState))
}

func TestTokenService_Exchange_ProviderMismatch(t *testing.T) {
	srv, _ := newTokenServer(t, tokenResponse{AccessToken: "a", TokenType: "Bearer"}, http.StatusOK)
	cfg := testConfig(wearable.ProviderPolar, srv.URL, false)
	states := newMemStates()
	svc := NewTokenService(&fakeConfigSource{cfg: cfg}, states, newMemConnections(), nopConnCache{}, newNopLogger())
	ctx := context.Background()

	require.NoError(t, states.Set(ctx, "s1", cache.OAuthState{UserID: 1, Provider: wearable.ProviderFitbit}))

	_, err := svc.Exchange(ctx, wearable.ProviderPolar, "s1", "code")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidOAuthState))
}

func TestTokenService_Exchange_MergesExistingConnection(t *testing.T) {
	// Provider omits the refresh token on re-link; the stored one survives.
	srv, _ := newTokenServer(t, tokenResponse{
		AccessToken: "second-access",
		TokenType:   "Bearer",
		ExpiresIn:   3600,
	}, http.StatusOK)

	cfg := testConfig(wearable.ProviderPolar, srv.URL, false)
	states := newMemStates()
	conns := newMemConnections()
	ctx := context.Background()

	existing := &wearable.Connection{
		UserID:       1,
		Provider:     wearable.ProviderPolar,
		AccessToken:  "first-access",
		RefreshToken: "first-refresh",
	}
	require.NoError(t, conns.Upsert(ctx, existing))

	svc := NewTokenService(&fakeConfigSource{cfg: cfg}, states, conns, nopConnCache{}, newNopLogger())
	require.NoError(t, states.Set(ctx, "s1", cache.OAuthState{UserID: 1, Provider: wearable.ProviderPolar}))

	conn, err := svc.Exchange(ctx, wearable.ProviderPolar, "s1", "code")
	require.NoError(t, err)
	assert.Equal(t, "second-access", conn.AccessToken)
	assert.Equal(t, "first-refresh", conn.RefreshToken)
}

func TestTokenService_Refresh_UpdatesTokens(t *testing.T) {
	srv, form := newTokenServer(t, tokenResponse{
		AccessToken:  "refreshed-access",
		RefreshToken: "rotated-refresh",
		TokenType:    "Bearer",
		ExpiresIn:    28800,
	}, http.StatusOK)

	cfg := testConfig(wearable.ProviderFitbit, srv.URL, true)
	conns := newMemConnections()
	svc := NewTokenService(&fakeConfigSource{cfg: cfg}, newMemStates(), conns, nopConnCache{}, newNopLogger())

	past := time.Now().Add(-time.Hour).UTC()
	conn := &wearable.Connection{
		UserID:       42,
		Provider:     wearable.ProviderFitbit,
		AccessToken:  "stale-access",
		RefreshToken: "old-refresh",
		ExpiresAt:    &past,
	}

	require.NoError(t, svc.Refresh(context.Background(), conn))

	assert.Equal(t, "refreshed-access", conn.AccessToken)
	assert.Equal(t, "rotated-refresh", conn.RefreshToken)
	require.NotNil(t, conn.ExpiresAt)
	assert.True(t, conn.ExpiresAt.After(time.Now()))

	assert.Equal(t, "refresh_token", form.Get("grant_type"))
	assert.Equal(t, "old-refresh", form.Get("refresh_token"))

	stored, err := conns.GetByUserAndProvider(context.Background(), 42, wearable.ProviderFitbit)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "refreshed-access", stored.AccessToken)
}

func TestTokenService_Refresh_NoRefreshToken(t *testing.T) {
	cfg := testConfig(wearable.ProviderWhoop, "https://provider.example/token", false)
	svc := NewTokenService(&fakeConfigSource{cfg: cfg}, newMemStates(), newMemConnections(), nopConnCache{}, newNopLogger())

	conn := &wearable.Connection{UserID: 1, Provider: wearable.ProviderWhoop, AccessToken: "a"}

	err := svc.Refresh(context.Background(), conn)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNoRefreshToken))
}

func TestTokenService_Refresh_RejectionLeavesConnectionUntouched(t *testing.T) {
	srv, _ := newTokenServer(t, tokenResponse{}, http.StatusBadRequest)
	cfg := testConfig(wearable.ProviderFitbit, srv.URL, true)
	conns := newMemConnections()
	svc := NewTokenService(&fakeConfigSource{cfg: cfg}, newMemStates(), conns, nopConnCache{}, newNopLogger())

	conn := &wearable.Connection{
		UserID:       42,
		Provider:     wearable.ProviderFitbit,
		AccessToken:  "stale-access",
		RefreshToken: "revoked-refresh",
	}

	err := svc.Refresh(context.Background(), conn)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeReconnectRequired))
	assert.Equal(t, "stale-access", conn.AccessToken)
	assert.Equal(t, "revoked-refresh", conn.RefreshToken)
}

func TestTokenService_EnsureFresh_SkipsValidToken(t *testing.T) {
	// No token server: a refresh attempt would fail loudly.
	cfg := testConfig(wearable.ProviderFitbit, "http://127.0.0.1:0", true)
	svc := NewTokenService(&fakeConfigSource{cfg: cfg}, newMemStates(), newMemConnections(), nopConnCache{}, newNopLogger())

	future := time.Now().Add(time.Hour).UTC()
	conn := &wearable.Connection{
		UserID:       1,
		Provider:     wearable.ProviderFitbit,
		AccessToken:  "valid",
		RefreshToken: "r",
		ExpiresAt:    &future,
	}

	require.NoError(t, svc.EnsureFresh(context.Background(), conn))
	assert.Equal(t, "valid", conn.AccessToken)
}

func TestGrantFromToken(t *testing.T) {
	expiry := time.Now().Add(8 * time.Hour)
	token := (&oauth2.Token{
		AccessToken:  "a",
		RefreshToken: "r",
		Expiry:       expiry,
	}).WithExtra(map[string]interface{}{
		"user_id": "FITBIT123",
		"scope":   "activity heartrate sleep",
	})

	grant := grantFromToken(token)
	assert.Equal(t, "a", grant.AccessToken)
	assert.Equal(t, "r", grant.RefreshToken)
	assert.Equal(t, "FITBIT123", grant.ExternalUserID)
	assert.Equal(t, []string{"activity", "heartrate", "sleep"}, grant.Scopes)
	assert.True(t, expiry.UTC().Equal(grant.ExpiresAt))

	noExpiry := grantFromToken(&oauth2.Token{AccessToken: "a"})
	assert.True(t, noExpiry.ExpiresAt.IsZero())
}
