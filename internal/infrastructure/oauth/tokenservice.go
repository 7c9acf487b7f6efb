package oauth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/shared/biztime"
	"github.com/vitalink-io/vitalink/internal/shared/errors"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
	"github.com/vitalink-io/vitalink/internal/shared/utils"
)

// ConnectionCache is the read-through cache in front of the connection
// repository. All methods are best-effort.
type ConnectionCache interface {
	Get(ctx context.Context, userID uint, provider wearable.Provider) *wearable.Connection
	Set(ctx context.Context, conn *wearable.Connection)
	Invalidate(ctx context.Context, userID uint, provider wearable.Provider)
}

// TokenService exchanges callback codes for tokens and refreshes stored
// tokens, persisting the resulting connection state.
type TokenService struct {
	registry    ConfigSource
	states      StateStore
	connections wearable.ConnectionRepository
	cache       ConnectionCache
	logger      logger.Interface
}

func NewTokenService(
	registry ConfigSource,
	states StateStore,
	connections wearable.ConnectionRepository,
	connCache ConnectionCache,
	log logger.Interface,
) *TokenService {
	return &TokenService{
		registry:    registry,
		states:      states,
		connections: connections,
		cache:       connCache,
		logger:      log.Named("oauth-tokens"),
	}
}

// Exchange completes the callback leg: it consumes the CSRF state, trades
// the authorization code for tokens, and upserts the user's connection.
// The state is validated before any provider call is made.
func (s *TokenService) Exchange(ctx context.Context, provider wearable.Provider, state, code string) (*wearable.Connection, error) {
	cfg, err := s.registry.Get(provider)
	if err != nil {
		return nil, err
	}

	stateData, err := s.states.Consume(ctx, state)
	if err != nil {
		s.logger.Warnw("state validation failed", "provider", provider.String(), "error", err)
		return nil, err
	}
	if stateData.Provider != provider {
		return nil, errors.NewInvalidOAuthStateError("state was issued for a different provider")
	}

	var opts []oauth2.AuthCodeOption
	if cfg.UsesPKCE {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", stateData.CodeVerifier))
	}

	token, err := cfg.OAuth2().Exchange(ctx, code, opts...)
	if err != nil {
		s.logger.Errorw("code exchange failed", "provider", provider.String(), "error", err)
		return nil, errors.NewProviderUnavailableError(provider.String(), "token exchange failed")
	}

	grant := grantFromToken(token)
	now := biztime.NowUTC()

	conn, err := s.connections.GetByUserAndProvider(ctx, stateData.UserID, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}
	if conn == nil {
		conn = wearable.NewConnection(stateData.UserID, provider, grant, now)
	} else {
		conn.ApplyGrant(grant, now)
	}

	if err := s.connections.Upsert(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to persist connection: %w", err)
	}
	s.cache.Set(ctx, conn)

	s.logger.Infow("connection established",
		"provider", provider.String(),
		"user_id", conn.UserID,
		"external_user_id", conn.ExternalUserID,
		"access_token", utils.MaskToken(conn.AccessToken),
	)

	return conn, nil
}

// Refresh trades the stored refresh token for a fresh access token. On
// provider rejection the stored connection is left untouched and the caller
// gets a reconnect_required error.
func (s *TokenService) Refresh(ctx context.Context, conn *wearable.Connection) error {
	cfg, err := s.registry.Get(conn.Provider)
	if err != nil {
		return err
	}

	if conn.RefreshToken == "" {
		return errors.NewNoRefreshTokenError(conn.Provider.String())
	}

	src := cfg.OAuth2().TokenSource(ctx, &oauth2.Token{RefreshToken: conn.RefreshToken})
	token, err := src.Token()
	if err != nil {
		s.logger.Warnw("token refresh rejected",
			"provider", conn.Provider.String(),
			"user_id", conn.UserID,
			"error", err,
		)
		return errors.NewReconnectRequiredError(conn.Provider.String())
	}

	conn.ApplyGrant(grantFromToken(token), biztime.NowUTC())

	if err := s.connections.Upsert(ctx, conn); err != nil {
		return fmt.Errorf("failed to persist refreshed connection: %w", err)
	}
	s.cache.Set(ctx, conn)

	s.logger.Infow("token refreshed",
		"provider", conn.Provider.String(),
		"user_id", conn.UserID,
		"expires_at", conn.ExpiresAt,
	)

	return nil
}

// EnsureFresh refreshes the connection only when its access token has
// expired.
func (s *TokenService) EnsureFresh(ctx context.Context, conn *wearable.Connection) error {
	if !conn.TokenExpired(biztime.NowUTC()) {
		return nil
	}
	return s.Refresh(ctx, conn)
}

// grantFromToken normalizes an oauth2 token response. Fitbit returns the
// platform user id and granted scopes as extra fields.
func grantFromToken(token *oauth2.Token) wearable.TokenGrant {
	grant := wearable.TokenGrant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		grant.ExpiresAt = token.Expiry.UTC()
	}
	if id, ok := token.Extra("user_id").(string); ok {
		grant.ExternalUserID = id
	}
	if scope, ok := token.Extra("scope").(string); ok && scope != "" {
		grant.Scopes = strings.Fields(scope)
	}
	return grant
}
