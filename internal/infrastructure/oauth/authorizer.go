// Package oauth implements the authorization-code flow against wearable
// platforms: building consent URLs with CSRF state and optional PKCE,
// exchanging callback codes for tokens, and refreshing expired tokens.
package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	"github.com/vitalink-io/vitalink/internal/infrastructure/cache"
	"github.com/vitalink-io/vitalink/internal/infrastructure/providers"
	"github.com/vitalink-io/vitalink/internal/shared/biztime"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// StateStore holds pending authorization state between the consent redirect
// and the provider callback. Consume removes the entry so a state value can
// only succeed once.
type StateStore interface {
	Set(ctx context.Context, state string, data cache.OAuthState) error
	Consume(ctx context.Context, state string) (*cache.OAuthState, error)
}

// ConfigSource resolves a provider to its deployed configuration. The
// provider registry is the production implementation.
type ConfigSource interface {
	Get(provider wearable.Provider) (*providers.Config, error)
}

// Authorizer starts the consent flow for a configured provider.
type Authorizer struct {
	registry ConfigSource
	states   StateStore
	logger   logger.Interface
}

func NewAuthorizer(registry ConfigSource, states StateStore, log logger.Interface) *Authorizer {
	return &Authorizer{
		registry: registry,
		states:   states,
		logger:   log.Named("oauth-authorizer"),
	}
}

// AuthorizationURL builds the provider consent URL for the user. The CSRF
// state (and, for PKCE providers, the code verifier) is stored before the
// URL is returned, so the callback can always find it.
func (a *Authorizer) AuthorizationURL(ctx context.Context, userID uint, provider wearable.Provider) (string, error) {
	cfg, err := a.registry.Get(provider)
	if err != nil {
		return "", err
	}

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	data := cache.OAuthState{
		UserID:    userID,
		Provider:  provider,
		CreatedAt: biztime.NowUTC(),
	}

	var opts []oauth2.AuthCodeOption
	if cfg.UsesPKCE {
		codeVerifier, codeChallenge, err := generatePKCEParams()
		if err != nil {
			return "", fmt.Errorf("failed to generate PKCE parameters: %w", err)
		}
		data.CodeVerifier = codeVerifier
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", codeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
	}

	if err := a.states.Set(ctx, state, data); err != nil {
		return "", fmt.Errorf("failed to store authorization state: %w", err)
	}

	a.logger.Infow("authorization started",
		"provider", provider.String(),
		"user_id", userID,
		"pkce", cfg.UsesPKCE,
	)

	return cfg.OAuth2().AuthCodeURL(state, opts...), nil
}
