// Package providers holds the static wearable-platform catalog (endpoints,
// scopes, rate quotas), the retrying HTTP client used for provider calls,
// and the per-platform adapters that normalize raw API responses.
package providers

import (
	"time"

	"golang.org/x/oauth2"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	sharedConfig "github.com/vitalink-io/vitalink/internal/shared/config"
	"github.com/vitalink-io/vitalink/internal/shared/errors"
)

// RateQuota is the internal fixed-window request budget for one provider.
type RateQuota struct {
	Requests int
	Window   time.Duration
}

// Config is the full static configuration of one configured provider. A
// Config only exists for providers whose client credentials are deployed;
// the registry keeps unconfigured providers out entirely, so holding a
// *Config is proof the provider is usable.
type Config struct {
	Provider     wearable.Provider
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	APIBase      string
	Scopes       []string
	UsesPKCE     bool
	Quota        RateQuota
	SyncDays     int
}

// OAuth2 builds the x/oauth2 client config for this provider.
func (c *Config) OAuth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthURL,
			TokenURL: c.TokenURL,
		},
	}
}

// platformDefaults carries the per-platform constants that never vary by
// deployment: OAuth endpoints, API base, scopes, PKCE requirement, quota.
type platformDefaults struct {
	authURL  string
	tokenURL string
	apiBase  string
	scopes   []string
	usesPKCE bool
	quota    RateQuota
}

var platforms = map[wearable.Provider]platformDefaults{
	wearable.ProviderFitbit: {
		authURL:  "https://www.fitbit.com/oauth2/authorize",
		tokenURL: "https://api.fitbit.com/oauth2/token",
		apiBase:  "https://api.fitbit.com",
		scopes: []string{
			"activity", "heartrate", "sleep",
			"oxygen_saturation", "respiratory_rate", "cardio_fitness",
		},
		// Fitbit requires PKCE for public clients and recommends it for all.
		usesPKCE: true,
		quota:    RateQuota{Requests: 150, Window: time.Hour},
	},
	wearable.ProviderPolar: {
		authURL:  "https://flow.polar.com/oauth2/authorization",
		tokenURL: "https://polarremote.com/v2/oauth2/token",
		apiBase:  "https://www.polaraccesslink.com/v3",
		scopes:   []string{"accesslink.read_all"},
		quota:    RateQuota{Requests: 100, Window: 15 * time.Minute},
	},
	wearable.ProviderGarmin: {
		authURL:  "https://connect.garmin.com/oauth2Confirm",
		tokenURL: "https://diauth.garmin.com/di-oauth2-service/oauth/token",
		apiBase:  "https://apis.garmin.com",
		scopes:   []string{"wellness:read"},
		quota:    RateQuota{Requests: 100, Window: 15 * time.Minute},
	},
	wearable.ProviderOura: {
		authURL:  "https://cloud.ouraring.com/oauth/authorize",
		tokenURL: "https://api.ouraring.com/oauth/token",
		apiBase:  "https://api.ouraring.com/v2",
		scopes:   []string{"daily", "heartrate", "workout"},
		quota:    RateQuota{Requests: 300, Window: 5 * time.Minute},
	},
	wearable.ProviderWhoop: {
		authURL:  "https://api.prod.whoop.com/oauth/oauth2/auth",
		tokenURL: "https://api.prod.whoop.com/oauth/oauth2/token",
		apiBase:  "https://api.prod.whoop.com/developer",
		scopes:   []string{"read:recovery", "read:sleep", "read:workout", "read:cycles"},
		quota:    RateQuota{Requests: 100, Window: time.Minute},
	},
}

const defaultSyncDays = 2

// Registry is the credential store: it resolves provider names to full
// configs, holding entries only for providers with deployed credentials.
type Registry struct {
	configs map[wearable.Provider]*Config
}

// NewRegistry builds the registry from deployment config. Providers without
// credentials are simply absent; that is a valid state, not a load error.
func NewRegistry(cfg *sharedConfig.WearablesConfig) *Registry {
	syncDays := cfg.SyncDays
	if syncDays <= 0 {
		syncDays = defaultSyncDays
	}

	creds := map[wearable.Provider]sharedConfig.ProviderCredentials{
		wearable.ProviderFitbit: cfg.Fitbit,
		wearable.ProviderPolar:  cfg.Polar,
		wearable.ProviderGarmin: cfg.Garmin,
		wearable.ProviderOura:   cfg.Oura,
		wearable.ProviderWhoop:  cfg.Whoop,
	}

	configs := make(map[wearable.Provider]*Config)
	for provider, cred := range creds {
		if !cred.Configured() {
			continue
		}
		defaults := platforms[provider]
		configs[provider] = &Config{
			Provider:     provider,
			ClientID:     cred.ClientID,
			ClientSecret: cred.ClientSecret,
			RedirectURL:  cred.RedirectURL,
			AuthURL:      defaults.authURL,
			TokenURL:     defaults.tokenURL,
			APIBase:      defaults.apiBase,
			Scopes:       defaults.scopes,
			UsesPKCE:     defaults.usesPKCE,
			Quota:        defaults.quota,
			SyncDays:     syncDays,
		}
	}

	return &Registry{configs: configs}
}

// Get resolves a provider to its config, or a provider_not_configured error.
func (r *Registry) Get(provider wearable.Provider) (*Config, error) {
	cfg, ok := r.configs[provider]
	if !ok {
		return nil, errors.NewProviderNotConfiguredError(provider.String())
	}
	return cfg, nil
}

// IsConfigured reports whether credentials are deployed for the provider.
func (r *Registry) IsConfigured(provider wearable.Provider) bool {
	_, ok := r.configs[provider]
	return ok
}
