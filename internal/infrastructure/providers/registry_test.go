package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	sharedConfig "github.com/vitalink-io/vitalink/internal/shared/config"
	apperrors "github.com/vitalink-io/vitalink/internal/shared/errors"
)

func TestRegistry_ConfiguredProviderResolves(t *testing.T) {
	registry := NewRegistry(&sharedConfig.WearablesConfig{
		Fitbit: sharedConfig.ProviderCredentials{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURL:  "https://app.example.com/callback/fitbit",
		},
	})

	cfg, err := registry.Get(wearable.ProviderFitbit)
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.ClientID)
	assert.True(t, cfg.UsesPKCE, "fitbit requires PKCE")
	assert.Equal(t, 2, cfg.SyncDays, "default window is today and yesterday")
	assert.Equal(t, 150, cfg.Quota.Requests)
	assert.Equal(t, time.Hour, cfg.Quota.Window)
	assert.NotEmpty(t, cfg.OAuth2().Endpoint.AuthURL)
}

func TestRegistry_MissingCredentialsIsNotConfigured(t *testing.T) {
	registry := NewRegistry(&sharedConfig.WearablesConfig{
		Fitbit: sharedConfig.ProviderCredentials{ClientID: "id"}, // secret missing
	})

	_, err := registry.Get(wearable.ProviderFitbit)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProviderNotConfigured))
	assert.False(t, registry.IsConfigured(wearable.ProviderFitbit))
	assert.False(t, registry.IsConfigured(wearable.ProviderWhoop))
}

func TestRegistry_SyncDaysOverride(t *testing.T) {
	registry := NewRegistry(&sharedConfig.WearablesConfig{
		Polar: sharedConfig.ProviderCredentials{
			ClientID: "id", ClientSecret: "secret",
		},
		SyncDays: 5,
	})

	cfg, err := registry.Get(wearable.ProviderPolar)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.SyncDays)
	assert.False(t, cfg.UsesPKCE)
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"PT1H30M", 90 * time.Minute},
		{"PT2300S", 2300 * time.Second},
		{"PT45M", 45 * time.Minute},
		{"", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseISODuration(tt.in))
		})
	}
}
