// Package wearable holds the domain model for third-party wearable
// integrations: provider identities, per-user connections, normalized daily
// metrics and the derived recovery/training-load scores.
package wearable

import "github.com/vitalink-io/vitalink/internal/shared/errors"

// Provider identifies a supported wearable platform.
type Provider string

const (
	ProviderFitbit Provider = "fitbit"
	ProviderPolar  Provider = "polar"
	ProviderGarmin Provider = "garmin"
	ProviderOura   Provider = "oura"
	ProviderWhoop  Provider = "whoop"
)

// AllProviders lists every provider the platform knows about, implemented
// or not.
func AllProviders() []Provider {
	return []Provider{ProviderFitbit, ProviderPolar, ProviderGarmin, ProviderOura, ProviderWhoop}
}

// ParseProvider validates a provider name from user input.
func ParseProvider(name string) (Provider, error) {
	switch Provider(name) {
	case ProviderFitbit, ProviderPolar, ProviderGarmin, ProviderOura, ProviderWhoop:
		return Provider(name), nil
	}
	return "", errors.NewUnsupportedProviderError(name)
}

func (p Provider) String() string {
	return string(p)
}
