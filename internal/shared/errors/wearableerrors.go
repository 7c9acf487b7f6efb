package errors

import (
	"fmt"
	"net/http"
)

// Wearable integration error types. Each maps to the HTTP status the sync
// and OAuth endpoints report for it.
const (
	ErrorTypeUnsupportedProvider    ErrorType = "unsupported_provider"
	ErrorTypeProviderNotConfigured  ErrorType = "provider_not_configured"
	ErrorTypeProviderNotImplemented ErrorType = "provider_not_implemented"
	ErrorTypeInvalidOAuthState      ErrorType = "invalid_oauth_state"
	ErrorTypeNoRefreshToken         ErrorType = "no_refresh_token"
	ErrorTypeReconnectRequired      ErrorType = "reconnect_required"
	ErrorTypeRateLimited            ErrorType = "rate_limited"
	ErrorTypeProviderUnavailable    ErrorType = "provider_unavailable"
	ErrorTypeNotConnected           ErrorType = "not_connected"
	ErrorTypeSyncCancelled          ErrorType = "sync_cancelled"
)

// NewUnsupportedProviderError is returned when the provider name is not one
// the platform knows about at all.
func NewUnsupportedProviderError(provider string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnsupportedProvider,
		Message: fmt.Sprintf("unsupported provider: %s", provider),
		Code:    http.StatusBadRequest,
	}
}

// NewProviderNotConfiguredError is returned when a known provider has no
// client credentials deployed. This is a deployment state, not a bug.
func NewProviderNotConfiguredError(provider string) *AppError {
	return &AppError{
		Type:    ErrorTypeProviderNotConfigured,
		Message: fmt.Sprintf("provider %s is not configured", provider),
		Code:    http.StatusNotImplemented,
		Details: "client credentials are missing for this provider",
	}
}

// NewProviderNotImplementedError is returned by adapters that exist in the
// registry but have no data-fetch implementation yet.
func NewProviderNotImplementedError(provider string) *AppError {
	return &AppError{
		Type:    ErrorTypeProviderNotImplemented,
		Message: fmt.Sprintf("provider %s is not implemented yet", provider),
		Code:    http.StatusNotImplemented,
	}
}

// NewInvalidOAuthStateError is returned when the CSRF state is missing,
// expired or already consumed. The callback handler turns this into a
// frontend redirect with error=invalid_state.
func NewInvalidOAuthStateError(details ...string) *AppError {
	return newAppError(ErrorTypeInvalidOAuthState,
		"invalid or expired state parameter", http.StatusBadRequest, details...)
}

// NewNoRefreshTokenError is returned when a refresh is requested but the
// stored connection has no refresh token.
func NewNoRefreshTokenError(provider string) *AppError {
	return &AppError{
		Type:    ErrorTypeNoRefreshToken,
		Message: fmt.Sprintf("no refresh token stored for %s", provider),
		Code:    http.StatusUnauthorized,
		Details: "Token expired. Please reconnect.",
	}
}

// NewReconnectRequiredError is returned on refresh failure or a provider 401:
// the stored credentials are no longer usable and the user must re-authorize.
func NewReconnectRequiredError(provider string, details ...string) *AppError {
	detail := "Token expired. Please reconnect."
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    ErrorTypeReconnectRequired,
		Message: "Token expired. Please reconnect.",
		Code:    http.StatusUnauthorized,
		Details: detail,
	}
}

// NewRateLimitedError is returned when the internal per-(provider,user)
// quota denies a sync. Distinct from a provider-side 429, which surfaces as
// provider_unavailable.
func NewRateLimitedError(provider string) *AppError {
	return &AppError{
		Type:    ErrorTypeRateLimited,
		Message: fmt.Sprintf("rate limit exceeded for %s", provider),
		Code:    http.StatusTooManyRequests,
		Details: "try again after the current window resets",
	}
}

// NewProviderUnavailableError is returned when the provider kept failing
// after retries were exhausted (5xx, timeouts) or replied 429 itself.
func NewProviderUnavailableError(provider string, details ...string) *AppError {
	return newAppError(ErrorTypeProviderUnavailable,
		fmt.Sprintf("provider %s is unavailable", provider),
		http.StatusInternalServerError, details...)
}

// NewNotConnectedError is returned when no connection exists for the
// (user, provider) pair.
func NewNotConnectedError(provider string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotConnected,
		Message: fmt.Sprintf("no %s connection for this user", provider),
		Code:    http.StatusNotFound,
		Details: "connect the provider before syncing",
	}
}

// NewSyncCancelledError is returned when the caller's context was cancelled
// mid-sync. No partial record is persisted for the cancelled day.
func NewSyncCancelledError(provider string) *AppError {
	return &AppError{
		Type:    ErrorTypeSyncCancelled,
		Message: fmt.Sprintf("sync for %s was cancelled", provider),
		Code:    http.StatusRequestTimeout,
	}
}
