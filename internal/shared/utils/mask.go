package utils

// MaskToken masks an access or refresh token for safe logging, keeping only
// the first four characters.
// Example: "eyJhbGciOiJIUzI1NiJ9..." -> "eyJh****"
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
