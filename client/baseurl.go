package client

import (
	"os"
	"strings"
)

const (
	// EnvBaseURL names the environment variable holding the API address.
	EnvBaseURL     = "TASKBOARD_API_URL"
	DefaultBaseURL = "http://localhost:8000"
)

// ResolveBaseURL returns raw with a scheme. Addresses without one get
// https; scheme-relative addresses ("//host") only get the "https:" prefix.
func ResolveBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultBaseURL
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	return "https://" + raw
}

func BaseURLFromEnv() string {
	return ResolveBaseURL(os.Getenv(EnvBaseURL))
}
