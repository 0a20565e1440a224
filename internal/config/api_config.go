package config

import (
	"strings"
	"time"
)

type API struct{}

var _ APIConfig = API{}

// GetBaseURL returns the admin API root (e.g. "http://localhost:5017/api").
// Every endpoint path is resolved relative to it.
func (API) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, "http://localhost:5017/api"), "/")
}

func (API) GetRefreshPath() string {
	return GetEnv("REFRESH_PATH", "/auth/refresh-token")
}

func (API) GetHTTPTimeout() time.Duration {
	return GetEnvDuration("HTTP_TIMEOUT", 30*time.Second)
}
