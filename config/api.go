package config

import (
	"strings"
	"time"
)

// APIConfig contains the connection settings for the remote
// style-transfer service.
type APIConfig struct {
	// BaseURL is the root of the service API, including any path
	// prefix (e.g. "https://transfer.example.com/api").
	BaseURL string `env:"API_URL" envDefault:"http://localhost:8000/api"`

	// Timeout bounds a single request/response round trip.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to API configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.Timeout <= 0 {
		a.Timeout = 30 * time.Second
	}
}
