package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. All variables carry the ATELIER_
// prefix except DEV/NODE_ENV. See individual domain config files for
// details:
//   - api.go: remote service connection
//   - poll.go: job status polling
//   - session.go: durable session storage
type AppConfig struct {
	// IsDev controls development mode behavior (debug logging).
	// Set DEV=true for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// API is the remote style-transfer service connection.
	API APIConfig `envPrefix:"ATELIER_"`

	// Poll controls the job status polling loop.
	Poll PollConfig `envPrefix:"ATELIER_"`

	// Session controls durable session storage.
	Session SessionConfig `envPrefix:"ATELIER_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.API.Sanitize()
	c.Poll.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
