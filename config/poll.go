package config

import "time"

// PollConfig controls the transfer job status polling loop.
type PollConfig struct {
	// Interval is the wall-clock cadence of status checks. A new check
	// fires every tick regardless of whether the previous response has
	// arrived.
	Interval time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
}

// Sanitize applies guardrails to polling configuration values.
func (p *PollConfig) Sanitize() {
	// Sub-second polling hammers the service for no benefit.
	if p.Interval < time.Second {
		p.Interval = time.Second
	}
}
