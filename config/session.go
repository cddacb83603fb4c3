package config

import (
	"fmt"
	"strings"
)

// SessionBackend selects where the persisted session credential lives.
type SessionBackend string

const (
	// SessionBackendFile stores the session as a JSON file in the user
	// config directory. This is the default for single-user machines.
	SessionBackendFile SessionBackend = "file"
	// SessionBackendRedis stores the session in Redis, for shared
	// workstation setups where several shells reuse one login.
	SessionBackendRedis SessionBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionBackend.
func (b *SessionBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch SessionBackend(v) {
	case SessionBackendFile, SessionBackendRedis:
		*b = SessionBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionBackend: %q (valid options: file, redis)", v)
	}
}

// SessionConfig controls durable session storage.
type SessionConfig struct {
	// Backend selects the session store implementation.
	Backend SessionBackend `env:"SESSION_BACKEND" envDefault:"file"`

	// File overrides the session file path (file backend only).
	// Empty means <user config dir>/atelier/session.json.
	File string `env:"SESSION_FILE" envDefault:""`

	// Redis connection settings (redis backend only).
	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0"`
}
