// Package testutil provides shared test helpers: a fake style-transfer
// backend and Redis availability plumbing for the optional session
// store tests.
package testutil

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// TestingTB is an interface that covers both *testing.T and *testing.B.
type TestingTB interface {
	Helper()
	Skip(args ...interface{})
	Skipf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Logf(format string, args ...interface{})
	Cleanup(func())
}

// GetTestRedisAddr returns an address of a reachable Redis, trying the
// CI-provided REDIS_ADDR first and falling back to localhost.
func GetTestRedisAddr(t TestingTB) (string, bool) {
	t.Helper()

	candidates := []string{os.Getenv("REDIS_ADDR"), "localhost:6379"}
	for _, addr := range candidates {
		if addr == "" {
			continue
		}
		if ok := pingRedis(addr); ok {
			return addr, true
		}
	}
	return "", false
}

func pingRedis(addr string) bool {
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close() //nolint:errcheck // best-effort close of probe client

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

// SetupTestRedis creates a Redis client for testing. Tests are skipped
// if Redis is not available, unless TEST_REQUIRE_REDIS=true makes the
// absence fatal (CI).
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr, ok := GetTestRedisAddr(t)
	if !ok {
		if os.Getenv("TEST_REQUIRE_REDIS") == "true" {
			t.Fatal("Redis not available for testing")
		}
		t.Skip("Redis not available for testing")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("warning: close redis client: %v", err)
		}
	})
	return client
}
