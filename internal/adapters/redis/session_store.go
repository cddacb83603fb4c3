package redis

// Package redis provides the Redis-backed session store, used when
// several shells on a shared workstation reuse one login.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/artmixer/atelier/internal/session"
)

// DefaultKey is the Redis key the session lives under unless a custom
// one is configured.
const DefaultKey = "atelier:session"

// SessionStore persists the single client session in Redis. Entries
// have no TTL: the credential does not expire and only logout
// removes it.
type SessionStore struct {
	client redis.UniversalClient
	key    string
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client, key: DefaultKey}
}

// NewSessionStoreWithKey creates a Redis session store under a custom key.
func NewSessionStoreWithKey(client redis.UniversalClient, key string) *SessionStore {
	return &SessionStore{client: client, key: key}
}

func (s *SessionStore) Load(ctx context.Context) (session.Session, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess session.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return session.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}
	if sess.Token == "" {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess session.Session) error {
	if sess.Token == "" {
		return errors.New("session token cannot be empty")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, s.key, data, 0).Err()
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
