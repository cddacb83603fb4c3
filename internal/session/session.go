// Package session owns the client's single persisted session: the
// bearer credential and the identity it proves. It is a leaf package;
// everything that issues authenticated calls depends on it.
package session

import (
	"context"

	"github.com/artmixer/atelier/internal/domain"
)

// Session is the durable record written after a successful login and
// cleared on logout. It outlives a single process run.
type Session struct {
	Token    string          `json:"token"`
	Identity domain.Identity `json:"identity"`
}

// Store persists the session across process restarts. Exactly one
// session exists per client instance; Save replaces any previous one.
type Store interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, sess Session) error
	Clear(ctx context.Context) error
}

// ErrNotFound is returned by Load when no session is persisted.
type notFoundError struct{}

func (notFoundError) Error() string { return "session not found" }

var ErrNotFound error = notFoundError{}
