// Package session keeps server-side login sessions and one-shot flash
// messages. The browser holds only a signed token naming the session.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record behind the als_session cookie. UserID is
// nil for anonymous sessions that exist only to carry flash messages.
type Session struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Flashes   map[string][]string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != nil
}

// Store persists sessions. Get returns (nil, nil) for a missing or expired
// session.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	Cleanup(ctx context.Context) (int64, error)
}
