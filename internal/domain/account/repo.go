package account

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	// Create inserts u. The repository decides u.IsAdmin: the first user
	// stored while no administrator exists becomes one, atomically.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// SetAdmin makes id the only administrator.
	SetAdmin(ctx context.Context, id uuid.UUID) error
}
