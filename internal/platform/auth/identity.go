package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the logged-in user as seen by handlers. It is rebuilt from the
// user record on every request so a changed admin flag takes effect at once.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Name     string
	IsAdmin  bool
}

// IdentityResolver loads the current state of a user. It returns (nil, nil)
// when the user no longer exists.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID uuid.UUID) (*Identity, error)
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// Current returns the identity attached to the request by Gate.
func Current(c echo.Context) *Identity {
	return IdentityFromContext(c.Request().Context())
}
