package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/alstrack/alstrack/internal/platform/session"
)

// SessionLoader is the part of session.Manager the gate uses.
type SessionLoader interface {
	Load(c echo.Context) (*session.Session, error)
	Destroy(c echo.Context) error
}

// Gate resolves the session cookie into an Identity on the request context.
// Requests without a valid logged-in session continue anonymously; routes
// that need a user are wrapped in RequireLogin.
func Gate(sessions SessionLoader, users IdentityResolver, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if AuthSkipper(c) {
				return next(c)
			}

			s, err := sessions.Load(c)
			if err != nil {
				return err
			}
			if !s.Authenticated() {
				return next(c)
			}

			ctx := c.Request().Context()
			id, err := users.ResolveIdentity(ctx, *s.UserID)
			if err != nil {
				return err
			}
			if id == nil {
				logger.Info().
					Str("user_id", s.UserID.String()).
					Msg("session names a deleted user; ending it")
				if err := sessions.Destroy(c); err != nil {
					return err
				}
				return next(c)
			}

			c.Set("user_id", id.UserID.String())
			c.SetRequest(c.Request().WithContext(WithIdentity(ctx, id)))
			return next(c)
		}
	}
}
