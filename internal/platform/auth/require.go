package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireLogin sends anonymous visitors to loginPath with a 302.
func RequireLogin(loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Current(c) == nil {
				return c.Redirect(http.StatusFound, loginPath)
			}
			return next(c)
		}
	}
}
