package web

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/alstrack/alstrack/internal/platform/auth"
)

const (
	CSRFContextKey = "csrf"
	CSRFField      = "_csrf"
	CSRFCookie     = "_csrf"
)

// CSRF checks the _csrf form field on every unsafe request against the
// double-submit cookie. Health checks and static assets are exempt.
func CSRF(secure bool) echo.MiddlewareFunc {
	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		Skipper:        auth.AuthSkipper,
		TokenLookup:    "form:" + CSRFField,
		ContextKey:     CSRFContextKey,
		CookieName:     CSRFCookie,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteLaxMode,
	})
}
