package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets response headers for server-rendered pages that show
// patient data. Pages load styles and scripts only from /static and forms
// may only post back to this origin.
func SecurityHeaders(hsts bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "0")
			h.Set("Content-Security-Policy",
				"default-src 'self'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'; base-uri 'self'")
			if hsts {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			h.Set("Referrer-Policy", "same-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			// Pages carry patient records; never let a shared cache keep them.
			h.Set("Cache-Control", "no-store")

			return next(c)
		}
	}
}
