package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths bypass the session gate entirely.
var publicPaths = map[string]bool{
	"/health":    true,
	"/health/db": true,
}

// AuthSkipper reports whether the gate should not look at this request's
// session: health checks and static assets.
func AuthSkipper(c echo.Context) bool {
	return IsPublicPath(c.Request().URL.Path)
}

func IsPublicPath(path string) bool {
	return publicPaths[path] || strings.HasPrefix(path, "/static/")
}
