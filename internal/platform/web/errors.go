package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/alstrack/alstrack/internal/platform/middleware"
	"github.com/alstrack/alstrack/internal/platform/web/views"
)

// ErrorHandler renders every unhandled error as an HTML page. Only the
// status text reaches the client; server errors are logged with the request
// id.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		if code >= http.StatusInternalServerError {
			logger.Error().
				Err(err).
				Str("request_id", middleware.GetRequestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", code).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}

		tpl := views.ErrorTemplate
		if code == http.StatusNotFound {
			tpl = views.NotFoundTemplate
		}
		params := views.ErrorParams{
			Page:    NewPage(c),
			Status:  code,
			Message: http.StatusText(code),
		}
		if err := Render(c, code, tpl, params); err != nil {
			logger.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("render error page")
			_ = c.String(code, http.StatusText(code))
		}
	}
}
