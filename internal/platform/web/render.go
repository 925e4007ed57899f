// Package web glues the HTML views to echo: page context, rendering, CSRF
// and the application's error pages.
package web

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/labstack/echo/v4"

	"github.com/alstrack/alstrack/internal/platform/auth"
	"github.com/alstrack/alstrack/internal/platform/web/views"
)

// Flash keys.
const (
	FlashError = "error"
	FlashInfo  = "info"
)

// Flasher pops one-shot messages from the visitor's session.
type Flasher interface {
	PopFlash(c echo.Context, key string) ([]string, error)
}

// FlashStore also queues messages for the next page.
type FlashStore interface {
	Flasher
	AddFlash(c echo.Context, key, msg string) error
}

// NewPage fills the layout fields from the request: the logged-in user and
// the CSRF token.
func NewPage(c echo.Context) views.Page {
	var p views.Page
	if id := auth.Current(c); id != nil {
		p.User = &views.User{Username: id.Username, Name: id.Name, IsAdmin: id.IsAdmin}
	}
	if tok, ok := c.Get(CSRFContextKey).(string); ok {
		p.CSRF = tok
	}
	return p
}

// PageWithFlashes is NewPage plus any pending flash messages, which are
// consumed.
func PageWithFlashes(c echo.Context, f Flasher) (views.Page, error) {
	p := NewPage(c)

	errs, err := f.PopFlash(c, FlashError)
	if err != nil {
		return p, err
	}
	info, err := f.PopFlash(c, FlashInfo)
	if err != nil {
		return p, err
	}
	p.Errors = append(p.Errors, errs...)
	p.Info = append(p.Info, info...)
	return p, nil
}

// Render executes tpl into a buffer first so a template failure never
// produces a half-written page.
func Render(c echo.Context, status int, tpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return c.HTMLBlob(status, buf.Bytes())
}
