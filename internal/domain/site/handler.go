// Package site serves the pages that have no backing record: the landing
// page, the password-reset form and the post-action confirmations.
package site

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alstrack/alstrack/internal/platform/auth"
	"github.com/alstrack/alstrack/internal/platform/web"
	"github.com/alstrack/alstrack/internal/platform/web/views"
)

type Handler struct {
	flashes web.Flasher
}

func NewHandler(flashes web.Flasher) *Handler {
	return &Handler{flashes: flashes}
}

func (h *Handler) RegisterRoutes(public, protected *echo.Group) {
	public.GET("/", h.Landing)
	public.GET("/pass-reset", h.PassReset)
	public.GET("/delete", h.Deleted)

	protected.GET("/main", h.Main)
	protected.GET("/next-pat", h.NextPatient)
}

func (h *Handler) Landing(c echo.Context) error {
	page, err := web.PageWithFlashes(c, h.flashes)
	if err != nil {
		return err
	}
	return web.Render(c, http.StatusOK, views.LandingTemplate, views.LandingParams{Page: page})
}

// PassReset only shows the form; there is no reset backend.
func (h *Handler) PassReset(c echo.Context) error {
	return web.Render(c, http.StatusOK, views.PassResetTemplate, views.PassResetParams{Page: web.NewPage(c)})
}

func (h *Handler) Deleted(c echo.Context) error {
	return web.Render(c, http.StatusOK, views.DeletedTemplate, views.DeletedParams{Page: web.NewPage(c)})
}

func (h *Handler) Main(c echo.Context) error {
	page, err := web.PageWithFlashes(c, h.flashes)
	if err != nil {
		return err
	}
	return web.Render(c, http.StatusOK, views.MainTemplate, views.MainParams{
		Page:     page,
		Username: auth.Current(c).Username,
	})
}

func (h *Handler) NextPatient(c echo.Context) error {
	page, err := web.PageWithFlashes(c, h.flashes)
	if err != nil {
		return err
	}
	return web.Render(c, http.StatusOK, views.NextPatientTemplate, views.NextPatientParams{Page: page})
}
