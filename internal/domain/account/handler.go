package account

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/alstrack/alstrack/internal/platform/auth"
	"github.com/alstrack/alstrack/internal/platform/session"
	"github.com/alstrack/alstrack/internal/platform/web"
	"github.com/alstrack/alstrack/internal/platform/web/views"
)

const invalidLoginMessage = "Invalid username or password."

// Sessions is the part of session.Manager the account pages use.
type Sessions interface {
	web.FlashStore
	Start(c echo.Context, userID uuid.UUID) (*session.Session, error)
	Destroy(c echo.Context) error
	EndAll(c echo.Context, userID uuid.UUID) error
}

type Handler struct {
	svc      *Service
	sessions Sessions
}

func NewHandler(svc *Service, sessions Sessions) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func (h *Handler) RegisterRoutes(public, protected *echo.Group) {
	public.GET("/sign-up", h.SignUpForm)
	public.POST("/sign-up", h.SignUp)
	public.GET("/log-in", h.LogInForm)
	public.POST("/log-in", h.LogIn)

	protected.GET("/logout", h.LogOut)
	protected.GET("/settings", h.Settings)
	protected.POST("/settings", h.DeleteAccount)
}

func (h *Handler) SignUpForm(c echo.Context) error {
	page, err := web.PageWithFlashes(c, h.sessions)
	if err != nil {
		return err
	}
	return web.Render(c, http.StatusOK, views.SignUpTemplate, views.SignUpParams{Page: page})
}

func (h *Handler) SignUp(c echo.Context) error {
	u, err := h.svc.Register(c.Request().Context(), RegisterInput{
		Username: c.FormValue("username"),
		Name:     c.FormValue("fname"),
		Lastname: c.FormValue("lname"),
		Email:    c.FormValue("email"),
		Phone:    c.FormValue("number"),
		Password: c.FormValue("password"),
	})
	switch {
	case errors.Is(err, ErrDuplicateUsername):
		return h.backToSignUp(c, "That username is already taken.")
	case errors.Is(err, ErrMissingCredentials):
		return h.backToSignUp(c, "Username and password are required.")
	case err != nil:
		return err
	}

	if _, err := h.sessions.Start(c, u.ID); err != nil {
		return err
	}

	page := web.NewPage(c)
	page.User = &views.User{Username: u.Username, Name: u.FullName(), IsAdmin: u.IsAdmin}
	return web.Render(c, http.StatusOK, views.SuccessTemplate, views.SuccessParams{Page: page})
}

func (h *Handler) backToSignUp(c echo.Context, msg string) error {
	if err := h.sessions.AddFlash(c, web.FlashError, msg); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/sign-up")
}

func (h *Handler) LogInForm(c echo.Context) error {
	page, err := web.PageWithFlashes(c, h.sessions)
	if err != nil {
		return err
	}
	return web.Render(c, http.StatusOK, views.LogInTemplate, views.LogInParams{Page: page})
}

func (h *Handler) LogIn(c echo.Context) error {
	username := c.FormValue("username")
	u, err := h.svc.Authenticate(c.Request().Context(), username, c.FormValue("password"))
	if errors.Is(err, ErrInvalidCredentials) {
		return web.Render(c, http.StatusOK, views.LogInTemplate, views.LogInParams{
			Page:      web.NewPage(c),
			Username:  username,
			UserError: invalidLoginMessage,
		})
	}
	if err != nil {
		return err
	}

	if _, err := h.sessions.Start(c, u.ID); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/main")
}

func (h *Handler) LogOut(c echo.Context) error {
	if err := h.sessions.Destroy(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Settings(c echo.Context) error {
	id := auth.Current(c)
	u, err := h.svc.GetByID(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	page, err := web.PageWithFlashes(c, h.sessions)
	if err != nil {
		return err
	}
	return web.Render(c, http.StatusOK, views.SettingsTemplate, views.SettingsParams{
		Page:     page,
		Username: u.Username,
		Email:    u.Email,
		Name:     u.Name,
		Lastname: u.Lastname,
	})
}

// DeleteAccount removes the caller's account and every session it holds.
func (h *Handler) DeleteAccount(c echo.Context) error {
	id := auth.Current(c)
	if err := h.svc.DeleteAccount(c.Request().Context(), id.UserID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := h.sessions.EndAll(c, id.UserID); err != nil {
		return err
	}
	if err := h.sessions.Destroy(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/delete")
}
