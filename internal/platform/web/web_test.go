package web

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/alstrack/alstrack/internal/platform/auth"
	"github.com/alstrack/alstrack/internal/platform/web/views"
)

func TestErrorHandler_HidesInternalError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ErrorHandler(zerolog.Nop())(errors.New("pq: relation \"patient\" does not exist"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "relation") {
		t.Errorf("raw error leaked into page: %s", body)
	}
	if !strings.Contains(body, "Internal Server Error") {
		t.Error("expected generic failure page")
	}
}

func TestErrorHandler_NotFoundPage(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/history/nope", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ErrorHandler(zerolog.Nop())(echo.ErrNotFound, c)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "does not exist") {
		t.Error("expected not-found page")
	}
}

func TestErrorHandler_CommittedResponseUntouched(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.String(http.StatusOK, "done")

	ErrorHandler(zerolog.Nop())(errors.New("late"), c)

	if rec.Body.String() != "done" {
		t.Errorf("expected committed body untouched, got %q", rec.Body.String())
	}
}

type stubFlasher map[string][]string

func (f stubFlasher) PopFlash(c echo.Context, key string) ([]string, error) {
	msgs := f[key]
	delete(f, key)
	return msgs, nil
}

func TestPageWithFlashes(t *testing.T) {
	e := echo.New()
	uid := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/sign-up", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: uid, Username: "ada", IsAdmin: true}))
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set(CSRFContextKey, "token-1")

	f := stubFlasher{FlashError: {"Username already taken."}, FlashInfo: {"Saved."}}
	p, err := PageWithFlashes(c, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CSRF != "token-1" {
		t.Errorf("expected csrf token, got %q", p.CSRF)
	}
	if p.User == nil || p.User.Username != "ada" || !p.User.IsAdmin {
		t.Errorf("unexpected user %+v", p.User)
	}
	if len(p.Errors) != 1 || len(p.Info) != 1 {
		t.Errorf("expected one error and one info flash, got %v / %v", p.Errors, p.Info)
	}
	if len(f) != 0 {
		t.Error("expected flashes to be consumed")
	}
}

func TestRender(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Render(c, http.StatusOK, views.LandingTemplate, views.LandingParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}
}

func TestCSRF_RejectsPostWithoutToken(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	e.Use(CSRF(false))
	e.POST("/add-pat", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/add-pat", strings.NewReader("fname=Ada"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		t.Fatal("expected POST without csrf token to be rejected")
	}
}

func TestCSRF_AcceptsMatchingToken(t *testing.T) {
	e := echo.New()
	e.Use(CSRF(false))
	e.POST("/add-pat", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/add-pat", strings.NewReader(CSRFField+"=tok123"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: "tok123"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
