package survey

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/alstrack/alstrack/internal/platform/auth"
)

type stubFlashes map[string][]string

func (f stubFlashes) PopFlash(_ echo.Context, key string) ([]string, error) {
	msgs := f[key]
	delete(f, key)
	return msgs, nil
}

func (f stubFlashes) AddFlash(_ echo.Context, key, msg string) error {
	f[key] = append(f[key], msg)
	return nil
}

func newRequest(e *echo.Echo, method, target string, form url.Values, id *auth.Identity) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(auth.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSubmitSurvey_Success(t *testing.T) {
	svc, repo, pats := newTestService()
	flashes := stubFlashes{}
	h := NewHandler(svc, flashes)
	owner := uuid.New()
	p1 := pats.add("P1", owner)

	form := fullForm("2")
	form.Set("patientId", p1.ID.String())
	form.Set("score", "48")
	c, rec := newRequest(echo.New(), http.MethodPost, "/survey", form, &auth.Identity{UserID: owner})

	if err := h.SubmitSurvey(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/survey" {
		t.Errorf("expected redirect to /survey, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(repo.store) != 1 || repo.store[0].TotalScore != 24 {
		t.Fatal("expected one survey with server-computed score 24")
	}
	if len(flashes["info"]) != 1 || !strings.Contains(flashes["info"][0], "24/48") {
		t.Errorf("expected confirmation flash, got %v", flashes)
	}
}

func TestSubmitSurvey_MissingFieldRerenders(t *testing.T) {
	svc, repo, pats := newTestService()
	h := NewHandler(svc, stubFlashes{})
	owner := uuid.New()
	p1 := pats.add("P1", owner)

	form := fullForm("2")
	form.Set("patientId", p1.ID.String())
	form.Del("swallowing")
	c, rec := newRequest(echo.New(), http.MethodPost, "/survey", form, &auth.Identity{UserID: owner})

	if err := h.SubmitSurvey(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Swallowing is required") {
		t.Error("expected the missing field named")
	}
	if len(repo.store) != 0 {
		t.Error("expected no survey stored")
	}
}

func TestSubmitSurvey_OtherOwnersPatient(t *testing.T) {
	svc, repo, pats := newTestService()
	h := NewHandler(svc, stubFlashes{})
	p1 := pats.add("P1", uuid.New())

	form := fullForm("2")
	form.Set("patientId", p1.ID.String())
	c, rec := newRequest(echo.New(), http.MethodPost, "/survey", form, &auth.Identity{UserID: uuid.New()})

	if err := h.SubmitSurvey(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Patient not found.") {
		t.Errorf("expected form re-rendered with not found message, got %d", rec.Code)
	}
	if len(repo.store) != 0 {
		t.Error("expected no survey stored")
	}
}

func TestSurveyForm_ListsOwnPatients(t *testing.T) {
	svc, _, pats := newTestService()
	h := NewHandler(svc, stubFlashes{})
	owner := uuid.New()
	pats.add("Mine", owner)
	pats.add("Theirs", uuid.New())

	c, rec := newRequest(echo.New(), http.MethodGet, "/survey", nil, &auth.Identity{UserID: owner})
	if err := h.SurveyForm(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Mine") || strings.Contains(body, "Theirs") {
		t.Error("expected only the caller's patients")
	}
	if !strings.Contains(body, `name="respiratory-insufficiency"`) {
		t.Error("expected all twelve questions")
	}
}

func TestDiagrams(t *testing.T) {
	svc, _, pats := newTestService()
	h := NewHandler(svc, stubFlashes{})
	owner := uuid.New()
	p1 := pats.add("Lou", owner)
	svc.Submit(context.Background(), SubmitInput{PatientID: p1.ID, Ratings: uniform(4), SubmitterID: owner})

	c, rec := newRequest(echo.New(), http.MethodGet, "/diagrams", nil, &auth.Identity{UserID: owner})
	if err := h.Diagrams(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<polyline") || !strings.Contains(body, "48/48") {
		t.Errorf("expected a chart with the latest score, got %s", body)
	}
}

func TestPolyline(t *testing.T) {
	if got := polyline([]Point{{Score: 48}}); got != "240.0,10.0" {
		t.Errorf("single point: got %q", got)
	}
	if got := polyline([]Point{{Score: 0}, {Score: 48}}); got != "10.0,150.0 470.0,10.0" {
		t.Errorf("two points: got %q", got)
	}
}
