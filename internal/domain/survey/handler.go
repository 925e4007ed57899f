package survey

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/alstrack/alstrack/internal/domain/patient"
	"github.com/alstrack/alstrack/internal/platform/auth"
	"github.com/alstrack/alstrack/internal/platform/web"
	"github.com/alstrack/alstrack/internal/platform/web/views"
)

const (
	chartWidth   = 480
	chartHeight  = 160
	chartPadding = 10
)

type Handler struct {
	svc     *Service
	flashes web.FlashStore
}

func NewHandler(svc *Service, flashes web.FlashStore) *Handler {
	return &Handler{svc: svc, flashes: flashes}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/survey", h.SurveyForm)
	g.POST("/survey", h.SubmitSurvey)
	g.GET("/diagrams", h.Diagrams)
}

func (h *Handler) SurveyForm(c echo.Context) error {
	page, err := web.PageWithFlashes(c, h.flashes)
	if err != nil {
		return err
	}
	return h.renderForm(c, http.StatusOK, page, url.Values{"patientId": {c.QueryParam("patient")}}, "")
}

func (h *Handler) SubmitSurvey(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	var verr *ValidationError
	pid, err := ParsePatientID(form)
	if errors.As(err, &verr) {
		return h.renderForm(c, http.StatusUnprocessableEntity, web.NewPage(c), form, "Please choose a patient.")
	}
	ratings, err := ParseRatings(form)
	if errors.As(err, &verr) {
		return h.renderForm(c, http.StatusUnprocessableEntity, web.NewPage(c), form, verr.Field+" "+verr.Reason+".")
	}

	id := auth.Current(c)
	sv, err := h.svc.Submit(c.Request().Context(), SubmitInput{
		PatientID:   pid,
		Ratings:     ratings,
		SubmitterID: id.UserID,
		IsAdmin:     id.IsAdmin,
	})
	switch {
	case errors.Is(err, ErrPatientNotFound):
		return h.renderForm(c, http.StatusUnprocessableEntity, web.NewPage(c), form, "Patient not found.")
	case errors.As(err, &verr):
		return h.renderForm(c, http.StatusUnprocessableEntity, web.NewPage(c), form, verr.Field+" "+verr.Reason+".")
	case err != nil:
		return err
	}

	msg := fmt.Sprintf("Survey saved: %s.", summary(sv.TotalScore))
	if err := h.flashes.AddFlash(c, web.FlashInfo, msg); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/survey")
}

// renderForm shows the survey form with the caller's patients, keeping any
// values from form selected.
func (h *Handler) renderForm(c echo.Context, status int, page views.Page, form url.Values, userError string) error {
	id := auth.Current(c)
	patients, err := h.svc.OwnPatients(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}

	selected := form.Get("patientId")
	params := views.SurveyParams{
		Page: page,
		Patients: lo.Map(patients, func(p *patient.Patient, _ int) views.SurveyPatient {
			return views.SurveyPatient{ID: p.ID.String(), DisplayName: p.DisplayName(), Selected: p.ID.String() == selected}
		}),
		Questions: lo.Map(Fields, func(f Field, _ int) views.SurveyQuestion {
			return views.SurveyQuestion{Field: f.Form, Label: f.Label, Selected: strings.TrimSpace(form.Get(f.Form))}
		}),
		UserError: userError,
	}
	return web.Render(c, status, views.SurveyTemplate, params)
}

func (h *Handler) Diagrams(c echo.Context) error {
	id := auth.Current(c)
	trends, err := h.svc.Trends(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	page, err := web.PageWithFlashes(c, h.flashes)
	if err != nil {
		return err
	}
	return web.Render(c, http.StatusOK, views.DiagramsTemplate, views.DiagramsParams{
		Page:   page,
		Charts: lo.Map(trends, func(t Trend, _ int) views.Chart { return chartFor(t) }),
	})
}

func chartFor(t Trend) views.Chart {
	ch := views.Chart{
		DisplayName: t.Patient.DisplayName(),
		HistoryLink: "/history/" + t.Patient.ID.String(),
		Width:       chartWidth,
		Height:      chartHeight,
		Count:       len(t.Points),
	}
	if len(t.Points) == 0 {
		return ch
	}
	ch.Points = polyline(t.Points)
	ch.Latest = summary(t.Points[len(t.Points)-1].Score)
	return ch
}

// polyline spaces the points evenly on x and maps 0..MaxScore onto y, top
// being the best score.
func polyline(points []Point) string {
	inner := float64(chartWidth - 2*chartPadding)
	height := float64(chartHeight - 2*chartPadding)
	coords := lo.Map(points, func(p Point, i int) string {
		x := float64(chartWidth) / 2
		if len(points) > 1 {
			x = chartPadding + inner*float64(i)/float64(len(points)-1)
		}
		y := chartPadding + height*(1-float64(p.Score)/MaxScore)
		return fmt.Sprintf("%.1f,%.1f", x, y)
	})
	return strings.Join(coords, " ")
}

func summary(score int) string {
	return fmt.Sprintf("%d/%d (%s%%, %s)", score, MaxScore, FormatPercentage(Percentage(score)), RatingLabel(score))
}
