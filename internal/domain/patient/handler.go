package patient

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/alstrack/alstrack/internal/platform/auth"
	"github.com/alstrack/alstrack/internal/platform/web"
	"github.com/alstrack/alstrack/internal/platform/web/views"
)

// ScoredSurvey is one survey of a patient's history with its score.
type ScoredSurvey struct {
	SubmittedAt time.Time
	Ratings     []int
	TotalScore  int
	Percentage  float64
	Rating      string
}

// SurveyHistory supplies a patient's surveys oldest first, with the labels of
// the rating columns in Ratings order.
type SurveyHistory interface {
	RatingLabels() []string
	History(ctx context.Context, patientID uuid.UUID) ([]ScoredSurvey, error)
}

// OwnerNames resolves caregiver ids to usernames for the administrator view.
type OwnerNames interface {
	Usernames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type Handler struct {
	svc     *Service
	surveys SurveyHistory
	owners  OwnerNames
	flashes web.FlashStore
}

func NewHandler(svc *Service, surveys SurveyHistory, owners OwnerNames, flashes web.FlashStore) *Handler {
	return &Handler{svc: svc, surveys: surveys, owners: owners, flashes: flashes}
}

// RegisterRoutes mounts the patient pages on a group that already requires
// a logged-in user.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients", h.ListPatients)
	g.POST("/patients/:id", h.DeletePatient)
	g.GET("/add-pat", h.AddPatientForm)
	g.POST("/add-pat", h.AddPatient)
	g.GET("/history/:id", h.History)
}

func (h *Handler) ListPatients(c echo.Context) error {
	ctx := c.Request().Context()
	id := auth.Current(c)

	patients, err := h.svc.ListVisible(ctx, id.UserID, id.IsAdmin)
	if err != nil {
		return err
	}

	owners := map[uuid.UUID]string{}
	if id.IsAdmin && h.owners != nil {
		ids := lo.Uniq(lo.FilterMap(patients, func(p *Patient, _ int) (uuid.UUID, bool) {
			if p.OwnerID == nil {
				return uuid.Nil, false
			}
			return *p.OwnerID, true
		}))
		if len(ids) > 0 {
			if owners, err = h.owners.Usernames(ctx, ids); err != nil {
				return err
			}
		}
	}

	rows := lo.Map(patients, func(p *Patient, _ int) views.PatientRow {
		row := views.PatientRow{
			ID:          p.ID.String(),
			DisplayName: p.DisplayName(),
			Sex:         p.Sex,
			Age:         formatAge(p.Age),
			Phone:       p.Phone,
			FirstVisit:  p.FirstVisit,
			HistoryLink: "/history/" + p.ID.String(),
			DeleteLink:  "/patients/" + p.ID.String(),
		}
		if p.OwnerID != nil {
			row.Owner = owners[*p.OwnerID]
		}
		return row
	})

	page, err := web.PageWithFlashes(c, h.flashes)
	if err != nil {
		return err
	}
	return web.Render(c, http.StatusOK, views.PatientsTemplate, views.PatientsParams{
		Page:        page,
		AllPatients: id.IsAdmin,
		Patients:    rows,
	})
}

func (h *Handler) AddPatientForm(c echo.Context) error {
	page, err := web.PageWithFlashes(c, h.flashes)
	if err != nil {
		return err
	}
	return web.Render(c, http.StatusOK, views.AddPatientTemplate, views.AddPatientParams{Page: page})
}

func (h *Handler) AddPatient(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	values := FormFromValues(form)

	p, err := FromForm(values)
	var verr *ValidationError
	if errors.As(err, &verr) {
		return web.Render(c, http.StatusOK, views.AddPatientTemplate, views.AddPatientParams{
			Page:      web.NewPage(c),
			Form:      values,
			UserError: "Please correct " + verr.Error() + ".",
		})
	}
	if err != nil {
		return err
	}

	id := auth.Current(c)
	if err := h.svc.CreateForOwner(c.Request().Context(), p, id.UserID); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/next-pat")
}

// DeletePatient handles the delete button on the patient list. A patient the
// caller may not delete looks the same as one that does not exist.
func (h *Handler) DeletePatient(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.ErrNotFound
	}

	id := auth.Current(c)
	err = h.svc.Delete(c.Request().Context(), pid, id.UserID, id.IsAdmin)
	switch {
	case errors.Is(err, ErrNotFound):
		if ferr := h.flashes.AddFlash(c, web.FlashError, "Patient not found."); ferr != nil {
			return ferr
		}
	case err != nil:
		return err
	default:
		if ferr := h.flashes.AddFlash(c, web.FlashInfo, "Patient deleted."); ferr != nil {
			return ferr
		}
	}
	return c.Redirect(http.StatusFound, "/patients")
}

func (h *Handler) History(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.ErrNotFound
	}
	id := auth.Current(c)

	var (
		p       *Patient
		surveys []ScoredSurvey
	)
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		var err error
		p, err = h.svc.FindForViewer(ctx, pid, id.UserID, id.IsAdmin)
		return err
	})
	g.Go(func() error {
		var err error
		surveys, err = h.surveys.History(ctx, pid)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}

	page, err := web.PageWithFlashes(c, h.flashes)
	if err != nil {
		return err
	}
	return web.Render(c, http.StatusOK, views.HistoryTemplate, views.HistoryParams{
		Page: page,
		Patient: views.HistoryPatient{
			DisplayName:      p.DisplayName(),
			Address:          p.Address,
			Sex:              p.Sex,
			Age:              formatAge(p.Age),
			SSN:              p.SSN,
			Phone:            p.Phone,
			Allergies:        p.Allergies,
			Medications:      p.Medications,
			GeneticMutations: p.GeneticMutations,
			FamilyHistory:    p.FamilyHistory,
			MedicalHistory:   p.MedicalHistory,
			SymptomOnset:     p.SymptomOnset,
			FirstVisit:       p.FirstVisit,
		},
		Surveys: lo.Map(surveys, func(sv ScoredSurvey, _ int) views.HistorySurvey {
			return views.HistorySurvey{
				SubmittedAt: sv.SubmittedAt,
				Ratings:     sv.Ratings,
				TotalScore:  sv.TotalScore,
				Percentage:  strconv.FormatFloat(sv.Percentage, 'f', 1, 64),
				Rating:      sv.Rating,
			}
		}),
		Columns: h.surveys.RatingLabels(),
	})
}

func formatAge(age *int) string {
	if age == nil {
		return ""
	}
	return strconv.Itoa(*age)
}
