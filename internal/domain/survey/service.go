package survey

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/alstrack/alstrack/internal/domain/patient"
)

// trendWorkers bounds the concurrent survey reads of the diagrams page.
const trendWorkers = 4

// PatientLookup is the part of the patient registry the ledger reads.
type PatientLookup interface {
	FindForViewer(ctx context.Context, id, viewerID uuid.UUID, isAdmin bool) (*patient.Patient, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*patient.Patient, error)
}

type Service struct {
	repo     SurveyRepository
	patients PatientLookup
	now      func() time.Time
}

func NewService(repo SurveyRepository, patients PatientLookup) *Service {
	return &Service{repo: repo, patients: patients, now: time.Now}
}

// Submit scores and stores a survey. The patient must exist and belong to
// the submitter unless the submitter is an administrator.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Survey, error) {
	if err := in.Ratings.validate(); err != nil {
		return nil, err
	}

	_, err := s.patients.FindForViewer(ctx, in.PatientID, in.SubmitterID, in.IsAdmin)
	if errors.Is(err, patient.ErrNotFound) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}

	sv := &Survey{
		PatientID:   in.PatientID,
		Ratings:     in.Ratings,
		SubmittedAt: s.now().UTC(),
	}
	sv.Apply()
	if err := s.repo.Create(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

func (r Ratings) validate() error {
	for _, f := range Fields {
		if v := *f.ptr(&r); v < MinRating || v > MaxRating {
			return &ValidationError{Field: f.Label, Reason: "must be a whole number from 0 to 4"}
		}
	}
	return nil
}

// ListForPatient returns the patient's surveys oldest first.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Survey, error) {
	return s.repo.ListForPatient(ctx, patientID)
}

// OwnPatients lists the patients a survey can be filed for by ownerID.
func (s *Service) OwnPatients(ctx context.Context, ownerID uuid.UUID) ([]*patient.Patient, error) {
	return s.patients.ListByOwner(ctx, ownerID)
}

// RatingLabels names the twelve ratings in the order History reports them.
func (s *Service) RatingLabels() []string {
	return Labels()
}

// History returns a patient's surveys oldest first. Scores are recomputed
// from the stored ratings.
func (s *Service) History(ctx context.Context, patientID uuid.UUID) ([]patient.ScoredSurvey, error) {
	surveys, err := s.repo.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return lo.Map(surveys, func(sv *Survey, _ int) patient.ScoredSurvey {
		score := Score(sv.Ratings)
		return patient.ScoredSurvey{
			SubmittedAt: sv.SubmittedAt,
			Ratings:     sv.Ratings.Values(),
			TotalScore:  score,
			Percentage:  Percentage(score),
			Rating:      RatingLabel(score),
		}
	}), nil
}

// Point is one survey on a trend line.
type Point struct {
	At    time.Time
	Score int
}

// Trend is a patient's score series, oldest first.
type Trend struct {
	Patient *patient.Patient
	Points  []Point
}

// Trends builds a score series for every patient owned by ownerID, in the
// owner's patient order.
func (s *Service) Trends(ctx context.Context, ownerID uuid.UUID) ([]Trend, error) {
	patients, err := s.patients.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	trends := make([]Trend, len(patients))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(trendWorkers)
	for i, p := range patients {
		i, p := i, p
		g.Go(func() error {
			surveys, err := s.repo.ListForPatient(ctx, p.ID)
			if err != nil {
				return err
			}
			trends[i] = Trend{
				Patient: p,
				Points: lo.Map(surveys, func(sv *Survey, _ int) Point {
					return Point{At: sv.SubmittedAt, Score: Score(sv.Ratings)}
				}),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trends, nil
}

func FormatPercentage(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}
