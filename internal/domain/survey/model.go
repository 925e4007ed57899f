package survey

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrPatientNotFound = errors.New("patient not found")

// Ratings are the twelve ALSFRS functional ratings, each 0 (worst) to 4
// (normal).
type Ratings struct {
	Speech                   int
	Salivation               int
	Swallowing               int
	Handwriting              int
	CuttingFood              int
	DressingHygiene          int
	TurningInBed             int
	Walking                  int
	ClimbingStairs           int
	Dyspnea                  int
	Orthopnea                int
	RespiratoryInsufficiency int
}

// Field describes one rating: its form name, column and label.
type Field struct {
	Form   string
	Column string
	Label  string
	ptr    func(*Ratings) *int
}

// Fields lists the ratings in questionnaire order.
var Fields = []Field{
	{"speech", "speech", "Speech", func(r *Ratings) *int { return &r.Speech }},
	{"salivation", "salivation", "Salivation", func(r *Ratings) *int { return &r.Salivation }},
	{"swallowing", "swallowing", "Swallowing", func(r *Ratings) *int { return &r.Swallowing }},
	{"handwriting", "handwriting", "Handwriting", func(r *Ratings) *int { return &r.Handwriting }},
	{"cutting-food", "cutting_food", "Cutting food", func(r *Ratings) *int { return &r.CuttingFood }},
	{"dressing-hygiene", "dressing_hygiene", "Dressing and hygiene", func(r *Ratings) *int { return &r.DressingHygiene }},
	{"turning-in-bed", "turning_in_bed", "Turning in bed", func(r *Ratings) *int { return &r.TurningInBed }},
	{"walking", "walking", "Walking", func(r *Ratings) *int { return &r.Walking }},
	{"climbing-stairs", "climbing_stairs", "Climbing stairs", func(r *Ratings) *int { return &r.ClimbingStairs }},
	{"dyspnea", "dyspnea", "Dyspnea", func(r *Ratings) *int { return &r.Dyspnea }},
	{"orthopnea", "orthopnea", "Orthopnea", func(r *Ratings) *int { return &r.Orthopnea }},
	{"respiratory-insufficiency", "respiratory_insufficiency", "Respiratory insufficiency", func(r *Ratings) *int { return &r.RespiratoryInsufficiency }},
}

// Values returns the ratings in Fields order.
func (r Ratings) Values() []int {
	out := make([]int, len(Fields))
	for i, f := range Fields {
		out[i] = *f.ptr(&r)
	}
	return out
}

// Labels returns the rating labels in Fields order.
func Labels() []string {
	out := make([]string, len(Fields))
	for i, f := range Fields {
		out[i] = f.Label
	}
	return out
}

// Survey is one immutable questionnaire submission. TotalScore, Percentage
// and Rating are always derived from Ratings on the server.
type Survey struct {
	ID          uuid.UUID `db:"id"`
	PatientID   uuid.UUID `db:"patient_id"`
	Ratings     Ratings
	SubmittedAt time.Time `db:"submitted_at"`
	TotalScore  int       `db:"total_score"`
	Percentage  float64   `db:"percentage"`
	Rating      string    `db:"rating"`
}

// SubmitInput is a survey submission by SubmitterID.
type SubmitInput struct {
	PatientID   uuid.UUID
	Ratings     Ratings
	SubmitterID uuid.UUID
	IsAdmin     bool
}

// ValidationError names the first rating field that is missing or invalid.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
