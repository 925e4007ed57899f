package patient

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("patient not found")

// Patient maps to the patient table. OwnerID is the caregiver the record is
// attached to; a patient has at most one owner and may have none.
type Patient struct {
	ID               uuid.UUID  `db:"id"`
	FirstName        string     `db:"first_name"`
	LastName         string     `db:"last_name"`
	Address          string     `db:"address"`
	Sex              string     `db:"sex"`
	Age              *int       `db:"age"`
	SSN              string     `db:"ssn"`
	Phone            string     `db:"phone"`
	Allergies        string     `db:"allergies"`
	Medications      string     `db:"medications"`
	GeneticMutations string     `db:"genetic_mutations"`
	FamilyHistory    string     `db:"family_history"`
	MedicalHistory   string     `db:"medical_history"`
	SymptomOnset     *time.Time `db:"symptom_onset"`
	FirstVisit       *time.Time `db:"first_visit"`
	OwnerID          *uuid.UUID `db:"owner_id"`
	AttachedAt       *time.Time `db:"attached_at"`
	CreatedAt        time.Time  `db:"created_at"`
}

func (p *Patient) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return "Unnamed patient"
	}
	return name
}

// OwnedBy reports whether userID is the patient's current owner.
func (p *Patient) OwnedBy(userID uuid.UUID) bool {
	return p.OwnerID != nil && *p.OwnerID == userID
}

// ValidationError is returned when a submitted patient form cannot be bound.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
