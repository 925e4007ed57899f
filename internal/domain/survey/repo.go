package survey

import (
	"context"

	"github.com/google/uuid"
)

// SurveyRepository has no update or delete: surveys only disappear with
// their patient.
type SurveyRepository interface {
	// Create returns ErrPatientNotFound if the patient no longer exists.
	Create(ctx context.Context, s *Survey) error
	// ListForPatient returns surveys oldest first.
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Survey, error)
	CountForPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}
