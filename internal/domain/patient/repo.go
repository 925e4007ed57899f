package patient

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListAll(ctx context.Context) ([]*Patient, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Patient, error)

	// Delete removes the patient. A non-nil ownerID restricts the delete to
	// a patient owned by that user. It reports whether a row was removed.
	Delete(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) (bool, error)

	// SetOwner attaches the patient to ownerID. Re-attaching to the same
	// owner is a no-op; a patient owned by someone else yields ErrNotFound.
	SetOwner(ctx context.Context, id, ownerID uuid.UUID) error
	// ClearOwner detaches the patient only if ownerID owns it.
	ClearOwner(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
	// ReleaseAll detaches every patient owned by ownerID.
	ReleaseAll(ctx context.Context, ownerID uuid.UUID) (int64, error)
}
