package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alstrack/alstrack/internal/platform/db"
)

type Service struct {
	repo PatientRepository
	tx   db.Transactor
}

func NewService(repo PatientRepository, tx db.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	return s.repo.Create(ctx, p)
}

// CreateForOwner creates p and attaches it to ownerID as one unit of work.
func (s *Service) CreateForOwner(ctx context.Context, p *Patient, ownerID uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		if err := s.repo.SetOwner(ctx, p.ID, ownerID); err != nil {
			return err
		}
		now := time.Now()
		p.OwnerID = &ownerID
		p.AttachedAt = &now
		return nil
	})
}

func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// FindForViewer returns the patient only to its owner or an administrator.
// Anyone else gets ErrNotFound, so the existence of other caregivers'
// patients is not revealed.
func (s *Service) FindForViewer(ctx context.Context, id, viewerID uuid.UUID, isAdmin bool) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !p.OwnedBy(viewerID) {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*Patient, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Patient, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// ListVisible is every patient for an administrator, otherwise the viewer's
// own patients in the order they were attached.
func (s *Service) ListVisible(ctx context.Context, viewerID uuid.UUID, isAdmin bool) ([]*Patient, error) {
	if isAdmin {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByOwner(ctx, viewerID)
}

// Delete removes a patient and, through the store, its surveys. Owners may
// delete their own patients and administrators any patient.
func (s *Service) Delete(ctx context.Context, id, viewerID uuid.UUID, isAdmin bool) error {
	var owner *uuid.UUID
	if !isAdmin {
		owner = &viewerID
	}
	removed, err := s.repo.Delete(ctx, id, owner)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

func (s *Service) SetOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	return s.repo.SetOwner(ctx, id, ownerID)
}

func (s *Service) ClearOwner(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	return s.repo.ClearOwner(ctx, id, ownerID)
}

func (s *Service) ReleaseAll(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return s.repo.ReleaseAll(ctx, ownerID)
}
