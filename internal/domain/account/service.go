package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"

	"github.com/alstrack/alstrack/internal/domain/patient"
	"github.com/alstrack/alstrack/internal/platform/auth"
	"github.com/alstrack/alstrack/internal/platform/db"
)

// PatientOwnership is the part of the patient registry the directory drives.
type PatientOwnership interface {
	SetOwner(ctx context.Context, id, ownerID uuid.UUID) error
	ClearOwner(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
	ReleaseAll(ctx context.Context, ownerID uuid.UUID) (int64, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*patient.Patient, error)
}

type Service struct {
	repo     UserRepository
	patients PatientOwnership
	tx       db.Transactor
	cost     int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(repo UserRepository, patients PatientOwnership, tx db.Transactor, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, patients: patients, tx: tx, cost: cost}
}

// Register stores a new user with a bcrypt hash of the password. The first
// user in an empty directory becomes the administrator.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     username,
		Name:         strings.TrimSpace(in.Name),
		Lastname:     strings.TrimSpace(in.Lastname),
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate returns ErrInvalidCredentials for an unknown username and for
// a wrong password alike. Unknown usernames are compared against a dummy
// hash so both paths cost one bcrypt comparison.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummyHash
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// AttachPatient makes userID the owner of patientID. Attaching twice is a
// no-op; a patient owned by someone else yields patient.ErrNotFound.
func (s *Service) AttachPatient(ctx context.Context, userID, patientID uuid.UUID) error {
	return s.patients.SetOwner(ctx, patientID, userID)
}

// DetachPatient drops the ownership if userID holds it and does nothing
// otherwise. The patient record is kept.
func (s *Service) DetachPatient(ctx context.Context, userID, patientID uuid.UUID) error {
	_, err := s.patients.ClearOwner(ctx, patientID, userID)
	return err
}

// DeleteAccount removes the user. Its patients and their surveys stay,
// without an owner.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.patients.ReleaseAll(ctx, userID); err != nil {
			return err
		}
		removed, err := s.repo.Delete(ctx, userID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrNotFound
		}
		return nil
	})
}

// ListWithPatients returns the user with its patients in attach order.
func (s *Service) ListWithPatients(ctx context.Context, userID uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Patients, err = s.patients.ListByOwner(ctx, userID); err != nil {
		return nil, err
	}
	return u, nil
}

// ResolveIdentity implements auth.IdentityResolver.
func (s *Service) ResolveIdentity(ctx context.Context, userID uuid.UUID) (*auth.Identity, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &auth.Identity{
		UserID:   u.ID,
		Username: u.Username,
		Name:     u.FullName(),
		IsAdmin:  u.IsAdmin,
	}, nil
}

// TransferAdmin moves the administrator flag to username.
func (s *Service) TransferAdmin(ctx context.Context, username string) (*User, error) {
	var u *User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if u, err = s.repo.GetByUsername(ctx, username); err != nil {
			return err
		}
		if err := s.repo.SetAdmin(ctx, u.ID); err != nil {
			return err
		}
		u.IsAdmin = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Usernames maps user ids to usernames. Unknown ids are left out.
func (s *Service) Usernames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}
	users, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return lo.SliceToMap(users, func(u *User) (uuid.UUID, string) {
		return u.ID, u.Username
	}), nil
}
