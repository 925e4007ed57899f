package account

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alstrack/alstrack/internal/domain/patient"
)

var (
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("user not found")
	ErrMissingCredentials = errors.New("username and password are required")
)

// User maps to the app_user table. Patients is only populated by
// Service.ListWithPatients.
type User struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	Name         string    `db:"name"`
	Lastname     string    `db:"lastname"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	PasswordHash string    `db:"password_hash"`
	IsAdmin      bool      `db:"is_admin"`
	CreatedAt    time.Time `db:"created_at"`

	Patients []*patient.Patient `db:"-"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Lastname)
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username string
	Name     string
	Lastname string
	Email    string
	Phone    string
	Password string
}
