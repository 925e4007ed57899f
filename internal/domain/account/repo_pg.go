package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alstrack/alstrack/internal/platform/db"
)

const (
	usernameConstraint    = "app_user_username_key"
	singleAdminConstraint = "app_user_single_admin"
)

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const userCols = `id, username, name, lastname, email, phone, password_hash, is_admin, created_at`

func (r *userRepoPG) scanRow(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Lastname, &u.Email, &u.Phone,
		&u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	return &u, err
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	err := r.insert(ctx, u, true)
	if db.IsUniqueViolation(err, singleAdminConstraint) {
		// Another registration claimed the admin flag between our check and
		// our insert.
		err = r.insert(ctx, u, false)
	}
	if db.IsUniqueViolation(err, usernameConstraint) {
		return ErrDuplicateUsername
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepoPG) insert(ctx context.Context, u *User, claimAdmin bool) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO app_user (id, username, name, lastname, email, phone, password_hash, is_admin)
		SELECT $1, $2, $3, $4, $5, $6, $7,
			$8::boolean AND NOT EXISTS (SELECT 1 FROM app_user WHERE is_admin)
		RETURNING is_admin, created_at`,
		u.ID, u.Username, u.Name, u.Lastname, u.Email, u.Phone, u.PasswordHash, claimAdmin,
	).Scan(&u.IsAdmin, &u.CreatedAt)
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.get(ctx, `SELECT `+userCols+` FROM app_user WHERE id = $1`, id)
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.get(ctx, `SELECT `+userCols+` FROM app_user WHERE username = $1`, username)
}

func (r *userRepoPG) get(ctx context.Context, query string, arg interface{}) (*User, error) {
	u, err := r.scanRow(r.conn(ctx).QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *userRepoPG) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+userCols+` FROM app_user WHERE id = ANY($1) ORDER BY username`, ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var items []*User
	for rows.Next() {
		u, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

func (r *userRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetAdmin runs two statements; callers wrap it in a transaction so the
// directory never ends up without an administrator.
func (r *userRepoPG) SetAdmin(ctx context.Context, id uuid.UUID) error {
	q := r.conn(ctx)
	if _, err := q.Exec(ctx, `UPDATE app_user SET is_admin = FALSE WHERE is_admin AND id <> $1`, id); err != nil {
		return fmt.Errorf("clear admin: %w", err)
	}
	tag, err := q.Exec(ctx, `UPDATE app_user SET is_admin = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
