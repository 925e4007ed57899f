package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgSaveQuery = `INSERT INTO app_session (id, user_id, flashes, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET user_id    = EXCLUDED.user_id,
                               flashes    = EXCLUDED.flashes,
                               expires_at = EXCLUDED.expires_at`

	pgGetQuery = `SELECT user_id, flashes, created_at, expires_at FROM app_session
WHERE id = $1 AND expires_at > now()`

	pgDeleteQuery       = `DELETE FROM app_session WHERE id = $1`
	pgDeleteByUserQuery = `DELETE FROM app_session WHERE user_id = $1`
	pgCleanupQuery      = `DELETE FROM app_session WHERE expires_at <= now()`
)

type pgRow interface {
	Scan(dest ...any) error
}

// pgConn is the slice of pgx the store needs; tests substitute a fake.
type pgConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgRow
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// PGStore keeps sessions in the app_session table.
type PGStore struct {
	db pgConn
}

func NewPGStore(db pgConn) *PGStore {
	return &PGStore{db: db}
}

func NewPGStoreFromPool(pool *pgxpool.Pool) *PGStore {
	return &PGStore{db: &poolConn{pool: pool}}
}

func (s *PGStore) Save(ctx context.Context, sess *Session) error {
	flashes, err := json.Marshal(sess.Flashes)
	if err != nil {
		return fmt.Errorf("marshal flashes: %w", err)
	}
	if _, err := s.db.Exec(ctx, pgSaveQuery, sess.ID, sess.UserID, flashes, sess.CreatedAt, sess.ExpiresAt); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess := &Session{ID: id}
	var flashes []byte
	err := s.db.QueryRow(ctx, pgGetQuery, id).Scan(&sess.UserID, &flashes, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	sess.Flashes = map[string][]string{}
	if len(flashes) > 0 {
		if err := json.Unmarshal(flashes, &sess.Flashes); err != nil {
			return nil, fmt.Errorf("unmarshal flashes: %w", err)
		}
	}
	return sess, nil
}

func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.Exec(ctx, pgDeleteQuery, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *PGStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, pgDeleteByUserQuery, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (s *PGStore) Cleanup(ctx context.Context) (int64, error) {
	n, err := s.db.Exec(ctx, pgCleanupQuery)
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	return n, nil
}

// poolConn adapts *pgxpool.Pool, whose Exec returns a command tag.
type poolConn struct {
	pool *pgxpool.Pool
}

func (p *poolConn) QueryRow(ctx context.Context, sql string, args ...any) pgRow {
	return p.pool.QueryRow(ctx, sql, args...)
}

func (p *poolConn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
