package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alstrack/alstrack/internal/platform/db"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, first_name, last_name, address, sex, age, ssn, phone,
	allergies, medications, genetic_mutations, family_history, medical_history,
	symptom_onset, first_visit, owner_id, attached_at, created_at`

func (r *patientRepoPG) scanRow(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Address, &p.Sex, &p.Age, &p.SSN, &p.Phone,
		&p.Allergies, &p.Medications, &p.GeneticMutations, &p.FamilyHistory, &p.MedicalHistory,
		&p.SymptomOnset, &p.FirstVisit, &p.OwnerID, &p.AttachedAt, &p.CreatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, first_name, last_name, address, sex, age, ssn, phone,
			allergies, medications, genetic_mutations, family_history, medical_history,
			symptom_onset, first_visit)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at`,
		p.ID, p.FirstName, p.LastName, p.Address, p.Sex, p.Age, p.SSN, p.Phone,
		p.Allergies, p.Medications, p.GeneticMutations, p.FamilyHistory, p.MedicalHistory,
		p.SymptomOnset, p.FirstVisit).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *patientRepoPG) ListAll(ctx context.Context) ([]*Patient, error) {
	return r.list(ctx, `SELECT `+patientCols+` FROM patient ORDER BY created_at, id`)
}

func (r *patientRepoPG) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Patient, error) {
	return r.list(ctx, `SELECT `+patientCols+` FROM patient WHERE owner_id = $1 ORDER BY attached_at, id`, ownerID)
}

func (r *patientRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) (bool, error) {
	query := `DELETE FROM patient WHERE id = $1`
	args := []interface{}{id}
	if ownerID != nil {
		query += ` AND owner_id = $2`
		args = append(args, *ownerID)
	}
	tag, err := r.conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete patient: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *patientRepoPG) SetOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient
		SET owner_id = $2,
			attached_at = CASE WHEN owner_id = $2 THEN attached_at ELSE clock_timestamp() END
		WHERE id = $1 AND (owner_id IS NULL OR owner_id = $2)`, id, ownerID)
	if err != nil {
		return fmt.Errorf("attach patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) ClearOwner(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient SET owner_id = NULL, attached_at = NULL WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("detach patient: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *patientRepoPG) ReleaseAll(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient SET owner_id = NULL, attached_at = NULL WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("release patients: %w", err)
	}
	return tag.RowsAffected(), nil
}
