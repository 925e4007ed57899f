package survey

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alstrack/alstrack/internal/platform/db"
)

type surveyRepoPG struct{ pool *pgxpool.Pool }

func NewSurveyRepoPG(pool *pgxpool.Pool) SurveyRepository {
	return &surveyRepoPG{pool: pool}
}

func (r *surveyRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const surveyCols = `id, patient_id, speech, salivation, swallowing, handwriting, cutting_food,
	dressing_hygiene, turning_in_bed, walking, climbing_stairs, dyspnea, orthopnea,
	respiratory_insufficiency, total_score, percentage, rating, submitted_at`

func (r *surveyRepoPG) scanRow(row pgx.Row) (*Survey, error) {
	var s Survey
	rt := &s.Ratings
	err := row.Scan(&s.ID, &s.PatientID, &rt.Speech, &rt.Salivation, &rt.Swallowing, &rt.Handwriting,
		&rt.CuttingFood, &rt.DressingHygiene, &rt.TurningInBed, &rt.Walking, &rt.ClimbingStairs,
		&rt.Dyspnea, &rt.Orthopnea, &rt.RespiratoryInsufficiency,
		&s.TotalScore, &s.Percentage, &s.Rating, &s.SubmittedAt)
	return &s, err
}

func (r *surveyRepoPG) Create(ctx context.Context, s *Survey) error {
	s.ID = uuid.New()
	rt := s.Ratings
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO survey (`+surveyCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		s.ID, s.PatientID, rt.Speech, rt.Salivation, rt.Swallowing, rt.Handwriting,
		rt.CuttingFood, rt.DressingHygiene, rt.TurningInBed, rt.Walking, rt.ClimbingStairs,
		rt.Dyspnea, rt.Orthopnea, rt.RespiratoryInsufficiency,
		s.TotalScore, s.Percentage, s.Rating, s.SubmittedAt)
	if db.IsForeignKeyViolation(err) {
		return ErrPatientNotFound
	}
	if err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}
	return nil
}

func (r *surveyRepoPG) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Survey, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+surveyCols+` FROM survey WHERE patient_id = $1 ORDER BY submitted_at, id`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()

	var items []*Survey
	for rows.Next() {
		s, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *surveyRepoPG) CountForPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM survey WHERE patient_id = $1`, patientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count surveys: %w", err)
	}
	return n, nil
}
