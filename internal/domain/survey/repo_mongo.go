package survey

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alstrack/alstrack/internal/platform/mongodb"
)

type surveyDoc struct {
	ID                       string    `bson:"_id"`
	PatientID                string    `bson:"patient_id"`
	Speech                   int       `bson:"speech"`
	Salivation               int       `bson:"salivation"`
	Swallowing               int       `bson:"swallowing"`
	Handwriting              int       `bson:"handwriting"`
	CuttingFood              int       `bson:"cutting_food"`
	DressingHygiene          int       `bson:"dressing_hygiene"`
	TurningInBed             int       `bson:"turning_in_bed"`
	Walking                  int       `bson:"walking"`
	ClimbingStairs           int       `bson:"climbing_stairs"`
	Dyspnea                  int       `bson:"dyspnea"`
	Orthopnea                int       `bson:"orthopnea"`
	RespiratoryInsufficiency int       `bson:"respiratory_insufficiency"`
	TotalScore               int       `bson:"total_score"`
	Percentage               float64   `bson:"percentage"`
	Rating                   string    `bson:"rating"`
	SubmittedAt              time.Time `bson:"submitted_at"`
}

func toDoc(s *Survey) surveyDoc {
	rt := s.Ratings
	return surveyDoc{
		ID:                       s.ID.String(),
		PatientID:                s.PatientID.String(),
		Speech:                   rt.Speech,
		Salivation:               rt.Salivation,
		Swallowing:               rt.Swallowing,
		Handwriting:              rt.Handwriting,
		CuttingFood:              rt.CuttingFood,
		DressingHygiene:          rt.DressingHygiene,
		TurningInBed:             rt.TurningInBed,
		Walking:                  rt.Walking,
		ClimbingStairs:           rt.ClimbingStairs,
		Dyspnea:                  rt.Dyspnea,
		Orthopnea:                rt.Orthopnea,
		RespiratoryInsufficiency: rt.RespiratoryInsufficiency,
		TotalScore:               s.TotalScore,
		Percentage:               s.Percentage,
		Rating:                   s.Rating,
		SubmittedAt:              s.SubmittedAt,
	}
}

func fromDoc(d surveyDoc) (*Survey, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse survey id: %w", err)
	}
	pid, err := uuid.Parse(d.PatientID)
	if err != nil {
		return nil, fmt.Errorf("parse patient id: %w", err)
	}
	return &Survey{
		ID:        id,
		PatientID: pid,
		Ratings: Ratings{
			Speech:                   d.Speech,
			Salivation:               d.Salivation,
			Swallowing:               d.Swallowing,
			Handwriting:              d.Handwriting,
			CuttingFood:              d.CuttingFood,
			DressingHygiene:          d.DressingHygiene,
			TurningInBed:             d.TurningInBed,
			Walking:                  d.Walking,
			ClimbingStairs:           d.ClimbingStairs,
			Dyspnea:                  d.Dyspnea,
			Orthopnea:                d.Orthopnea,
			RespiratoryInsufficiency: d.RespiratoryInsufficiency,
		},
		TotalScore:  d.TotalScore,
		Percentage:  d.Percentage,
		Rating:      d.Rating,
		SubmittedAt: d.SubmittedAt,
	}, nil
}

type surveyRepoMongo struct {
	surveys  *mongo.Collection
	patients *mongo.Collection
}

func NewSurveyRepoMongo(db *mongo.Database) SurveyRepository {
	return &surveyRepoMongo{
		surveys:  db.Collection(mongodb.Surveys),
		patients: db.Collection(mongodb.Patients),
	}
}

// Create checks the patient reference first; Mongo has no foreign keys.
func (r *surveyRepoMongo) Create(ctx context.Context, s *Survey) error {
	n, err := r.patients.CountDocuments(ctx, bson.M{"_id": s.PatientID.String()})
	if err != nil {
		return fmt.Errorf("check patient: %w", err)
	}
	if n == 0 {
		return ErrPatientNotFound
	}

	s.ID = uuid.New()
	s.SubmittedAt = s.SubmittedAt.UTC().Truncate(time.Millisecond)
	if _, err := r.surveys.InsertOne(ctx, toDoc(s)); err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}
	return nil
}

func (r *surveyRepoMongo) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Survey, error) {
	cur, err := r.surveys.Find(ctx, bson.M{"patient_id": patientID.String()},
		options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	var docs []surveyDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode surveys: %w", err)
	}

	items := make([]*Survey, 0, len(docs))
	for _, d := range docs {
		s, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, nil
}

func (r *surveyRepoMongo) CountForPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	n, err := r.surveys.CountDocuments(ctx, bson.M{"patient_id": patientID.String()})
	if err != nil {
		return 0, fmt.Errorf("count surveys: %w", err)
	}
	return int(n), nil
}
