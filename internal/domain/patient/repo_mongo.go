package patient

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

type patientDoc struct {
	ID               string     `bson:"_id"`
	FirstName        string     `bson:"fname"`
	LastName         string     `bson:"lname"`
	Address          string     `bson:"address"`
	Sex              string     `bson:"sex"`
	Age              *int       `bson:"age"`
	SSN              string     `bson:"ssn"`
	Phone            string     `bson:"phone"`
	Allergies        string     `bson:"allergies"`
	Medications      string     `bson:"medications"`
	GeneticMutations string     `bson:"genetic_mutations"`
	FamilyHistory    string     `bson:"family_history"`
	MedicalHistory   string     `bson:"medical_history"`
	SymptomOnset     *time.Time `bson:"symptom_onset"`
	FirstVisit       *time.Time `bson:"fv"`
	OwnerID          *string    `bson:"owner_id"`
	AttachedAt       *time.Time `bson:"attached_at"`
	CreatedAt        time.Time  `bson:"created_at"`
}

func toDoc(p *Patient) patientDoc {
	d := patientDoc{
		ID:               p.ID.String(),
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Address:          p.Address,
		Sex:              p.Sex,
		Age:              p.Age,
		SSN:              p.SSN,
		Phone:            p.Phone,
		Allergies:        p.Allergies,
		Medications:      p.Medications,
		GeneticMutations: p.GeneticMutations,
		FamilyHistory:    p.FamilyHistory,
		MedicalHistory:   p.MedicalHistory,
		SymptomOnset:     p.SymptomOnset,
		FirstVisit:       p.FirstVisit,
		AttachedAt:       p.AttachedAt,
		CreatedAt:        p.CreatedAt,
	}
	if p.OwnerID != nil {
		s := p.OwnerID.String()
		d.OwnerID = &s
	}
	return d
}

func fromDoc(d patientDoc) (*Patient, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse patient id: %w", err)
	}
	p := &Patient{
		ID:               id,
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		Address:          d.Address,
		Sex:              d.Sex,
		Age:              d.Age,
		SSN:              d.SSN,
		Phone:            d.Phone,
		Allergies:        d.Allergies,
		Medications:      d.Medications,
		GeneticMutations: d.GeneticMutations,
		FamilyHistory:    d.FamilyHistory,
		MedicalHistory:   d.MedicalHistory,
		SymptomOnset:     d.SymptomOnset,
		FirstVisit:       d.FirstVisit,
		AttachedAt:       d.AttachedAt,
		CreatedAt:        d.CreatedAt,
	}
	if d.OwnerID != nil {
		owner, err := uuid.Parse(*d.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("parse owner id: %w", err)
		}
		p.OwnerID = &owner
	}
	return p, nil
}

type patientRepoMongo struct {
	patients *mongo.Collection
	surveys  *mongo.Collection
}

// NewPatientRepoMongo stores patients in the patients collection. Deleting a
// patient also removes its surveys, matching the Postgres cascade.
func NewPatientRepoMongo(db *mongo.Database) PatientRepository {
	return &patientRepoMongo{
		patients: db.Collection(mongodb.Patients),
		surveys:  db.Collection(mongodb.Surveys),
	}
}

func (r *patientRepoMongo) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = mongodb.Now()
	if _, err := r.patients.InsertOne(ctx, toDoc(p)); err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *patientRepoMongo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var d patientDoc
	err := r.patients.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d)
	if mongodb.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return fromDoc(d)
}

func (r *patientRepoMongo) ListAll(ctx context.Context) ([]*Patient, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{}, opts)
}

func (r *patientRepoMongo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Patient, error) {
	opts := options.Find().SetSort(bson.D{{Key: "attached_at", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"owner_id": ownerID.String()}, opts)
}

func (r *patientRepoMongo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Patient, error) {
	cur, err := r.patients.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	var docs []patientDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode patients: %w", err)
	}

	items := make([]*Patient, 0, len(docs))
	for _, d := range docs {
		p, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, nil
}

func (r *patientRepoMongo) Delete(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) (bool, error) {
	filter := bson.M{"_id": id.String()}
	if ownerID != nil {
		filter["owner_id"] = ownerID.String()
	}
	res, err := r.patients.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("delete patient: %w", err)
	}
	if res.DeletedCount == 0 {
		return false, nil
	}
	if _, err := r.surveys.DeleteMany(ctx, bson.M{"patient_id": id.String()}); err != nil {
		return true, fmt.Errorf("delete patient surveys: %w", err)
	}
	return true, nil
}

func (r *patientRepoMongo) SetOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := r.patients.UpdateOne(ctx,
		bson.M{"_id": id.String(), "owner_id": nil},
		bson.M{"$set": bson.M{"owner_id": ownerID.String(), "attached_at": mongodb.Now()}})
	if err != nil {
		return fmt.Errorf("attach patient: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Already attached to this owner is fine; anything else is not ours.
	n, err := r.patients.CountDocuments(ctx, bson.M{"_id": id.String(), "owner_id": ownerID.String()})
	if err != nil {
		return fmt.Errorf("attach patient: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoMongo) ClearOwner(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	res, err := r.patients.UpdateOne(ctx,
		bson.M{"_id": id.String(), "owner_id": ownerID.String()},
		bson.M{"$set": bson.M{"owner_id": nil, "attached_at": nil}})
	if err != nil {
		return false, fmt.Errorf("detach patient: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *patientRepoMongo) ReleaseAll(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	res, err := r.patients.UpdateMany(ctx,
		bson.M{"owner_id": ownerID.String()},
		bson.M{"$set": bson.M{"owner_id": nil, "attached_at": nil}})
	if err != nil {
		return 0, fmt.Errorf("release patients: %w", err)
	}
	return res.ModifiedCount, nil
}
