package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IndexSpec describes the indexes of one collection.
type IndexSpec struct {
	Collection string
	Models     []mongo.IndexModel
}

// Indexes returns every index the application relies on. The users indexes
// carry the same guarantees as the Postgres unique constraints.
func Indexes() []IndexSpec {
	return []IndexSpec{
		{Collection: Users, Models: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetName(UsernameIndex).SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "is_admin", Value: 1}},
				Options: options.Index().SetName(SingleAdminIndex).SetUnique(true).
					SetPartialFilterExpression(bson.M{"is_admin": true}),
			},
		}},
		{Collection: Patients, Models: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "attached_at", Value: 1}},
				Options: options.Index().SetName("patients_owner"),
			},
		}},
		{Collection: Surveys, Models: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "patient_id", Value: 1}, {Key: "submitted_at", Value: 1}},
				Options: options.Index().SetName("surveys_patient"),
			},
		}},
		{Collection: Sessions, Models: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetName("sessions_user"),
			},
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetName("sessions_ttl").SetExpireAfterSeconds(0),
			},
		}},
	}
}

// EnsureIndexes creates any missing index. Existing indexes with the same
// definition are left untouched. It returns the names that were created or
// confirmed.
func EnsureIndexes(ctx context.Context, db *mongo.Database) ([]string, error) {
	var names []string
	for _, spec := range Indexes() {
		created, err := db.Collection(spec.Collection).Indexes().CreateMany(ctx, spec.Models)
		if err != nil {
			return names, fmt.Errorf("create indexes on %s: %w", spec.Collection, err)
		}
		for _, n := range created {
			names = append(names, spec.Collection+"."+n)
		}
	}
	return names, nil
}
