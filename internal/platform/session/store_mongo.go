package session

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

type sessionDoc struct {
	ID        string              `bson:"_id"`
	UserID    *string             `bson:"user_id"`
	Flashes   map[string][]string `bson:"flashes"`
	CreatedAt time.Time           `bson:"created_at"`
	ExpiresAt time.Time           `bson:"expires_at"`
}

// MongoStore keeps sessions in the sessions collection. The collection's
// TTL index removes expired documents on its own; Cleanup exists for parity
// with the other stores.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(mongodb.Sessions)}
}

func (s *MongoStore) Save(ctx context.Context, sess *Session) error {
	doc := sessionDoc{
		ID:        sess.ID.String(),
		Flashes:   sess.Flashes,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	}
	if sess.UserID != nil {
		uid := sess.UserID.String()
		doc.UserID = &uid
	}

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	var doc sessionDoc
	err := s.coll.FindOne(ctx, bson.M{
		"_id":        id.String(),
		"expires_at": bson.M{"$gt": time.Now()},
	}).Decode(&doc)
	if mongodb.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	sess := &Session{
		ID:        id,
		Flashes:   doc.Flashes,
		CreatedAt: doc.CreatedAt,
		ExpiresAt: doc.ExpiresAt,
	}
	if sess.Flashes == nil {
		sess.Flashes = map[string][]string{}
	}
	if doc.UserID != nil {
		uid, err := uuid.Parse(*doc.UserID)
		if err != nil {
			return nil, fmt.Errorf("parse session user id: %w", err)
		}
		sess.UserID = &uid
	}
	return sess, nil
}

func (s *MongoStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *MongoStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{"user_id": userID.String()}); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (s *MongoStore) Cleanup(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now()}})
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	return res.DeletedCount, nil
}
