package account

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

type userDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Name         string    `bson:"name"`
	Lastname     string    `bson:"lastname"`
	Email        string    `bson:"email"`
	Phone        string    `bson:"number"`
	PasswordHash string    `bson:"password"`
	IsAdmin      bool      `bson:"is_admin"`
	CreatedAt    time.Time `bson:"created_at"`
}

func toDoc(u *User) userDoc {
	return userDoc{
		ID:           u.ID.String(),
		Username:     u.Username,
		Name:         u.Name,
		Lastname:     u.Lastname,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
	}
}

func fromDoc(d userDoc) (*User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	return &User{
		ID:           id,
		Username:     d.Username,
		Name:         d.Name,
		Lastname:     d.Lastname,
		Email:        d.Email,
		Phone:        d.Phone,
		PasswordHash: d.PasswordHash,
		IsAdmin:      d.IsAdmin,
		CreatedAt:    d.CreatedAt,
	}, nil
}

type userRepoMongo struct {
	users    *mongo.Collection
	sessions *mongo.Collection
}

// NewUserRepoMongo stores users in the users collection. The partial unique
// index on is_admin, created by EnsureIndexes, keeps a single administrator.
func NewUserRepoMongo(db *mongo.Database) UserRepository {
	return &userRepoMongo{
		users:    db.Collection(mongodb.Users),
		sessions: db.Collection(mongodb.Sessions),
	}
}

func (r *userRepoMongo) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	u.CreatedAt = mongodb.Now()

	n, err := r.users.CountDocuments(ctx, bson.M{"is_admin": true}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	u.IsAdmin = n == 0

	_, err = r.users.InsertOne(ctx, toDoc(u))
	if u.IsAdmin && mongodb.IsDuplicateKey(err, mongodb.SingleAdminIndex) {
		u.IsAdmin = false
		_, err = r.users.InsertOne(ctx, toDoc(u))
	}
	if mongodb.IsDuplicateKey(err, mongodb.UsernameIndex) {
		return ErrDuplicateUsername
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepoMongo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.get(ctx, bson.M{"_id": id.String()})
}

func (r *userRepoMongo) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.get(ctx, bson.M{"username": username})
}

func (r *userRepoMongo) get(ctx context.Context, filter bson.M) (*User, error) {
	var d userDoc
	err := r.users.FindOne(ctx, filter).Decode(&d)
	if mongodb.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return fromDoc(d)
}

func (r *userRepoMongo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	cur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": keys}},
		options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	items := make([]*User, 0, len(docs))
	for _, d := range docs {
		u, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, nil
}

// Delete removes the user and its sessions.
func (r *userRepoMongo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.users.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	if _, err := r.sessions.DeleteMany(ctx, bson.M{"user_id": id.String()}); err != nil {
		return res.DeletedCount > 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *userRepoMongo) SetAdmin(ctx context.Context, id uuid.UUID) error {
	n, err := r.users.CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if _, err := r.users.UpdateMany(ctx,
		bson.M{"is_admin": true, "_id": bson.M{"$ne": id.String()}},
		bson.M{"$set": bson.M{"is_admin": false}}); err != nil {
		return fmt.Errorf("clear admin: %w", err)
	}
	if _, err := r.users.UpdateOne(ctx, bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"is_admin": true}}); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	return nil
}
