package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	Users    = "users"
	Patients = "patients"
	Surveys  = "surveys"
	Sessions = "sessions"
)

// Index names referenced by repositories when classifying duplicate-key errors.
const (
	UsernameIndex    = "users_username_unique"
	SingleAdminIndex = "users_single_admin"
)

// Connect dials uri, verifies the connection and returns the client together
// with the named database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client, client.Database(database), nil
}

// Open connects like Connect and then creates any missing index. The
// unique indexes are what enforce distinct usernames and a single
// administrator, so a server must not take writes without them.
func Open(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, db, err := Connect(ctx, uri, database)
	if err != nil {
		return nil, nil, err
	}
	if _, err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return client, db, nil
}

// Health adapts a client to the db.Pinger interface.
type Health struct {
	Client *mongo.Client
}

func (h Health) Ping(ctx context.Context) error {
	return h.Client.Ping(ctx, readpref.Primary())
}

// Now is the current UTC time at the millisecond precision BSON dates keep,
// so a record returned from a write equals the one read back.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// IsDuplicateKey reports whether err is a duplicate-key write error. When
// index is non-empty the error must name that index.
func IsDuplicateKey(err error, index string) bool {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return false
	}
	return index == "" || strings.Contains(err.Error(), index)
}

// IsNotFound reports whether err means no document matched.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
