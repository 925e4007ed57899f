package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alstrack/alstrack/internal/domain/account"
	"github.com/alstrack/alstrack/internal/domain/patient"
	"github.com/alstrack/alstrack/internal/domain/survey"
	"github.com/alstrack/alstrack/internal/platform/db"
	"github.com/alstrack/alstrack/internal/platform/mongodb"
	"github.com/alstrack/alstrack/internal/platform/session"
)

// testDB holds the shared database infrastructure for integration tests.
type testDB struct {
	Pool          *pgxpool.Pool
	ConnStr       string
	MigrationsDir string
}

// globalDB is the package-level test database, initialized once in TestMain.
// It stays nil when neither ALS_TEST_DATABASE_URL nor docker is available.
var globalDB *testDB

// mongoURI points at the MongoDB server the Mongo suite runs against. It
// stays empty when neither MONGODB_TEST_URI nor docker is available.
var mongoURI string

func TestMain(m *testing.M) {
	ctx := context.Background()
	var cleanups []func()

	tdb, cleanup, err := setupPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres integration tests skipped: %v\n", err)
	} else {
		globalDB = tdb
		cleanups = append(cleanups, cleanup)
	}

	uri, cleanup, err := setupMongo(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mongo integration tests skipped: %v\n", err)
	} else {
		mongoURI = uri
		cleanups = append(cleanups, cleanup)
	}

	code := m.Run()
	for _, c := range cleanups {
		c()
	}
	os.Exit(code)
}

// setupMongo returns MONGODB_TEST_URI, or starts a throwaway mongo:7
// container when it is unset.
func setupMongo(ctx context.Context) (string, func(), error) {
	if uri := os.Getenv("MONGODB_TEST_URI"); uri != "" {
		return uri, func() {}, nil
	}
	if _, err := exec.LookPath("docker"); err != nil {
		return "", nil, fmt.Errorf("MONGODB_TEST_URI unset and docker not found")
	}
	uri, cleanup, err := startMongoContainer(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("start mongo container: %w", err)
	}
	return uri, cleanup, nil
}

// setupPostgres connects to ALS_TEST_DATABASE_URL, or starts a throwaway
// postgres:16-alpine container when it is unset.
func setupPostgres(ctx context.Context) (*testDB, func(), error) {
	connStr := os.Getenv("ALS_TEST_DATABASE_URL")
	cleanup := func() {}
	if connStr == "" {
		if _, err := exec.LookPath("docker"); err != nil {
			return nil, nil, fmt.Errorf("ALS_TEST_DATABASE_URL unset and docker not found")
		}
		var err error
		connStr, cleanup, err = startPostgresContainer(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("start postgres container: %w", err)
		}
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		cleanup()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	return &testDB{
			Pool:          pool,
			ConnStr:       connStr,
			MigrationsDir: findMigrationsDir(),
		}, func() {
			pool.Close()
			cleanup()
		}, nil
}

// findMigrationsDir locates the migrations directory relative to this test file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	// test/integration -> module root
	return filepath.Join(dir, "..", "..", "migrations")
}

// app is one isolated copy of the application's storage and services. Only
// one of pool and mdb is set, depending on the backing store.
type app struct {
	pool       *pgxpool.Pool
	mdb        *mongo.Database
	users      account.UserRepository
	patients   *patient.Service
	accounts   *account.Service
	surveys    *survey.Service
	surveyRepo survey.SurveyRepository
	sessions   session.Store
}

// newApp migrates a fresh schema and returns services bound to it. The
// schema is dropped when the test ends.
func newApp(t *testing.T) *app {
	t.Helper()
	if globalDB == nil {
		t.Skip("no postgres available")
	}
	ctx := context.Background()

	schema := uniqueSchema(t.Name())
	if _, err := globalDB.Pool.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema %s: %v", schema, err)
	}
	t.Cleanup(func() {
		if _, err := globalDB.Pool.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("warning: failed to drop schema %s: %v", schema, err)
		}
	})

	if _, err := db.NewMigrator(globalDB.Pool, globalDB.MigrationsDir).Up(ctx, schema); err != nil {
		t.Fatalf("migrate %s: %v", schema, err)
	}

	cfg, err := pgxpool.ParseConfig(globalDB.ConnStr)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("schema pool: %v", err)
	}
	t.Cleanup(pool.Close)

	a := wire(account.NewUserRepoPG(pool), patient.NewPatientRepoPG(pool),
		survey.NewSurveyRepoPG(pool), session.NewPGStoreFromPool(pool), db.NewTransactor(pool))
	a.pool = pool
	return a
}

// newMongoApp opens a fresh database the way the server does, indexes
// included, and returns services bound to it. The database is dropped when
// the test ends.
func newMongoApp(t *testing.T) *app {
	t.Helper()
	if mongoURI == "" {
		t.Skip("no mongodb available")
	}
	ctx := context.Background()

	client, database, err := mongodb.Open(ctx, mongoURI, uniqueSchema(t.Name()))
	if err != nil {
		t.Fatalf("open mongodb: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Drop(context.Background()); err != nil {
			t.Logf("warning: failed to drop database %s: %v", database.Name(), err)
		}
		_ = client.Disconnect(context.Background())
	})

	a := wire(account.NewUserRepoMongo(database), patient.NewPatientRepoMongo(database),
		survey.NewSurveyRepoMongo(database), session.NewMongoStore(database), db.NopTransactor{})
	a.mdb = database
	return a
}

func wire(users account.UserRepository, patientRepo patient.PatientRepository,
	surveyRepo survey.SurveyRepository, sessions session.Store, tx db.Transactor) *app {
	patients := patient.NewService(patientRepo, tx)
	return &app{
		users:      users,
		patients:   patients,
		accounts:   account.NewService(users, patients, tx, 4),
		surveys:    survey.NewService(surveyRepo, patients),
		surveyRepo: surveyRepo,
		sessions:   sessions,
	}
}

func uniqueSchema(name string) string {
	name = strings.ToLower(name)
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)
	if len(name) > 30 {
		name = name[:30]
	}
	return fmt.Sprintf("it_%s_%s", name, strings.ReplaceAll(uuid.New().String()[:8], "-", ""))
}

func (a *app) register(t *testing.T, username string) *account.User {
	t.Helper()
	u, err := a.accounts.Register(context.Background(), account.RegisterInput{
		Username: username,
		Name:     strings.ToUpper(username[:1]) + username[1:],
		Password: username + "-pw",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func (a *app) addPatient(t *testing.T, owner *account.User, first, last string) *patient.Patient {
	t.Helper()
	p := &patient.Patient{FirstName: first, LastName: last}
	if err := a.patients.CreateForOwner(context.Background(), p, owner.ID); err != nil {
		t.Fatalf("create patient %s: %v", first, err)
	}
	return p
}

func (a *app) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := a.pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func (a *app) countDocs(t *testing.T, collection string, filter bson.M) int64 {
	t.Helper()
	n, err := a.mdb.Collection(collection).CountDocuments(context.Background(), filter)
	if err != nil {
		t.Fatalf("count %s: %v", collection, err)
	}
	return n
}

func (a *app) surveyCount(t *testing.T, patientID uuid.UUID) int {
	t.Helper()
	n, err := a.surveyRepo.CountForPatient(context.Background(), patientID)
	if err != nil {
		t.Fatalf("CountForPatient: %v", err)
	}
	return n
}

func uniform(v int) survey.Ratings {
	return survey.Ratings{
		Speech:                   v,
		Salivation:               v,
		Swallowing:               v,
		Handwriting:              v,
		CuttingFood:              v,
		DressingHygiene:          v,
		TurningInBed:             v,
		Walking:                  v,
		ClimbingStairs:           v,
		Dyspnea:                  v,
		Orthopnea:                v,
		RespiratoryInsufficiency: v,
	}
}
