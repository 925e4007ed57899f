package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alstrack/alstrack/internal/config"
	"github.com/alstrack/alstrack/internal/domain/account"
	"github.com/alstrack/alstrack/internal/domain/patient"
	"github.com/alstrack/alstrack/internal/domain/site"
	"github.com/alstrack/alstrack/internal/domain/survey"
	"github.com/alstrack/alstrack/internal/platform/auth"
	"github.com/alstrack/alstrack/internal/platform/db"
	"github.com/alstrack/alstrack/internal/platform/middleware"
	"github.com/alstrack/alstrack/internal/platform/mongodb"
	"github.com/alstrack/alstrack/internal/platform/session"
	"github.com/alstrack/alstrack/internal/platform/web"
)

const (
	loginPath            = "/log-in"
	sessionSweepInterval = 10 * time.Minute
	shutdownTimeout      = 10 * time.Second
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "als-server",
		Short: "ALS patient tracker",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Prepare the database schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations (postgres) or create indexes (mongo)",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			if cfg.StoreDriver == config.DriverMongo {
				client, database, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
				if err != nil {
					return err
				}
				defer client.Disconnect(ctx)

				names, err := mongodb.EnsureIndexes(ctx, database)
				if err != nil {
					return fmt.Errorf("index creation failed: %w", err)
				}
				fmt.Printf("Ensured %d index(es) on %s.\n", len(names), cfg.MongoDatabase)
				return nil
			}

			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", db.DefaultSchema, "Target schema for migrations")
	upCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StoreDriver == config.DriverMongo {
				fmt.Println("MongoDB has no migrations; `migrate up` creates these indexes:")
				for _, ix := range mongodb.Indexes() {
					for _, m := range ix.Models {
						fmt.Printf("  %s.%s\n", ix.Collection, *m.Options.Name)
					}
				}
				return nil
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", db.DefaultSchema, "Target schema for migrations")
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage server-side sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.SessionStore == config.SessionStoreMemory {
				fmt.Println("SESSION_STORE is memory; nothing to prune.")
				return nil
			}

			ctx := context.Background()
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			n, err := b.sessions.Cleanup(ctx)
			if err != nil {
				return fmt.Errorf("prune sessions: %w", err)
			}
			fmt.Printf("Deleted %d expired session(s).\n", n)
			return nil
		},
	})

	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the administrator role",
	}

	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Make the named user the only administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			to, _ := cmd.Flags().GetString("to")
			if to == "" {
				return fmt.Errorf("--to is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			svc := account.NewService(b.users, patient.NewService(b.patients, b.tx), b.tx, cfg.BcryptCost)
			u, err := svc.TransferAdmin(ctx, to)
			if err != nil {
				return fmt.Errorf("transfer admin: %w", err)
			}
			fmt.Printf("%s is now the administrator.\n", u.Username)
			return nil
		},
	}
	transferCmd.Flags().String("to", "", "Username of the new administrator")
	cmd.AddCommand(transferCmd)

	return cmd
}

// backend is the storage the server runs on, chosen by STORE_DRIVER.
type backend struct {
	users    account.UserRepository
	patients patient.PatientRepository
	surveys  survey.SurveyRepository
	sessions session.Store
	tx       db.Transactor
	health   db.Pinger
	close    func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	var b *backend
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, database, err := mongodb.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		b = &backend{
			users:    account.NewUserRepoMongo(database),
			patients: patient.NewPatientRepoMongo(database),
			surveys:  survey.NewSurveyRepoMongo(database),
			sessions: session.NewMongoStore(database),
			tx:       db.NopTransactor{},
			health:   mongodb.Health{Client: client},
			close:    func() { _ = client.Disconnect(context.Background()) },
		}
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		b = &backend{
			users:    account.NewUserRepoPG(pool),
			patients: patient.NewPatientRepoPG(pool),
			surveys:  survey.NewSurveyRepoPG(pool),
			sessions: session.NewPGStoreFromPool(pool),
			tx:       db.NewTransactor(pool),
			health:   pool,
			close:    pool.Close,
		}
	}

	if cfg.SessionStore == config.SessionStoreMemory {
		mem := session.NewMemoryStore(sessionSweepInterval)
		closeStore := b.close
		b.sessions = mem
		b.close = func() {
			mem.Close()
			closeStore()
		}
	}
	return b, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	key, random, err := resolveSessionKey(cfg.SessionSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve session key")
	}
	if random {
		logger.Warn().Msg("SESSION_SECRET not set; using a random key, sessions end on restart")
	}

	ctx := context.Background()
	b, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to connect to store")
	}
	defer b.close()
	logger.Info().Str("driver", cfg.StoreDriver).Str("sessions", cfg.SessionStore).Msg("connected to store")

	e := newServer(cfg, b, key, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires the middleware chain and every route.
func newServer(cfg *config.Config, b *backend, sessionKey []byte, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = web.ErrorHandler(logger)

	sessions := session.NewManager(b.sessions, sessionKey, cfg.SessionTTL, cfg.CookieSecure)
	patientSvc := patient.NewService(b.patients, b.tx)
	accountSvc := account.NewService(b.users, patientSvc, b.tx, cfg.BcryptCost)
	surveySvc := survey.NewService(b.surveys, patientSvc)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.CookieSecure))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(web.CSRF(cfg.CookieSecure))
	e.Use(auth.Gate(sessions, accountSvc, logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(cfg.StoreDriver, b.health))
	e.Static("/static", cfg.StaticDir)

	public := e.Group("")
	protected := e.Group("", auth.RequireLogin(loginPath))

	site.NewHandler(sessions).RegisterRoutes(public, protected)
	account.NewHandler(accountSvc, sessions).RegisterRoutes(public, protected)
	patient.NewHandler(patientSvc, surveySvc, accountSvc, sessions).RegisterRoutes(protected)
	survey.NewHandler(surveySvc, sessions).RegisterRoutes(protected)

	return e
}

// resolveSessionKey decodes SESSION_SECRET, or generates a random 32-byte
// key when it is empty. The second return value is true for a random key.
func resolveSessionKey(envValue string) ([]byte, bool, error) {
	if envValue != "" {
		decoded, err := hex.DecodeString(envValue)
		if err != nil {
			return nil, false, fmt.Errorf("invalid SESSION_SECRET hex value: %w", err)
		}
		return decoded, false, nil
	}
	key := make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("failed to generate random session key: %w", err)
	}
	return key, true, nil
}
