package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/alstrack/alstrack/internal/platform/mongodb"
)

const (
	defaultPostgresImage = "postgres:16-alpine"
	defaultMongoImage    = "mongo:7"
)

var containerLog = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// runContainer starts image with the docker CLI, publishing port on a host
// port docker picks. It returns that host address and a function that
// removes the container.
func runContainer(ctx context.Context, image, port string, env ...string) (string, func(), error) {
	args := []string{"run", "-d", "--rm", "-p", "127.0.0.1::" + port}
	for _, e := range env {
		args = append(args, "-e", e)
	}
	args = append(args, image)

	out, err := exec.CommandContext(ctx, "docker", args...).CombinedOutput()
	if err != nil {
		return "", nil, fmt.Errorf("docker run %s: %w\noutput: %s", image, err, out)
	}
	containerID := strings.TrimSpace(string(out))
	cleanup := func() {
		_ = exec.Command("docker", "rm", "-f", containerID).Run()
	}

	hostPort, err := mappedPort(ctx, containerID, port)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	containerLog.Info().Str("image", image).Str("addr", hostPort).Msg("started container")
	return hostPort, cleanup, nil
}

// startPostgresContainer runs a throwaway Postgres and waits until it answers.
// ALS_TEST_PG_IMAGE overrides the image.
func startPostgresContainer(ctx context.Context) (string, func(), error) {
	image := os.Getenv("ALS_TEST_PG_IMAGE")
	if image == "" {
		image = defaultPostgresImage
	}

	hostPort, cleanup, err := runContainer(ctx, image, "5432",
		"POSTGRES_USER=als", "POSTGRES_PASSWORD=als", "POSTGRES_DB=alstest")
	if err != nil {
		return "", nil, err
	}

	connStr := fmt.Sprintf("postgres://als:als@%s/alstest?sslmode=disable", hostPort)
	if err := waitForPostgres(ctx, connStr, 30*time.Second); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("wait for postgres: %w", err)
	}
	return connStr, cleanup, nil
}

// startMongoContainer runs a throwaway MongoDB and waits until it answers a
// ping. ALS_TEST_MONGO_IMAGE overrides the image.
func startMongoContainer(ctx context.Context) (string, func(), error) {
	image := os.Getenv("ALS_TEST_MONGO_IMAGE")
	if image == "" {
		image = defaultMongoImage
	}

	hostPort, cleanup, err := runContainer(ctx, image, "27017")
	if err != nil {
		return "", nil, err
	}

	uri := "mongodb://" + hostPort
	if err := waitForMongo(ctx, uri, 30*time.Second); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("wait for mongo: %w", err)
	}
	return uri, cleanup, nil
}

// mappedPort returns the host address docker bound to the container's port.
func mappedPort(ctx context.Context, containerID, port string) (string, error) {
	out, err := exec.CommandContext(ctx, "docker", "port", containerID, port+"/tcp").Output()
	if err != nil {
		return "", fmt.Errorf("docker port: %w", err)
	}
	line := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	if line == "" {
		return "", fmt.Errorf("docker port: no mapping for %s/tcp", port)
	}
	return line, nil
}

// waitForMongo polls until the server answers a ping or timeout passes.
func waitForMongo(ctx context.Context, uri string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastErr error
	for {
		client, _, err := mongodb.Connect(ctx, uri, "admin")
		if err == nil {
			return client.Disconnect(context.Background())
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return fmt.Errorf("mongo not ready after %v: %w", timeout, lastErr)
		case <-ticker.C:
		}
	}
}

// waitForPostgres polls until the server answers a query or timeout passes.
func waitForPostgres(ctx context.Context, connStr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastErr error
	for {
		if lastErr = tryQuery(ctx, connStr); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres not ready after %v: %w", timeout, lastErr)
		case <-ticker.C:
		}
	}
}

func tryQuery(ctx context.Context, connStr string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	var one int
	return conn.QueryRow(ctx, "SELECT 1").Scan(&one)
}
