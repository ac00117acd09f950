package testutil

import (
	"context"
	"os/exec"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/andriarta/payrecon/internal/db"
)

type PostgresContainer struct {
	Pool      *pgxpool.Pool
	Terminate func()
}

// StartPostgresContainer boots a throwaway postgres, runs the migrations
// against it and hands back a ready pool. Call Terminate when the suite is
// done; per-test isolation comes from WithTx, not from fresh containers.
func StartPostgresContainer(t *testing.T) PostgresContainer {
	t.Helper()

	if out, err := exec.Command("docker", "info", "--format", "{{.ServerVersion}}").CombinedOutput(); err != nil {
		t.Fatalf("docker is required for repository tests but is not reachable: %s", out)
	}

	container, err := postgres.Run(t.Context(),
		"postgres:17-alpine",
		postgres.WithDatabase("payrecon-test"),
		postgres.WithUsername("payrecon"),
		postgres.WithPassword("pwd"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "postgres container failed to start")

	dsn, err := container.ConnectionString(t.Context())
	require.NoError(t, err, "could not resolve the container connection string")

	pool, err := db.ConnectAndMigrate(t.Context(), dsn)
	require.NoError(t, err, "connect or migrate against the test database failed")

	return PostgresContainer{
		Pool: pool,
		Terminate: func() {
			pool.Close()
			testcontainers.CleanupContainer(t, container)
		},
	}
}

type txBeginner interface {
	Begin(context.Context) (pgx.Tx, error)
}

// WithTx runs testFunc inside a transaction that is always rolled back, so
// tests sharing one container never see each other's rows.
func WithTx(conn txBeginner, t *testing.T, testFunc func(tx pgx.Tx)) {
	t.Helper()

	tx, err := conn.Begin(t.Context())
	require.NoError(t, err)

	defer func() {
		require.NoError(t, tx.Rollback(t.Context()))
	}()

	testFunc(tx)
}
