//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/JonMunkholm/salesdash/internal/core"
	"github.com/JonMunkholm/salesdash/internal/store/storetest"
)

// startPostgres runs a throwaway PostgreSQL container and returns a migrated pool.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping container-based test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "sales",
			"POSTGRES_PASSWORD": "sales",
			"POSTGRES_DB":       "sales",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://sales:sales@%s:%s/sales?sslmode=disable", host, port.Port())
	pool, err := Connect(ctx, url, PoolConfig{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(pool))
	return pool
}

func truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE sales, upload_log`)
	require.NoError(t, err)
}

func TestContract(t *testing.T) {
	pool := startPostgres(t)

	t.Run("Savepoints", func(t *testing.T) {
		storetest.Run(t, func(t *testing.T) core.Store {
			truncate(t, pool)
			return New(pool, WithCopyThreshold(0))
		})
	})

	t.Run("Copy", func(t *testing.T) {
		storetest.Run(t, func(t *testing.T) core.Store {
			truncate(t, pool)
			return New(pool, WithCopyThreshold(1))
		})
	})
}

func TestMigrateIsRepeatable(t *testing.T) {
	pool := startPostgres(t)
	assert.NoError(t, Migrate(pool))
}

func TestCopyFallsBackOnRowFailure(t *testing.T) {
	pool := startPostgres(t)
	s := New(pool, WithCopyThreshold(2))
	ctx := context.Background()

	records := []core.SalesRecord{
		storetest.Sale("2024-01-01", "A", "C", "R", 1, "10", "10"),
		storetest.Sale("2024-01-02", "B", "C", "R", 1, "10", "-1"),
		storetest.Sale("2024-01-03", "C", "C", "R", 1, "10", "10"),
	}
	res, err := s.InsertMany(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)

	sum, err := s.Summary(ctx, core.DateRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, sum.TransactionCount)
	assert.Equal(t, "20", sum.TotalRevenue.String())
}

func TestPing(t *testing.T) {
	pool := startPostgres(t)
	assert.NoError(t, New(pool).Ping(context.Background()))
}
