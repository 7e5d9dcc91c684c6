package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/ovaphlow/pitchfork/service-steamlink/pkg/database"
)

// TestDatabase is a migrated PostgreSQL container plus a ready Provider.
type TestDatabase struct {
	Container *postgres.PostgresContainer
	Provider  *database.Provider
	URL       string
}

// SetupTestDatabase starts a container, applies migrations and connects.
// Skipped under -short since it needs a docker daemon.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("botchicken_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"test":      "steamlink-repository",
			"test-name": t.Name(),
		}),
	)
	require.NoError(t, err)

	td := &TestDatabase{Container: container}
	t.Cleanup(func() {
		cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if td.Provider != nil {
			_ = td.Provider.Close()
		}
		if err := container.Terminate(cctx); err != nil {
			t.Logf("terminate test container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	_, err = database.MigrateUp(url)
	require.NoError(t, err)

	db, err := database.Connect(ctx, database.Config{DSN: url, MaxConns: 10, Timeout: 10 * time.Second})
	require.NoError(t, err)

	td.Provider = database.NewReadyProvider(db)
	td.URL = url
	return td
}
