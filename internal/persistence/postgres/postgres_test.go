package postgres_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/gridshare/internal/database"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence/backendtest"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence/postgres"
)

func TestBackend(t *testing.T) {
	dsn := os.Getenv("GRIDSHARE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("GRIDSHARE_TEST_DATABASE_URL not set")
	}

	db, err := database.Open(t.Context(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	backendtest.Run(t, func(t *testing.T) persistence.Backend {
		_, err := db.ExecContext(t.Context(), `DROP TABLE IF EXISTS collections`)
		require.NoError(t, err)

		b := postgres.New(db)
		require.NoError(t, b.EnsureSchema(t.Context()))

		return b
	})
}
