package app_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/gridshare/internal/app"
	"github.com/MrJamesThe3rd/gridshare/internal/config"
	"github.com/MrJamesThe3rd/gridshare/internal/identity"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_Memory(t *testing.T) {
	var cfg config.Config
	cfg.Store.Backend = config.BackendMemory
	cfg.Store.Seed = true

	me := identity.Identity{ID: "u1", Name: "Ada"}

	a, err := app.Open(context.Background(), &cfg, identity.Static(me), quiet())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.False(t, a.Engine.IsLoading())
	assert.Len(t, a.Engine.SnapshotListings(), 8)
	assert.Len(t, a.Engine.SnapshotTransactions(), 10)

	s := a.Summary(me.ID)
	assert.True(t, s.Spending.IsPositive())
}

func TestOpen_BadgerReopens(t *testing.T) {
	var cfg config.Config
	cfg.Store.Backend = config.BackendBadger
	cfg.Store.BadgerDir = t.TempDir()
	cfg.Store.Seed = true

	a, err := app.Open(context.Background(), &cfg, identity.Static{}, quiet())
	require.NoError(t, err)

	first := a.Engine.SnapshotListings()
	require.Len(t, first, 8)
	require.NoError(t, a.Close())

	b, err := app.Open(context.Background(), &cfg, identity.Static{}, quiet())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	again := b.Engine.SnapshotListings()
	require.Len(t, again, 8)
	assert.Equal(t, first[0].ID, again[0].ID)
}

func TestOpen_UnknownBackend(t *testing.T) {
	var cfg config.Config
	cfg.Store.Backend = "tape"

	_, err := app.Open(context.Background(), &cfg, identity.Static{}, quiet())
	require.Error(t, err)
}
