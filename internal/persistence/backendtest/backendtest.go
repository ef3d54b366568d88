// Package backendtest holds the behaviour every persistence.Backend must share.
package backendtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/gridshare/internal/persistence"
)

// Run exercises a fresh backend from newBackend in each subtest.
func Run(t *testing.T, newBackend func(t *testing.T) persistence.Backend) {
	t.Helper()

	ctx := context.Background()

	t.Run("MissingKey", func(t *testing.T) {
		b := newBackend(t)

		rec, err := b.Get(ctx, "absent")
		require.NoError(t, err)
		assert.Empty(t, rec.Value)
		assert.Zero(t, rec.Version)
	})

	t.Run("CommitBumpsVersion", func(t *testing.T) {
		b := newBackend(t)

		require.NoError(t, b.Commit(ctx, []persistence.Write{{Key: "a", Value: []byte(`[1]`)}}))
		require.NoError(t, b.Commit(ctx, []persistence.Write{{Key: "a", Value: []byte(`[1,2]`), Expected: 1}}))

		rec, err := b.Get(ctx, "a")
		require.NoError(t, err)
		assert.JSONEq(t, `[1,2]`, string(rec.Value))
		assert.Equal(t, int64(2), rec.Version)
	})

	t.Run("StaleWriteRejected", func(t *testing.T) {
		b := newBackend(t)

		require.NoError(t, b.Commit(ctx, []persistence.Write{{Key: "a", Value: []byte(`[1]`)}}))

		err := b.Commit(ctx, []persistence.Write{{Key: "a", Value: []byte(`[9]`)}})
		require.ErrorIs(t, err, persistence.ErrVersionConflict)

		rec, err := b.Get(ctx, "a")
		require.NoError(t, err)
		assert.JSONEq(t, `[1]`, string(rec.Value))
	})

	t.Run("BatchIsAllOrNothing", func(t *testing.T) {
		b := newBackend(t)

		require.NoError(t, b.Commit(ctx, []persistence.Write{{Key: "b", Value: []byte(`["x"]`)}}))

		err := b.Commit(ctx, []persistence.Write{
			{Key: "a", Value: []byte(`[1]`)},
			{Key: "b", Value: []byte(`["y"]`), Expected: 0},
		})
		require.ErrorIs(t, err, persistence.ErrVersionConflict)

		rec, err := b.Get(ctx, "a")
		require.NoError(t, err)
		assert.Empty(t, rec.Value)
		assert.Zero(t, rec.Version)

		rec, err = b.Get(ctx, "b")
		require.NoError(t, err)
		assert.JSONEq(t, `["x"]`, string(rec.Value))
	})

	t.Run("BatchWritesTogether", func(t *testing.T) {
		b := newBackend(t)

		require.NoError(t, b.Commit(ctx, []persistence.Write{
			{Key: "a", Value: []byte(`[1]`)},
			{Key: "b", Value: []byte(`[2]`)},
		}))

		for _, key := range []string{"a", "b"} {
			rec, err := b.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, int64(1), rec.Version, key)
		}
	})
}
