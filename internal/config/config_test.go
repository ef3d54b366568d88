package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/gridshare/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "GridShare", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, config.BackendBadger, cfg.Store.Backend)
	assert.True(t, cfg.Store.Seed)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_NAME", "trades")
	t.Setenv("GRIDSHARE_USER_ID", "u1")
	t.Setenv("GRIDSHARE_USER_NAME", "Ada")
	t.Setenv("SEED_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "postgres://postgres:@localhost:5432/trades?sslmode=disable", cfg.ConnectionString())
	assert.Equal(t, "u1", cfg.User.ID)
	assert.False(t, cfg.Store.Seed)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "UnknownBackend", env: map[string]string{"STORE_BACKEND": "redis"}},
		{name: "UserWithoutName", env: map[string]string{"GRIDSHARE_USER_ID": "u1", "GRIDSHARE_USER_NAME": " "}},
		{name: "BadPort", env: map[string]string{"PORT": "eighty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			require.Error(t, err)
		})
	}
}
