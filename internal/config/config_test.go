package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	t.Setenv("ACTIVITY_WINDOW", "")
	t.Setenv("IMPORT_BATCH_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 3*time.Hour, cfg.ActivityWindow)
	assert.Equal(t, 50, cfg.ImportBatchSize)
	assert.Equal(t, 15*time.Second, cfg.LeadFetchTimeout)
	assert.False(t, cfg.DBLogSQL)
	assert.Equal(t, 10, cfg.LoginRatePerMinute)
	assert.Equal(t, 5, cfg.LoginBurst)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ACTIVITY_WINDOW", "90m")
	t.Setenv("IMPORT_BATCH_SIZE", "25")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DB_LOG_SQL", "yes")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Minute, cfg.ActivityWindow)
	assert.Equal(t, 25, cfg.ImportBatchSize)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.DBLogSQL)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("IMPORT_BATCH_SIZE", "fifty")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("IMPORT_BATCH_SIZE", "0")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("IMPORT_BATCH_SIZE", "")
	t.Setenv("ACTIVITY_WINDOW", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_ProdRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, IsProdLike(cfg.AppEnv))
}
