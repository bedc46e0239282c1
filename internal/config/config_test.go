package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5, cfg.RankTopN)
	assert.Equal(t, 10*time.Minute, cfg.CategoryCacheTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowOrigins)
	assert.True(t, cfg.IsDev())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "a-real-secret")
	t.Setenv("RANK_TOP_N", "3")
	t.Setenv("ADMIN_NOTIFY_RECIPIENTS", "ops@example.com,+15550100")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, 3, cfg.RankTopN)
	assert.Equal(t, []string{"ops@example.com", "+15550100"}, cfg.AdminRecipients)
	assert.Len(t, cfg.CORSAllowOrigins, 2)
}

func TestLoad_RejectsNonPositiveTopN(t *testing.T) {
	t.Setenv("RANK_TOP_N", "0")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ProdRejectsDefaultJWTSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", devJWTSecret)
	_, err = Load()
	require.Error(t, err)

	t.Setenv("APP_ENV", "dev")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
}
