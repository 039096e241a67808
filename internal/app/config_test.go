package app

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/ngtax/ngtax/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 30*time.Second, cfg.AppRequestTimeout)
	require.Equal(t, 120, cfg.RateLimitPerMinute)
	require.Equal(t, "0 3 1 * *", cfg.ComplianceScanCron)
	require.False(t, cfg.TaxLegacyYearCoercion)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigProductionRequiresAdminHash(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("ADMIN_TOKEN_HASH", "")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("ADMIN_TOKEN_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
}

func TestLoadConfigRejectsNonPositiveRateLimit(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigLegacyCoercionFlag(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("TAX_LEGACY_YEAR_COERCION", "true")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.TaxLegacyYearCoercion)
}

func TestLoggerAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{AppEnv: "staging", LogFormat: "json"}, &buf)
	logger.Info("hello")
	require.Contains(t, buf.String(), `"service":"ngtax"`)
	require.Contains(t, buf.String(), `"env":"staging"`)
}

func TestInTestMode(t *testing.T) {
	t.Cleanup(RefreshTestMode)
	t.Setenv("NGTAX_TEST_MODE", "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv("NGTAX_TEST_MODE", "true")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv("NGTAX_TEST_MODE", "")
	RefreshTestMode()
	require.False(t, InTestMode())
}
