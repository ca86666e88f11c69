package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, "zaloga.sqlite3", cfg.DBDSN)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, 168*time.Hour, cfg.TokenTTL)
	require.Equal(t, 14, cfg.ExpiryWarningDays)
	require.Equal(t, 3, cfg.TxRetries)
	require.Zero(t, cfg.SystemAccountID)
	require.Equal(t, language.Slovak, cfg.Language())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ZALOGA_DB_DRIVER", "postgres")
	t.Setenv("ZALOGA_DB_DSN", "postgres://zaloga@localhost/zaloga")
	t.Setenv("ZALOGA_LOG_FORMAT", "json")
	t.Setenv("ZALOGA_TOKEN_TTL", "12h")
	t.Setenv("ZALOGA_SYSTEM_ACCOUNT_ID", "7")
	t.Setenv("ZALOGA_COLLATION", "sl")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.DBDriver)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, 12*time.Hour, cfg.TokenTTL)
	require.EqualValues(t, 7, cfg.SystemAccountID)
	require.Equal(t, language.Slovenian, cfg.Language())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"ZALOGA_DB_DRIVER", "mysql"},
		{"ZALOGA_LOG_FORMAT", "xml"},
		{"ZALOGA_TX_RETRIES", "0"},
		{"ZALOGA_TOKEN_TTL", "-1h"},
		{"ZALOGA_COLLATION", "not a language"},
		{"ZALOGA_EXPIRY_WARNING_DAYS", "soon"},
		{"ZALOGA_ADMIN_LOGIN", "system"},
		{"ZALOGA_ADMIN_LOGIN", "SYSTEM"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestZeroExpiryWindowIsAccepted(t *testing.T) {
	t.Setenv("ZALOGA_EXPIRY_WARNING_DAYS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	require.Zero(t, cfg.ExpiryWarningDays)
}

func TestReservedAdminLoginMessage(t *testing.T) {
	t.Setenv("ZALOGA_ADMIN_LOGIN", "system")

	_, err := Load()
	require.ErrorContains(t, err, "reserved for the system account")
}
