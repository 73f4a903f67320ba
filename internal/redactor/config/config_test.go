package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:redactor.db")
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("HISTORY_DEBOUNCE_MS", "150")
	t.Setenv("HISTORY_KEEP_REVISIONS", "5000")
	t.Setenv("DEBUG", "true")

	cfg := ReadConfig()
	assert.Equal(t, "sqlite:redactor.db", cfg.DatabaseDSN)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, ":8081", cfg.MetricsAddr)
	assert.Equal(t, 150*time.Millisecond, cfg.HistoryDebounce())
	assert.Equal(t, 100, cfg.HistoryKeepRevisions)
	assert.Equal(t, "@hourly", cfg.HistoryPruneSchedule)
	assert.Equal(t, "2M", cfg.BodyLimit)
	assert.True(t, cfg.Debug)
}

func TestEnvParsing(t *testing.T) {
	t.Setenv("REDACTOR_TEST_INT", "abc")
	t.Setenv("REDACTOR_TEST_BOOL", "1")
	t.Setenv("REDACTOR_TEST_PADDED", " 42 ")
	t.Setenv("REDACTOR_TEST_BLANK", "  ")

	assert.Equal(t, 0, GetIntEnv("REDACTOR_TEST_INT"))
	assert.True(t, GetBoolEnv("REDACTOR_TEST_BOOL"))
	assert.Equal(t, 42, GetIntEnv("REDACTOR_TEST_PADDED"))
	assert.False(t, Exist("REDACTOR_TEST_MISSING"))
	assert.False(t, Exist("REDACTOR_TEST_BLANK"))
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@h/db", "p*****************b"},
		{"ab", "**"},
		{"x", "*"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, mask(tt.in))
		})
	}
	assert.True(t, isSecret("DatabaseDSN"))
	assert.False(t, isSecret("ListenAddr"))
}
