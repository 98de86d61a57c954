package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"DATA_FILE", "LOG_LEVEL", "TOP_N", "MIN_SAMPLE", "MIN_PRECISION", "PERSIST", "TELEGRAM_CHAT_IDS", "DB_HOST"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "Matches.csv", cfg.DataFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 50, cfg.TopN)
	assert.Nil(t, cfg.MinSample)
	assert.Nil(t, cfg.MinPrecision)
	assert.False(t, cfg.Persist)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Empty(t, cfg.TelegramChatIDs)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DATA_FILE", "data/Matches.xlsx")
	t.Setenv("WORKERS", "4")
	t.Setenv("MIN_SAMPLE", "80")
	t.Setenv("MIN_PRECISION", "72.5")
	t.Setenv("PERSIST", "yes")
	t.Setenv("TELEGRAM_CHAT_IDS", "12, -100200 ,")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "data/Matches.xlsx", cfg.DataFile)
	assert.Equal(t, 4, cfg.Workers)
	require.NotNil(t, cfg.MinSample)
	assert.Equal(t, 80, *cfg.MinSample)
	require.NotNil(t, cfg.MinPrecision)
	assert.Equal(t, 72.5, *cfg.MinPrecision)
	assert.True(t, cfg.Persist)
	assert.Equal(t, []int64{12, -100200}, cfg.TelegramChatIDs)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"MIN_SAMPLE", "many"},
		{"MIN_PRECISION", "high"},
		{"TELEGRAM_CHAT_IDS", "12,abc"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate(t *testing.T) {
	negative := -1
	tooPrecise := 101.0
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty data file", func(c *Config) { c.DataFile = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
		{"negative top n", func(c *Config) { c.TopN = -1 }},
		{"negative min sample", func(c *Config) { c.MinSample = &negative }},
		{"precision above 100", func(c *Config) { c.MinPrecision = &tooPrecise }},
		{"zero send rate", func(c *Config) { c.MessagesPerSecond = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DataFile: "Matches.csv", LogLevel: "info", TopN: 50, MessagesPerSecond: 20}
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
