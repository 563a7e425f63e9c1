package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:            "development",
		Port:           "8080",
		JWTSecret:      "secure-secret-at-least-32-chars-long",
		DBDriver:       "postgres",
		DBPassword:     "secure-password",
		DBSSLMode:      "require",
		PromptStrategy: PromptStrategyDeterministic,
		CronSecret:     "cron-secret",
		RedisURL:       "redis://localhost:6379",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Valid development", func(*Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing JWT secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"SQLite driver", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"Unknown strategy", func(c *Config) { c.PromptStrategy = "random" }, true},
		{"Generated strategy", func(c *Config) { c.PromptStrategy = PromptStrategyGenerated }, false},
		{"Bad timezone", func(c *Config) { c.DefaultTimezone = "Mars/Olympus" }, true},
		{"Good timezone", func(c *Config) { c.DefaultTimezone = "Europe/Paris" }, false},
		{"Production with default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"Production with short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "short"
		}, true},
		{"Production without cron secret", func(c *Config) {
			c.Env = "production"
			c.CronSecret = ""
		}, true},
		{"Production with weak DB password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "password"
		}, true},
		{"Production sqlite ignores DB password", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
			c.DBPassword = ""
		}, false},
		{"Production valid", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("PROMPT_STRATEGY", " Generated ")
	t.Setenv("PUBLIC_BASE_URL", "https://bright.example.com/")
	t.Setenv("CRON_SECRET", "s3cret")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, PromptStrategyGenerated, c.PromptStrategy)
	assert.Equal(t, "https://bright.example.com", c.PublicBaseURL)
	assert.Equal(t, "s3cret", c.CronSecret)
	assert.Equal(t, 5, c.PhotoMaxUploadMB)
	assert.Equal(t, "5 0 * * *", c.DailyPromptCron)
}

func TestConfig_GenAITimeoutAndLocation(t *testing.T) {
	c := validConfig()
	assert.Equal(t, 10*time.Second, c.GenAITimeout())
	c.GenAITimeoutSeconds = 3
	assert.Equal(t, 3*time.Second, c.GenAITimeout())

	assert.Equal(t, time.UTC, c.Location())
	c.DefaultTimezone = "Asia/Tokyo"
	assert.Equal(t, "Asia/Tokyo", c.Location().String())
	c.DefaultTimezone = "nope"
	assert.Equal(t, time.UTC, c.Location())
}
