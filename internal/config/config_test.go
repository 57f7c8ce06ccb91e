package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, databaseDriverEnv, databaseDSNEnv, logLevelEnv, logFormatEnv,
		ingestWorkersEnv, ingestParsersEnv, schedulerCronEnv, schedulerTZEnv, metricsAddrEnv,
		telegramTokenEnv, telegramChatIDEnv,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, defaultDSN, cfg.Database.DSN)
	assert.True(t, cfg.Database.MigrateOnOpen())
	assert.Equal(t, 1, cfg.Ingestion.Workers)
	assert.Equal(t, 50, cfg.Ingestion.MaxReportedErrors)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
	assert.False(t, cfg.Notifications.Telegram.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
database:
  driver: Postgres
  dsn: postgres://localhost/news?sslmode=disable
  autoMigrate: false
logging:
  level: debug
ingestion:
  workers: 4
  parsers: [text, html]
scheduler:
  cronExpression: "*/15 * * * *"
  timezone: Europe/Berlin
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	clearEnv(t)
	t.Setenv(configPathEnv, path)
	t.Setenv(ingestWorkersEnv, "8")
	t.Setenv(ingestParsersEnv, "text, tabular,")
	t.Setenv(telegramTokenEnv, "token")
	t.Setenv(telegramChatIDEnv, "42")

	cfg := Load()

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/news?sslmode=disable", cfg.Database.DSN)
	assert.False(t, cfg.Database.MigrateOnOpen())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Ingestion.Workers)
	assert.Equal(t, []string{"text", "tabular"}, cfg.Ingestion.Parsers)
	assert.Equal(t, "*/15 * * * *", cfg.Scheduler.CronExpression)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
	assert.True(t, cfg.Notifications.Telegram.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(schedulerTZEnv, "Nowhere/Invalid")

	cfg := Load()

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "memory needs no dsn", mutate: func(c *Config) { c.Database = DatabaseConfig{Driver: DriverMemory} }},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mongo" }, wantErr: "unknown database driver"},
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = " " }, wantErr: "database.dsn is required"},
		{name: "negative workers", mutate: func(c *Config) { c.Ingestion.Workers = -1 }, wantErr: "ingestion.workers"},
		{name: "negative error cap", mutate: func(c *Config) { c.Ingestion.MaxReportedErrors = -5 }, wantErr: "maxReportedErrors"},
		{name: "empty cron", mutate: func(c *Config) { c.Scheduler.CronExpression = "" }, wantErr: "cronExpression"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
