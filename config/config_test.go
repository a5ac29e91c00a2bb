// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, YAML overrides, environment overrides and validation
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/expirytrack/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "time/tzdata"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "06:00", cfg.Notify.Time)
	assert.Equal(t, "Asia/Jerusalem", cfg.Notify.Timezone)
	assert.Equal(t, 30, cfg.Notify.LookaheadDays)
	assert.Equal(t, 4, cfg.Notify.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Notify.SendTimeout)
	assert.Equal(t, CcScopeAll, cfg.Notify.CcScope)
	assert.Equal(t, TransportLog, cfg.Mail.Transport)

	roles, err := cfg.Notify.Roles()
	require.NoError(t, err)
	assert.Equal(t, []models.Role{models.RoleAdmin, models.RoleSupervisor}, roles)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
database_path: /tmp/assets.db
log:
  level: debug
  format: json
notify:
  time: "07:30"
  timezone: UTC
  concurrency: 8
  send_timeout: 5s
  cc_scope: hierarchy
  topic_labels:
    Fire extinguisher: Fire Extinguisher Inspection
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/assets.db", cfg.DatabasePath)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8, cfg.Notify.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Notify.SendTimeout)
	assert.Equal(t, CcScopeHierarchy, cfg.Notify.CcScope)
	assert.Equal(t, "Fire Extinguisher Inspection", cfg.Notify.TopicLabels["Fire extinguisher"])

	hour, minute, err := cfg.Notify.Clock()
	require.NoError(t, err)
	assert.Equal(t, 7, hour)
	assert.Equal(t, 30, minute)
	// Fields the file left out keep their defaults.
	assert.Equal(t, 30, cfg.Notify.LookaheadDays)
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	env := map[string]string{
		"EXPIRYTRACK_DB_PATH":        "/data/x.db",
		"EXPIRYTRACK_NOTIFY_TIME":    "05:15",
		"EXPIRYTRACK_MAIL_TRANSPORT": "gmail",
		"EXPIRYTRACK_MAIL_FROM":      "alerts@example.com",
		"GOOGLE_CLIENT_ID":           "client",
		"EXPIRYTRACK_TIMEZONE":       "",
	}
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "/data/x.db", cfg.DatabasePath)
	assert.Equal(t, "05:15", cfg.Notify.Time)
	assert.Equal(t, TransportGmail, cfg.Mail.Transport)
	assert.Equal(t, "client", cfg.Mail.ClientID)
	assert.Equal(t, "Asia/Jerusalem", cfg.Notify.Timezone, "empty values do not override")
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad time", func(c *Config) { c.Notify.Time = "6am" }},
		{"bad timezone", func(c *Config) { c.Notify.Timezone = "Mars/Olympus" }},
		{"zero concurrency", func(c *Config) { c.Notify.Concurrency = 0 }},
		{"lookahead shorter than a week", func(c *Config) { c.Notify.LookaheadDays = 5 }},
		{"unknown cc role", func(c *Config) { c.Notify.CcRoles = []string{"Owner"} }},
		{"unknown cc scope", func(c *Config) { c.Notify.CcScope = "team" }},
		{"unknown transport", func(c *Config) { c.Mail.Transport = "smtp" }},
		{"gmail without sender", func(c *Config) { c.Mail.Transport = TransportGmail }},
	}

	assert.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	_, err := Load(writeConfig(t, "notify: [not, a, map]"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "notify:\n  concurrency: -1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "notify:\n  lookahead_days: 5\n"))
	assert.Error(t, err)

	cfg, err := Load(writeConfig(t, "notify:\n  lookahead_days: 7\n"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Notify.LookaheadDays)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EXPIRYTRACK_TEST_MARKER=loaded\n"), 0644))
	t.Setenv("EXPIRYTRACK_TEST_MARKER", "")
	require.NoError(t, os.Unsetenv("EXPIRYTRACK_TEST_MARKER"))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("EXPIRYTRACK_TEST_MARKER"))

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}
