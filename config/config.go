// ABOUTME: Application configuration loaded from YAML with environment overrides
// ABOUTME: Provides defaults, XDG paths and validation for the notification schedule
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/harperreed/expirytrack/expiry"
	"github.com/harperreed/expirytrack/models"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Cc scopes for notification copies.
const (
	CcScopeAll       = "all"
	CcScopeHierarchy = "hierarchy"
)

// Mail transports.
const (
	TransportGmail = "gmail"
	TransportLog   = "log"
)

type Config struct {
	DatabasePath string       `yaml:"database_path"`
	Log          LogConfig    `yaml:"log"`
	Notify       NotifyConfig `yaml:"notify"`
	Mail         MailConfig   `yaml:"mail"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type NotifyConfig struct {
	// Time is the local wall-clock time of the daily run, HH:MM.
	Time          string            `yaml:"time"`
	Timezone      string            `yaml:"timezone"`
	LookaheadDays int               `yaml:"lookahead_days"`
	CcRoles       []string          `yaml:"cc_roles"`
	CcScope       string            `yaml:"cc_scope"`
	Concurrency   int               `yaml:"concurrency"`
	SendTimeout   time.Duration     `yaml:"send_timeout"`
	RatePerSecond float64           `yaml:"rate_per_second"`
	TopicLabels   map[string]string `yaml:"topic_labels"`
}

type MailConfig struct {
	Transport string `yaml:"transport"`
	From      string `yaml:"from"`
	TokenPath string `yaml:"token_path"`

	// Client credentials come from the environment only.
	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		DatabasePath: filepath.Join(xdg.DataHome, "expirytrack", "expirytrack.db"),
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Notify: NotifyConfig{
			Time:          "06:00",
			Timezone:      "Asia/Jerusalem",
			LookaheadDays: 30,
			CcRoles:       []string{models.RoleNameAdmin, models.RoleNameSupervisor},
			CcScope:       CcScopeAll,
			Concurrency:   4,
			SendTimeout:   30 * time.Second,
			RatePerSecond: 2,
			TopicLabels:   map[string]string{},
		},
		Mail: MailConfig{
			Transport: TransportLog,
			TokenPath: filepath.Join(xdg.DataHome, "expirytrack", "gmail-token.json"),
		},
	}
}

// DefaultPath returns the XDG config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "expirytrack", "config.yaml")
}

// LoadEnvFile loads a .env file into the process environment if one exists.
func LoadEnvFile(paths ...string) error {
	var existing []string
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.ApplyEnv(os.LookupEnv)
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"EXPIRYTRACK_DB_PATH", &c.DatabasePath},
		{"EXPIRYTRACK_LOG_LEVEL", &c.Log.Level},
		{"EXPIRYTRACK_NOTIFY_TIME", &c.Notify.Time},
		{"EXPIRYTRACK_TIMEZONE", &c.Notify.Timezone},
		{"EXPIRYTRACK_MAIL_TRANSPORT", &c.Mail.Transport},
		{"EXPIRYTRACK_MAIL_FROM", &c.Mail.From},
		{"GOOGLE_CLIENT_ID", &c.Mail.ClientID},
		{"GOOGLE_CLIENT_SECRET", &c.Mail.ClientSecret},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.key); ok && v != "" {
			*o.target = v
		}
	}
}

// fillDefaults restores essentials a partial file left empty.
func (c *Config) fillDefaults() {
	defaults := DefaultConfig()
	if c.DatabasePath == "" {
		c.DatabasePath = defaults.DatabasePath
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Notify.Time == "" {
		c.Notify.Time = defaults.Notify.Time
	}
	if c.Notify.Timezone == "" {
		c.Notify.Timezone = defaults.Notify.Timezone
	}
	if c.Notify.LookaheadDays <= 0 {
		c.Notify.LookaheadDays = defaults.Notify.LookaheadDays
	}
	if c.Notify.CcRoles == nil {
		c.Notify.CcRoles = defaults.Notify.CcRoles
	}
	if c.Notify.CcScope == "" {
		c.Notify.CcScope = defaults.Notify.CcScope
	}
	if c.Notify.SendTimeout <= 0 {
		c.Notify.SendTimeout = defaults.Notify.SendTimeout
	}
	if c.Notify.RatePerSecond <= 0 {
		c.Notify.RatePerSecond = defaults.Notify.RatePerSecond
	}
	if c.Notify.TopicLabels == nil {
		c.Notify.TopicLabels = map[string]string{}
	}
	if c.Mail.Transport == "" {
		c.Mail.Transport = defaults.Mail.Transport
	}
	if c.Mail.TokenPath == "" {
		c.Mail.TokenPath = defaults.Mail.TokenPath
	}
}

// Validate rejects settings the notification schedule cannot run with.
func (c *Config) Validate() error {
	if _, _, err := c.Notify.Clock(); err != nil {
		return err
	}
	if _, err := c.Notify.Location(); err != nil {
		return err
	}
	if c.Notify.LookaheadDays < expiry.LongestReminderDays {
		return fmt.Errorf("notify.lookahead_days must be at least %d, got %d", expiry.LongestReminderDays, c.Notify.LookaheadDays)
	}
	if c.Notify.Concurrency < 1 {
		return fmt.Errorf("notify.concurrency must be at least 1, got %d", c.Notify.Concurrency)
	}
	if _, err := c.Notify.Roles(); err != nil {
		return err
	}
	switch c.Notify.CcScope {
	case CcScopeAll, CcScopeHierarchy:
	default:
		return fmt.Errorf("notify.cc_scope must be %q or %q, got %q", CcScopeAll, CcScopeHierarchy, c.Notify.CcScope)
	}
	switch c.Mail.Transport {
	case TransportLog:
	case TransportGmail:
		if c.Mail.From == "" {
			return fmt.Errorf("mail.from is required for the gmail transport")
		}
	default:
		return fmt.Errorf("mail.transport must be %q or %q, got %q", TransportGmail, TransportLog, c.Mail.Transport)
	}
	return nil
}

// Clock parses Time into hour and minute.
func (n NotifyConfig) Clock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(n.Time))
	if err != nil {
		return 0, 0, fmt.Errorf("notify.time must be HH:MM, got %q", n.Time)
	}
	return t.Hour(), t.Minute(), nil
}

func (n NotifyConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(n.Timezone)
	if err != nil {
		return nil, fmt.Errorf("notify.timezone %q: %w", n.Timezone, err)
	}
	return loc, nil
}

// Roles parses CcRoles.
func (n NotifyConfig) Roles() ([]models.Role, error) {
	roles := make([]models.Role, 0, len(n.CcRoles))
	for _, name := range n.CcRoles {
		role, err := models.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("notify.cc_roles: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, nil
}
