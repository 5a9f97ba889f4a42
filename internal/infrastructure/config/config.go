package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Run modes. Development keeps backend output visible and tolerates a
// missing backend; production aborts startup instead.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Config is the root configuration structure for the Agent Shell host.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`

	// formatDefaulted records that Logging.Format came from the mode default.
	formatDefaulted bool
}

// AppConfig identifies the desktop application and its run mode.
type AppConfig struct {
	// Identifier is the bundle identifier. The app data directory is
	// named after it (e.g., "com.tauri-agent.app").
	Identifier string `yaml:"identifier"`

	// ProductName is the human-readable product name. Linux packages
	// install bundled resources under /usr/lib/<product_name>.
	ProductName string `yaml:"product_name"`

	// Mode is "development" or "production".
	Mode string `yaml:"mode"`

	// DevSourceDir is the project source tree root, used in development
	// to find a checked-out backend database.
	DevSourceDir string `yaml:"dev_source_dir"`
}

// IsDevelopment reports whether the host runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return strings.EqualFold(a.Mode, ModeDevelopment)
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DatabaseConfig contains settings for the supervisor's own SQLite state
// database. It is separate from the backend's chat database.
type DatabaseConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path is relative to the app data directory unless absolute.
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for backend status
// publishing.
type MQTTConfig struct {
	Enabled     bool             `yaml:"enabled"`
	Broker      MQTTBrokerConfig `yaml:"broker"`
	Auth        MQTTAuthConfig   `yaml:"auth"`
	QoS         int              `yaml:"qos"`
	TopicPrefix string           `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: AGENTSHELL_SECTION_KEY
// For example: AGENTSHELL_MODE, AGENTSHELL_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(cfg)
}

// LoadOrDefault behaves like Load but falls back to defaults (plus
// environment overrides) when the file does not exist. A desktop install
// normally ships without a config file.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return finish(defaultConfig())
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)

	if cfg.Logging.Format == "" {
		cfg.formatDefaulted = true
	}
	cfg.defaultFormat()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) defaultFormat() {
	if !c.formatDefaulted {
		return
	}
	c.Logging.Format = "json"
	if c.App.IsDevelopment() {
		c.Logging.Format = "text"
	}
}

// ApplyBuildMode sets the mode baked in at build time. AGENTSHELL_MODE
// still wins, and a log format left unset follows the new mode.
func (c *Config) ApplyBuildMode(mode string) error {
	if mode == "" || os.Getenv("AGENTSHELL_MODE") != "" {
		return nil
	}
	c.App.Mode = strings.ToLower(mode)
	c.defaultFormat()

	if err := c.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Identifier:   "com.tauri-agent.app",
			ProductName:  "tauri-agent-demo",
			Mode:         ModeProduction,
			DevSourceDir: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
		},
		Database: DatabaseConfig{
			Enabled:     true,
			Path:        "supervisor.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "agentshell",
			},
			QoS:         1,
			TopicPrefix: "agentshell",
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AGENTSHELL_MODE"); v != "" {
		cfg.App.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("AGENTSHELL_DEV_SOURCE_DIR"); v != "" {
		cfg.App.DevSourceDir = v
	}
	if v := os.Getenv("AGENTSHELL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Secrets stay out of the config file.
	if v := os.Getenv("AGENTSHELL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("AGENTSHELL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Identifier == "" {
		errs = append(errs, "app.identifier is required")
	}
	switch strings.ToLower(c.App.Mode) {
	case ModeDevelopment, ModeProduction:
	default:
		errs = append(errs, fmt.Sprintf("app.mode must be %q or %q", ModeDevelopment, ModeProduction))
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database is enabled")
	}

	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
		if c.MQTT.TopicPrefix == "" {
			errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
