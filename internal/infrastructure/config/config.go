package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file used when none is given explicitly.
// A missing file at this path is not an error; defaults are used instead.
const DefaultPath = "/etc/upnp-display/config.yaml"

// Config is the root configuration structure for the display daemon.
// All configuration is loaded from YAML and can be overridden by environment
// variables and command-line flags.
type Config struct {
	Display   DisplayConfig   `yaml:"display"`
	UPnP      UPnPConfig      `yaml:"upnp"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DisplayConfig controls renderer selection and the output sink.
type DisplayConfig struct {
	// RendererName selects a renderer by friendly name or UUID.
	// Empty means the first renderer discovered.
	RendererName string `yaml:"renderer_name"`

	// Width is the number of characters per display line.
	Width int `yaml:"width"`

	// Console writes to the terminal instead of a hardware display.
	Console bool `yaml:"console"`

	// InPlace redraws the two console lines using ANSI cursor movement.
	// When false every changed line is logged on its own row.
	InPlace bool `yaml:"in_place"`

	// Daemon is accepted for compatibility; the process never forks.
	Daemon bool `yaml:"daemon"`

	// UpdateInterval is the sampling period. Default: 400ms
	UpdateInterval time.Duration `yaml:"update_interval"`

	// ScreensaverTimeout blanks the display once the selected renderer has
	// not produced an event for this long. 0 disables it.
	ScreensaverTimeout time.Duration `yaml:"screensaver_timeout"`

	// ReselectOnRemove picks another already-known matching renderer when
	// the selected one goes away. Default: false
	ReselectOnRemove bool `yaml:"reselect_on_remove"`

	// PollPosition asks the selected renderer for its playback position
	// instead of relying on evented values only.
	PollPosition bool `yaml:"poll_position"`

	// PollInterval is the GetPositionInfo period. Default: 1s
	PollInterval time.Duration `yaml:"poll_interval"`
}

// UPnPConfig contains discovery and eventing settings.
type UPnPConfig struct {
	// CallbackHost is the address advertised in GENA CALLBACK headers.
	// Empty means the local address used to reach each device.
	CallbackHost string `yaml:"callback_host"`

	// CallbackPort is the NOTIFY listener port. 0 picks a free port.
	CallbackPort int `yaml:"callback_port"`

	// SubscriptionTimeout is the requested GENA timeout in seconds.
	SubscriptionTimeout int `yaml:"subscription_timeout"`

	// SearchInterval is the M-SEARCH period in seconds. 0 searches once.
	SearchInterval int `yaml:"search_interval"`

	// DescriptionTimeout bounds description fetches and control requests (seconds).
	DescriptionTimeout int `yaml:"description_timeout"`

	// Interface restricts SSDP multicast to a named network interface.
	Interface string `yaml:"interface"`
}

// DatabaseConfig contains SQLite settings for the renderer catalogue and play log.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
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

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains status API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`

	// PanelDir serves the /panel page from disk instead of the embedded copy.
	PanelDir string `yaml:"panel_dir"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket settings for live now-playing updates.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
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

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: UPNPDISPLAY_SECTION_KEY
// For example: UPNPDISPLAY_DISPLAY_NAME, UPNPDISPLAY_MQTT_HOST
//
// A missing file is only tolerated when path is DefaultPath.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		// Running without a config file is the common case.
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Display: DisplayConfig{
			Width:          16,
			Console:        true,
			InPlace:        true,
			UpdateInterval: 400 * time.Millisecond,
			PollInterval:   time.Second,
		},
		UPnP: UPnPConfig{
			SubscriptionTimeout: 1800,
			SearchInterval:      300,
			DescriptionTimeout:  10,
		},
		Database: DatabaseConfig{
			Path:        "./data/upnp-display.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "upnp-display",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			Org:           "upnp-display",
			Bucket:        "playback",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: UPNPDISPLAY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Display
	if v := os.Getenv("UPNPDISPLAY_DISPLAY_NAME"); v != "" {
		cfg.Display.RendererName = v
	}
	if v := os.Getenv("UPNPDISPLAY_DISPLAY_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Display.Width = n
		}
	}

	// UPnP
	if v := os.Getenv("UPNPDISPLAY_UPNP_CALLBACK_HOST"); v != "" {
		cfg.UPnP.CallbackHost = v
	}
	if v := os.Getenv("UPNPDISPLAY_UPNP_INTERFACE"); v != "" {
		cfg.UPnP.Interface = v
	}

	// Database
	if v := os.Getenv("UPNPDISPLAY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("UPNPDISPLAY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("UPNPDISPLAY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("UPNPDISPLAY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("UPNPDISPLAY_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("UPNPDISPLAY_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("UPNPDISPLAY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("UPNPDISPLAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Display validation
	if c.Display.Width < 1 {
		errs = append(errs, "display.width must be positive")
	}
	if c.Display.UpdateInterval <= 0 {
		errs = append(errs, "display.update_interval must be positive")
	}
	if c.Display.ScreensaverTimeout < 0 {
		errs = append(errs, "display.screensaver_timeout must not be negative")
	}
	if c.Display.PollPosition && c.Display.PollInterval <= 0 {
		errs = append(errs, "display.poll_interval must be positive when poll_position is enabled")
	}

	// UPnP validation
	if c.UPnP.CallbackPort < 0 || c.UPnP.CallbackPort > 65535 {
		errs = append(errs, "upnp.callback_port must be between 0 and 65535")
	}
	if c.UPnP.SubscriptionTimeout < 0 {
		errs = append(errs, "upnp.subscription_timeout must not be negative")
	}
	if c.UPnP.SearchInterval < 0 {
		errs = append(errs, "upnp.search_interval must not be negative")
	}
	if c.UPnP.DescriptionTimeout < 1 {
		errs = append(errs, "upnp.description_timeout must be at least 1 second")
	}

	// Database validation
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the database is enabled")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB validation
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

// ReadTimeout returns the API read timeout as a Duration.
func (a APIConfig) ReadTimeout() time.Duration {
	return time.Duration(a.Timeouts.Read) * time.Second
}

// WriteTimeout returns the API write timeout as a Duration.
func (a APIConfig) WriteTimeout() time.Duration {
	return time.Duration(a.Timeouts.Write) * time.Second
}

// IdleTimeout returns the API idle timeout as a Duration.
func (a APIConfig) IdleTimeout() time.Duration {
	return time.Duration(a.Timeouts.Idle) * time.Second
}

// GetSubscriptionTimeout returns the requested GENA subscription lifetime.
func (u UPnPConfig) GetSubscriptionTimeout() time.Duration {
	return time.Duration(u.SubscriptionTimeout) * time.Second
}

// GetSearchInterval returns the period between SSDP searches.
func (u UPnPConfig) GetSearchInterval() time.Duration {
	return time.Duration(u.SearchInterval) * time.Second
}

// GetDescriptionTimeout returns the timeout for description and control requests.
func (u UPnPConfig) GetDescriptionTimeout() time.Duration {
	return time.Duration(u.DescriptionTimeout) * time.Second
}
