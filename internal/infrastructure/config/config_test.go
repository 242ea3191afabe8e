package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
display:
  renderer_name: "Living Room"
  width: 20
  update_interval: 250ms
  screensaver_timeout: 10m
upnp:
  callback_port: 49200
  subscription_timeout: 600
mqtt:
  enabled: true
  broker:
    host: "broker.local"
    port: 1883
  qos: 1
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Display.RendererName != "Living Room" {
		t.Errorf("Display.RendererName = %q, want %q", cfg.Display.RendererName, "Living Room")
	}
	if cfg.Display.Width != 20 {
		t.Errorf("Display.Width = %d, want 20", cfg.Display.Width)
	}
	if cfg.Display.UpdateInterval != 250*time.Millisecond {
		t.Errorf("Display.UpdateInterval = %v, want 250ms", cfg.Display.UpdateInterval)
	}
	if cfg.Display.ScreensaverTimeout != 10*time.Minute {
		t.Errorf("Display.ScreensaverTimeout = %v, want 10m", cfg.Display.ScreensaverTimeout)
	}
	if cfg.UPnP.CallbackPort != 49200 {
		t.Errorf("UPnP.CallbackPort = %d, want 49200", cfg.UPnP.CallbackPort)
	}
	if cfg.UPnP.GetSubscriptionTimeout() != 10*time.Minute {
		t.Errorf("GetSubscriptionTimeout() = %v, want 10m", cfg.UPnP.GetSubscriptionTimeout())
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	// Untouched sections keep their defaults.
	if cfg.UPnP.DescriptionTimeout != 10 {
		t.Errorf("UPnP.DescriptionTimeout = %d, want default 10", cfg.UPnP.DescriptionTimeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	if _, err := os.Stat(DefaultPath); err == nil {
		t.Skip("default config file exists on this host")
	}

	cfg, err := Load(DefaultPath)
	if err != nil {
		t.Fatalf("Load(DefaultPath) error = %v", err)
	}
	if cfg.Display.Width != 16 {
		t.Errorf("Display.Width = %d, want default 16", cfg.Display.Width)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
display:
  width: 0
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error for zero width, got nil")
	}
	if !strings.Contains(err.Error(), "display.width") {
		t.Errorf("error = %v, want mention of display.width", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "negative width",
			mutate:  func(c *Config) { c.Display.Width = -1 },
			wantErr: true,
		},
		{
			name:    "zero update interval",
			mutate:  func(c *Config) { c.Display.UpdateInterval = 0 },
			wantErr: true,
		},
		{
			name: "polling without interval",
			mutate: func(c *Config) {
				c.Display.PollPosition = true
				c.Display.PollInterval = 0
			},
			wantErr: true,
		},
		{
			name:    "callback port out of range",
			mutate:  func(c *Config) { c.UPnP.CallbackPort = 70000 },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name: "enabled database without path",
			mutate: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Path = ""
			},
			wantErr: true,
		},
		{
			name:    "disabled database without path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: false,
		},
		{
			name: "enabled api with invalid port",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 0
			},
			wantErr: true,
		},
		{
			name: "enabled influxdb without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Display.Width = 0
	cfg.MQTT.QoS = 5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"display.width", "mqtt.qos"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err.Error(), want)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("UPNPDISPLAY_DISPLAY_NAME", "Kitchen")
	t.Setenv("UPNPDISPLAY_DISPLAY_WIDTH", "24")
	t.Setenv("UPNPDISPLAY_MQTT_HOST", "mqtt.example")
	t.Setenv("UPNPDISPLAY_LOG_LEVEL", "debug")

	cfg := Defaults()
	applyEnvOverrides(cfg)

	if cfg.Display.RendererName != "Kitchen" {
		t.Errorf("Display.RendererName = %q, want %q", cfg.Display.RendererName, "Kitchen")
	}
	if cfg.Display.Width != 24 {
		t.Errorf("Display.Width = %d, want 24", cfg.Display.Width)
	}
	if cfg.MQTT.Broker.Host != "mqtt.example" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_InvalidWidthIgnored(t *testing.T) {
	t.Setenv("UPNPDISPLAY_DISPLAY_WIDTH", "wide")

	cfg := Defaults()
	applyEnvOverrides(cfg)

	if cfg.Display.Width != 16 {
		t.Errorf("Display.Width = %d, want default 16", cfg.Display.Width)
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := Defaults()

	if got := cfg.API.ReadTimeout(); got != 30*time.Second {
		t.Errorf("ReadTimeout() = %v, want 30s", got)
	}
	if got := cfg.UPnP.GetSearchInterval(); got != 5*time.Minute {
		t.Errorf("GetSearchInterval() = %v, want 5m", got)
	}
	if got := cfg.UPnP.GetDescriptionTimeout(); got != 10*time.Second {
		t.Errorf("GetDescriptionTimeout() = %v, want 10s", got)
	}
}
