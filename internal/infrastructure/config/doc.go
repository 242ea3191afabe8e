// Package config handles loading and validating the display daemon configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (UPNPDISPLAY_*)
//   - Validation of required fields
//   - Default value handling
//
// Command-line flags are applied by the caller after Load, then Validate is
// called again.
//
// Security Considerations:
//   - MQTT passwords and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load(config.DefaultPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Display.RendererName)
package config
