// UPnP Display - now-playing display for UPnP MediaRenderers
//
// This is the main entry point of the display daemon. It discovers
// MediaRenderers on the local network, follows the selected one through
// GENA events and shows what it plays on a small two-line display:
//   - Console output (in-place ANSI redraw or one row per change)
//   - Optional MQTT now-playing and presence topics
//   - Optional InfluxDB playback history and SQLite play log
//   - Optional read-only status API with a WebSocket feed
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/nerrad567/upnp-display/internal/api"
	"github.com/nerrad567/upnp-display/internal/controller"
	"github.com/nerrad567/upnp-display/internal/display"
	"github.com/nerrad567/upnp-display/internal/history"
	"github.com/nerrad567/upnp-display/internal/infrastructure/config"
	"github.com/nerrad567/upnp-display/internal/infrastructure/database"
	"github.com/nerrad567/upnp-display/internal/infrastructure/influxdb"
	"github.com/nerrad567/upnp-display/internal/infrastructure/logging"
	"github.com/nerrad567/upnp-display/internal/infrastructure/mqtt"
	"github.com/nerrad567/upnp-display/internal/nowplaying"
	"github.com/nerrad567/upnp-display/internal/upnp"
	"github.com/nerrad567/upnp-display/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// startupCheckTimeout bounds the health checks run before discovery starts.
const startupCheckTimeout = 5 * time.Second

// errHardwareDisplay is returned when console output is switched off.
var errHardwareDisplay = errors.New("no hardware display driver is available; run with --console")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the command line.
type options struct {
	configPath  string
	name        string
	width       int
	console     bool
	daemon      bool
	screensaver int
	changed     func(name string) bool
}

// parseFlags parses the command line. Flags left unset do not override
// the configuration file.
func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("upnpdisplay", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "path to config file (env UPNPDISPLAY_CONFIG)")
	fs.StringVarP(&opts.name, "name", "n", "", "renderer friendly name or UUID to show (default: first found)")
	fs.IntVarP(&opts.width, "width", "w", 0, "display width in characters")
	fs.BoolVarP(&opts.console, "console", "c", true, "write to the console")
	fs.BoolVarP(&opts.daemon, "daemon", "d", false, "accepted for compatibility; the process does not fork")
	fs.IntVarP(&opts.screensaver, "screensaver", "s", 0, "blank the display after this many idle seconds (0 disables)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	opts.changed = fs.Changed
	return opts, nil
}

// apply copies the flags that were given onto cfg.
func (o *options) apply(cfg *config.Config) {
	if o.changed("name") {
		cfg.Display.RendererName = o.name
	}
	if o.changed("width") {
		cfg.Display.Width = o.width
	}
	if o.changed("console") {
		cfg.Display.Console = o.console
	}
	if o.changed("daemon") {
		cfg.Display.Daemon = o.daemon
	}
	if o.changed("screensaver") {
		cfg.Display.ScreensaverTimeout = time.Duration(o.screensaver) * time.Second
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line without the program name
//   - out: Console display output
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, args []string, out io.Writer) error { //nolint:gocognit,gocyclo // linear startup sequence
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	// Bootstrap logger until the configured one is available
	log := logging.Default()

	configPath := getConfigPath(opts.configPath)
	log.Info("loading configuration", "path", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating flags: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("starting UPnP display",
		"version", version,
		"commit", commit,
		"build_date", date,
		"config", configPath,
	)

	if cfg.Display.Daemon {
		log.Info("daemon flag ignored: the process stays in the foreground, run it under a supervisor such as systemd")
	}
	if !cfg.Display.Console {
		return errHardwareDisplay
	}

	printer := display.NewConsolePrinter(out, cfg.Display.Width, cfg.Display.InPlace)
	subscribers := []display.Subscriber{display.NewWriter(printer)}
	var observers controller.Observers
	var asyncObservers []*controller.AsyncObserver
	checks := make(map[string]api.HealthChecker)

	// Renderer catalogue and play log (optional)
	var historyRepo history.Repository
	var schema api.SchemaVersioner
	if cfg.Database.Enabled {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("database ready", "path", db.Path())

		repo := history.NewSQLiteRepository(db.DB)
		historyRepo = repo
		schema = db
		checks["database"] = db

		tracker := controller.NewAsyncObserver(history.NewTracker(repo, log), log)
		asyncObservers = append(asyncObservers, tracker)
		observers = append(observers, tracker)
		subscribers = append(subscribers, nowplaying.NewAsyncSubscriber(nowplaying.NewPlayLog(repo, log), log))
	}

	// MQTT now-playing, presence and select command (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		checks["mqtt"] = mqttClient

		topics := mqtt.Topics{}
		subscribers = append(subscribers, nowplaying.NewAsyncSubscriber(
			nowplaying.NewMQTTPublisher(mqttClient, topics.NowPlaying(cfg.MQTT.Broker.ClientID), log), log))
		presence := controller.NewAsyncObserver(
			nowplaying.NewPresencePublisher(mqttClient, topics.RendererPresence, log), log)
		asyncObservers = append(asyncObservers, presence)
		observers = append(observers, presence)
	}

	// Playback history (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		checks["influxdb"] = influxClient

		// The write API batches in the background, so the recorder runs inline.
		subscribers = append(subscribers, nowplaying.NewHistoryRecorder(influxClient, 0))
	}

	// WebSocket feed (optional, with the API)
	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.WebSocket, log.With("component", "api"))
		go hub.Run(ctx)
		subscribers = append(subscribers, api.NewFeed(hub))
	}

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	sampler := display.NewSampler(display.SamplerOptions{
		MatchName:          cfg.Display.RendererName,
		Interval:           cfg.Display.UpdateInterval,
		ScreensaverTimeout: cfg.Display.ScreensaverTimeout,
		ReselectOnRemove:   cfg.Display.ReselectOnRemove,
	}, subscribers...)
	sampler.SetLogger(log.With("component", "display"))
	// The sampler goes first so the display reacts before slower observers.
	observers = append(controller.Observers{sampler}, observers...)

	transport := upnp.NewClient(cfg.UPnP)
	transport.SetLogger(log.With("component", "upnp"))
	registry := controller.NewRegistry(transport, observers)
	registry.SetLogger(log.With("component", "controller"))
	transport.SetHandler(registry)

	if mqttClient != nil {
		topic := mqtt.Topics{}.SelectCommand(cfg.MQTT.Broker.ClientID)
		err := mqttClient.HandleCommand(topic, func(payload []byte) error {
			sampler.Select(strings.TrimSpace(string(payload)))
			return nil
		})
		if err != nil {
			log.Warn("renderer select command unavailable", "topic", topic, "error", err)
		}
	}

	if cfg.API.Enabled {
		server, err := api.New(api.Deps{
			Config:      cfg.API,
			WS:          cfg.WebSocket,
			Logger:      log.With("component", "api"),
			Registry:    registry,
			NowPlaying:  sampler,
			History:     historyRepo,
			Schema:      schema,
			Checks:      checks,
			ExternalHub: hub,
			Version:     version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if err := transport.Start(ctx); err != nil {
		return fmt.Errorf("starting UPnP transport: %w", err)
	}

	if cfg.Display.PollPosition {
		poller := controller.NewPositionPoller(registry, sampler, transport, cfg.Display.PollInterval)
		poller.SetLogger(log.With("component", "controller"))
		go poller.Run(ctx)
	}

	log.Info("initialisation complete, waiting for renderers",
		"filter", cfg.Display.RendererName,
		"width", cfg.Display.Width,
	)

	// Blocks until shutdown; subscribers get OnExit before it returns.
	sampler.Run(ctx)

	log.Info("shutdown signal received, cleaning up")

	// Unsubscribe while the transport and the broker are still up.
	registry.Close()
	if err := transport.Close(); err != nil {
		log.Error("error closing UPnP transport", "error", err)
	}
	for _, obs := range asyncObservers {
		obs.Close()
	}

	// Deferred Close() calls run in reverse order:
	// 1. API server (if enabled)
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database (if enabled)

	log.Info("UPnP display stopped")
	return nil
}

// getConfigPath returns the flag value, then UPNPDISPLAY_CONFIG, then the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("UPNPDISPLAY_CONFIG"); path != "" {
		return path
	}
	return config.DefaultPath
}

// healthCheck verifies every enabled infrastructure connection.
//
// Returns:
//   - error: First health check failure in name order, or nil if all healthy
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	ctx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := checks[name].HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
