// agentshell is the desktop host for the agent chat app. It starts the
// Python backend as a sidecar, keeps it alive for the lifetime of the
// main window and kills it on every exit path.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/nerrad567/agentshell/internal/audit"
	"github.com/nerrad567/agentshell/internal/host"
	"github.com/nerrad567/agentshell/internal/infrastructure/config"
	"github.com/nerrad567/agentshell/internal/infrastructure/database"
	"github.com/nerrad567/agentshell/internal/infrastructure/influxdb"
	"github.com/nerrad567/agentshell/internal/infrastructure/logging"
	"github.com/nerrad567/agentshell/internal/infrastructure/mqtt"
	"github.com/nerrad567/agentshell/internal/platform"
	"github.com/nerrad567/agentshell/internal/sidecar"
	"github.com/nerrad567/agentshell/internal/telemetry"
	"github.com/nerrad567/agentshell/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.mode=development"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	// mode overrides app.mode unless AGENTSHELL_MODE is set.
	mode = ""
)

const defaultConfigPath = "configs/agentshell.yaml"

const (
	healthCheckTimeout = 5 * time.Second

	// failureWindow bounds the spawn-failure count logged at startup.
	failureWindow = 24 * time.Hour
)

func main() {
	code, err := run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// run wires the host together and blocks until the application exits.
// It returns the host's exit code, or an error when startup fails.
func run(ctx context.Context) (int, error) {
	log := logging.Default()
	log.Info("starting agentshell",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := loadConfig()
	if err != nil {
		return 0, err
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"mode", cfg.App.Mode,
		"identifier", cfg.App.Identifier,
		"log_level", cfg.Logging.Level,
	)

	host.LogSandboxStatus(log, runtime.GOOS, os.Getenv)

	paths := platform.NewOSPaths(cfg.App.Identifier, cfg.App.ProductName)

	observers, closeAll := connectObservers(cfg, paths, log)
	defer closeAll()

	// Signals are forwarded before the backend exists so none can kill the
	// host and orphan it. Events queue until Run.
	app := host.New(host.MainWindow)
	stop := forwardSignals(app)
	defer stop()

	registry := sidecar.NewRegistry()
	launcher := &sidecar.Launcher{
		Paths:        paths,
		Spawner:      sidecar.ProcessSpawner(log.With("component", "process")),
		Development:  cfg.App.IsDevelopment(),
		DevSourceDir: cfg.App.DevSourceDir,
		Logger:       log,
	}
	supervisor := sidecar.NewSupervisor(launcher, registry, sidecar.SupervisorOptions{
		Development: cfg.App.IsDevelopment(),
		Logger:      log,
		Observer:    observers,
	})
	if err := supervisor.Setup(ctx); err != nil {
		return 0, err
	}

	coordinator := sidecar.NewCoordinator(registry, app, sidecar.CoordinatorOptions{
		Logger:   log,
		Observer: observers,
	})

	code := app.Run(ctx, coordinator)
	log.Info("agentshell stopped", "exit_code", code, "state", coordinator.State().String())
	return code, nil
}

// loadConfig reads AGENTSHELL_CONFIG when set (the file must exist),
// otherwise the default path with a fallback to built-in defaults.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := os.Getenv("AGENTSHELL_CONFIG"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(defaultConfigPath)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.ApplyBuildMode(mode); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// forwardSignals maps SIGINT to a close of the main window and SIGTERM or
// SIGHUP to an application exit, so each travels the normal shutdown path.
// The backend runs in its own process group and never sees them directly.
func forwardSignals(app *host.App) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-sigs:
				if sig == os.Interrupt {
					app.CloseWindow(host.MainWindow)
				} else {
					app.Exit(0)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// connectObservers opens the optional lifecycle sinks. A sink that cannot
// be reached is logged and skipped; the backend runs regardless.
func connectObservers(cfg *config.Config, paths platform.PathProvider, log *logging.Logger) (sidecar.Observers, func()) {
	var (
		observers sidecar.Observers
		closers   []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Database.Enabled {
		db, err := openStateDB(cfg.Database, paths)
		if err != nil {
			log.Warn("state database unavailable; lifecycle history disabled", "error", err)
		} else {
			log.Info("state database ready", "path", db.Path())
			repo := audit.NewSQLiteRepository(db.DB)
			logPreviousSession(repo, log)
			observers = append(observers, repo)
			closers = append(closers, func() {
				if err := db.Close(); err != nil {
					log.Error("error closing database", "error", err)
				}
			})
		}
	}

	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT)
		if err == nil {
			if err = checkHealth(client); err != nil {
				client.Close() //nolint:errcheck // already failing
			}
		}
		if err != nil {
			log.Warn("MQTT unavailable; backend status will not be published", "error", err)
		} else {
			client.SetLogger(log)
			log.Info("MQTT connected",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"client_id", cfg.MQTT.Broker.ClientID,
			)
			observers = append(observers, telemetry.NewStatusPublisher(client, client.Topics()))
			closers = append(closers, func() {
				if err := client.Close(); err != nil {
					log.Error("error closing MQTT", "error", err)
				}
			})
		}
	}

	client, err := influxdb.Connect(cfg.InfluxDB)
	if err == nil {
		if err = checkHealth(client); err != nil {
			client.Close() //nolint:errcheck // already failing
		}
	}
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
	case err != nil:
		log.Warn("InfluxDB unavailable; lifecycle points will not be recorded", "error", err)
	default:
		client.SetOnError(func(err error) {
			log.Warn("InfluxDB write failed", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		observers = append(observers, telemetry.NewPointRecorder(client, cfg.App.ProductName))
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				log.Error("error closing InfluxDB", "error", err)
			}
		})
	}

	return observers, closeAll
}

// openStateDB opens and migrates the supervisor store. A relative path is
// resolved against the app data directory.
func openStateDB(cfg config.DatabaseConfig, paths platform.PathProvider) (*database.DB, error) {
	path := cfg.Path
	if !filepath.IsAbs(path) {
		dataDir, err := paths.AppDataDir()
		if err != nil {
			return nil, fmt.Errorf("resolving database path: %w", err)
		}
		path = filepath.Join(dataDir, path)
	}

	db, err := database.Open(database.Config{
		Path:        path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := checkHealth(db); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, err
	}
	return db, nil
}

// healthChecker is implemented by every optional sink.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

func checkHealth(hc healthChecker) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	return hc.HealthCheck(ctx)
}

// logPreviousSession reports how the last run's backend ended and any
// recent spawn failures. History is informational; errors are logged.
func logPreviousSession(repo *audit.SQLiteRepository, log *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	last, err := repo.List(ctx, audit.Filter{Limit: 1})
	if err != nil {
		log.Warn("reading lifecycle history failed", "error", err)
		return
	}
	if len(last.Events) == 0 {
		log.Debug("no lifecycle history")
		return
	}
	ev := last.Events[0]
	log.Info("previous backend session",
		"last_event", ev.Kind,
		"pid", ev.PID,
		"at", ev.CreatedAt,
		"events_recorded", last.Total,
	)

	failures, err := repo.List(ctx, audit.Filter{
		Kind:  string(sidecar.EventSpawnFailed),
		Since: time.Now().Add(-failureWindow),
		Limit: 1,
	})
	if err != nil {
		log.Warn("reading lifecycle history failed", "error", err)
		return
	}
	if failures.Total > 0 {
		log.Warn("backend failed to start recently",
			"failures", failures.Total,
			"window", failureWindow.String(),
			"last_error", failures.Events[0].Detail,
		)
	}
}
