package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/nerrad567/agentshell/internal/audit"
	"github.com/nerrad567/agentshell/internal/host"
	"github.com/nerrad567/agentshell/internal/infrastructure/database"
	"github.com/nerrad567/agentshell/internal/infrastructure/logging"
	"github.com/nerrad567/agentshell/internal/sidecar"
	"github.com/nerrad567/agentshell/migrations"
)

// isolate points config, data and home directories at a temp dir and
// clears every override the host environment might carry.
func isolate(t *testing.T) string {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("data directory isolation relies on XDG_DATA_HOME")
	}
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, key := range []string{
		"AGENTSHELL_CONFIG",
		"AGENTSHELL_MODE",
		"AGENTSHELL_DEV_SOURCE_DIR",
		"AGENTSHELL_LOG_LEVEL",
		"AGENTSHELL_MQTT_PASSWORD",
		"AGENTSHELL_INFLUXDB_TOKEN",
		sidecar.EnvExternalBackend,
		sidecar.EnvDBPath,
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "agentshell.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestRun_ExplicitConfigMustExist(t *testing.T) {
	dir := isolate(t)
	t.Setenv("AGENTSHELL_CONFIG", filepath.Join(dir, "missing.yaml"))

	if _, err := run(context.Background()); err == nil {
		t.Fatal("run() should fail with a missing explicit config")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	dir := isolate(t)
	t.Setenv("AGENTSHELL_CONFIG", writeConfig(t, dir, "app:\n  mode: staging\n"))

	if _, err := run(context.Background()); err == nil {
		t.Fatal("run() should reject an unknown mode")
	}
}

func TestRun_ProductionMissingBackendFails(t *testing.T) {
	dir := isolate(t)
	t.Setenv("AGENTSHELL_CONFIG", writeConfig(t, dir, "database:\n  enabled: false\n"))

	_, err := run(context.Background())
	if !errors.Is(err, sidecar.ErrBackendNotFound) {
		t.Fatalf("run() error = %v, want ErrBackendNotFound", err)
	}
}

func TestRun_ExternalBackendRecordsHistory(t *testing.T) {
	dir := isolate(t)
	t.Setenv("AGENTSHELL_CONFIG", writeConfig(t, dir, "app:\n  identifier: com.example.test\n"))
	t.Setenv(sidecar.EnvExternalBackend, "1")

	// A cancelled context behaves like an immediate application exit.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	var (
		code int
		err  error
	)
	go func() {
		code, err = run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not return after cancellation")
	}
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	dbPath := filepath.Join(dir, "data", "com.example.test", "supervisor.db")
	db, err := database.Open(database.Config{Path: dbPath, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("opening state database: %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup

	res, err := audit.NewSQLiteRepository(db.DB).List(context.Background(), audit.Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 || res.Events[0].Kind != string(sidecar.EventExternal) {
		t.Errorf("history = %+v, want one external event", res.Events)
	}
}

func TestLoadConfig_ModeFromBuild(t *testing.T) {
	isolate(t)
	orig := mode
	t.Cleanup(func() { mode = orig })
	mode = "development"

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if !cfg.App.IsDevelopment() {
		t.Errorf("App.Mode = %q, want development", cfg.App.Mode)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want text for a development build", cfg.Logging.Format)
	}

	t.Setenv("AGENTSHELL_MODE", "production")
	cfg, err = loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.App.IsDevelopment() {
		t.Error("AGENTSHELL_MODE should win over the build-time mode")
	}
}

// backendStub stands in for the spawned backend.
type backendStub struct {
	mu    sync.Mutex
	kills int
}

func (b *backendStub) PID() int { return 4242 }

func (b *backendStub) Kill() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kills++
	return nil
}

func TestForwardSignals_KillBackend(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX signals only")
	}

	for _, sig := range []os.Signal{syscall.SIGHUP, syscall.SIGTERM, os.Interrupt} {
		t.Run(sig.String(), func(t *testing.T) {
			app := host.New(host.MainWindow)
			stop := forwardSignals(app)
			defer stop()

			registry := sidecar.NewRegistry()
			backend := &backendStub{}
			if err := registry.Install(backend); err != nil {
				t.Fatalf("Install() error = %v", err)
			}

			// Delivered before Run starts; the event must wait in the queue.
			self, err := os.FindProcess(os.Getpid())
			if err != nil {
				t.Fatalf("FindProcess() error = %v", err)
			}
			if err := self.Signal(sig); err != nil {
				t.Fatalf("Signal(%v) error = %v", sig, err)
			}

			done := make(chan int, 1)
			go func() {
				done <- app.Run(context.Background(), sidecar.NewCoordinator(registry, app, sidecar.CoordinatorOptions{}))
			}()
			select {
			case code := <-done:
				if code != 0 {
					t.Errorf("exit code = %d, want 0", code)
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("host did not exit after %v", sig)
			}

			backend.mu.Lock()
			defer backend.mu.Unlock()
			if backend.kills != 1 {
				t.Errorf("backend killed %d times, want 1", backend.kills)
			}
		})
	}
}

func TestLogPreviousSession(t *testing.T) {
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "state.db"), BusyTimeout: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup
	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	repo := audit.NewSQLiteRepository(db.DB)

	var buf bytes.Buffer
	log := &logging.Logger{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	logPreviousSession(repo, log)
	if !strings.Contains(buf.String(), "no lifecycle history") {
		t.Errorf("empty store log = %q", buf.String())
	}

	now := time.Now()
	for _, ev := range []*audit.Event{
		{Kind: string(sidecar.EventSpawnFailed), Detail: "backend executable not found", CreatedAt: now.Add(-time.Hour)},
		{Kind: string(sidecar.EventKilled), PID: 99, CreatedAt: now.Add(-time.Minute)},
	} {
		if err := repo.Create(context.Background(), ev); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	buf.Reset()
	logPreviousSession(repo, log)
	out := buf.String()
	if !strings.Contains(out, "previous backend session") || !strings.Contains(out, "last_event=killed") {
		t.Errorf("log = %q, want the killed event reported", out)
	}
	if !strings.Contains(out, "backend failed to start recently") || !strings.Contains(out, "failures=1") {
		t.Errorf("log = %q, want one recent spawn failure", out)
	}
}
