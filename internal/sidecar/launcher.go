package sidecar

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/nerrad567/agentshell/internal/platform"
	"github.com/nerrad567/agentshell/internal/process"
)

// Spawner starts an OS process.
type Spawner interface {
	Spawn(cfg process.Config) (Process, error)
}

// SpawnerFunc adapts a function to Spawner.
type SpawnerFunc func(cfg process.Config) (Process, error)

// Spawn calls f.
func (f SpawnerFunc) Spawn(cfg process.Config) (Process, error) {
	return f(cfg)
}

// ProcessSpawner returns a Spawner backed by process.Start.
func ProcessSpawner(logger process.Logger) Spawner {
	return SpawnerFunc(func(cfg process.Config) (Process, error) {
		h, err := process.Start(cfg, logger)
		if err != nil {
			return nil, err
		}
		return h, nil
	})
}

// ExternalBackendEnabled reports whether an externally run backend was
// requested: the variable is "1" or, in any case, "true".
func ExternalBackendEnabled(getenv func(string) string) bool {
	v := getenv(EnvExternalBackend)
	return v == "1" || strings.EqualFold(v, "true")
}

// Launcher resolves, configures and spawns the backend.
type Launcher struct {
	Paths        platform.PathProvider
	Spawner      Spawner
	Development  bool
	DevSourceDir string

	// Optional; default to os.Getenv, runtime.GOOS and a no-op logger.
	Getenv func(string) string
	GOOS   string
	Logger Logger
}

// Launch starts the backend and returns its process together with the
// configuration it was started with.
//
// With the external-backend override set it returns ErrExternalBackend
// and spawns nothing. Other failures wrap one of the package's startup
// errors.
func (l *Launcher) Launch() (Process, LaunchConfig, error) {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	goos := l.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	logger := l.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	if ExternalBackendEnabled(getenv) {
		logger.Info("external backend enabled; skipping sidecar spawn")
		return nil, LaunchConfig{}, ErrExternalBackend
	}
	logger.Info("spawning sidecar backend")

	env, err := BuildEnvironment(EnvironmentOptions{
		Paths:        l.Paths,
		Development:  l.Development,
		DevSourceDir: l.DevSourceDir,
		Getenv:       getenv,
	})
	if err != nil {
		return nil, LaunchConfig{}, err
	}

	resourceDir, err := l.Paths.ResourceDir()
	if err != nil {
		return nil, LaunchConfig{}, fmt.Errorf("%w: %w", ErrResourceDirUnavailable, err)
	}
	// A host that cannot locate itself only loses the fallback location.
	currentExe, err := l.Paths.CurrentExecutable()
	if err != nil {
		logger.Debug("current executable unknown; skipping fallback path", "error", err)
		currentExe = ""
	}

	exe, err := ResolveBackendPath(resourceDir, currentExe, BackendExecutableName(goos))
	if err != nil {
		return nil, LaunchConfig{}, err
	}

	lc := NewLaunchConfig(exe, env, l.Development)

	logger.Debug("backend launch config",
		"executable", lc.Executable,
		"address", lc.Address(),
		"data_dir", lc.DataDir,
		"database", lc.DatabasePath,
		"inherit_output", lc.InheritOutput,
	)

	proc, err := l.Spawner.Spawn(process.Config{
		Name:          "backend",
		Binary:        lc.Executable,
		Args:          lc.Args(),
		Env:           lc.Env(),
		WorkDir:       lc.DataDir,
		InheritOutput: lc.InheritOutput,
	})
	if err != nil {
		return nil, lc, fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}

	return proc, lc, nil
}
