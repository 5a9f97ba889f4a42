package sidecar

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nerrad567/agentshell/internal/platform"
)

// Fixed loopback endpoint the backend binds to.
const (
	BindHost = "127.0.0.1"
	BindPort = 8000
)

// File names inside the app data directory.
const (
	databaseFileName    = "chat_app.db"
	appConfigFileName   = "app_config.json"
	toolsConfigFileName = "tools_config.json"
)

// Environment variable names.
const (
	EnvExternalBackend = "TAURI_AGENT_EXTERNAL_BACKEND"
	EnvDBPath          = "TAURI_AGENT_DB_PATH"
	EnvDataDir         = "TAURI_AGENT_DATA_DIR"
	EnvAppConfigPath   = "APP_CONFIG_PATH"
	EnvToolsConfigPath = "TOOLS_CONFIG_PATH"
)

// dataDirPermissions is the mode used when creating the app data directory.
const dataDirPermissions = 0o750

// Environment is the set of filesystem locations and the endpoint the
// backend runs with.
type Environment struct {
	DataDir         string
	DatabasePath    string
	AppConfigPath   string
	ToolsConfigPath string
	Host            string
	Port            int
}

// EnvironmentOptions controls BuildEnvironment.
type EnvironmentOptions struct {
	Paths platform.PathProvider

	// Development enables the source-tree database lookup.
	Development bool

	// DevSourceDir is the project root; the development database is
	// expected at <DevSourceDir>/python-backend/chat_app.db.
	DevSourceDir string

	// Getenv reads environment overrides. Defaults to os.Getenv.
	Getenv func(string) string
}

// BuildEnvironment computes the backend's runtime environment.
// Its only side effect is creating the app data directory.
func BuildEnvironment(opts EnvironmentOptions) (Environment, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	dataDir, err := opts.Paths.AppDataDir()
	if err != nil {
		return Environment{}, fmt.Errorf("%w: %w", ErrAppDataDirUnavailable, err)
	}
	if err := os.MkdirAll(dataDir, dataDirPermissions); err != nil {
		return Environment{}, fmt.Errorf("%w: %w", ErrAppDataDirCreateFailed, err)
	}

	return Environment{
		DataDir:         dataDir,
		DatabasePath:    selectDatabasePath(dataDir, opts, getenv),
		AppConfigPath:   filepath.Join(dataDir, appConfigFileName),
		ToolsConfigPath: filepath.Join(dataDir, toolsConfigFileName),
		Host:            BindHost,
		Port:            BindPort,
	}, nil
}

// selectDatabasePath applies: explicit override, then the development
// checkout database if present, then the app data default.
func selectDatabasePath(dataDir string, opts EnvironmentOptions, getenv func(string) string) string {
	if v := getenv(EnvDBPath); v != "" {
		return v
	}
	if opts.Development && opts.DevSourceDir != "" {
		// The child runs with the data dir as its working directory, so a
		// relative candidate would resolve against the wrong tree.
		devCandidate, err := filepath.Abs(filepath.Join(opts.DevSourceDir, "python-backend", databaseFileName))
		if err == nil && fileExists(devCandidate) {
			return devCandidate
		}
	}
	return filepath.Join(dataDir, databaseFileName)
}

// DefaultAddress is the fixed endpoint, used when the backend is external.
func DefaultAddress() string {
	return joinHostPort(BindHost, BindPort)
}

// Address returns host:port.
func (e Environment) Address() string {
	return joinHostPort(e.Host, e.Port)
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// LaunchConfig is everything needed to start the backend. Built once per
// startup attempt and never modified.
type LaunchConfig struct {
	Environment

	Executable string

	// InheritOutput keeps backend stdout/stderr visible (development).
	InheritOutput bool
}

// NewLaunchConfig combines a resolved executable with its environment.
func NewLaunchConfig(executable string, env Environment, inheritOutput bool) LaunchConfig {
	return LaunchConfig{
		Environment:   env,
		Executable:    executable,
		InheritOutput: inheritOutput,
	}
}

// Args returns the command-line arguments binding the backend to its endpoint.
func (c LaunchConfig) Args() []string {
	return []string{"--host", c.Host, "--port", strconv.Itoa(c.Port)}
}

// Env returns the variables set on the child in key=value form.
func (c LaunchConfig) Env() []string {
	return []string{
		EnvDataDir + "=" + c.DataDir,
		EnvDBPath + "=" + c.DatabasePath,
		EnvAppConfigPath + "=" + c.AppConfigPath,
		EnvToolsConfigPath + "=" + c.ToolsConfigPath,
	}
}
