package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Status represents the current state of a spawned process.
type Status string

const (
	StatusRunning Status = "running"
	StatusKilled  Status = "killed"
)

// reapTimeout bounds how long Kill waits for the killed child to be reaped.
const reapTimeout = 5 * time.Second

// ErrNotRunning is returned by Kill when the process was already killed.
var ErrNotRunning = errors.New("process: not running")

// Config holds configuration for a spawned subprocess.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the path to the executable.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// Env are additional environment variables (key=value format),
	// appended to the parent environment.
	Env []string

	// WorkDir is the working directory for the process.
	// If empty, inherits from parent process.
	WorkDir string

	// InheritOutput connects the child's stdout/stderr to the parent's.
	// When false both streams go to the null device.
	InheritOutput bool
}

// Logger defines the logging interface for spawned processes.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Handle is the owned reference to one running child process.
// There is no restart or monitoring: the child lives until Kill is called
// or it exits on its own.
type Handle struct {
	config Config
	logger Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	status    Status
	startTime time.Time
	exitErr   error
}

// Start spawns the subprocess described by cfg and returns its handle.
// The call returns as soon as the OS has created the process.
func Start(cfg Config, logger Logger) (*Handle, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Binary
	}

	logger.Info("starting process",
		"name", cfg.Name,
		"binary", cfg.Binary,
		"args", cfg.Args,
		"workdir", cfg.WorkDir,
	)

	cmd := exec.Command(cfg.Binary, cfg.Args...) //nolint:gosec // Binary path is resolved and stat-checked by the caller

	// Own process group so Kill reaches anything the backend forks.
	setProcAttr(cmd)

	if cfg.Env != nil {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}
	if cfg.WorkDir != "" {
		cmd.Dir = cfg.WorkDir
	}

	// nil streams are connected to os.DevNull by os/exec.
	if cfg.InheritOutput {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", cfg.Name, err)
	}

	h := &Handle{
		config:    cfg,
		logger:    logger,
		cmd:       cmd,
		status:    StatusRunning,
		startTime: time.Now(),
	}

	logger.Info("process started",
		"name", cfg.Name,
		"pid", cmd.Process.Pid,
	)

	return h, nil
}

// Kill forcibly terminates the process (and its process group where the
// platform supports it), then reaps it. A process that already exited on
// its own is not an error. Calling Kill twice returns ErrNotRunning.
func (h *Handle) Kill() error {
	h.mu.Lock()
	if h.status != StatusRunning {
		h.mu.Unlock()
		return ErrNotRunning
	}
	h.status = StatusKilled
	cmd := h.cmd
	h.mu.Unlock()

	pid := cmd.Process.Pid
	h.logger.Info("killing process", "name", h.config.Name, "pid", pid)

	killErr := killProcess(cmd.Process)
	if errors.Is(killErr, os.ErrProcessDone) {
		killErr = nil
	}
	if killErr != nil {
		h.logger.Warn("failed to kill process", "name", h.config.Name, "pid", pid, "error", killErr)
	}

	// Reap the child so it does not linger as a zombie.
	exitCh := make(chan error, 1)
	go func() {
		exitCh <- cmd.Wait()
	}()

	select {
	case err := <-exitCh:
		h.mu.Lock()
		h.exitErr = err
		h.mu.Unlock()
		h.logger.Info("process killed", "name", h.config.Name, "pid", pid)
	case <-time.After(reapTimeout):
		h.logger.Warn("process did not exit after kill", "name", h.config.Name, "pid", pid)
		if killErr == nil {
			killErr = fmt.Errorf("process %s (pid %d) did not exit after kill", h.config.Name, pid)
		}
	}

	return killErr
}

// PID returns the process ID.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// Stats describes a spawned process.
type Stats struct {
	Name     string        `json:"name"`
	Binary   string        `json:"binary"`
	Status   Status        `json:"status"`
	PID      int           `json:"pid"`
	Uptime   time.Duration `json:"uptime,omitempty"`
	ExitInfo string        `json:"exit_info,omitempty"`
}

// Stats returns current statistics for the process. Uptime is zero once
// the process has been killed.
func (h *Handle) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := Stats{
		Name:   h.config.Name,
		Binary: h.config.Binary,
		Status: h.status,
		PID:    h.cmd.Process.Pid,
	}
	if h.status == StatusRunning {
		stats.Uptime = time.Since(h.startTime)
	}
	if h.exitErr != nil {
		stats.ExitInfo = h.exitErr.Error()
	}
	return stats
}
