package sidecar

import (
	"context"
	"sync"

	"github.com/nerrad567/agentshell/internal/host"
	"github.com/nerrad567/agentshell/internal/process"
)

// State is the shutdown coordinator's position in the host lifecycle.
type State int

const (
	StateRunning State = iota
	StateExitRequested
	StateTerminating
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExitRequested:
		return "exit_requested"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Exiter requests application exit.
type Exiter interface {
	Exit(code int)
}

// Coordinator guarantees the tracked backend is killed exactly once while
// the host shuts down, whichever event arrives first.
//
//	Running --close(main)--> ExitRequested --exit event--> Terminating --> Terminated
//
// Closing the primary window exits the whole application even if other
// windows are open.
type Coordinator struct {
	registry *Registry
	exiter   Exiter
	logger   Logger
	observer Observer

	mu    sync.Mutex
	state State
}

// CoordinatorOptions configures optional collaborators.
type CoordinatorOptions struct {
	Logger   Logger
	Observer Observer
}

// NewCoordinator creates a coordinator in StateRunning.
func NewCoordinator(registry *Registry, exiter Exiter, opts CoordinatorOptions) *Coordinator {
	c := &Coordinator{
		registry: registry,
		exiter:   exiter,
		logger:   opts.Logger,
		observer: opts.Observer,
		state:    StateRunning,
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	return c
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HandleWindowEvent turns a close request on the primary window into a
// full application exit, so the backend is killed on the exit path.
func (c *Coordinator) HandleWindowEvent(ev *host.CloseRequestedEvent) {
	if ev.Label != host.MainWindow {
		return
	}
	ev.PreventClose()

	c.mu.Lock()
	if c.state == StateRunning {
		c.state = StateExitRequested
	}
	c.mu.Unlock()

	c.logger.Info("main window close requested; exiting application")
	c.exiter.Exit(0)
}

// HandleRunEvent kills the tracked backend on the first exit or
// exit-requested event. Later events are no-ops.
func (c *Coordinator) HandleRunEvent(ev host.RunEvent) {
	switch ev.Kind {
	case host.RunEventExitRequested, host.RunEventExit:
	default:
		return
	}

	c.mu.Lock()
	if c.state == StateTerminating || c.state == StateTerminated {
		c.mu.Unlock()
		return
	}
	c.state = StateTerminating
	c.mu.Unlock()

	c.terminate(ev)

	c.mu.Lock()
	c.state = StateTerminated
	c.mu.Unlock()
}

// statsReporter is implemented by *process.Handle.
type statsReporter interface {
	Stats() process.Stats
}

func (c *Coordinator) terminate(ev host.RunEvent) {
	proc, ok := c.registry.Take()
	if !ok {
		c.logger.Debug("no backend process to terminate", "event", ev.Kind.String())
		return
	}

	pid := proc.PID()
	attrs := []any{"pid", pid, "event", ev.Kind.String()}
	if sr, ok := proc.(statsReporter); ok {
		st := sr.Stats()
		attrs = append(attrs, "status", string(st.Status), "uptime", st.Uptime.String())
		if st.ExitInfo != "" {
			attrs = append(attrs, "exit_info", st.ExitInfo)
		}
	}
	c.logger.Info("terminating backend", attrs...)

	// The backend may already be gone; the host exits either way.
	if err := proc.Kill(); err != nil {
		c.logger.Debug("backend kill failed", "pid", pid, "error", err)
	}

	notify(context.Background(), c.observer, c.logger, Event{
		Kind:   EventKilled,
		PID:    pid,
		Detail: ev.Kind.String(),
	})
}
