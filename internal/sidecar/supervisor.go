package sidecar

import (
	"context"
	"errors"
	"fmt"
)

// Supervisor runs the startup half of the backend lifecycle.
type Supervisor struct {
	launcher    *Launcher
	registry    *Registry
	development bool
	logger      Logger
	observer    Observer
}

// SupervisorOptions configures a Supervisor.
type SupervisorOptions struct {
	// Development keeps the host running when the backend cannot start.
	Development bool
	Logger      Logger
	Observer    Observer
}

// NewSupervisor creates a Supervisor that installs launched processes
// into registry.
func NewSupervisor(launcher *Launcher, registry *Registry, opts SupervisorOptions) *Supervisor {
	s := &Supervisor{
		launcher:    launcher,
		registry:    registry,
		development: opts.Development,
		logger:      opts.Logger,
		observer:    opts.Observer,
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	return s
}

// Setup launches the backend and tracks it.
//
// An external backend is reported and tolerated. Any other failure is
// returned in production, which aborts host startup; in development it is
// logged and the host continues without a backend.
func (s *Supervisor) Setup(ctx context.Context) error {
	if s.registry.Occupied() {
		return fmt.Errorf("starting backend sidecar: %w", ErrAlreadyInstalled)
	}

	proc, lc, err := s.launcher.Launch()
	switch {
	case err == nil:
		if installErr := s.registry.Install(proc); installErr != nil {
			_ = proc.Kill() //nolint:errcheck // Untracked duplicate must not outlive the host
			return fmt.Errorf("tracking backend: %w", installErr)
		}
		s.logger.Info("backend sidecar started",
			"pid", proc.PID(),
			"executable", lc.Executable,
			"address", lc.Address(),
		)
		notify(ctx, s.observer, s.logger, Event{
			Kind:       EventSpawned,
			PID:        proc.PID(),
			Executable: lc.Executable,
			Address:    lc.Address(),
		})
		return nil

	case errors.Is(err, ErrExternalBackend):
		s.logger.Info("using external backend", "address", DefaultAddress())
		notify(ctx, s.observer, s.logger, Event{Kind: EventExternal, Address: DefaultAddress(), Detail: err.Error()})
		return nil

	default:
		notify(ctx, s.observer, s.logger, Event{
			Kind:       EventSpawnFailed,
			Executable: lc.Executable,
			Detail:     err.Error(),
		})
		if s.development {
			s.logger.Error("backend sidecar unavailable; continuing without it", "error", err)
			return nil
		}
		return fmt.Errorf("starting backend sidecar: %w", err)
	}
}
