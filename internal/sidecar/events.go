package sidecar

import (
	"context"
	"errors"
	"time"
)

// EventKind classifies a lifecycle event.
type EventKind string

const (
	EventSpawned     EventKind = "spawned"
	EventExternal    EventKind = "external"
	EventSpawnFailed EventKind = "spawn_failed"
	EventKilled      EventKind = "killed"
)

// Event records one backend lifecycle transition.
type Event struct {
	Kind       EventKind
	PID        int
	Executable string
	Address    string
	Detail     string
	Time       time.Time
}

// Observer receives lifecycle events. Failures are logged by the caller
// and never change supervisor behaviour.
type Observer interface {
	ObserveLifecycle(ctx context.Context, ev Event) error
}

// Observers fans an event out to every member.
type Observers []Observer

// ObserveLifecycle delivers ev to all observers and joins their errors.
func (o Observers) ObserveLifecycle(ctx context.Context, ev Event) error {
	var errs []error
	for _, obs := range o {
		if obs == nil {
			continue
		}
		if err := obs.ObserveLifecycle(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Logger defines the logging interface used by the supervisor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// notify delivers ev and logs observer failures.
func notify(ctx context.Context, obs Observer, logger Logger, ev Event) {
	if obs == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	if err := obs.ObserveLifecycle(ctx, ev); err != nil {
		logger.Warn("lifecycle observer failed", "event", ev.Kind, "error", err)
	}
}
