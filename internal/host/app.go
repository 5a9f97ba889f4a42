// Package host is a minimal event loop standing in for the desktop
// framework: it owns the windows, queues lifecycle events and dispatches
// them one at a time to a Handler.
package host

import (
	"context"
	"sync"
)

// MainWindow is the label of the primary window.
const MainWindow = "main"

// CloseRequestedEvent is delivered when a window is asked to close.
// Unless a handler calls PreventClose the window closes, and closing the
// last window exits the application.
type CloseRequestedEvent struct {
	Label     string
	prevented bool
}

// PreventClose keeps the window open.
func (e *CloseRequestedEvent) PreventClose() { e.prevented = true }

// Prevented reports whether PreventClose was called.
func (e *CloseRequestedEvent) Prevented() bool { return e.prevented }

// RunEventKind identifies an application lifecycle event.
type RunEventKind int

const (
	// RunEventExitRequested precedes shutdown.
	RunEventExitRequested RunEventKind = iota + 1
	// RunEventExit is the last event the loop delivers.
	RunEventExit
)

func (k RunEventKind) String() string {
	switch k {
	case RunEventExitRequested:
		return "exit_requested"
	case RunEventExit:
		return "exit"
	default:
		return "unknown"
	}
}

// RunEvent is an application lifecycle event.
type RunEvent struct {
	Kind RunEventKind
	Code int
}

// Handler receives dispatched events on the loop goroutine.
type Handler interface {
	HandleWindowEvent(ev *CloseRequestedEvent)
	HandleRunEvent(ev RunEvent)
}

// queued is one pending event.
type queued struct {
	close *CloseRequestedEvent
	exit  *int
}

// App is the host application loop.
//
// Thread Safety:
//   - CloseWindow and Exit may be called from any goroutine, including
//     from inside a Handler.
type App struct {
	mu      sync.Mutex
	windows map[string]bool
	queue   []queued
	wake    chan struct{}
	exiting bool
}

// New creates an App with the given windows open.
func New(windows ...string) *App {
	a := &App{
		windows: make(map[string]bool),
		wake:    make(chan struct{}, 1),
	}
	for _, w := range windows {
		a.windows[w] = true
	}
	return a
}

// CloseWindow queues a close request for the labelled window.
func (a *App) CloseWindow(label string) {
	a.push(queued{close: &CloseRequestedEvent{Label: label}})
}

// Exit queues an application exit with the given code. Only the first
// call has an effect.
func (a *App) Exit(code int) {
	a.mu.Lock()
	if a.exiting {
		a.mu.Unlock()
		return
	}
	a.exiting = true
	a.mu.Unlock()
	a.push(queued{exit: &code})
}

// Windows returns the number of open windows.
func (a *App) Windows() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.windows)
}

func (a *App) push(q queued) {
	a.mu.Lock()
	a.queue = append(a.queue, q)
	a.mu.Unlock()
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *App) pop() (queued, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) == 0 {
		return queued{}, false
	}
	q := a.queue[0]
	a.queue = a.queue[1:]
	return q, true
}

// Run dispatches events to h until the application exits and returns the
// exit code. Cancelling ctx behaves like Exit(0).
func (a *App) Run(ctx context.Context, h Handler) int {
	done := ctx.Done()
	for {
		q, ok := a.pop()
		if !ok {
			select {
			case <-a.wake:
			case <-done:
				done = nil
				a.Exit(0)
			}
			continue
		}

		if q.close != nil {
			a.dispatchClose(h, q.close)
			continue
		}

		code := *q.exit
		h.HandleRunEvent(RunEvent{Kind: RunEventExitRequested, Code: code})
		h.HandleRunEvent(RunEvent{Kind: RunEventExit, Code: code})
		return code
	}
}

func (a *App) dispatchClose(h Handler, ev *CloseRequestedEvent) {
	a.mu.Lock()
	open := a.windows[ev.Label]
	a.mu.Unlock()
	if !open {
		return
	}

	h.HandleWindowEvent(ev)
	if ev.Prevented() {
		return
	}

	a.mu.Lock()
	delete(a.windows, ev.Label)
	last := len(a.windows) == 0
	a.mu.Unlock()

	if last {
		a.Exit(0)
	}
}
