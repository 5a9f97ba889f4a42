package sidecar

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nerrad567/agentshell/internal/process"
)

// fakePaths is a platform.PathProvider over fixed values.
type fakePaths struct {
	resourceDir string
	resourceErr error
	dataDir     string
	dataErr     error
	exe         string
	exeErr      error
}

func (p fakePaths) ResourceDir() (string, error)       { return p.resourceDir, p.resourceErr }
func (p fakePaths) AppDataDir() (string, error)        { return p.dataDir, p.dataErr }
func (p fakePaths) CurrentExecutable() (string, error) { return p.exe, p.exeErr }

// fakeProcess counts kills.
type fakeProcess struct {
	pid     int
	killErr error

	mu    sync.Mutex
	kills int
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kills++
	return p.killErr
}

func (p *fakeProcess) Kills() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kills
}

// recordingSpawner captures spawn calls.
type recordingSpawner struct {
	proc  *fakeProcess
	err   error
	calls []process.Config
}

func (s *recordingSpawner) Spawn(cfg process.Config) (Process, error) {
	s.calls = append(s.calls, cfg)
	if s.err != nil {
		return nil, s.err
	}
	return s.proc, nil
}

// recordingObserver captures lifecycle events.
type recordingObserver struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (o *recordingObserver) ObserveLifecycle(_ context.Context, ev Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
	return o.err
}

func (o *recordingObserver) kinds() []EventKind {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []EventKind
	for _, ev := range o.events {
		out = append(out, ev.Kind)
	}
	return out
}

// envMap builds a Getenv function.
func envMap(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

// touch creates an executable file at path.
func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

var errBoom = errors.New("boom")
