package sidecar

import "errors"

// Startup errors. Use errors.Is() to check for these errors in calling code.
var (
	// ErrResourceDirUnavailable is returned when the packaged-resource
	// directory cannot be determined.
	ErrResourceDirUnavailable = errors.New("sidecar: resource directory unavailable")

	// ErrAppDataDirUnavailable is returned when the platform cannot name an
	// app data directory.
	ErrAppDataDirUnavailable = errors.New("sidecar: app data directory unavailable")

	// ErrAppDataDirCreateFailed is returned when the app data directory
	// cannot be created.
	ErrAppDataDirCreateFailed = errors.New("sidecar: failed to create app data directory")

	// ErrBackendNotFound is returned when no backend executable exists at
	// any candidate location.
	ErrBackendNotFound = errors.New("sidecar: backend executable not found")

	// ErrSpawnFailed is returned when the OS refuses to start the backend.
	ErrSpawnFailed = errors.New("sidecar: failed to spawn backend")

	// ErrExternalBackend is not a failure: an externally run backend was
	// requested, so nothing was spawned.
	ErrExternalBackend = errors.New("sidecar: external backend enabled; skipping sidecar spawn")

	// ErrAlreadyInstalled is returned when a second process is installed
	// into an occupied registry.
	ErrAlreadyInstalled = errors.New("sidecar: backend process already tracked")
)
