package sidecar

import (
	"fmt"
	"os"
	"path/filepath"
)

// backendBaseName is the sidecar executable name without platform suffix.
const backendBaseName = "tauri-agent-backend"

// BackendExecutableName returns the backend file name for goos.
func BackendExecutableName(goos string) string {
	if goos == "windows" {
		return backendBaseName + ".exe"
	}
	return backendBaseName
}

// ResolveBackendPath locates the backend executable.
//
// The packaged-resource location wins when it exists. Otherwise the file
// next to the running host executable is tried, which covers development
// and side-by-side layouts. currentExe may be empty when the host binary
// cannot be located; the fallback is then skipped.
//
// The returned path existed at the time of the call. When neither location
// exists the error wraps ErrBackendNotFound and names the resource path.
func ResolveBackendPath(resourceDir, currentExe, exeName string) (string, error) {
	if resourceDir == "" {
		return "", ErrResourceDirUnavailable
	}

	candidate := filepath.Join(resourceDir, exeName)
	if fileExists(candidate) {
		return candidate, nil
	}

	if currentExe != "" {
		fallback := filepath.Join(filepath.Dir(currentExe), exeName)
		if fileExists(fallback) {
			return fallback, nil
		}
	}

	return "", fmt.Errorf("%w: backend sidecar not found at %s", ErrBackendNotFound, candidate)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
