// Package platform answers the host-platform path questions the supervisor
// asks: where bundled resources live, where per-app data goes, and where the
// running executable is.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ErrUnknownHome is returned when no home directory can be determined.
var ErrUnknownHome = errors.New("platform: home directory unknown")

// PathProvider supplies the host application's standard locations.
type PathProvider interface {
	// ResourceDir is the directory holding packaged resources.
	ResourceDir() (string, error)
	// AppDataDir is the per-application writable data directory.
	// It is not created by the provider.
	AppDataDir() (string, error)
	// CurrentExecutable is the absolute path of the running host binary.
	CurrentExecutable() (string, error)
}

// OSPaths resolves locations using the conventions of the desktop bundler:
//
//	data:      linux   $XDG_DATA_HOME/<id>   (default ~/.local/share/<id>)
//	           darwin  ~/Library/Application Support/<id>
//	           windows %APPDATA%\<id>
//	resources: linux   <exe>/../lib/<product>
//	           darwin  <exe>/../Resources
//	           windows <exe dir>
type OSPaths struct {
	Identifier  string
	ProductName string

	// Overridable for tests.
	GOOS       string
	Getenv     func(string) string
	Executable func() (string, error)
	HomeDir    func() (string, error)
}

// NewOSPaths returns an OSPaths bound to the real process environment.
func NewOSPaths(identifier, productName string) *OSPaths {
	return &OSPaths{
		Identifier:  identifier,
		ProductName: productName,
		GOOS:        runtime.GOOS,
		Getenv:      os.Getenv,
		Executable:  os.Executable,
		HomeDir:     os.UserHomeDir,
	}
}

// CurrentExecutable returns the resolved path of the running binary.
func (p *OSPaths) CurrentExecutable() (string, error) {
	exe, err := p.Executable()
	if err != nil {
		return "", fmt.Errorf("locating current executable: %w", err)
	}
	if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
		exe = resolved
	}
	return exe, nil
}

// ResourceDir returns the packaged-resource directory.
func (p *OSPaths) ResourceDir() (string, error) {
	exe, err := p.CurrentExecutable()
	if err != nil {
		return "", err
	}
	exeDir := filepath.Dir(exe)

	switch p.GOOS {
	case "darwin":
		return filepath.Join(exeDir, "..", "Resources"), nil
	case "windows":
		return exeDir, nil
	default:
		return filepath.Join(exeDir, "..", "lib", p.ProductName), nil
	}
}

// AppDataDir returns the per-application data directory.
func (p *OSPaths) AppDataDir() (string, error) {
	if p.Identifier == "" {
		return "", errors.New("platform: app identifier is empty")
	}
	base, err := p.dataHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, p.Identifier), nil
}

func (p *OSPaths) dataHome() (string, error) {
	switch p.GOOS {
	case "windows":
		if v := p.Getenv("APPDATA"); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("%w: APPDATA is not set", ErrUnknownHome)
	case "darwin":
		home, err := p.home()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if v := p.Getenv("XDG_DATA_HOME"); v != "" && filepath.IsAbs(v) {
			return v, nil
		}
		home, err := p.home()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

func (p *OSPaths) home() (string, error) {
	home, err := p.HomeDir()
	if err != nil || home == "" {
		return "", fmt.Errorf("%w: %v", ErrUnknownHome, err)
	}
	return home, nil
}
