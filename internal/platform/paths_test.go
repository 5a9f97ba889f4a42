package platform

import (
	"errors"
	"path/filepath"
	"testing"
)

func fakePaths(goos string, env map[string]string) *OSPaths {
	return &OSPaths{
		Identifier:  "com.example.agent",
		ProductName: "agent-demo",
		GOOS:        goos,
		Getenv:      func(k string) string { return env[k] },
		Executable:  func() (string, error) { return "/opt/agent/bin/agent", nil },
		HomeDir:     func() (string, error) { return "/home/ada", nil },
	}
}

func TestAppDataDir(t *testing.T) {
	tests := []struct {
		name string
		goos string
		env  map[string]string
		want string
	}{
		{
			name: "linux default",
			goos: "linux",
			want: filepath.Join("/home/ada", ".local", "share", "com.example.agent"),
		},
		{
			name: "linux xdg override",
			goos: "linux",
			env:  map[string]string{"XDG_DATA_HOME": "/data"},
			want: filepath.Join("/data", "com.example.agent"),
		},
		{
			name: "linux relative xdg ignored",
			goos: "linux",
			env:  map[string]string{"XDG_DATA_HOME": "rel"},
			want: filepath.Join("/home/ada", ".local", "share", "com.example.agent"),
		},
		{
			name: "darwin",
			goos: "darwin",
			want: filepath.Join("/home/ada", "Library", "Application Support", "com.example.agent"),
		},
		{
			name: "windows",
			goos: "windows",
			env:  map[string]string{"APPDATA": "/roaming"},
			want: filepath.Join("/roaming", "com.example.agent"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fakePaths(tt.goos, tt.env).AppDataDir()
			if err != nil {
				t.Fatalf("AppDataDir() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("AppDataDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppDataDir_WindowsWithoutAppData(t *testing.T) {
	_, err := fakePaths("windows", nil).AppDataDir()
	if !errors.Is(err, ErrUnknownHome) {
		t.Errorf("AppDataDir() error = %v, want ErrUnknownHome", err)
	}
}

func TestAppDataDir_NoHome(t *testing.T) {
	p := fakePaths("linux", nil)
	p.HomeDir = func() (string, error) { return "", errors.New("no home") }

	if _, err := p.AppDataDir(); !errors.Is(err, ErrUnknownHome) {
		t.Errorf("AppDataDir() error = %v, want ErrUnknownHome", err)
	}
}

func TestResourceDir(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"linux", filepath.Join("/opt/agent", "lib", "agent-demo")},
		{"darwin", filepath.Join("/opt/agent", "Resources")},
		{"windows", "/opt/agent/bin"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			got, err := fakePaths(tt.goos, nil).ResourceDir()
			if err != nil {
				t.Fatalf("ResourceDir() error = %v", err)
			}
			if filepath.Clean(got) != filepath.Clean(tt.want) {
				t.Errorf("ResourceDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResourceDir_ExecutableError(t *testing.T) {
	p := fakePaths("linux", nil)
	p.Executable = func() (string, error) { return "", errors.New("boom") }

	if _, err := p.ResourceDir(); err == nil {
		t.Error("ResourceDir() expected error when executable is unknown")
	}
}
