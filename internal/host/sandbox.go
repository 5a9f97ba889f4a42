package host

import "strings"

// InfoLogger is the subset of a logger LogSandboxStatus needs.
type InfoLogger interface {
	Info(msg string, args ...any)
}

// LogSandboxStatus logs whether the host runs inside the macOS app
// sandbox. It is silent on every other platform.
func LogSandboxStatus(logger InfoLogger, goos string, getenv func(string) string) {
	if goos != "darwin" {
		return
	}
	home := getenv("HOME")
	sandboxID := getenv("APP_SANDBOX_CONTAINER_ID")
	if sandboxID == "" {
		sandboxID = "(none)"
	}
	logger.Info("sandbox status",
		"home_in_container", strings.Contains(home, "/Library/Containers/"),
		"app_sandbox_id", sandboxID,
	)
}
