// Package process spawns a child process and owns its handle.
//
// It is the OS layer beneath the sidecar supervisor: one call to Start, at
// most one effective call to Kill. There is no restart loop and no health
// monitoring; the handle is meant to be held for the life of the host.
//
// Features:
//   - Child placed in its own process group on unix, so Kill reaches forks
//   - Output either inherited from the host or sent to the null device
//   - Kill reaps the child and tolerates an already-exited process
//
// Example usage:
//
//	h, err := process.Start(process.Config{
//	    Name:    "backend",
//	    Binary:  "/opt/agent/tauri-agent-backend",
//	    Args:    []string{"--host", "127.0.0.1", "--port", "8000"},
//	    WorkDir: dataDir,
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	defer h.Kill()
package process
