// Package sidecar supervises the desktop shell's backend process.
//
// Startup:
//
//	Supervisor.Setup
//	  └─ Launcher.Launch
//	       ├─ ExternalBackendEnabled  (TAURI_AGENT_EXTERNAL_BACKEND → skip)
//	       ├─ BuildEnvironment        (app data dir, database, config files)
//	       ├─ ResolveBackendPath      (resource dir, then next to host exe)
//	       └─ Spawner.Spawn           (--host 127.0.0.1 --port 8000)
//	  └─ Registry.Install
//
// Shutdown:
//
//	Coordinator.HandleWindowEvent  (close on "main" → prevent, Exit(0))
//	Coordinator.HandleRunEvent     (Registry.Take → Kill, once)
//
// The Registry is the only shared state. It holds at most one Process and
// hands it out exactly once.
package sidecar
