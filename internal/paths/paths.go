// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package paths centralizes every well-known filesystem location drift uses:
// config and project files under XDG_CONFIG_HOME, per-project state and logs
// under XDG_STATE_HOME, and the daemon's two Unix sockets under
// XDG_RUNTIME_DIR.
package paths

import (
	"os"
	"path/filepath"
)

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/"
	}
	return home
}

// ConfigDir returns the drift configuration directory.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "drift")
	}
	return filepath.Join(homeDir(), ".config", "drift")
}

// ProjectsDir returns the directory holding per-project config files.
func ProjectsDir() string {
	return filepath.Join(ConfigDir(), "projects")
}

// GlobalConfigPath returns the path of the global config file.
func GlobalConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ProjectConfigPath returns the config file path for the named project.
func ProjectConfigPath(name string) string {
	return filepath.Join(ProjectsDir(), name+".yaml")
}

// StateBaseDir returns the root of drift's mutable state.
func StateBaseDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "drift")
	}
	return filepath.Join(homeDir(), ".local", "state", "drift")
}

// StateDir returns the per-project state directory.
func StateDir(project string) string {
	return filepath.Join(StateBaseDir(), project)
}

// LogsDir returns the per-project service log directory.
func LogsDir(project string) string {
	return filepath.Join(StateDir(project), "logs")
}

// ServiceLogPath returns the log file a supervised service appends to.
func ServiceLogPath(project, service string) string {
	return filepath.Join(LogsDir(project), service+".log")
}

// SupervisorPidPath returns the supervisor identifier file for a project.
func SupervisorPidPath(project string) string {
	return filepath.Join(StateDir(project), "supervisor.pid")
}

// ServicesStatePath returns the per-project services state file.
func ServicesStatePath(project string) string {
	return filepath.Join(StateDir(project), "services.json")
}

// WorkspaceStatePath returns the per-project workspace snapshot file.
func WorkspaceStatePath(project string) string {
	return filepath.Join(StateDir(project), "workspace.json")
}

// DaemonPidPath returns the daemon identifier file.
func DaemonPidPath() string {
	return filepath.Join(StateBaseDir(), "daemon.pid")
}

// DaemonStatePath returns the daemon state file.
func DaemonStatePath() string {
	return filepath.Join(StateBaseDir(), "daemon.json")
}

// CommanderPidPath returns the commander identifier file.
func CommanderPidPath() string {
	return filepath.Join(StateBaseDir(), "commander.pid")
}

// CommanderMutedPath returns the mute marker file. While it exists the
// commander discards every incoming event.
func CommanderMutedPath() string {
	return filepath.Join(StateBaseDir(), "commander.muted")
}

// CommanderLogPath returns the log file the daemon points a spawned
// commander at.
func CommanderLogPath() string {
	return filepath.Join(StateBaseDir(), "commander.log")
}

func runtimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return "/tmp"
}

// EmitSocketPath returns the daemon's event intake socket path.
func EmitSocketPath() string {
	return filepath.Join(runtimeDir(), "drift", "emit.sock")
}

// SubscribeSocketPath returns the daemon's event fan-out socket path.
func SubscribeSocketPath() string {
	return filepath.Join(runtimeDir(), "drift", "subscribe.sock")
}
