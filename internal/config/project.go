// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package config

// Restart policies for supervised services.
const (
	RestartNever     = "never"
	RestartOnFailure = "on-failure"
	RestartAlways    = "always"
)

// Agent modes. Interactive agents are spawned as terminal windows by the CLI
// and are never supervised.
const (
	AgentModeOneshot     = "oneshot"
	AgentModeInteractive = "interactive"
)

// Agent permission levels.
const (
	AgentPermissionsFull = "full"
	AgentPermissionsSafe = "safe"
)

// ProjectConfig describes one project: its repository, environment and the
// services the supervisor runs for it.
type ProjectConfig struct {
	Project  ProjectMeta `koanf:"project" validate:"required"`
	Env      EnvConfig   `koanf:"env"`
	Services []Service   `koanf:"services" validate:"dive"`
}

// ProjectMeta identifies the project.
type ProjectMeta struct {
	Name string `koanf:"name" validate:"required"`
	Repo string `koanf:"repo" validate:"required"`

	// Folder groups projects in listings; purely cosmetic.
	Folder string `koanf:"folder"`
}

// EnvConfig assembles the child environment for the project's services.
type EnvConfig struct {
	// Vars are explicit KEY: value pairs.
	Vars map[string]string `koanf:"vars"`

	// Files are dotenv-style files loaded relative to the repo, in order;
	// later files win, Vars win over all files.
	Files []string `koanf:"files"`
}

// Service is one supervised child process descriptor.
type Service struct {
	Name string `koanf:"name" validate:"required"`

	// Command is the shell command to run. Ignored for agent services,
	// whose command is synthesized.
	Command string `koanf:"command"`

	// Cwd is relative to the project repo; empty or "." means the repo root.
	Cwd string `koanf:"cwd"`

	Restart string `koanf:"restart" validate:"omitempty,oneof=never on-failure always"`

	// StopCommand, if set, replaces the SIGTERM in phase 1 of graceful
	// shutdown.
	StopCommand string `koanf:"stop_command"`

	// Agent fields. A non-empty Agent marks this as an agent service.
	Agent            string `koanf:"agent"`
	Prompt           string `koanf:"prompt"`
	AgentMode        string `koanf:"agent_mode" validate:"omitempty,oneof=oneshot interactive"`
	AgentModel       string `koanf:"agent_model"`
	AgentPermissions string `koanf:"agent_permissions" validate:"omitempty,oneof=full safe"`
}

// IsAgent reports whether the service's command is synthesized from an
// agent template.
func (s *Service) IsAgent() bool {
	return s.Agent != ""
}

// IsInteractiveAgent reports whether the service is spawned as a window by
// the CLI rather than supervised.
func (s *Service) IsInteractiveAgent() bool {
	return s.Agent != "" && s.AgentMode == AgentModeInteractive
}
