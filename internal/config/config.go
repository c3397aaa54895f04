// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package config loads drift's two configuration surfaces: the global config
// (daemon, events, commander, metrics, logging) and per-project configs
// (repo, environment, services).
//
// Loading is layered via Koanf v2 (struct defaults, then the YAML file,
// then environment variables) and the result is validated with
// go-playground/validator. Precedence: ENV > file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/0xPD33/drift/internal/paths"
)

// GlobalConfig is the daemon-wide configuration.
type GlobalConfig struct {
	Defaults  DefaultsConfig  `koanf:"defaults"`
	Events    EventsConfig    `koanf:"events"`
	Commander CommanderConfig `koanf:"commander"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DefaultsConfig names the external programs drift drives.
type DefaultsConfig struct {
	// Terminal is the app-id of the terminal emulator, used when syncing
	// window lists back into project configs.
	Terminal string `koanf:"terminal"`
}

// EventsConfig sizes the daemon's in-memory event buffers.
type EventsConfig struct {
	// BufferSize bounds each per-project ring buffer.
	BufferSize int `koanf:"buffer_size" validate:"gt=0"`

	// ReplayOnSubscribe is how many recent events a new subscriber receives.
	ReplayOnSubscribe int `koanf:"replay_on_subscribe" validate:"gte=0"`
}

// CommanderConfig configures the voice announcer.
type CommanderConfig struct {
	Enabled bool `koanf:"enabled"`

	// Endpoint is the base URL of the HTTP speech synthesizer.
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`
	Voice    string `koanf:"voice"`

	// Instruct is the default delivery instruction sent with each synthesis
	// request. EventInstructs overrides it per event type.
	Instruct       string            `koanf:"instruct"`
	EventInstructs map[string]string `koanf:"event_instructs"`

	// Fallback engine used when the HTTP synthesizer is unreachable.
	// FallbackCommand, if set, wins over FallbackEngine and is run with
	// {text} substituted.
	FallbackEngine  string `koanf:"fallback_engine" validate:"omitempty,oneof=piper espeak espeak-ng"`
	FallbackVoice   string `koanf:"fallback_voice"`
	FallbackCommand string `koanf:"fallback_command"`

	// AudioFilter is a shell pipeline stage inserted before playback.
	AudioFilter string `koanf:"audio_filter"`

	CooldownSec int `koanf:"cooldown_sec" validate:"gt=0"`
	MaxQueue    int `koanf:"max_queue" validate:"gt=0"`
}

// MetricsConfig controls the daemon's Prometheus exporter.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`

	// Listen is the exporter bind address; loopback only by default.
	Listen string `koanf:"listen"`
}

// LoggingConfig feeds internal/logging.Init.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

// defaultGlobal returns the built-in defaults, applied before file and env.
func defaultGlobal() *GlobalConfig {
	return &GlobalConfig{
		Defaults: DefaultsConfig{
			Terminal: "ghostty",
		},
		Events: EventsConfig{
			BufferSize:        200,
			ReplayOnSubscribe: 20,
		},
		Commander: CommanderConfig{
			Enabled:     false,
			Endpoint:    "http://localhost:8880",
			Voice:       "Vivian",
			CooldownSec: 5,
			MaxQueue:    3,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9477",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envMappings translates environment variables to koanf config paths.
// Unmapped variables are dropped so random environment does not pollute
// the config.
var envMappings = map[string]string{
	"drift_terminal":           "defaults.terminal",
	"drift_event_buffer":       "events.buffer_size",
	"drift_event_replay":       "events.replay_on_subscribe",
	"drift_commander_enabled":  "commander.enabled",
	"drift_commander_endpoint": "commander.endpoint",
	"drift_commander_voice":    "commander.voice",
	"drift_metrics_enabled":    "metrics.enabled",
	"drift_metrics_listen":     "metrics.listen",
	"drift_log_level":          "logging.level",
	"drift_log_format":         "logging.format",
}

func envTransform(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadGlobal loads the global configuration. A missing config file is not an
// error; defaults plus environment apply.
func LoadGlobal() (*GlobalConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultGlobal(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	path := paths.GlobalConfigPath()
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &GlobalConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadProject loads and validates the named project's configuration.
func LoadProject(name string) (*ProjectConfig, error) {
	path := paths.ProjectConfigPath(name)
	return loadProjectFile(path)
}

func loadProjectFile(path string) (*ProjectConfig, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	cfg := &ProjectConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", path, err)
	}
	applyServiceDefaults(cfg)
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return cfg, nil
}

func applyServiceDefaults(cfg *ProjectConfig) {
	for i := range cfg.Services {
		svc := &cfg.Services[i]
		if svc.Cwd == "" {
			svc.Cwd = "."
		}
		if svc.Restart == "" {
			svc.Restart = RestartNever
		}
		if svc.AgentMode == "" {
			svc.AgentMode = AgentModeOneshot
		}
		if svc.AgentPermissions == "" {
			svc.AgentPermissions = AgentPermissionsFull
		}
	}
}

// ResolveRepoPath expands a leading ~ in the configured repo path.
func ResolveRepoPath(repo string) string {
	if repo == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
	}
	if strings.HasPrefix(repo, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, repo[2:])
		}
	}
	return repo
}
