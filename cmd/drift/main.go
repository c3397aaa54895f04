// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package main is the entry point for the drift core processes.
//
// One binary hosts the three long-lived components plus the notify helper:
//
//	drift daemon              run the event bus daemon (singleton per user)
//	drift supervise <name>    run the process supervisor for one project
//	drift commander           run the voice announcer
//	drift notify ...          emit one event to the daemon's intake socket
//	drift say <text>          speak one line through the configured engine
//
// The full project front end (open/close/status/list) lives in the drift
// CLI; this binary only carries the supervised processes and the emit path
// it needs.
//
// # Configuration
//
// Global configuration is loaded from $XDG_CONFIG_HOME/drift/config.yaml
// with DRIFT_* environment overrides; per-project configuration from
// $XDG_CONFIG_HOME/drift/projects/<name>.yaml. See internal/config.
//
// # Signal Handling
//
// All components shut down orderly on SIGINT and SIGTERM: the supervisor
// stops its services in three phases (stop command or SIGTERM, 5 s wait,
// SIGKILL), the daemon persists its state and stops its loops, the
// commander drains and removes its identifier file.
package main

import (
	"fmt"
	"os"

	"github.com/0xPD33/drift/internal/commander"
	"github.com/0xPD33/drift/internal/config"
	"github.com/0xPD33/drift/internal/daemon"
	"github.com/0xPD33/drift/internal/event"
	"github.com/0xPD33/drift/internal/logging"
	"github.com/0xPD33/drift/internal/supervisor"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if cfg, err := config.LoadGlobal(); err == nil {
		logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	}

	switch os.Args[1] {
	case "daemon":
		if err := daemon.Run(); err != nil {
			logging.Fatal().Err(err).Msg("daemon failed")
		}

	case "supervise":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: drift supervise <project>")
			os.Exit(2)
		}
		sup, err := supervisor.New(os.Args[2])
		if err != nil {
			logging.Fatal().Err(err).Str("project", os.Args[2]).Msg("supervisor setup failed")
		}
		if err := sup.Run(); err != nil {
			logging.Fatal().Err(err).Msg("supervisor failed")
		}

	case "commander":
		if err := commander.Run(); err != nil {
			logging.Fatal().Err(err).Msg("commander failed")
		}

	case "notify":
		if err := runNotify(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "drift notify:", err)
			os.Exit(1)
		}

	case "say":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: drift say <text>")
			os.Exit(2)
		}
		if err := commander.SayText(os.Args[2]); err != nil {
			fmt.Fprintln(os.Stderr, "drift say:", err)
			os.Exit(1)
		}

	default:
		usage()
		os.Exit(2)
	}
}

// runNotify builds one event from flag pairs and emits it fire-and-forget.
// The flags mirror the contract agent prompts reference:
//
//	drift notify --type agent.completed --title "Implemented auth"
func runNotify(args []string) error {
	ev := &event.Event{
		Type:    "notification",
		Project: os.Getenv("DRIFT_PROJECT"),
		Source:  "cli",
	}
	for i := 0; i+1 < len(args); i += 2 {
		val := args[i+1]
		switch args[i] {
		case "--type":
			ev.Type = val
		case "--project":
			ev.Project = val
		case "--source":
			ev.Source = val
		case "--level":
			ev.Level = val
		case "--title":
			ev.Title = val
		case "--body":
			ev.Body = val
		default:
			return fmt.Errorf("unknown flag %q", args[i])
		}
	}
	if ev.Project == "" {
		return fmt.Errorf("no project: pass --project or set DRIFT_PROJECT")
	}
	return event.Emit(ev)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: drift <command>

commands:
  daemon              run the event bus daemon
  supervise <name>    supervise one project's services
  commander           run the voice announcer
  notify [flags]      emit an event to the daemon
  say <text>          speak one line`)
}
