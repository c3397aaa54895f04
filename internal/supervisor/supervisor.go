// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package supervisor runs the per-project process supervisor: it spawns each
// configured service into its own session, observes exits on a 500 ms tick,
// applies restart policies with doubling backoff, publishes state atomically
// and emits lifecycle events to the daemon's intake socket.
package supervisor

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xPD33/drift/internal/config"
	"github.com/0xPD33/drift/internal/env"
	"github.com/0xPD33/drift/internal/event"
	"github.com/0xPD33/drift/internal/logging"
	"github.com/0xPD33/drift/internal/paths"
	"github.com/0xPD33/drift/internal/pidfile"
	"github.com/0xPD33/drift/internal/shutdown"
)

const (
	// tickInterval bounds how stale liveness observations can be, and with
	// it the end-to-end restart latency.
	tickInterval = 500 * time.Millisecond

	// fastCrashWindow: a child that exits before living this long goes
	// through backoff instead of an immediate respawn.
	fastCrashWindow = 5 * time.Second

	// Backoff bounds for fast-crash loops.
	backoffMin = time.Second
	backoffMax = 30 * time.Second

	// stopDeadline is how long phase 2 of graceful shutdown waits before
	// SIGKILL.
	stopDeadline = 5 * time.Second
)

// waitResult carries a child's exit observation from its reaper goroutine.
type waitResult struct {
	exitCode  int  // -1 when killed by a signal
	success   bool // exit status 0
	observeOK bool // false when Wait itself failed
}

// managed is the supervisor's internal record of one service.
type managed struct {
	config        config.Service
	pid           int
	waitCh        chan waitResult // nil unless a child is live
	status        Status
	restartCount  int
	startedAt     time.Time // monotonic, for the fast-crash window
	startedAtWall time.Time
	lastExit      time.Time
	exitCode      *int
	backoff       time.Duration
}

// Supervisor owns the services of one project.
type Supervisor struct {
	project  string
	repoPath string
	envMap   map[string]string
	services []*managed
	flag     *shutdown.Flag
	logger   zerolog.Logger

	// emit is the event sink; swapped in tests.
	emit func(*event.Event)
}

// New loads the project's configuration and builds a supervisor for its
// non-interactive services. The returned supervisor has spawned nothing yet.
func New(projectName string) (*Supervisor, error) {
	cfg, err := config.LoadProject(projectName)
	if err != nil {
		return nil, err
	}
	repoPath := config.ResolveRepoPath(cfg.Project.Repo)
	envMap, err := env.Build(cfg, repoPath)
	if err != nil {
		return nil, err
	}

	s := &Supervisor{
		project:  projectName,
		repoPath: repoPath,
		envMap:   envMap,
		flag:     shutdown.Install(),
		logger:   logging.With().Str("component", "supervisor").Str("project", projectName).Logger(),
		emit:     event.TryEmit,
	}

	// Interactive agents are spawned as terminal windows by the CLI, not
	// supervised here.
	for _, svc := range cfg.Services {
		if svc.IsInteractiveAgent() {
			continue
		}
		s.services = append(s.services, &managed{config: svc})
	}
	return s, nil
}

// Run spawns every service and supervises until signaled or until every
// service reaches a terminal state. A service failure never becomes a
// supervisor failure; the only error returns are startup plumbing.
func (s *Supervisor) Run() error {
	if len(s.services) == 0 {
		s.logger.Info().Msg("no supervisable services, exiting")
		return nil
	}

	if err := os.MkdirAll(paths.LogsDir(s.project), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	if err := pidfile.Write(paths.SupervisorPidPath(s.project)); err != nil {
		return fmt.Errorf("writing supervisor pid: %w", err)
	}
	defer pidfile.Remove(paths.SupervisorPidPath(s.project))

	for _, svc := range s.services {
		if err := s.spawn(svc); err != nil {
			s.logger.Error().Err(err).Str("service", svc.config.Name).Msg("initial spawn failed")
			svc.status = StatusFailed
			continue
		}
		s.emitServiceEvent(svc, "service.started", event.LevelInfo,
			fmt.Sprintf("Service '%s' started", svc.config.Name),
			map[string]any{"pid": svc.pid})
	}
	s.writeState()

	for {
		if s.flag.Requested() {
			s.gracefulShutdown()
			return nil
		}

		changed := false
		for _, svc := range s.services {
			switch svc.status {
			case StatusRunning:
				if s.observeRunning(svc) {
					changed = true
				}
			case StatusBackoff:
				if time.Since(svc.lastExit) >= svc.backoff {
					s.respawn(svc)
					changed = true
				}
			}
		}

		if changed {
			s.writeState()
		}

		if s.allTerminal() {
			s.logger.Info().Msg("all services terminal, exiting")
			return nil
		}

		time.Sleep(tickInterval)
	}
}

// observeRunning performs the non-blocking reap of one running child.
// Returns true when the service changed state.
func (s *Supervisor) observeRunning(svc *managed) bool {
	var res waitResult
	select {
	case res = <-svc.waitCh:
	default:
		return false
	}

	svc.waitCh = nil
	svc.pid = 0
	svc.lastExit = time.Now()
	if !res.observeOK {
		// Liveness observation itself failed; treat as an unexpected exit.
		svc.status = StatusFailed
		return true
	}
	if res.exitCode >= 0 {
		code := res.exitCode
		svc.exitCode = &code
	} else {
		svc.exitCode = nil
	}

	// Signal termination counts as failure for on-failure.
	shouldRestart := false
	switch svc.config.Restart {
	case config.RestartAlways:
		shouldRestart = true
	case config.RestartOnFailure:
		shouldRestart = !res.success
	}

	switch {
	case shouldRestart:
		ranFor := time.Since(svc.startedAt)
		if ranFor < fastCrashWindow {
			svc.backoff = clampBackoff(2 * svc.backoff)
			svc.status = StatusBackoff
			s.logger.Warn().
				Str("service", svc.config.Name).
				Dur("backoff", svc.backoff).
				Msg("fast crash, backing off")
		} else {
			svc.backoff = 0
			s.respawn(svc)
		}
	case res.success:
		svc.status = StatusStopped
		s.emitServiceEvent(svc, "service.stopped", event.LevelInfo,
			fmt.Sprintf("Service '%s' stopped", svc.config.Name),
			map[string]any{"exit_code": 0})
	default:
		svc.status = StatusFailed
		meta := map[string]any{}
		if svc.exitCode != nil {
			meta["exit_code"] = *svc.exitCode
		}
		s.emitServiceEvent(svc, "service.crashed", event.LevelError,
			fmt.Sprintf("Service '%s' crashed", svc.config.Name), meta)
	}
	return true
}

// respawn restarts a service after a policy decision. Spawn failure during
// restart is terminal.
func (s *Supervisor) respawn(svc *managed) {
	if err := s.spawn(svc); err != nil {
		s.logger.Error().Err(err).Str("service", svc.config.Name).Msg("respawn failed")
		svc.status = StatusFailed
		return
	}
	svc.restartCount++
	s.emitServiceEvent(svc, "service.restarted", event.LevelWarning,
		fmt.Sprintf("Service '%s' restarted", svc.config.Name),
		map[string]any{"pid": svc.pid, "restart_count": svc.restartCount})
}

func clampBackoff(d time.Duration) time.Duration {
	if d < backoffMin {
		return backoffMin
	}
	if d > backoffMax {
		return backoffMax
	}
	return d
}

func (s *Supervisor) allTerminal() bool {
	for _, svc := range s.services {
		if !svc.status.Terminal() {
			return false
		}
	}
	return true
}

func (s *Supervisor) emitServiceEvent(svc *managed, eventType, level, title string, meta map[string]any) {
	s.emit(&event.Event{
		Type:    eventType,
		Project: s.project,
		Source:  svc.config.Name,
		Ts:      event.Now(),
		Level:   level,
		Title:   title,
		Meta:    meta,
	})
}
