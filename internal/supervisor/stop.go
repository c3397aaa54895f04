// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package supervisor

import (
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/0xPD33/drift/internal/env"
)

// gracefulShutdown stops every live child in three phases: stop_command or
// SIGTERM to the process group, a bounded wait, then SIGKILL for stragglers.
// All services end up stopped.
func (s *Supervisor) gracefulShutdown() {
	s.logger.Info().Msg("shutting down services")

	// Phase 1: ask nicely.
	for _, svc := range s.services {
		if svc.waitCh == nil {
			continue
		}
		if svc.config.StopCommand != "" {
			// Same env and cwd as the service itself.
			cwd := s.repoPath
			if svc.config.Cwd != "" && svc.config.Cwd != "." {
				cwd = filepath.Join(s.repoPath, svc.config.Cwd)
			}
			cmd := exec.Command("sh", "-c", svc.config.StopCommand)
			cmd.Dir = cwd
			cmd.Env = env.Encode(s.envMap)
			if err := cmd.Run(); err != nil {
				s.logger.Warn().Err(err).Str("service", svc.config.Name).Msg("stop command failed")
			}
		} else if svc.pid != 0 {
			_ = unix.Kill(-svc.pid, unix.SIGTERM)
		}
	}

	// Phase 2: wait for exits, bounded.
	deadline := time.Now().Add(stopDeadline)
	for time.Now().Before(deadline) {
		if s.reapExited(); s.allReaped() {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	// Phase 3: SIGKILL whatever is left, then reap for real.
	for _, svc := range s.services {
		if svc.waitCh == nil {
			continue
		}
		if svc.pid != 0 {
			_ = unix.Kill(-svc.pid, unix.SIGKILL)
		}
		<-svc.waitCh
		svc.waitCh = nil
		svc.pid = 0
	}

	for _, svc := range s.services {
		svc.status = StatusStopped
	}
	s.writeState()
}

// reapExited drains wait channels of children that already exited.
func (s *Supervisor) reapExited() {
	for _, svc := range s.services {
		if svc.waitCh == nil {
			continue
		}
		select {
		case <-svc.waitCh:
			svc.waitCh = nil
			svc.pid = 0
		default:
		}
	}
}

func (s *Supervisor) allReaped() bool {
	for _, svc := range s.services {
		if svc.waitCh != nil {
			return false
		}
	}
	return true
}
