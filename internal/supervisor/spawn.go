// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package supervisor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/0xPD33/drift/internal/agent"
	"github.com/0xPD33/drift/internal/env"
	"github.com/0xPD33/drift/internal/paths"
)

// spawn launches one service as a detached child: fresh session, explicit
// environment, stdout+stderr appended to the service log, stdin closed.
func (s *Supervisor) spawn(svc *managed) error {
	cwd := s.repoPath
	if svc.config.Cwd != "" && svc.config.Cwd != "." {
		cwd = filepath.Join(s.repoPath, svc.config.Cwd)
	}

	command := svc.config.Command
	if svc.config.IsAgent() {
		command = agent.BuildCommand(&svc.config, s.project)
	}

	logPath := paths.ServiceLogPath(s.project, svc.config.Name)
	if err := os.MkdirAll(paths.LogsDir(s.project), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", logPath, err)
	}
	defer logFile.Close()

	fmt.Fprintf(logFile, "\n--- service '%s' started at %d ---\n", svc.config.Name, time.Now().Unix())

	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = cwd
	cmd.Env = env.Encode(s.envMap)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	// Stdin stays nil: the child reads /dev/null.
	// Setsid detaches the child into its own session and process group so
	// the whole tree can be signalled as -pid later.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting service '%s': %w", svc.config.Name, err)
	}

	svc.pid = cmd.Process.Pid
	svc.status = StatusRunning
	svc.startedAt = time.Now()
	svc.startedAtWall = time.Now()
	svc.exitCode = nil

	// The reaper goroutine is the only Wait caller; the tick loop observes
	// the result without blocking.
	waitCh := make(chan waitResult, 1)
	svc.waitCh = waitCh
	go func() {
		err := cmd.Wait()
		switch {
		case err == nil:
			waitCh <- waitResult{exitCode: 0, success: true, observeOK: true}
		default:
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				waitCh <- waitResult{exitCode: exitErr.ExitCode(), success: false, observeOK: true}
			} else {
				waitCh <- waitResult{observeOK: false}
			}
		}
	}()

	return nil
}
