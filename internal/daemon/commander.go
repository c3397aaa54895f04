// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package daemon

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/0xPD33/drift/internal/logging"
	"github.com/0xPD33/drift/internal/paths"
	"github.com/0xPD33/drift/internal/pidfile"
)

// spawnCommander launches the commander as a detached child, skipping when
// an identifier file already names a live process. The daemon never
// monitors the commander afterwards.
func spawnCommander() {
	if pid := pidfile.ReadAlive(paths.CommanderPidPath()); pid != 0 {
		logging.Info().Int("pid", pid).Msg("commander already running")
		return
	}

	bin, err := os.Executable()
	if err != nil {
		logging.Warn().Err(err).Msg("commander: cannot determine binary path")
		return
	}

	logFile, err := os.OpenFile(paths.CommanderLogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logging.Warn().Err(err).Msg("commander: cannot open log")
		return
	}
	defer logFile.Close()

	cmd := exec.Command(bin, "commander")
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		logging.Warn().Err(err).Msg("commander: failed to spawn")
		return
	}
	logging.Info().Int("pid", cmd.Process.Pid).Msg("commander spawned")
	go func() { _ = cmd.Wait() }()
}

// stopCommander sends the commander SIGTERM via its identifier file.
func stopCommander() {
	if pid := pidfile.ReadAlive(paths.CommanderPidPath()); pid != 0 {
		_ = unix.Kill(pid, unix.SIGTERM)
	}
}
