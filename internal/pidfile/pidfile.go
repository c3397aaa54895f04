// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package pidfile implements the identifier-file contract every drift
// singleton follows: read any existing file, probe the recorded process with
// signal 0, clean up a stale file, then write our own pid before doing
// further work.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Read returns the pid recorded in the file at path, or 0 if the file does
// not exist or does not contain a pid.
func Read(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

// Alive reports whether a process with the given pid exists, using a
// zero-signal probe. EPERM counts as alive: the process exists, we just may
// not signal it.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}

// ReadAlive returns the pid recorded at path if that process is alive,
// otherwise 0.
func ReadAlive(path string) int {
	pid := Read(path)
	if !Alive(pid) {
		return 0
	}
	return pid
}

// Write records the current process id at path, replacing any stale file.
// It fails if the file names a different live process.
func Write(path string) error {
	if pid := Read(path); pid != 0 && pid != os.Getpid() && Alive(pid) {
		return fmt.Errorf("%s: process %d is still running", path, pid)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// Remove deletes the identifier file. Missing files are not an error.
func Remove(path string) {
	_ = os.Remove(path)
}
