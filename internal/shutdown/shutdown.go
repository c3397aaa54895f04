// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package shutdown holds the process-wide shutdown flag shared by every drift
// long-lived process. SIGTERM and SIGINT set the flag; loops poll it at most
// 500 ms apart. The flag is deliberately not a channel: nothing on the
// shutdown path may block.
package shutdown

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Flag is a process-wide shutdown indicator set by signal delivery.
type Flag struct {
	requested atomic.Bool
}

// Requested reports whether shutdown has been requested.
func (f *Flag) Requested() bool {
	return f.requested.Load()
}

// Request sets the flag directly, for use by tests and internal teardown.
func (f *Flag) Request() {
	f.requested.Store(true)
}

// Install registers SIGTERM and SIGINT to set the returned flag. The watcher
// goroutine does nothing but store into the atomic, so signal delivery can
// never deadlock against a shutting-down receiver.
func Install() *Flag {
	f := &Flag{}
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for range ch {
			f.requested.Store(true)
		}
	}()
	return f
}
