// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package daemon implements the drift event bus: a singleton that mirrors
// compositor state, ingests emitted events over the intake socket,
// classifies them against the focused project, fans them out to subscribers
// with replay, drives desktop notifications and publishes its state file.
//
// Four loops run as suture services under one supervisor: the compositor
// stream, the emit listener, the subscriber manager and the state owner.
// The state owner is the only mutator; everything else passes messages.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/0xPD33/drift/internal/config"
	"github.com/0xPD33/drift/internal/event"
	"github.com/0xPD33/drift/internal/logging"
	"github.com/0xPD33/drift/internal/metrics"
	"github.com/0xPD33/drift/internal/paths"
	"github.com/0xPD33/drift/internal/pidfile"
	"github.com/0xPD33/drift/internal/shutdown"
)

// Run starts the daemon and blocks until SIGTERM or SIGINT. Startup errors
// (pid conflict, socket bind) return non-nil; once running, the daemon only
// stops on signals.
func Run() error {
	flag := shutdown.Install()

	cfg, err := config.LoadGlobal()
	if err != nil {
		logging.Warn().Err(err).Msg("global config unreadable, using defaults")
		cfg = &config.GlobalConfig{}
		cfg.Events.BufferSize = 200
		cfg.Events.ReplayOnSubscribe = 20
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if err := pidfile.Write(paths.DaemonPidPath()); err != nil {
		return fmt.Errorf("daemon already running? %w", err)
	}
	defer pidfile.Remove(paths.DaemonPidPath())

	if cfg.Metrics.Enabled {
		metrics.Serve(cfg.Metrics.Listen)
	}

	msgCh := make(chan daemonMsg, 256)
	subCh := make(chan event.Event, 256)

	// Bind both sockets up front so an unbindable socket is a startup
	// failure; later failures are suture restarts.
	emitSock, err := bindUnixSocket(paths.EmitSocketPath())
	if err != nil {
		return err
	}
	subSock, err := bindUnixSocket(paths.SubscribeSocketPath())
	if err != nil {
		emitSock.Close()
		return err
	}

	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	tree := suture.New("drift-daemon", suture.Spec{
		EventHook: handler.MustHook(),
	})
	tree.Add(&streamLoop{msgCh: msgCh})
	tree.Add(&emitListener{sockPath: paths.EmitSocketPath(), msgCh: msgCh, listener: emitSock})
	tree.Add(&subscriberManager{
		sockPath:    paths.SubscribeSocketPath(),
		events:      subCh,
		replayCount: cfg.Events.ReplayOnSubscribe,
		listener:    subSock,
	})
	tree.Add(&stateOwner{
		mirror: newMirror(subCh, cfg.Events.BufferSize),
		msgCh:  msgCh,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	if cfg.Commander.Enabled {
		spawnCommander()
	}

	logging.Info().Msg("drift daemon started")

	for !flag.Requested() {
		select {
		case err := <-errCh:
			return fmt.Errorf("supervision tree stopped: %w", err)
		case <-time.After(200 * time.Millisecond):
		}
	}

	logging.Info().Msg("drift daemon shutting down")
	cancel()
	<-errCh

	if cfg.Commander.Enabled {
		stopCommander()
	}
	return nil
}
