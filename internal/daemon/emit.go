// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/0xPD33/drift/internal/event"
	"github.com/0xPD33/drift/internal/logging"
	"github.com/0xPD33/drift/internal/metrics"
)

// emitListener accepts connections on the intake socket and forwards each
// newline-delimited JSON event to the state owner, stamping ts and level.
// It runs as a suture service.
type emitListener struct {
	sockPath string
	msgCh    chan<- daemonMsg

	// listener is pre-bound by Run so a bind failure is a startup error;
	// after a restart Serve rebinds itself.
	listener *net.UnixListener
}

func (l *emitListener) String() string { return "emit-listener" }

// bindUnixSocket removes any stale socket file and listens. The daemon is a
// singleton; a stale file can only be a previous instance's leftover.
func bindUnixSocket(sockPath string) (*net.UnixListener, error) {
	if err := os.MkdirAll(filepath.Dir(sockPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating socket dir: %w", err)
	}
	_ = os.Remove(sockPath)
	addr := &net.UnixAddr{Name: sockPath, Net: "unix"}
	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", sockPath, err)
	}
	return listener, nil
}

// Serve implements suture.Service.
func (l *emitListener) Serve(ctx context.Context) error {
	listener := l.listener
	l.listener = nil
	if listener == nil {
		var err error
		listener, err = bindUnixSocket(l.sockPath)
		if err != nil {
			return err
		}
	}
	defer func() {
		listener.Close()
		_ = os.Remove(l.sockPath)
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = listener.SetDeadline(time.Now().Add(500 * time.Millisecond))
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Warn().Err(err).Msg("emit accept error")
			continue
		}
		go l.readConn(ctx, conn)
	}
}

// readConn drains one emitter connection. A bad line is logged and skipped;
// the connection stays open.
func (l *emitListener) readConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := event.Decode(line)
		if err != nil {
			metrics.EventsInvalid.Inc()
			logging.Warn().Err(err).Msg("invalid event JSON on emit socket")
			continue
		}
		if ev.Ts == "" {
			ev.Ts = event.Now()
		}
		if ev.Level == "" {
			ev.Level = event.LevelInfo
		}
		select {
		case l.msgCh <- daemonMsg{emit: ev}:
		case <-ctx.Done():
			return
		}
	}
}
