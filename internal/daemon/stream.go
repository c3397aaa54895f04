// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package daemon

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/0xPD33/drift/internal/compositor"
	"github.com/0xPD33/drift/internal/logging"
)

// streamLoop consumes the compositor's event stream and forwards every raw
// event to the state owner. On disconnect it waits five seconds and
// reconnects, indefinitely. It runs as a suture service; connect failures and
// stream loss are retried inside Serve, which returns only when its context
// ends.
type streamLoop struct {
	msgCh chan<- daemonMsg

	// connect is swapped by tests to inject a synthetic stream.
	connect func() (*compositor.Stream, error)
}

func (s *streamLoop) String() string { return "compositor-stream" }

func defaultConnect() (*compositor.Stream, error) {
	client, err := compositor.Connect()
	if err != nil {
		return nil, err
	}
	stream, err := client.EventStream()
	if err != nil {
		client.Close()
		return nil, err
	}
	return stream, nil
}

// Serve implements suture.Service.
func (s *streamLoop) Serve(ctx context.Context) error {
	connect := s.connect
	if connect == nil {
		connect = defaultConnect
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		stream, err := connect()
		if err != nil {
			logging.Warn().Err(err).Msg("compositor connect failed, retrying in 5s")
			if !sleepCtx(ctx, 5*time.Second) {
				return ctx.Err()
			}
			continue
		}

		err = s.readEvents(ctx, stream)
		stream.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn().Err(err).Msg("compositor stream lost, reconnecting in 5s")
		if !sleepCtx(ctx, 5*time.Second) {
			return ctx.Err()
		}
	}
}

func (s *streamLoop) readEvents(ctx context.Context, stream *compositor.Stream) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Deadline-bounded reads keep the loop responsive to shutdown.
		_ = stream.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		ev, err := stream.Next()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			return err
		}
		select {
		case s.msgCh <- daemonMsg{comp: ev}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// sleepCtx sleeps for d or until ctx is done; reports whether the full
// duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
