// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package daemon

import (
	"context"
	"errors"
	"net"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/0xPD33/drift/internal/event"
	"github.com/0xPD33/drift/internal/logging"
	"github.com/0xPD33/drift/internal/metrics"
)

// subscriber is one connected subscribe-socket client.
type subscriber struct {
	id   string
	conn net.Conn
}

// subscriberManager owns the subscribe socket, the cross-project replay
// buffer and every live subscriber connection. Writes to each connection
// happen only from this loop, so no two events can interleave on one
// stream. It runs as a suture service.
type subscriberManager struct {
	sockPath    string
	events      <-chan event.Event
	replayCount int

	listener *net.UnixListener

	// Loop-local state, rebuilt on restart. Dropped subscribers just
	// reconnect; the replay buffer refills from live traffic.
	subscribers []subscriber
	replay      []event.Event
}

func (s *subscriberManager) String() string { return "subscriber-manager" }

// Serve implements suture.Service.
func (s *subscriberManager) Serve(ctx context.Context) error {
	listener := s.listener
	s.listener = nil
	if listener == nil {
		var err error
		listener, err = bindUnixSocket(s.sockPath)
		if err != nil {
			return err
		}
	}
	defer func() {
		listener.Close()
		_ = os.Remove(s.sockPath)
		for _, sub := range s.subscribers {
			sub.conn.Close()
		}
		s.subscribers = nil
		metrics.SubscribersActive.Set(0)
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.acceptPending(listener)
		s.drainEvents(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// acceptPending accepts every queued connection and writes it the replay
// prefix. A subscriber that cannot take the replay is dropped immediately.
func (s *subscriberManager) acceptPending(listener *net.UnixListener) {
	for {
		_ = listener.SetDeadline(time.Now().Add(time.Millisecond))
		conn, err := listener.Accept()
		if err != nil {
			if !errors.Is(err, os.ErrDeadlineExceeded) {
				logging.Warn().Err(err).Msg("subscribe accept error")
			}
			return
		}

		sub := subscriber{id: uuid.NewString(), conn: conn}
		alive := true
		for i := range s.replay {
			if !s.writeEvent(&sub, &s.replay[i]) {
				alive = false
				break
			}
		}
		if alive {
			s.subscribers = append(s.subscribers, sub)
			metrics.SubscribersActive.Set(float64(len(s.subscribers)))
			logging.Info().Str("subscriber", sub.id).Int("replayed", len(s.replay)).Msg("subscriber connected")
		} else {
			conn.Close()
		}
	}
}

// drainEvents pushes every queued live event into the replay buffer and to
// all subscribers, dropping any whose write fails.
func (s *subscriberManager) drainEvents(ctx context.Context) {
	for {
		select {
		case ev := <-s.events:
			s.replay = append(s.replay, ev)
			if len(s.replay) > s.replayCount {
				s.replay = s.replay[len(s.replay)-s.replayCount:]
			}
			s.broadcast(&ev)
		case <-ctx.Done():
			return
		default:
			return
		}
	}
}

func (s *subscriberManager) broadcast(ev *event.Event) {
	kept := s.subscribers[:0]
	for i := range s.subscribers {
		sub := s.subscribers[i]
		if s.writeEvent(&sub, ev) {
			kept = append(kept, sub)
		} else {
			sub.conn.Close()
			metrics.SubscribersDropped.Inc()
			logging.Info().Str("subscriber", sub.id).Msg("subscriber dropped")
		}
	}
	s.subscribers = kept
	metrics.SubscribersActive.Set(float64(len(s.subscribers)))
}

// writeEvent writes one JSON line with a 1 s deadline. A slow subscriber is
// indistinguishable from a dead one and is treated as dead.
func (s *subscriberManager) writeEvent(sub *subscriber, ev *event.Event) bool {
	data, err := event.Encode(ev)
	if err != nil {
		logging.Warn().Err(err).Msg("encoding event for fan-out failed")
		return true
	}
	_ = sub.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, err = sub.conn.Write(data)
	return err == nil
}
