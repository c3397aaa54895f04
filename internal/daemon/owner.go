// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package daemon

import (
	"context"
	"time"

	"github.com/0xPD33/drift/internal/compositor"
	"github.com/0xPD33/drift/internal/event"
)

// stateWriteInterval bounds how stale the published daemon state can be.
const stateWriteInterval = 5 * time.Second

// daemonMsg is the one message type feeding the state owner. Exactly one
// field is set.
type daemonMsg struct {
	comp *compositor.Event
	emit *event.Event
}

// stateOwner serializes all mutation of the mirror. It is the only loop
// that touches daemon state; the other loops only send it messages. It runs
// as a suture service.
type stateOwner struct {
	mirror *mirror
	msgCh  <-chan daemonMsg
}

func (o *stateOwner) String() string { return "state-owner" }

// Serve implements suture.Service. On shutdown the final state write
// happens here, before the service returns.
func (o *stateOwner) Serve(ctx context.Context) error {
	o.mirror.writeState()
	ticker := time.NewTicker(stateWriteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.mirror.writeState()
			return ctx.Err()
		case msg := <-o.msgCh:
			switch {
			case msg.comp != nil:
				o.mirror.handleCompositorEvent(msg.comp)
			case msg.emit != nil:
				o.mirror.handleEmitEvent(*msg.emit)
			}
		case <-ticker.C:
			o.mirror.writeState()
		}
	}
}
