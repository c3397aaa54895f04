// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package event defines the single wire type that crosses every drift
// boundary and the client side of the daemon's intake socket.
//
// Events are deliberately open: the type field is a free-form dotted
// identifier, not a closed enum. Only consumers (the commander's speakable
// set, the daemon's priority table) decide which types matter.
package event

import (
	"fmt"
	"net"
	"time"

	json "github.com/goccy/go-json"

	"github.com/0xPD33/drift/internal/paths"
)

// Levels an emitter may set. Unknown levels are passed through; the priority
// table treats them like info.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Priorities assigned by the daemon on ingress. Emitters never set these.
const (
	PrioritySilent   = "silent"
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Event is the wire type for every notification crossing a drift boundary.
// Ts and Level may be left empty by emitters; the daemon stamps them on
// intake. Priority is always overwritten by the daemon.
type Event struct {
	Type     string         `json:"type"`
	Project  string         `json:"project"`
	Source   string         `json:"source"`
	Ts       string         `json:"ts"`
	Level    string         `json:"level,omitempty"`
	Title    string         `json:"title,omitempty"`
	Body     string         `json:"body,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
	Priority string         `json:"priority,omitempty"`
}

// Now returns the current time formatted as an RFC 3339 UTC timestamp,
// the ts format for every event the daemon stamps.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Encode serializes the event as a single JSON line including the trailing
// newline, the framing used on both sockets.
func Encode(ev *Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses one JSON line into an Event.
func Decode(line []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Emit connects to the daemon's intake socket, writes the event as one JSON
// line and closes. The connect is bounded by a short timeout so emitters
// never hang on a wedged daemon.
func Emit(ev *Event) error {
	return emitTo(paths.EmitSocketPath(), ev)
}

func emitTo(sockPath string, ev *Event) error {
	conn, err := net.DialTimeout("unix", sockPath, time.Second)
	if err != nil {
		return fmt.Errorf("connecting to emit socket: %w", err)
	}
	defer conn.Close()

	data, err := Encode(ev)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// TryEmit emits the event and swallows any error. Event emission is
// fire-and-forget everywhere: a missing daemon must never fail the caller.
func TryEmit(ev *Event) {
	_ = Emit(ev)
}
