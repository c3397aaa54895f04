// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package compositor is the client side of niri's IPC socket: request/reply
// queries, write actions, and the event stream the daemon mirrors. The rest
// of drift treats this package as an opaque capability; a disconnection is
// always recoverable by reconnecting.
package compositor

// Workspace mirrors one niri workspace.
type Workspace struct {
	ID        uint64  `json:"id"`
	Idx       uint8   `json:"idx"`
	Name      *string `json:"name"`
	Output    string  `json:"output"`
	IsActive  bool    `json:"is_active"`
	IsFocused bool    `json:"is_focused"`
}

// Window mirrors one niri window.
type Window struct {
	ID          uint64  `json:"id"`
	Title       *string `json:"title"`
	AppID       *string `json:"app_id"`
	WorkspaceID *uint64 `json:"workspace_id"`
	IsFocused   bool    `json:"is_focused"`
	IsUrgent    bool    `json:"is_urgent"`
}

// Event is one compositor state-change notification. Exactly one variant
// field is non-nil per event; unknown variants decode with all fields nil
// and are ignored by consumers.
type Event struct {
	WorkspacesChanged     *WorkspacesChanged     `json:"WorkspacesChanged,omitempty"`
	WorkspaceActivated    *WorkspaceActivated    `json:"WorkspaceActivated,omitempty"`
	WindowsChanged        *WindowsChanged        `json:"WindowsChanged,omitempty"`
	WindowOpenedOrChanged *WindowOpenedOrChanged `json:"WindowOpenedOrChanged,omitempty"`
	WindowClosed          *WindowClosed          `json:"WindowClosed,omitempty"`
	WindowFocusChanged    *WindowFocusChanged    `json:"WindowFocusChanged,omitempty"`
	WindowUrgencyChanged  *WindowUrgencyChanged  `json:"WindowUrgencyChanged,omitempty"`
}

// WorkspacesChanged carries the full replacement workspace list.
type WorkspacesChanged struct {
	Workspaces []Workspace `json:"workspaces"`
}

// WorkspaceActivated reports a workspace becoming active on its output;
// Focused additionally means it took keyboard focus.
type WorkspaceActivated struct {
	ID      uint64 `json:"id"`
	Focused bool   `json:"focused"`
}

// WindowsChanged carries the full replacement window list.
type WindowsChanged struct {
	Windows []Window `json:"windows"`
}

// WindowOpenedOrChanged carries a new or updated window.
type WindowOpenedOrChanged struct {
	Window Window `json:"window"`
}

// WindowClosed reports a window going away.
type WindowClosed struct {
	ID uint64 `json:"id"`
}

// WindowFocusChanged reports keyboard focus moving; ID is nil when no
// window holds focus.
type WindowFocusChanged struct {
	ID *uint64 `json:"id"`
}

// WindowUrgencyChanged reports a window's urgency hint toggling.
type WindowUrgencyChanged struct {
	ID     uint64 `json:"id"`
	Urgent bool   `json:"urgent"`
}
