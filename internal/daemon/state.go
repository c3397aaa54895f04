// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package daemon

import (
	"os"

	"github.com/0xPD33/drift/internal/atomicfile"
	"github.com/0xPD33/drift/internal/event"
	"github.com/0xPD33/drift/internal/logging"
	"github.com/0xPD33/drift/internal/paths"
)

// State is the daemon's published state file, rewritten atomically at least
// every five seconds and once more on clean shutdown.
type State struct {
	Pid               int                      `json:"pid"`
	ActiveProject     *string                  `json:"active_project"`
	WorkspaceProjects []WorkspaceProject       `json:"workspace_projects"`
	RecentEvents      map[string][]event.Event `json:"recent_events"`
}

// WorkspaceProject is one workspace↔project binding in the published state.
type WorkspaceProject struct {
	WorkspaceID   uint64 `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name"`
	Project       string `json:"project"`
	IsActive      bool   `json:"is_active"`
	IsFocused     bool   `json:"is_focused"`
	WindowCount   int    `json:"window_count"`
}

// snapshotState builds the publishable view of the mirror.
func (m *mirror) snapshotState() *State {
	state := &State{
		Pid:               os.Getpid(),
		WorkspaceProjects: make([]WorkspaceProject, 0, len(m.workspaceToProject)),
		RecentEvents:      make(map[string][]event.Event, len(m.rings)),
	}
	if m.activeProject != "" {
		active := m.activeProject
		state.ActiveProject = &active
	}

	for id, project := range m.workspaceToProject {
		ws, ok := m.workspaces[id]
		if !ok || ws.Name == nil {
			continue
		}
		windowCount := 0
		for _, win := range m.windows {
			if win.WorkspaceID != nil && *win.WorkspaceID == id {
				windowCount++
			}
		}
		state.WorkspaceProjects = append(state.WorkspaceProjects, WorkspaceProject{
			WorkspaceID:   id,
			WorkspaceName: *ws.Name,
			Project:       project,
			IsActive:      ws.IsActive,
			IsFocused:     ws.IsFocused,
			WindowCount:   windowCount,
		})
	}

	for project, ring := range m.rings {
		events := make([]event.Event, len(ring))
		copy(events, ring)
		state.RecentEvents[project] = events
	}
	return state
}

// writeState publishes the daemon state file. Side-effect path: failure is
// logged and swallowed.
func (m *mirror) writeState() {
	if err := atomicfile.WriteJSON(paths.DaemonStatePath(), m.snapshotState()); err != nil {
		logging.Warn().Err(err).Msg("writing daemon state failed")
	}
}

// LoadState reads the published daemon state, for peers like the CLI.
func LoadState() (*State, error) {
	var state State
	if err := atomicfile.ReadJSON(paths.DaemonStatePath(), &state); err != nil {
		return nil, err
	}
	return &state, nil
}
