// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package daemon

import (
	"github.com/0xPD33/drift/internal/compositor"
	"github.com/0xPD33/drift/internal/event"
	"github.com/0xPD33/drift/internal/logging"
	"github.com/0xPD33/drift/internal/metrics"
	"github.com/0xPD33/drift/internal/registry"
	"github.com/0xPD33/drift/internal/workspace"
)

// mirror is the daemon's single mutable state: the compositor mirror, the
// per-project event rings and the focus-derived active project. Only the
// state-owner loop touches it.
type mirror struct {
	workspaces         map[uint64]compositor.Workspace
	windows            map[uint64]compositor.Window
	workspaceToProject map[uint64]string
	knownProjects      map[string]struct{}
	activeProject      string
	focusedWorkspaceID uint64
	hasFocus           bool

	// rings holds the per-project FIFO of recent events.
	rings      map[string][]event.Event
	bufferSize int

	// subscriberCh feeds the fan-out manager.
	subscriberCh chan<- event.Event

	// Collaborators, swapped by tests.
	notify       func(*event.Event)
	saveSnapshot func(project string, windows []workspace.SavedWindow)
	syncWindows  func(project string, windows []workspace.SavedWindow)
	listProjects func() map[string]struct{}
}

func newMirror(subscriberCh chan<- event.Event, bufferSize int) *mirror {
	return &mirror{
		workspaces:         make(map[uint64]compositor.Workspace),
		windows:            make(map[uint64]compositor.Window),
		workspaceToProject: make(map[uint64]string),
		knownProjects:      registry.ProjectNames(),
		rings:              make(map[string][]event.Event),
		bufferSize:         bufferSize,
		subscriberCh:       subscriberCh,
		notify:             sendDesktopNotification,
		saveSnapshot: func(project string, windows []workspace.SavedWindow) {
			if err := workspace.Write(project, windows); err != nil {
				logging.Warn().Err(err).Str("project", project).Msg("workspace auto-save failed")
			}
		},
		// Window-config sync belongs to the CLI collaborator; the daemon
		// only provides the hook.
		syncWindows:  func(string, []workspace.SavedWindow) {},
		listProjects: registry.ProjectNames,
	}
}

// classifyPriority is the pure priority function of
// (active project, event project, event level).
func (m *mirror) classifyPriority(ev *event.Event) string {
	active := m.activeProject != "" && m.activeProject == ev.Project
	level := ev.Level
	if level == "" {
		level = event.LevelInfo
	}
	switch {
	case active && level == event.LevelError:
		return event.PriorityCritical
	case active && (level == event.LevelSuccess || level == event.LevelWarning):
		return event.PriorityHigh
	case active:
		return event.PriorityLow
	case level == event.LevelError:
		return event.PriorityHigh
	case level == event.LevelSuccess:
		return event.PriorityMedium
	default:
		return event.PrioritySilent
	}
}

// processEvent is the single path every event takes: classify, store in the
// project ring, fan out, maybe raise a desktop notification.
func (m *mirror) processEvent(ev event.Event) {
	ev.Priority = m.classifyPriority(&ev)

	ring := append(m.rings[ev.Project], ev)
	if len(ring) > m.bufferSize {
		ring = ring[len(ring)-m.bufferSize:]
	}
	m.rings[ev.Project] = ring

	select {
	case m.subscriberCh <- ev:
	default:
		metrics.EventsDroppedFanout.Inc()
		logging.Warn().Str("type", ev.Type).Msg("fan-out channel full, dropping event")
	}

	switch ev.Priority {
	case event.PriorityCritical, event.PriorityHigh, event.PriorityMedium:
		m.notify(&ev)
	}
}

// synthesize emits a daemon-sourced event through the normal pipeline.
func (m *mirror) synthesize(eventType, project, source, level, title, body string) {
	m.processEvent(event.Event{
		Type:    eventType,
		Project: project,
		Source:  source,
		Ts:      event.Now(),
		Level:   level,
		Title:   title,
		Body:    body,
	})
}

// handleEmitEvent ingests one externally emitted event.
func (m *mirror) handleEmitEvent(ev event.Event) {
	metrics.EventsIngested.WithLabelValues("emit").Inc()
	m.processEvent(ev)
}

// handleCompositorEvent folds one compositor notification into the mirror
// and synthesizes workspace/window events on transitions.
func (m *mirror) handleCompositorEvent(ev *compositor.Event) {
	metrics.EventsIngested.WithLabelValues("compositor").Inc()

	switch {
	case ev.WorkspacesChanged != nil:
		m.applyWorkspacesChanged(ev.WorkspacesChanged)
	case ev.WorkspaceActivated != nil:
		m.applyWorkspaceActivated(ev.WorkspaceActivated)
	case ev.WindowsChanged != nil:
		m.windows = make(map[uint64]compositor.Window, len(ev.WindowsChanged.Windows))
		for _, win := range ev.WindowsChanged.Windows {
			m.windows[win.ID] = win
		}
	case ev.WindowOpenedOrChanged != nil:
		win := ev.WindowOpenedOrChanged.Window
		m.windows[win.ID] = win
	case ev.WindowClosed != nil:
		delete(m.windows, ev.WindowClosed.ID)
	case ev.WindowFocusChanged != nil:
		for id, win := range m.windows {
			win.IsFocused = ev.WindowFocusChanged.ID != nil && *ev.WindowFocusChanged.ID == id
			m.windows[id] = win
		}
	case ev.WindowUrgencyChanged != nil:
		m.applyWindowUrgency(ev.WindowUrgencyChanged)
	}
}

func (m *mirror) applyWorkspacesChanged(change *compositor.WorkspacesChanged) {
	oldProjects := make(map[string]struct{}, len(m.workspaceToProject))
	for _, project := range m.workspaceToProject {
		oldProjects[project] = struct{}{}
	}

	m.workspaces = make(map[uint64]compositor.Workspace, len(change.Workspaces))
	for _, ws := range change.Workspaces {
		m.workspaces[ws.ID] = ws
	}
	m.knownProjects = m.listProjects()
	m.rebuildWorkspaceProjectMap()

	newProjects := make(map[string]struct{}, len(m.workspaceToProject))
	for _, project := range m.workspaceToProject {
		newProjects[project] = struct{}{}
	}

	for project := range newProjects {
		if _, ok := oldProjects[project]; !ok {
			m.synthesize("workspace.created", project, "daemon", event.LevelInfo, "", "")
		}
	}
	for project := range oldProjects {
		if _, ok := newProjects[project]; !ok {
			m.synthesize("workspace.destroyed", project, "daemon", event.LevelInfo, "", "")
		}
	}

	m.updateActiveProject()
}

func (m *mirror) applyWorkspaceActivated(act *compositor.WorkspaceActivated) {
	if act.Focused && m.hasFocus && m.focusedWorkspaceID != act.ID {
		if project, ok := m.workspaceToProject[m.focusedWorkspaceID]; ok {
			m.autoSave(project, m.focusedWorkspaceID)
			m.synthesize("workspace.deactivated", project, "daemon", event.LevelInfo, "", "")
		}
	}

	// Activation is per output: only siblings on the same output lose
	// is_active, while focus is global.
	if ws, ok := m.workspaces[act.ID]; ok {
		for id, sibling := range m.workspaces {
			if sibling.Output == ws.Output {
				sibling.IsActive = id == act.ID
				if act.Focused {
					sibling.IsFocused = id == act.ID
				}
				m.workspaces[id] = sibling
			}
		}
	}

	if act.Focused {
		for id, ws := range m.workspaces {
			if id != act.ID {
				ws.IsFocused = false
				m.workspaces[id] = ws
			}
		}
		m.focusedWorkspaceID = act.ID
		m.hasFocus = true
		m.updateActiveProject()

		if project, ok := m.workspaceToProject[act.ID]; ok {
			m.synthesize("workspace.activated", project, "daemon", event.LevelInfo, "", "")
		}
	}
}

func (m *mirror) applyWindowUrgency(change *compositor.WindowUrgencyChanged) {
	if !change.Urgent {
		return
	}
	win, ok := m.windows[change.ID]
	if !ok || win.WorkspaceID == nil {
		return
	}
	project, ok := m.workspaceToProject[*win.WorkspaceID]
	if !ok || project == m.activeProject {
		return
	}
	body := ""
	if win.Title != nil {
		body = *win.Title
	}
	m.synthesize("window.urgent", project, "window", event.LevelWarning, "Window needs attention", body)
}

// autoSave snapshots the window list of a workspace losing focus.
func (m *mirror) autoSave(project string, workspaceID uint64) {
	var saved []workspace.SavedWindow
	for _, win := range m.windows {
		if win.WorkspaceID != nil && *win.WorkspaceID == workspaceID {
			saved = append(saved, workspace.SavedWindow{AppID: win.AppID, Title: win.Title})
		}
	}
	m.saveSnapshot(project, saved)
	m.syncWindows(project, saved)
}

// rebuildWorkspaceProjectMap maps workspaces to projects by exact name
// match against the registry.
func (m *mirror) rebuildWorkspaceProjectMap() {
	m.workspaceToProject = make(map[uint64]string)
	for id, ws := range m.workspaces {
		if ws.Name == nil {
			continue
		}
		if _, ok := m.knownProjects[*ws.Name]; ok {
			m.workspaceToProject[id] = *ws.Name
		}
	}
}

func (m *mirror) updateActiveProject() {
	if !m.hasFocus {
		m.activeProject = ""
		return
	}
	m.activeProject = m.workspaceToProject[m.focusedWorkspaceID]
}
