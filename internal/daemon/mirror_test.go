// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package daemon

import (
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPD33/drift/internal/compositor"
	"github.com/0xPD33/drift/internal/event"
	"github.com/0xPD33/drift/internal/logging"
	"github.com/0xPD33/drift/internal/workspace"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Output: io.Discard})
}

// testHarness builds a mirror decoupled from the registry and the desktop.
type testHarness struct {
	mirror   *mirror
	subCh    chan event.Event
	notified []event.Event
	saved    map[string][]workspace.SavedWindow
	projects map[string]struct{}
}

func newTestHarness(bufferSize int, projects ...string) *testHarness {
	h := &testHarness{
		subCh:    make(chan event.Event, 64),
		saved:    make(map[string][]workspace.SavedWindow),
		projects: make(map[string]struct{}),
	}
	for _, p := range projects {
		h.projects[p] = struct{}{}
	}
	h.mirror = &mirror{
		workspaces:         make(map[uint64]compositor.Workspace),
		windows:            make(map[uint64]compositor.Window),
		workspaceToProject: make(map[uint64]string),
		knownProjects:      h.projects,
		rings:              make(map[string][]event.Event),
		bufferSize:         bufferSize,
		subscriberCh:       h.subCh,
		notify:             func(ev *event.Event) { h.notified = append(h.notified, *ev) },
		saveSnapshot:       func(project string, windows []workspace.SavedWindow) { h.saved[project] = windows },
		syncWindows:        func(string, []workspace.SavedWindow) {},
		listProjects:       func() map[string]struct{} { return h.projects },
	}
	return h
}

func (h *testHarness) fanout() []event.Event {
	var out []event.Event
	for {
		select {
		case ev := <-h.subCh:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func testEvent(project, level string) event.Event {
	return event.Event{
		Type:    "test",
		Project: project,
		Source:  "test",
		Ts:      "2026-01-01T00:00:00Z",
		Level:   level,
	}
}

func TestPriorityTable(t *testing.T) {
	cases := []struct {
		active  string
		project string
		level   string
		want    string
	}{
		{"alpha", "alpha", event.LevelError, event.PriorityCritical},
		{"alpha", "alpha", event.LevelSuccess, event.PriorityHigh},
		{"alpha", "alpha", event.LevelWarning, event.PriorityHigh},
		{"alpha", "alpha", event.LevelInfo, event.PriorityLow},
		{"alpha", "alpha", "", event.PriorityLow},
		{"alpha", "beta", event.LevelError, event.PriorityHigh},
		{"alpha", "beta", event.LevelSuccess, event.PriorityMedium},
		{"alpha", "beta", event.LevelWarning, event.PrioritySilent},
		{"alpha", "beta", event.LevelInfo, event.PrioritySilent},
		{"", "beta", event.LevelInfo, event.PrioritySilent},
		{"", "beta", event.LevelError, event.PriorityHigh},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/%s/%s", tc.active, tc.project, tc.level), func(t *testing.T) {
			h := newTestHarness(10)
			h.mirror.activeProject = tc.active
			ev := testEvent(tc.project, tc.level)
			assert.Equal(t, tc.want, h.mirror.classifyPriority(&ev))
		})
	}
}

func TestProcessEventStoresAndFansOut(t *testing.T) {
	h := newTestHarness(10)
	h.mirror.activeProject = "proj"

	h.mirror.processEvent(testEvent("proj", event.LevelError))

	ring := h.mirror.rings["proj"]
	require.Len(t, ring, 1)
	assert.Equal(t, event.PriorityCritical, ring[0].Priority)

	out := h.fanout()
	require.Len(t, out, 1)
	assert.Equal(t, event.PriorityCritical, out[0].Priority)
}

func TestProcessEventRespectsRingBound(t *testing.T) {
	h := newTestHarness(2)
	for i := 0; i < 3; i++ {
		ev := testEvent("proj", event.LevelInfo)
		ev.Type = fmt.Sprintf("event-%d", i)
		h.mirror.processEvent(ev)
	}
	ring := h.mirror.rings["proj"]
	require.Len(t, ring, 2)
	assert.Equal(t, "event-1", ring[0].Type)
	assert.Equal(t, "event-2", ring[1].Type)
}

func TestDesktopNotificationThreshold(t *testing.T) {
	h := newTestHarness(10)
	h.mirror.activeProject = "alpha"

	h.mirror.processEvent(testEvent("alpha", event.LevelError))  // critical
	h.mirror.processEvent(testEvent("alpha", event.LevelInfo))   // low
	h.mirror.processEvent(testEvent("beta", event.LevelSuccess)) // medium
	h.mirror.processEvent(testEvent("beta", event.LevelWarning)) // silent

	require.Len(t, h.notified, 2)
	assert.Equal(t, event.PriorityCritical, h.notified[0].Priority)
	assert.Equal(t, event.PriorityMedium, h.notified[1].Priority)
}

func wsName(name string) *string { return &name }

func workspacesChanged(workspaces ...compositor.Workspace) *compositor.Event {
	return &compositor.Event{WorkspacesChanged: &compositor.WorkspacesChanged{Workspaces: workspaces}}
}

func TestWorkspaceCreatedAndDestroyed(t *testing.T) {
	h := newTestHarness(10, "alpha", "beta")

	h.mirror.handleCompositorEvent(workspacesChanged(
		compositor.Workspace{ID: 1, Name: wsName("alpha"), Output: "DP-1"},
		compositor.Workspace{ID: 2, Name: wsName("scratch"), Output: "DP-1"},
	))

	out := h.fanout()
	require.Len(t, out, 1)
	assert.Equal(t, "workspace.created", out[0].Type)
	assert.Equal(t, "alpha", out[0].Project)

	// Workspace with a non-project name never maps.
	assert.NotContains(t, h.mirror.workspaceToProject, uint64(2))

	h.mirror.handleCompositorEvent(workspacesChanged(
		compositor.Workspace{ID: 2, Name: wsName("scratch"), Output: "DP-1"},
	))
	out = h.fanout()
	require.Len(t, out, 1)
	assert.Equal(t, "workspace.destroyed", out[0].Type)
	assert.Equal(t, "alpha", out[0].Project)
}

func TestFocusChangeEmitsLifecycleAndAutoSaves(t *testing.T) {
	h := newTestHarness(10, "alpha", "beta")

	h.mirror.handleCompositorEvent(workspacesChanged(
		compositor.Workspace{ID: 1, Name: wsName("alpha"), Output: "DP-1"},
		compositor.Workspace{ID: 2, Name: wsName("beta"), Output: "DP-1"},
	))
	h.fanout() // drain created events

	wsID := uint64(1)
	title := "editor"
	appID := "dev.zed.Zed"
	h.mirror.handleCompositorEvent(&compositor.Event{
		WindowOpenedOrChanged: &compositor.WindowOpenedOrChanged{
			Window: compositor.Window{ID: 7, Title: &title, AppID: &appID, WorkspaceID: &wsID},
		},
	})

	h.mirror.handleCompositorEvent(&compositor.Event{
		WorkspaceActivated: &compositor.WorkspaceActivated{ID: 1, Focused: true},
	})
	out := h.fanout()
	require.Len(t, out, 1)
	assert.Equal(t, "workspace.activated", out[0].Type)
	assert.Equal(t, "alpha", out[0].Project)
	assert.Equal(t, "alpha", h.mirror.activeProject)

	h.mirror.handleCompositorEvent(&compositor.Event{
		WorkspaceActivated: &compositor.WorkspaceActivated{ID: 2, Focused: true},
	})
	out = h.fanout()
	require.Len(t, out, 2)
	assert.Equal(t, "workspace.deactivated", out[0].Type)
	assert.Equal(t, "alpha", out[0].Project)
	assert.Equal(t, "workspace.activated", out[1].Type)
	assert.Equal(t, "beta", out[1].Project)
	assert.Equal(t, "beta", h.mirror.activeProject)

	// Auto-save captured alpha's window list on focus loss.
	saved := h.saved["alpha"]
	require.Len(t, saved, 1)
	assert.Equal(t, "dev.zed.Zed", *saved[0].AppID)
}

func TestUrgentWindowOnBackgroundProject(t *testing.T) {
	h := newTestHarness(10, "alpha", "beta")

	h.mirror.handleCompositorEvent(workspacesChanged(
		compositor.Workspace{ID: 1, Name: wsName("alpha"), Output: "DP-1"},
		compositor.Workspace{ID: 2, Name: wsName("beta"), Output: "DP-1"},
	))
	h.mirror.handleCompositorEvent(&compositor.Event{
		WorkspaceActivated: &compositor.WorkspaceActivated{ID: 1, Focused: true},
	})
	wsID := uint64(2)
	title := "please look"
	h.mirror.handleCompositorEvent(&compositor.Event{
		WindowOpenedOrChanged: &compositor.WindowOpenedOrChanged{
			Window: compositor.Window{ID: 9, Title: &title, WorkspaceID: &wsID},
		},
	})
	h.fanout()

	h.mirror.handleCompositorEvent(&compositor.Event{
		WindowUrgencyChanged: &compositor.WindowUrgencyChanged{ID: 9, Urgent: true},
	})
	out := h.fanout()
	require.Len(t, out, 1)
	assert.Equal(t, "window.urgent", out[0].Type)
	assert.Equal(t, "beta", out[0].Project)
	assert.Equal(t, event.LevelWarning, out[0].Level)
	assert.Equal(t, "please look", out[0].Body)
}

func TestUrgentWindowOnActiveProjectIsQuiet(t *testing.T) {
	h := newTestHarness(10, "alpha")

	h.mirror.handleCompositorEvent(workspacesChanged(
		compositor.Workspace{ID: 1, Name: wsName("alpha"), Output: "DP-1"},
	))
	h.mirror.handleCompositorEvent(&compositor.Event{
		WorkspaceActivated: &compositor.WorkspaceActivated{ID: 1, Focused: true},
	})
	wsID := uint64(1)
	h.mirror.handleCompositorEvent(&compositor.Event{
		WindowOpenedOrChanged: &compositor.WindowOpenedOrChanged{
			Window: compositor.Window{ID: 9, WorkspaceID: &wsID},
		},
	})
	h.fanout()

	h.mirror.handleCompositorEvent(&compositor.Event{
		WindowUrgencyChanged: &compositor.WindowUrgencyChanged{ID: 9, Urgent: true},
	})
	assert.Empty(t, h.fanout())
}

func TestSnapshotState(t *testing.T) {
	h := newTestHarness(10, "alpha")

	h.mirror.handleCompositorEvent(workspacesChanged(
		compositor.Workspace{ID: 1, Name: wsName("alpha"), Output: "DP-1"},
	))
	h.mirror.handleCompositorEvent(&compositor.Event{
		WorkspaceActivated: &compositor.WorkspaceActivated{ID: 1, Focused: true},
	})
	wsID := uint64(1)
	h.mirror.handleCompositorEvent(&compositor.Event{
		WindowOpenedOrChanged: &compositor.WindowOpenedOrChanged{
			Window: compositor.Window{ID: 4, WorkspaceID: &wsID},
		},
	})

	state := h.mirror.snapshotState()
	assert.Equal(t, os.Getpid(), state.Pid)
	require.NotNil(t, state.ActiveProject)
	assert.Equal(t, "alpha", *state.ActiveProject)
	require.Len(t, state.WorkspaceProjects, 1)
	wp := state.WorkspaceProjects[0]
	assert.Equal(t, uint64(1), wp.WorkspaceID)
	assert.Equal(t, "alpha", wp.Project)
	assert.True(t, wp.IsActive)
	assert.True(t, wp.IsFocused)
	assert.Equal(t, 1, wp.WindowCount)
	assert.NotEmpty(t, state.RecentEvents["alpha"])
}

func TestEmitIntakeGoesThroughPipeline(t *testing.T) {
	h := newTestHarness(10)
	h.mirror.activeProject = "proj"

	h.mirror.handleEmitEvent(testEvent("proj", event.LevelSuccess))

	out := h.fanout()
	require.Len(t, out, 1)
	assert.Equal(t, event.PriorityHigh, out[0].Priority)
	// Every surfaced event carries a priority.
	for _, ev := range h.mirror.rings["proj"] {
		assert.NotEmpty(t, ev.Priority)
	}
}
