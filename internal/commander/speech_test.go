// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package commander

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xPD33/drift/internal/event"
)

func TestSpeakableSet(t *testing.T) {
	for _, speakable := range []string{
		"agent.completed", "agent.error", "agent.needs_review", "service.crashed", "build.failed",
	} {
		assert.True(t, isSpeakable(speakable), speakable)
	}
	for _, quiet := range []string{"workspace.created", "workspace.activated", "service.started", "random.event"} {
		assert.False(t, isSpeakable(quiet), quiet)
	}
}

func TestRenderAgentCompleted(t *testing.T) {
	ev := &event.Event{Type: "agent.completed", Project: "myapp", Source: "claude", Title: "Implemented auth"}
	assert.Equal(t, "myapp: agent finished — Implemented auth", renderSpeech(ev))
}

func TestRenderAgentError(t *testing.T) {
	ev := &event.Event{Type: "agent.error", Project: "myapp", Source: "claude", Title: "Tests broken"}
	assert.Equal(t, "myapp: agent error — Tests broken", renderSpeech(ev))
}

func TestRenderNeedsReview(t *testing.T) {
	ev := &event.Event{Type: "agent.needs_review", Project: "myapp", Source: "claude"}
	assert.Equal(t, "myapp: agent needs review — agent.needs_review", renderSpeech(ev))
}

func TestRenderServiceCrashedUsesSource(t *testing.T) {
	ev := &event.Event{Type: "service.crashed", Project: "myapp", Source: "api-server", Title: "ignored"}
	assert.Equal(t, "myapp: api-server crashed", renderSpeech(ev))
}

func TestRenderBuildFailedFallsBackToType(t *testing.T) {
	ev := &event.Event{Type: "build.failed", Project: "myapp", Source: "ci"}
	assert.Equal(t, "myapp: build failed — build.failed", renderSpeech(ev))
}

func TestRenderBatchLine(t *testing.T) {
	got := renderBatch(batch{project: "myapp", eventType: "agent.completed", count: 4})
	assert.Equal(t, "myapp: 4 more agent.completed events", got)
}

func TestIsCritical(t *testing.T) {
	assert.True(t, isCritical(&event.Event{Priority: event.PriorityCritical}))
	assert.False(t, isCritical(&event.Event{Priority: event.PriorityHigh}))
	assert.False(t, isCritical(&event.Event{}))
}

func TestShellEscape(t *testing.T) {
	assert.Equal(t, "'plain'", shellEscape("plain"))
	assert.Equal(t, `'won'\''t'`, shellEscape("won't"))
}
