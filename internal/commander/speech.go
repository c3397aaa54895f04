// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package commander

import (
	"fmt"

	"github.com/0xPD33/drift/internal/event"
)

// speakableEvents is the fixed set of event types the commander voices.
var speakableEvents = map[string]struct{}{
	"agent.completed":    {},
	"agent.error":        {},
	"agent.needs_review": {},
	"service.crashed":    {},
	"build.failed":       {},
}

func isSpeakable(eventType string) bool {
	_, ok := speakableEvents[eventType]
	return ok
}

func isCritical(ev *event.Event) bool {
	return ev.Priority == event.PriorityCritical
}

// titleOrType prefers the event's title, falling back to its type.
func titleOrType(ev *event.Event) string {
	if ev.Title != "" {
		return ev.Title
	}
	return ev.Type
}

// renderSpeech turns one event into the sentence the announcer speaks.
func renderSpeech(ev *event.Event) string {
	switch ev.Type {
	case "agent.completed":
		return fmt.Sprintf("%s: agent finished — %s", ev.Project, titleOrType(ev))
	case "agent.error":
		return fmt.Sprintf("%s: agent error — %s", ev.Project, titleOrType(ev))
	case "agent.needs_review":
		return fmt.Sprintf("%s: agent needs review — %s", ev.Project, titleOrType(ev))
	case "service.crashed":
		return fmt.Sprintf("%s: %s crashed", ev.Project, ev.Source)
	case "build.failed":
		return fmt.Sprintf("%s: build failed — %s", ev.Project, titleOrType(ev))
	default:
		return fmt.Sprintf("%s: %s", ev.Project, titleOrType(ev))
	}
}

// renderBatch is the summary line for a flushed cooldown window.
func renderBatch(b batch) string {
	return fmt.Sprintf("%s: %d more %s events", b.project, b.count, b.eventType)
}
