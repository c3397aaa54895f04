// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package commander

import (
	"time"
)

// cooldownAction is the tracker's verdict for one incoming event.
type cooldownAction int

const (
	// actionSpeak: speak the event normally.
	actionSpeak cooldownAction = iota
	// actionSuppress: inside an open window, count it and stay quiet.
	actionSuppress
	// actionBatch: window expired with suppressed events; speak a batch
	// summary, then the tracker has already opened a fresh window.
	actionBatch
)

type cooldownKey struct {
	project   string
	eventType string
}

type cooldownEntry struct {
	count   int
	expires time.Time
}

// cooldownTracker implements per-(project, event-type) cooldown batching:
// the first event in a window speaks, repeats are counted, and the count
// surfaces as one batch line when the window rolls over or expires idle.
type cooldownTracker struct {
	entries  map[cooldownKey]cooldownEntry
	cooldown time.Duration

	// now is swapped in tests.
	now func() time.Time
}

func newCooldownTracker(cooldown time.Duration) *cooldownTracker {
	return &cooldownTracker{
		entries:  make(map[cooldownKey]cooldownEntry),
		cooldown: cooldown,
		now:      time.Now,
	}
}

// check records one occurrence and returns what to do with it. For
// actionBatch the returned count is the number of suppressed events being
// summarized.
func (t *cooldownTracker) check(project, eventType string) (cooldownAction, int) {
	key := cooldownKey{project: project, eventType: eventType}
	now := t.now()

	entry, ok := t.entries[key]
	if !ok {
		t.entries[key] = cooldownEntry{count: 1, expires: now.Add(t.cooldown)}
		return actionSpeak, 0
	}

	if now.Before(entry.expires) {
		entry.count++
		t.entries[key] = entry
		return actionSuppress, 0
	}

	// Window expired; roll it over. The batch count covers only the
	// suppressed occurrences, not the one spoken when the window opened.
	suppressed := entry.count - 1
	t.entries[key] = cooldownEntry{count: 1, expires: now.Add(t.cooldown)}
	if suppressed > 0 {
		return actionBatch, suppressed
	}
	return actionSpeak, 0
}

// batch is one pending batch summary from an expired window.
type batch struct {
	project   string
	eventType string
	count     int
}

// flushExpired drops every expired window and returns batch summaries for
// those that accumulated more than one event.
func (t *cooldownTracker) flushExpired() []batch {
	now := t.now()
	var batches []batch
	for key, entry := range t.entries {
		if now.Before(entry.expires) {
			continue
		}
		if entry.count > 1 {
			batches = append(batches, batch{project: key.project, eventType: key.eventType, count: entry.count - 1})
		}
		delete(t.entries, key)
	}
	return batches
}
