// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package daemon

import (
	"fmt"
	"os/exec"

	"github.com/0xPD33/drift/internal/event"
	"github.com/0xPD33/drift/internal/logging"
	"github.com/0xPD33/drift/internal/metrics"
)

// urgencyFor maps event priority to notify-send urgency. Empty means no
// desktop notification.
func urgencyFor(priority string) string {
	switch priority {
	case event.PriorityCritical:
		return "critical"
	case event.PriorityHigh:
		return "normal"
	case event.PriorityMedium:
		return "low"
	default:
		return ""
	}
}

// sendDesktopNotification invokes notify-send fire-and-forget. Failure is
// never surfaced; the notification daemon is optional.
func sendDesktopNotification(ev *event.Event) {
	urgency := urgencyFor(ev.Priority)
	if urgency == "" {
		return
	}

	title := fmt.Sprintf("[%s] %s", ev.Project, ev.Title)
	cmd := exec.Command("notify-send",
		"--app-name=drift",
		"--urgency="+urgency,
		title,
		ev.Body,
	)
	if err := cmd.Start(); err != nil {
		logging.Debug().Err(err).Msg("notify-send unavailable")
		return
	}
	metrics.NotificationsSent.WithLabelValues(urgency).Inc()
	// Reap in the background; the exit status is of no interest.
	go func() { _ = cmd.Wait() }()
}
