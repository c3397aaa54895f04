// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package workspace persists per-project window snapshots. The daemon
// auto-saves a project's window list whenever its workspace loses focus;
// the CLI restores from the snapshot on the next open.
package workspace

import (
	"os"
	"strconv"
	"time"

	"github.com/0xPD33/drift/internal/atomicfile"
	"github.com/0xPD33/drift/internal/paths"
)

// Snapshot is the persisted window list of one project workspace.
type Snapshot struct {
	Project string        `json:"project"`
	SavedAt string        `json:"saved_at"`
	Windows []SavedWindow `json:"windows"`
}

// SavedWindow records enough of a window to respawn its application.
type SavedWindow struct {
	AppID *string `json:"app_id"`
	Title *string `json:"title"`
}

// Write atomically stores the snapshot for a project.
func Write(project string, windows []SavedWindow) error {
	snapshot := Snapshot{
		Project: project,
		SavedAt: strconv.FormatInt(time.Now().Unix(), 10),
		Windows: windows,
	}
	return atomicfile.WriteJSON(paths.WorkspaceStatePath(project), &snapshot)
}

// Load returns the stored snapshot for a project, or nil if none exists.
func Load(project string) (*Snapshot, error) {
	path := paths.WorkspaceStatePath(project)
	var snapshot Snapshot
	if err := atomicfile.ReadJSON(path, &snapshot); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}
