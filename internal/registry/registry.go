// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package registry enumerates the projects known to this machine. The daemon
// rebuilds its known-project set from here on every workspaces-changed event:
// a compositor workspace becomes a drift workspace only by carrying the name
// of a registered project.
package registry

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/0xPD33/drift/internal/config"
	"github.com/0xPD33/drift/internal/logging"
	"github.com/0xPD33/drift/internal/paths"
)

// ListProjects loads every project config in the projects directory.
// Unparseable files are logged and skipped so one broken config does not
// hide the rest.
func ListProjects() []*config.ProjectConfig {
	dir := paths.ProjectsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var projects []*config.ProjectConfig
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".yaml")
		cfg, err := config.LoadProject(name)
		if err != nil {
			logging.Warn().Err(err).Str("path", filepath.Join(dir, entry.Name())).Msg("skipping unreadable project config")
			continue
		}
		projects = append(projects, cfg)
	}

	sort.Slice(projects, func(i, j int) bool {
		if projects[i].Project.Folder != projects[j].Project.Folder {
			return projects[i].Project.Folder < projects[j].Project.Folder
		}
		return projects[i].Project.Name < projects[j].Project.Name
	})
	return projects
}

// ProjectNames returns the set of registered project names.
func ProjectNames() map[string]struct{} {
	names := make(map[string]struct{})
	for _, p := range ListProjects() {
		names[p.Project.Name] = struct{}{}
	}
	return names
}
