// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package supervisor

import (
	"os"
	"strconv"

	"github.com/0xPD33/drift/internal/atomicfile"
	"github.com/0xPD33/drift/internal/logging"
	"github.com/0xPD33/drift/internal/paths"
)

// Status is the lifecycle state of one supervised service.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusFailed  Status = "failed"
	StatusBackoff Status = "backoff"
)

// Terminal reports whether the status is absorbing until supervisor exit.
func (s Status) Terminal() bool {
	return s == StatusStopped || s == StatusFailed
}

// ServicesState is the supervisor's published state file, rewritten
// atomically on every service transition.
type ServicesState struct {
	SupervisorPid int            `json:"supervisor_pid"`
	Project       string         `json:"project"`
	Services      []ServiceState `json:"services"`
}

// ServiceState is the published record of one service.
type ServiceState struct {
	Name         string  `json:"name"`
	Pid          *int    `json:"pid"`
	Status       Status  `json:"status"`
	RestartCount int     `json:"restart_count"`
	StartedAt    *string `json:"started_at"`
	ExitCode     *int    `json:"exit_code"`
	IsAgent      bool    `json:"is_agent"`
	AgentType    *string `json:"agent_type"`
}

// writeState publishes the current state of all services. Publication is a
// side-effect path: failure is logged, never propagated.
func (s *Supervisor) writeState() {
	state := ServicesState{
		SupervisorPid: os.Getpid(),
		Project:       s.project,
		Services:      make([]ServiceState, 0, len(s.services)),
	}
	for _, svc := range s.services {
		rec := ServiceState{
			Name:         svc.config.Name,
			Status:       svc.status,
			RestartCount: svc.restartCount,
			ExitCode:     svc.exitCode,
			IsAgent:      svc.config.IsAgent(),
		}
		if svc.pid != 0 {
			pid := svc.pid
			rec.Pid = &pid
		}
		if !svc.startedAtWall.IsZero() {
			at := strconv.FormatInt(svc.startedAtWall.Unix(), 10)
			rec.StartedAt = &at
		}
		if svc.config.Agent != "" {
			agentType := svc.config.Agent
			rec.AgentType = &agentType
		}
		state.Services = append(state.Services, rec)
	}

	if err := atomicfile.WriteJSON(paths.ServicesStatePath(s.project), &state); err != nil {
		logging.Warn().Err(err).Str("project", s.project).Msg("writing services state failed")
	}
}

// LoadState reads a project's published services state, for peers like the
// CLI status command.
func LoadState(project string) (*ServicesState, error) {
	var state ServicesState
	if err := atomicfile.ReadJSON(paths.ServicesStatePath(project), &state); err != nil {
		return nil, err
	}
	return &state, nil
}
