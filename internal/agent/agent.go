// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package agent synthesizes the shell command for agent services. The
// supervisor ignores an agent service's literal command and runs the string
// built here instead.
package agent

import (
	"fmt"
	"strings"

	"github.com/0xPD33/drift/internal/config"
)

const (
	fullTools = "Bash,Read,Edit,Write,Glob,Grep,WebFetch,WebSearch,NotebookEdit,Task"
	safeTools = "Read,Glob,Grep,WebFetch,WebSearch"
)

// BuildCommand returns the shell command string for an agent service,
// ready to pass to sh -c.
func BuildCommand(svc *config.Service, projectName string) string {
	rawPrompt := svc.Prompt
	if rawPrompt == "" {
		rawPrompt = "You are an AI assistant."
	}
	full := svc.AgentPermissions == config.AgentPermissionsFull

	// System context: appended to the agent's built-in system prompt.
	systemContext := fmt.Sprintf(
		"You are working on drift project '%s'.\n\n"+
			"Use `drift notify --type agent.completed --title \"<summary>\"` when you finish significant work.\n"+
			"Use `drift notify --type agent.error --title \"<summary>\"` when you hit errors.",
		projectName,
	)

	escapedContext := shellEscape(systemContext)
	escapedTask := shellEscape(rawPrompt)
	escapedFull := shellEscape(systemContext + "\n\n" + rawPrompt)

	switch svc.Agent + "/" + svc.AgentMode {
	case "claude/oneshot":
		// Oneshot: -p mode, combined prompt goes as the positional arg.
		var b strings.Builder
		b.WriteString("claude -p")
		if full {
			b.WriteString(" --dangerously-skip-permissions")
		} else {
			fmt.Fprintf(&b, " --allowedTools '%s'", safeTools)
		}
		if svc.AgentModel != "" {
			fmt.Fprintf(&b, " --model %s", svc.AgentModel)
		}
		return b.String() + " " + escapedFull

	case "claude/interactive":
		// Interactive: the positional task auto-submits as the first message
		// in the TUI; --append-system-prompt preserves the built-in prompt.
		var b strings.Builder
		b.WriteString("claude")
		tools := safeTools
		if full {
			tools = fullTools
		}
		fmt.Fprintf(&b, " --allowedTools '%s'", tools)
		if svc.AgentModel != "" {
			fmt.Fprintf(&b, " --model %s", svc.AgentModel)
		}
		return fmt.Sprintf("%s --append-system-prompt %s %s", b.String(), escapedContext, escapedTask)

	case "codex/oneshot":
		var b strings.Builder
		b.WriteString("codex exec")
		if full {
			b.WriteString(" -s danger-full-access")
		}
		if svc.AgentModel != "" {
			fmt.Fprintf(&b, " -m %s", svc.AgentModel)
		}
		return b.String() + " " + escapedFull

	case "codex/interactive":
		var b strings.Builder
		b.WriteString("codex")
		if full {
			b.WriteString(" -s danger-full-access")
		}
		if svc.AgentModel != "" {
			fmt.Fprintf(&b, " -m %s", svc.AgentModel)
		}
		return b.String() + " " + escapedFull

	default:
		return svc.Agent + " " + escapedFull
	}
}

// shellEscape single-quotes s for sh, escaping embedded single quotes.
func shellEscape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
