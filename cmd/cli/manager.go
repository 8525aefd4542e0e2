// Package cli provides the command-line interface for channel access
// management.
//
// The CLI is a thin operator surface over the chancfg store: inspecting
// the channel table, reading and changing per-channel access policies on
// either persistence tier, and managing the audit trail. Command routing
// is built on the Orpheus framework.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"github.com/agilira/orpheus/pkg/orpheus"
)

// Manager wires the command tree and owns per-invocation store lifecycle.
type Manager struct {
	app *orpheus.App
}

// NewManager creates the CLI manager with the full command tree.
func NewManager() *Manager {
	app := orpheus.New("chancfg").
		SetDescription("Channel access-control management").
		SetVersion("1.0.0")

	m := &Manager{app: app}
	m.setupChannelCommands()
	m.setupAccessCommands()
	m.setupAuditCommands()
	return m
}

// Run executes the CLI application with the provided arguments.
func (m *Manager) Run(args []string) error {
	return m.app.Run(args)
}

// setupChannelCommands configures the 'channel' command group for reading
// the static channel table.
func (m *Manager) setupChannelCommands() {
	channelCmd := orpheus.NewCommand("channel", "Channel table inspection")

	// channel list [--all]
	listCmd := channelCmd.Subcommand("list", "List configured channels", m.handleChannelList)
	listCmd.AddBoolFlag("all", "a", false, "Include reserved (invalid) slots")
	listCmd.AddFlag("state-dir", "d", "", "Override state directory for all backing files")

	// channel info <channel>
	infoCmd := channelCmd.Subcommand("info", "Show one channel's table record", m.handleChannelInfo)
	infoCmd.AddFlag("state-dir", "d", "", "Override state directory for all backing files")

	m.app.AddCommand(channelCmd)
}

// setupAccessCommands configures the 'access' command group for reading
// and mutating per-channel access policies.
func (m *Manager) setupAccessCommands() {
	accessCmd := orpheus.NewCommand("access", "Per-channel access policy operations")

	// access get <channel> [--tier=volatile]
	getCmd := accessCmd.Subcommand("get", "Get a channel's access policy", m.handleAccessGet)
	getCmd.AddFlag("tier", "t", "volatile", "Persistence tier (volatile|nv)")
	getCmd.AddFlag("state-dir", "d", "", "Override state directory for all backing files")

	// access set <channel> [--tier=volatile] [--mode=] [--priv-limit=] ...
	//
	// Only fields whose flags are present join the update mask; string
	// tri-state flags keep absent booleans distinguishable from false.
	setCmd := accessCmd.Subcommand("set", "Set fields of a channel's access policy", m.handleAccessSet)
	setCmd.AddFlag("tier", "t", "volatile", "Persistence tier (volatile|nv)")
	setCmd.AddFlag("mode", "m", "", "Access mode (disabled|pre-boot|always_available|shared)")
	setCmd.AddFlag("priv-limit", "p", "", "Privilege limit (priv-callback|priv-user|priv-operator|priv-admin|priv-oem)")
	setCmd.AddFlag("user-auth", "", "", "Enable user-level authentication (true|false)")
	setCmd.AddFlag("per-msg-auth", "", "", "Enable per-message authentication (true|false)")
	setCmd.AddFlag("alerting", "", "", "Enable alerting (true|false)")
	setCmd.AddFlag("state-dir", "d", "", "Override state directory for all backing files")

	m.app.AddCommand(accessCmd)
}

// setupAuditCommands configures the 'audit' command group.
func (m *Manager) setupAuditCommands() {
	auditCmd := orpheus.NewCommand("audit", "Audit trail management")

	statsCmd := auditCmd.Subcommand("stats", "Show audit storage statistics", m.handleAuditStats)
	statsCmd.AddFlag("output", "o", "", "Audit output file (.db or .jsonl)")

	cleanupCmd := auditCmd.Subcommand("cleanup", "Run audit retention cleanup", m.handleAuditCleanup)
	cleanupCmd.AddFlag("output", "o", "", "Audit output file (.db or .jsonl)")

	m.app.AddCommand(auditCmd)
}
