// Utility functions for the chancfg CLI
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"path/filepath"
	"strconv"

	"github.com/agilira/chancfg"
	"github.com/agilira/go-errors"
	"github.com/agilira/orpheus/pkg/orpheus"
)

type tier int

const (
	tierVolatile tier = iota
	tierNV
)

func (t tier) String() string {
	if t == tierNV {
		return "non-volatile"
	}
	return "volatile"
}

// openStore builds a configuration from the environment, applies the
// --state-dir override, and opens the store.
func (m *Manager) openStore(ctx *orpheus.Context) (*chancfg.Store, error) {
	cfg, err := chancfg.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if dir := ctx.GetFlagString("state-dir"); dir != "" {
		cfg.ChannelDefinitionFile = filepath.Join(dir, "channel_config.json")
		cfg.AccessDefaultFile = filepath.Join(dir, "channel_access.json")
		cfg.NVAccessFile = filepath.Join(dir, "channel_access_nv.json")
		cfg.VolatileAccessFile = filepath.Join(dir, "channel_access_volatile.json")
		cfg.LockDir = dir
	}
	return chancfg.NewStore(*cfg)
}

// openAuditLogger builds an audit logger for the audit command group,
// honoring the --output flag.
func openAuditLogger(ctx *orpheus.Context) (*chancfg.AuditLogger, error) {
	auditCfg := chancfg.DefaultAuditConfig()
	if output := ctx.GetFlagString("output"); output != "" {
		auditCfg.OutputFile = output
	}
	// The command group only queries and maintains; no background flusher.
	auditCfg.FlushInterval = 0
	logger, err := chancfg.NewAuditLogger(auditCfg)
	if err != nil {
		return nil, errors.Wrap(err, chancfg.ErrCodeInvalidAuditConfig, "failed to open audit storage")
	}
	return logger, nil
}

// parseChannelArg parses a positional channel-number argument.
func parseChannelArg(ctx *orpheus.Context, index int) (uint8, error) {
	arg := ctx.GetArg(index)
	if arg == "" {
		return 0, errors.New(chancfg.ErrCodeInvalidFieldRequest, "missing channel argument")
	}
	ch, err := strconv.ParseUint(arg, 10, 8)
	if err != nil || ch > uint64(chancfg.MaxChannels) {
		return 0, errors.New(chancfg.ErrCodeInvalidFieldRequest, "channel must be a number between 0 and 15").
			WithContext("argument", arg)
	}
	return uint8(ch), nil
}

// parseTierFlag resolves the --tier flag.
func parseTierFlag(ctx *orpheus.Context) (tier, error) {
	switch ctx.GetFlagString("tier") {
	case "", "volatile":
		return tierVolatile, nil
	case "nv", "non-volatile", "nonvolatile":
		return tierNV, nil
	default:
		return tierVolatile, errors.New(chancfg.ErrCodeInvalidFieldRequest, "tier must be 'volatile' or 'nv'").
			WithContext("tier", ctx.GetFlagString("tier"))
	}
}

// parseBoolFlag reads a tri-state boolean string flag: unset, true, false.
func parseBoolFlag(ctx *orpheus.Context, name string) (value, set bool, err error) {
	raw := ctx.GetFlagString(name)
	if raw == "" {
		return false, false, nil
	}
	parsed, parseErr := strconv.ParseBool(raw)
	if parseErr != nil {
		return false, false, errors.New(chancfg.ErrCodeInvalidFieldRequest, "flag value must be 'true' or 'false'").
			WithContext("flag", name).
			WithContext("value", raw)
	}
	return parsed, true, nil
}
