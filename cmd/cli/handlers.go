// Command handlers for the chancfg CLI
//
// Each handler opens a store for the duration of the invocation, performs
// one operation, and closes it. The store runs the full lock bootstrap on
// every open, so a CLI invocation participates in crash recovery exactly
// like a long-lived management daemon.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"

	"github.com/agilira/chancfg"
	"github.com/agilira/go-errors"
	"github.com/agilira/orpheus/pkg/orpheus"
)

// handleChannelList prints the channel table, one line per channel.
func (m *Manager) handleChannelList(ctx *orpheus.Context) error {
	store, err := m.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	includeAll := ctx.GetFlagBool("all")
	for ch := uint8(0); ch <= chancfg.MaxChannels; ch++ {
		record, err := store.Channel(ch)
		if err != nil {
			return err
		}
		if !record.Valid && !includeAll {
			continue
		}
		fmt.Printf("%2d  %-16s valid=%-5v medium=%-12s protocol=%-12s sessions=%s\n",
			record.ID, record.Name, record.Valid,
			record.Info.MediumType, record.Info.ProtocolType,
			record.Info.SessionSupport)
	}
	return nil
}

// handleChannelInfo prints one channel's full table record.
func (m *Manager) handleChannelInfo(ctx *orpheus.Context) error {
	ch, err := parseChannelArg(ctx, 0)
	if err != nil {
		return err
	}
	store, err := m.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	record, err := store.Channel(ch)
	if err != nil {
		return err
	}

	fmt.Printf("Channel %d (%s)\n", record.ID, record.Name)
	fmt.Printf("  valid:            %v\n", record.Valid)
	fmt.Printf("  active sessions:  %d\n", record.ActiveSessions)
	fmt.Printf("  medium type:      %s\n", record.Info.MediumType)
	fmt.Printf("  protocol type:    %s\n", record.Info.ProtocolType)
	fmt.Printf("  session support:  %s\n", record.Info.SessionSupport)
	fmt.Printf("  management proto: %v\n", record.Info.IsManagementProto)
	return nil
}

// handleAccessGet prints a channel's access policy on the selected tier.
func (m *Manager) handleAccessGet(ctx *orpheus.Context) error {
	ch, err := parseChannelArg(ctx, 0)
	if err != nil {
		return err
	}
	tier, err := parseTierFlag(ctx)
	if err != nil {
		return err
	}
	store, err := m.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var policy chancfg.AccessPolicy
	if tier == tierNV {
		policy, err = store.ChannelAccessPersist(ch)
	} else {
		policy, err = store.ChannelAccess(ch)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Channel %d access (%s)\n", ch, tier)
	fmt.Printf("  access mode:      %s\n", policy.AccessMode)
	fmt.Printf("  priv limit:       %s\n", policy.PrivLimit)
	fmt.Printf("  user auth:        %v\n", !policy.UserAuthDisabled)
	fmt.Printf("  per-msg auth:     %v\n", !policy.PerMsgAuthDisabled)
	fmt.Printf("  alerting:         %v\n", !policy.AlertingDisabled)
	return nil
}

// handleAccessSet applies the flagged fields to a channel's access policy
// on the selected tier. Fields without a flag are left untouched.
func (m *Manager) handleAccessSet(ctx *orpheus.Context) error {
	ch, err := parseChannelArg(ctx, 0)
	if err != nil {
		return err
	}
	tier, err := parseTierFlag(ctx)
	if err != nil {
		return err
	}

	var policy chancfg.AccessPolicy
	var mask chancfg.AccessField

	if mode := ctx.GetFlagString("mode"); mode != "" {
		parsed, err := chancfg.ParseAccessMode(mode)
		if err != nil {
			return err
		}
		policy.AccessMode = parsed
		mask |= chancfg.FieldAccessMode
	}
	if priv := ctx.GetFlagString("priv-limit"); priv != "" {
		parsed, err := chancfg.ParsePrivilege(priv)
		if err != nil {
			return err
		}
		policy.PrivLimit = parsed
		mask |= chancfg.FieldPrivLimit
	}
	if enabled, set, err := parseBoolFlag(ctx, "user-auth"); err != nil {
		return err
	} else if set {
		policy.UserAuthDisabled = !enabled
		mask |= chancfg.FieldUserAuthEnabled
	}
	if enabled, set, err := parseBoolFlag(ctx, "per-msg-auth"); err != nil {
		return err
	} else if set {
		policy.PerMsgAuthDisabled = !enabled
		mask |= chancfg.FieldPerMsgAuthEnabled
	}
	if enabled, set, err := parseBoolFlag(ctx, "alerting"); err != nil {
		return err
	} else if set {
		policy.AlertingDisabled = !enabled
		mask |= chancfg.FieldAlertingEnabled
	}

	if mask == 0 {
		return errors.New(chancfg.ErrCodeInvalidFieldRequest, "no fields to set; pass at least one of --mode, --priv-limit, --user-auth, --per-msg-auth, --alerting")
	}

	store, err := m.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if tier == tierNV {
		err = store.SetChannelAccessPersist(ch, policy, mask)
	} else {
		err = store.SetChannelAccess(ch, policy, mask)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Updated channel %d access (%s)\n", ch, tier)
	return nil
}

// handleAuditStats prints audit storage statistics.
func (m *Manager) handleAuditStats(ctx *orpheus.Context) error {
	logger, err := openAuditLogger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	stats, err := logger.Stats()
	if err != nil {
		return errors.Wrap(err, chancfg.ErrCodeUnspecifiedError, "failed to read audit statistics")
	}
	if stats == nil {
		fmt.Println("audit disabled")
		return nil
	}

	fmt.Printf("Total events:  %d\n", stats.TotalEvents)
	fmt.Printf("Storage bytes: %d\n", stats.DatabaseSize)
	for level, count := range stats.EventsByLevel {
		fmt.Printf("  level %-9s %d\n", level, count)
	}
	for event, count := range stats.EventsByEvent {
		fmt.Printf("  event %-20s %d\n", event, count)
	}
	if stats.OldestEvent != nil && stats.NewestEvent != nil {
		fmt.Printf("Range: %s .. %s\n", stats.OldestEvent, stats.NewestEvent)
	}
	return nil
}

// handleAuditCleanup runs retention maintenance on the audit storage.
func (m *Manager) handleAuditCleanup(ctx *orpheus.Context) error {
	logger, err := openAuditLogger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	if err := logger.Maintenance(); err != nil {
		return errors.Wrap(err, chancfg.ErrCodeUnspecifiedError, "audit maintenance failed")
	}
	fmt.Println("audit maintenance complete")
	return nil
}
