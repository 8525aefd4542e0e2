// doc.go: Package documentation
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package chancfg implements the per-channel access-control state core of
// a management controller.
//
// A fixed table of 16 communication channels is loaded once from a static
// definition document (JSON or YAML). Each channel carries an immutable
// info block (medium, protocol, session-support class) and a mutable
// access policy held in two tiers: a volatile tier reflecting the running
// configuration and a non-volatile tier surviving reboots. Both tiers
// persist as JSON files shared by every management process on the host.
//
// Cross-process coordination is deliberately asymmetric. Writers serialize
// through an advisory file lock with a crash-recovery bootstrap protocol;
// readers only compare file modification timestamps and reparse when the
// backing file changed. Reads are therefore cheap and lock-free across
// processes at the cost of not being serialized against in-flight writers.
//
// Every successful policy mutation is recorded in an audit trail backed by
// SQLite (or a JSONL file), with tamper-detection checksums.
//
// Basic usage:
//
//	store, err := chancfg.NewStore(chancfg.Config{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	policy, err := store.ChannelAccess(1)
//	...
//	policy.PrivLimit = chancfg.PrivOperator
//	err = store.SetChannelAccess(1, policy, chancfg.FieldPrivLimit)
package chancfg
