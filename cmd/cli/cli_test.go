// CLI integration tests
//
// Commands run against a store rooted in a temporary state directory via
// the --state-dir flag, so every test is fully isolated.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func setupStateDir(t *testing.T) string {
	t.Helper()
	t.Setenv("CHANCFG_AUDIT_ENABLED", "false")

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "channel_config.json"), `{
  "1": {
    "name": "LAN1",
    "is_valid": true,
    "channel_info": {
      "medium_type": "lan-802.3",
      "protocol_type": "ipmb-1.0",
      "session_supported": "multi-session",
      "is_ipmi": true
    }
  }
}`)
	writeFile(t, filepath.Join(dir, "channel_access.json"), `{
  "1": {
    "access_mode": "always_available",
    "user_auth_disabled": false,
    "per_msg_auth_disabled": false,
    "alerting_disabled": false,
    "priv_limit": "priv-admin"
  }
}`)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		t.Fatal(err)
	}
}

func readTierEntry(t *testing.T, path, channel string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	doc := make(map[string]map[string]interface{})
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	entry, ok := doc[channel]
	if !ok {
		t.Fatalf("channel %s missing from %s", channel, path)
	}
	return entry
}

func TestAccessSetUpdatesVolatileTier(t *testing.T) {
	dir := setupStateDir(t)
	m := NewManager()

	err := m.Run([]string{"access", "set", "1",
		"--state-dir", dir, "--mode", "shared", "--priv-limit", "priv-user"})
	if err != nil {
		t.Fatalf("access set: %v", err)
	}

	entry := readTierEntry(t, filepath.Join(dir, "channel_access_volatile.json"), "1")
	if entry["access_mode"] != "shared" {
		t.Errorf("access_mode = %v, want shared", entry["access_mode"])
	}
	if entry["priv_limit"] != "priv-user" {
		t.Errorf("priv_limit = %v, want priv-user", entry["priv_limit"])
	}

	// The non-volatile tier keeps its factory values.
	nv := readTierEntry(t, filepath.Join(dir, "channel_access_nv.json"), "1")
	if nv["access_mode"] != "always_available" {
		t.Errorf("nv access_mode = %v, want always_available", nv["access_mode"])
	}
}

func TestAccessSetNVTier(t *testing.T) {
	dir := setupStateDir(t)
	m := NewManager()

	err := m.Run([]string{"access", "set", "1",
		"--state-dir", dir, "--tier", "nv", "--alerting", "false"})
	if err != nil {
		t.Fatalf("access set: %v", err)
	}

	nv := readTierEntry(t, filepath.Join(dir, "channel_access_nv.json"), "1")
	if nv["alerting_disabled"] != true {
		t.Errorf("alerting_disabled = %v, want true", nv["alerting_disabled"])
	}
}

func TestAccessSetRequiresFields(t *testing.T) {
	dir := setupStateDir(t)
	m := NewManager()

	if err := m.Run([]string{"access", "set", "1", "--state-dir", dir}); err == nil {
		t.Error("expected error when no field flags are given")
	}
}

func TestAccessGetAndChannelCommands(t *testing.T) {
	dir := setupStateDir(t)
	m := NewManager()

	commands := [][]string{
		{"access", "get", "1", "--state-dir", dir},
		{"access", "get", "1", "--state-dir", dir, "--tier", "nv"},
		{"channel", "list", "--state-dir", dir},
		{"channel", "list", "--state-dir", dir, "--all"},
		{"channel", "info", "1", "--state-dir", dir},
	}
	for _, args := range commands {
		if err := m.Run(args); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}
}

func TestBadArguments(t *testing.T) {
	dir := setupStateDir(t)
	m := NewManager()

	bad := [][]string{
		{"access", "get", "banana", "--state-dir", dir},
		{"access", "get", "17", "--state-dir", dir},
		{"access", "get", "1", "--state-dir", dir, "--tier", "imaginary"},
		{"access", "set", "1", "--state-dir", dir, "--user-auth", "maybe"},
	}
	for _, args := range bad {
		if err := m.Run(args); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}
