// store_test.go: Store construction and channel table tests
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import (
	"os"
	"path/filepath"
	"testing"
)

// Fixture: channel 1 is a multi-session LAN channel, channel 2 a
// session-less system interface. Everything else is unconfigured.
const testChannelDefJSON = `{
  "1": {
    "name": "LAN1",
    "is_valid": true,
    "active_sessions": 2,
    "channel_info": {
      "medium_type": "lan-802.3",
      "protocol_type": "ipmb-1.0",
      "session_supported": "multi-session",
      "is_ipmi": true
    }
  },
  "2": {
    "name": "SELF",
    "is_valid": true,
    "active_sessions": 0,
    "channel_info": {
      "medium_type": "system-interface",
      "protocol_type": "kcs",
      "session_supported": "session-less",
      "is_ipmi": true
    }
  }
}`

const testAccessDefaultJSON = `{
  "1": {
    "access_mode": "always_available",
    "user_auth_disabled": false,
    "per_msg_auth_disabled": false,
    "alerting_disabled": false,
    "priv_limit": "priv-admin"
  }
}`

// testConfig lays the fixture files out in dir and returns a Config
// pointing at them with audit disabled.
func testConfig(t *testing.T, dir string) Config {
	t.Helper()
	writeTestFile(t, filepath.Join(dir, "channel_config.json"), testChannelDefJSON)
	writeTestFile(t, filepath.Join(dir, "channel_access.json"), testAccessDefaultJSON)
	return Config{
		ChannelDefinitionFile: filepath.Join(dir, "channel_config.json"),
		AccessDefaultFile:     filepath.Join(dir, "channel_access.json"),
		NVAccessFile:          filepath.Join(dir, "channel_access_nv.json"),
		VolatileAccessFile:    filepath.Join(dir, "channel_access_volatile.json"),
		LockDir:               filepath.Join(dir, "locks"),
		Audit:                 AuditConfig{Enabled: false, OutputFile: filepath.Join(dir, "audit.jsonl")},
	}
}

func newTestStore(t *testing.T) (*Store, Config) {
	t.Helper()
	cfg := testConfig(t, t.TempDir())
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, cfg
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestChannelTableLoad(t *testing.T) {
	store, _ := newTestStore(t)

	record, err := store.Channel(1)
	if err != nil {
		t.Fatalf("Channel(1): %v", err)
	}
	if record.Name != "LAN1" || !record.Valid || record.ID != 1 {
		t.Errorf("unexpected record: %+v", record)
	}
	if record.Info.MediumType != MediumLAN8032 {
		t.Errorf("medium = %v, want lan-802.3", record.Info.MediumType)
	}
	if record.Info.ProtocolType != ProtocolIPMBV10 {
		t.Errorf("protocol = %v, want ipmb-1.0", record.Info.ProtocolType)
	}
	if record.Info.SessionSupport != SessionMulti {
		t.Errorf("session support = %v, want multi-session", record.Info.SessionSupport)
	}
	if !record.Info.IsManagementProto {
		t.Error("IsManagementProto should be true")
	}
	if record.ActiveSessions != 2 {
		t.Errorf("active sessions = %d, want 2", record.ActiveSessions)
	}
}

func TestUnconfiguredSlotsAreReserved(t *testing.T) {
	store, _ := newTestStore(t)

	for _, ch := range []uint8{0, 3, 7, MaxChannels} {
		record, err := store.Channel(ch)
		if err != nil {
			t.Fatalf("Channel(%d): %v", ch, err)
		}
		if record.Valid {
			t.Errorf("channel %d should be invalid", ch)
		}
		if record.Name != defaultChannelName {
			t.Errorf("channel %d name = %q, want %q", ch, record.Name, defaultChannelName)
		}
		if record.Info.SessionSupport != SessionNone {
			t.Errorf("channel %d session support = %v, want session-less", ch, record.Info.SessionSupport)
		}
		if store.IsValidChannel(ch) {
			t.Errorf("IsValidChannel(%d) should be false", ch)
		}
	}
}

func TestIsValidChannel(t *testing.T) {
	store, _ := newTestStore(t)

	if !store.IsValidChannel(1) || !store.IsValidChannel(2) {
		t.Error("channels 1 and 2 should be valid")
	}
	if store.IsValidChannel(16) || store.IsValidChannel(255) {
		t.Error("out-of-range channels must be invalid")
	}
}

func TestChannelOutOfRange(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Channel(16)
	if err == nil {
		t.Fatal("expected error")
	}
	if StatusOf(err) != StatusInvalidFieldRequest {
		t.Errorf("status = %v, want invalid-field-request", StatusOf(err))
	}
}

func TestYAMLChannelDefinition(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.ChannelDefinitionFile = filepath.Join(dir, "channel_config.yaml")
	writeTestFile(t, cfg.ChannelDefinitionFile, `
"1":
  name: LAN1
  is_valid: true
  channel_info:
    medium_type: lan-802.3
    protocol_type: ipmb-1.0
    session_supported: multi-session
    is_ipmi: true
`)

	store, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer func() { _ = store.Close() }()

	record, err := store.Channel(1)
	if err != nil {
		t.Fatalf("Channel(1): %v", err)
	}
	if record.Name != "LAN1" || record.Info.SessionSupport != SessionMulti {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestCorruptEnumAbortsLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	writeTestFile(t, cfg.ChannelDefinitionFile, `{
  "1": {
    "name": "LAN1",
    "is_valid": true,
    "channel_info": {
      "medium_type": "warp-drive",
      "protocol_type": "ipmb-1.0",
      "session_supported": "multi-session",
      "is_ipmi": true
    }
  }
}`)

	_, err := NewStore(cfg)
	if err == nil {
		t.Fatal("expected construction to fail on unknown enum string")
	}
	if errorCode(err) != ErrCodeCorruptedConfig {
		t.Errorf("code = %q, want %q", errorCode(err), ErrCodeCorruptedConfig)
	}
}

func TestMissingDefinitionFile(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.ChannelDefinitionFile = filepath.Join(dir, "nope.json")

	_, err := NewStore(cfg)
	if err == nil {
		t.Fatal("expected construction to fail")
	}
	if errorCode(err) != ErrCodeIOError {
		t.Errorf("code = %q, want %q", errorCode(err), ErrCodeIOError)
	}
}

func TestUnsupportedDefinitionFormat(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.ChannelDefinitionFile = filepath.Join(dir, "channel_config.toml")
	writeTestFile(t, cfg.ChannelDefinitionFile, "whatever = true")

	_, err := NewStore(cfg)
	if err == nil {
		t.Fatal("expected construction to fail")
	}
	if errorCode(err) != ErrCodeInvalidConfig {
		t.Errorf("code = %q, want %q", errorCode(err), ErrCodeInvalidConfig)
	}
}

func TestEntryMissingChannelInfo(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	writeTestFile(t, cfg.ChannelDefinitionFile, `{"1": {"name": "LAN1", "is_valid": true}}`)

	_, err := NewStore(cfg)
	if err == nil {
		t.Fatal("expected construction to fail")
	}
	if errorCode(err) != ErrCodeCorruptedConfig {
		t.Errorf("code = %q, want %q", errorCode(err), ErrCodeCorruptedConfig)
	}
}

func TestActiveSessions(t *testing.T) {
	store, _ := newTestStore(t)

	n, err := store.ActiveSessions(1)
	if err != nil {
		t.Fatalf("ActiveSessions: %v", err)
	}
	if n != 2 {
		t.Errorf("got %d, want 2", n)
	}

	if _, err := store.ActiveSessions(0); StatusOf(err) != StatusInvalidFieldRequest {
		t.Errorf("invalid channel: status = %v", StatusOf(err))
	}
}

func TestAuthTypeSupportedLifecycle(t *testing.T) {
	store, _ := newTestStore(t)

	// The definition file never carries auth bits; the table starts empty.
	mask, err := store.AuthTypeSupported(1)
	if err != nil {
		t.Fatalf("AuthTypeSupported: %v", err)
	}
	if mask != 0 {
		t.Errorf("initial mask = %b, want 0", mask)
	}
	if store.IsValidAuthType(1, AuthMD5) {
		t.Error("no auth type should be valid before the mask is installed")
	}

	if err := store.SetAuthTypeSupported(1, 1<<AuthMD5|1<<AuthStraightPassword); err != nil {
		t.Fatalf("SetAuthTypeSupported: %v", err)
	}
	if !store.IsValidAuthType(1, AuthMD5) || !store.IsValidAuthType(1, AuthStraightPassword) {
		t.Error("installed auth types should validate")
	}
	if store.IsValidAuthType(1, AuthMD2) {
		t.Error("MD2 is not in the mask")
	}
	// AuthNone is outside the usable range even if its bit were set.
	if store.IsValidAuthType(1, AuthNone) {
		t.Error("AuthNone must never validate")
	}

	if err := store.SetAuthTypeSupported(0, 1); StatusOf(err) != StatusInvalidFieldRequest {
		t.Errorf("invalid channel: status = %v", StatusOf(err))
	}
}

func TestEnabledAuthType(t *testing.T) {
	store, _ := newTestStore(t)

	at, err := store.EnabledAuthType(1, PrivAdmin)
	if err != nil {
		t.Fatalf("EnabledAuthType: %v", err)
	}
	if at != AuthNone {
		t.Errorf("got %v, want AuthNone", at)
	}

	// Session-less channel and invalid privilege both reject as
	// invalid-field-request.
	if _, err := store.EnabledAuthType(2, PrivAdmin); StatusOf(err) != StatusInvalidFieldRequest {
		t.Errorf("session-less: status = %v", StatusOf(err))
	}
	if _, err := store.EnabledAuthType(1, Privilege(9)); StatusOf(err) != StatusInvalidFieldRequest {
		t.Errorf("bad privilege: status = %v", StatusOf(err))
	}
}
