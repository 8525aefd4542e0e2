// audit.go: Audit trail for channel access-policy changes
//
// Every successful policy mutation and every security-relevant lifecycle
// event (store startup, mutex recovery) leaves an immutable audit record
// with a tamper-detection checksum. Events are buffered and flushed in the
// background so the hot mutation path pays only an append.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// AuditLevel represents the severity of audit events.
type AuditLevel int

const (
	AuditInfo AuditLevel = iota
	AuditWarn
	AuditCritical
	AuditSecurity
)

func (al AuditLevel) String() string {
	switch al {
	case AuditInfo:
		return "INFO"
	case AuditWarn:
		return "WARN"
	case AuditCritical:
		return "CRITICAL"
	case AuditSecurity:
		return "SECURITY"
	default:
		return "UNKNOWN"
	}
}

// AuditEvent is a single auditable event. Channel and Tier are set for
// access-policy changes and empty otherwise.
type AuditEvent struct {
	Timestamp   time.Time              `json:"timestamp"`
	Level       AuditLevel             `json:"level"`
	Event       string                 `json:"event"`
	Component   string                 `json:"component"`
	Channel     int                    `json:"channel"`
	Tier        string                 `json:"tier,omitempty"`
	FilePath    string                 `json:"file_path,omitempty"`
	OldValue    interface{}            `json:"old_value,omitempty"`
	NewValue    interface{}            `json:"new_value,omitempty"`
	ProcessID   int                    `json:"process_id"`
	ProcessName string                 `json:"process_name"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Checksum    string                 `json:"checksum"` // For tamper detection
}

// AuditConfig configures the audit system.
type AuditConfig struct {
	Enabled       bool          `json:"enabled"`
	OutputFile    string        `json:"output_file"`
	MinLevel      AuditLevel    `json:"min_level"`
	BufferSize    int           `json:"buffer_size"`
	FlushInterval time.Duration `json:"flush_interval"`
}

// DefaultAuditConfig returns the default audit configuration. An empty
// OutputFile selects the system-wide SQLite database; a .jsonl path
// selects the append-only file backend.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:       true,
		OutputFile:    "",
		MinLevel:      AuditInfo,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
	}
}

// AuditLogger provides buffered audit logging with pluggable storage
// backends. The backend is selected at construction (SQLite preferred,
// JSONL fallback) and the public surface stays the same either way.
type AuditLogger struct {
	config      AuditConfig
	backend     auditBackend
	buffer      []AuditEvent
	bufferMu    sync.Mutex
	flushTicker *time.Ticker
	stopCh      chan struct{}
	processID   int
	processName string
}

// NewAuditLogger creates an audit logger with automatic backend selection.
// A disabled config yields a logger whose methods are no-ops.
func NewAuditLogger(config AuditConfig) (*AuditLogger, error) {
	logger := &AuditLogger{
		config:      config,
		buffer:      make([]AuditEvent, 0, config.BufferSize),
		stopCh:      make(chan struct{}),
		processID:   os.Getpid(),
		processName: "chancfg",
	}
	if !config.Enabled {
		return logger, nil
	}

	backend, err := createAuditBackend(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit backend: %w", err)
	}
	logger.backend = backend

	if config.FlushInterval > 0 {
		logger.flushTicker = time.NewTicker(config.FlushInterval)
		go logger.flushLoop()
	}
	return logger, nil
}

// Log records an audit event.
func (al *AuditLogger) Log(level AuditLevel, event AuditEvent) {
	if al == nil || al.backend == nil || !al.config.Enabled || level < al.config.MinLevel {
		return
	}

	event.Timestamp = timecache.CachedTime()
	event.Level = level
	event.Component = "chancfg"
	event.ProcessID = al.processID
	event.ProcessName = al.processName
	event.Checksum = generateChecksum(event)

	al.bufferMu.Lock()
	al.buffer = append(al.buffer, event)
	if len(al.buffer) >= al.config.BufferSize {
		_ = al.flushBufferUnsafe()
	}
	al.bufferMu.Unlock()
}

// LogAccessChange records a successful access-policy mutation on one tier.
func (al *AuditLogger) LogAccessChange(channel int, tier string, mask AccessField, oldPolicy, newPolicy AccessPolicy) {
	al.Log(AuditCritical, AuditEvent{
		Event:    "access_change",
		Channel:  channel,
		Tier:     tier,
		OldValue: auditPolicyValue(oldPolicy),
		NewValue: auditPolicyValue(newPolicy),
		Context:  map[string]interface{}{"mask": int(mask)},
	})
}

// LogStoreEvent records a store lifecycle event.
func (al *AuditLogger) LogStoreEvent(event, filePath string) {
	al.Log(AuditInfo, AuditEvent{
		Event:    event,
		FilePath: filePath,
	})
}

// LogSecurityEvent records a security-relevant event.
func (al *AuditLogger) LogSecurityEvent(event, details string, context map[string]interface{}) {
	if context == nil {
		context = make(map[string]interface{})
	}
	context["details"] = details
	al.Log(AuditSecurity, AuditEvent{
		Event:   event,
		Context: context,
	})
}

// Flush immediately writes all buffered events.
func (al *AuditLogger) Flush() error {
	if al.backend == nil {
		return nil
	}
	al.bufferMu.Lock()
	defer al.bufferMu.Unlock()
	return al.flushBufferUnsafe()
}

// Stats returns backend statistics, or nil for a disabled logger.
func (al *AuditLogger) Stats() (*AuditDatabaseStats, error) {
	if al.backend == nil {
		return nil, nil
	}
	return al.backend.GetStats()
}

// Maintenance runs backend maintenance (retention cleanup, optimization).
func (al *AuditLogger) Maintenance() error {
	if al.backend == nil {
		return nil
	}
	return al.backend.Maintenance()
}

// Close gracefully shuts down the audit logger, flushing pending events.
func (al *AuditLogger) Close() error {
	select {
	case <-al.stopCh:
	default:
		close(al.stopCh)
	}
	if al.flushTicker != nil {
		al.flushTicker.Stop()
	}

	if err := al.Flush(); err != nil {
		return fmt.Errorf("failed to flush audit logger during close: %w", err)
	}
	if al.backend != nil {
		if err := al.backend.Close(); err != nil {
			return fmt.Errorf("failed to close audit backend: %w", err)
		}
	}
	return nil
}

func (al *AuditLogger) flushLoop() {
	for {
		select {
		case <-al.flushTicker.C:
			_ = al.Flush()
		case <-al.stopCh:
			return
		}
	}
}

// flushBufferUnsafe writes the buffer to the backend. Caller holds bufferMu.
func (al *AuditLogger) flushBufferUnsafe() error {
	if len(al.buffer) == 0 {
		return nil
	}
	if err := al.backend.Write(al.buffer); err != nil {
		return fmt.Errorf("failed to write audit events to backend: %w", err)
	}
	al.buffer = al.buffer[:0]
	return nil
}

// auditPolicyValue renders a policy as a stable map for audit storage.
func auditPolicyValue(p AccessPolicy) map[string]interface{} {
	return map[string]interface{}{
		"access_mode":           int(p.AccessMode),
		"user_auth_disabled":    p.UserAuthDisabled,
		"per_msg_auth_disabled": p.PerMsgAuthDisabled,
		"alerting_disabled":     p.AlertingDisabled,
		"priv_limit":            int(p.PrivLimit),
	}
}

// generateChecksum creates a tamper-detection checksum using SHA-256.
func generateChecksum(event AuditEvent) string {
	data := fmt.Sprintf("%s:%s:%d:%s:%v:%v",
		event.Timestamp.Format(time.RFC3339Nano),
		event.Event, event.Channel, event.Tier, event.OldValue, event.NewValue)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
