// store.go: Channel access-control store
//
// Store owns the in-process channel table and mediates every read and
// write of the shared on-disk state. Construction runs the lock recovery
// protocol and the bootstrap cascade; afterwards reads funnel through the
// staleness check and writes through the cross-process lock.
//
// Consistency model: only the write path is serialized against writers in
// peer processes. Reads perform their own staleness check and reload
// without taking the cross-process lock, so a read may observe a table
// state a concurrent writer is midway through replacing. This asymmetry
// is deliberate and documented, not an oversight; the in-process mutex
// below only keeps this process's table memory-safe.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import (
	"sync"

	"github.com/agilira/go-errors"
)

// Store is the per-process channel access-control service. Multiple
// processes may operate on the same backing files concurrently; all
// cross-process coordination goes through the lock files and the tier
// files' modification timestamps. There is no shared memory segment.
type Store struct {
	cfg  Config
	lock *ProcessLock

	mu       sync.Mutex // guards channels and the reload caches in-process
	channels [numChannels]ChannelRecord
	volCache reloadCache
	nvCache  reloadCache

	audit *AuditLogger
}

// NewStore constructs a Store with the given configuration, running the
// cross-process lock bootstrap and the persistence cascade. Errors here
// are fatal to the caller: without a valid channel table the service
// cannot operate.
func NewStore(cfg Config) (*Store, error) {
	c := cfg.WithDefaults()

	auditLogger, err := NewAuditLogger(c.Audit)
	if err != nil {
		// Audit must never prevent startup.
		auditLogger, _ = NewAuditLogger(AuditConfig{Enabled: false})
	}

	lock, err := OpenProcessLock(c.LockDir)
	if err != nil {
		_ = auditLogger.Close()
		return nil, err
	}

	s := &Store{
		cfg:   *c,
		lock:  lock,
		audit: auditLogger,
	}

	if lock.Recovered() {
		auditLogger.LogSecurityEvent("mutex_recovered",
			"no live peers at bootstrap; channel mutex was reset",
			map[string]interface{}{"lock_dir": c.LockDir})
	}

	if err := lock.Lock(); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.mu.Lock()
	initErr := s.initPersistDataLocked()
	s.mu.Unlock()
	_ = lock.Unlock()

	if initErr != nil {
		_ = s.Close()
		return nil, initErr
	}

	auditLogger.LogStoreEvent("store_initialized", c.ChannelDefinitionFile)
	return s, nil
}

// Close releases the lock files and flushes the audit trail. The on-disk
// tiers outlive the process by design.
func (s *Store) Close() error {
	var firstErr error
	if s.lock != nil {
		if err := s.lock.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.audit != nil {
		if err := s.audit.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IsValidChannel reports whether ch addresses a configured, usable channel.
func (s *Store) IsValidChannel(ch uint8) bool {
	if ch > MaxChannels {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[ch].Valid
}

// SessionSupport returns the channel's session-support class. The slot is
// read directly; callers must have validated ch.
func (s *Store) SessionSupport(ch uint8) SessionSupport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[ch].Info.SessionSupport
}

// IsValidAuthType reports whether t is a usable authentication type on the
// channel: a member of the enumeration's usable range and present in the
// channel's supported-auth bitmask.
func (s *Store) IsValidAuthType(ch uint8, t AuthType) bool {
	if t < AuthMD2 || t > AuthOEM {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[ch].Info.AuthTypeSupported.Supports(t)
}

// Channel returns a copy of the channel's table record.
func (s *Store) Channel(ch uint8) (ChannelRecord, error) {
	if ch > MaxChannels {
		return ChannelRecord{}, errors.New(ErrCodeInvalidFieldRequest, "channel out of range").
			WithContext("channel", int(ch))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[ch], nil
}

// ChannelInfo returns a copy of the channel's immutable info block.
func (s *Store) ChannelInfo(ch uint8) (ChannelInfo, error) {
	if !s.IsValidChannel(ch) {
		return ChannelInfo{}, errors.New(ErrCodeInvalidFieldRequest, "invalid channel").
			WithContext("channel", int(ch))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[ch].Info, nil
}

// ActiveSessions returns the externally maintained active-session counter.
// Session counting happens in the session layer; this core only stores the
// number it was handed.
func (s *Store) ActiveSessions(ch uint8) (int, error) {
	if !s.IsValidChannel(ch) {
		return 0, errors.New(ErrCodeInvalidFieldRequest, "invalid channel").
			WithContext("channel", int(ch))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[ch].ActiveSessions, nil
}

// ChannelAccess returns the channel's volatile-tier access policy,
// reloading the tier first if a peer process changed the backing file.
func (s *Store) ChannelAccess(ch uint8) (AccessPolicy, error) {
	return s.access(ch, tierVolatile)
}

// ChannelAccessPersist returns the channel's non-volatile-tier access
// policy, reloading the tier first if a peer process changed the backing
// file.
func (s *Store) ChannelAccessPersist(ch uint8) (AccessPolicy, error) {
	return s.access(ch, tierNonVolatile)
}

// SetChannelAccess applies the masked fields of policy to the channel's
// volatile tier and persists the tier. The masked fields update atomically
// as a single unit.
func (s *Store) SetChannelAccess(ch uint8, policy AccessPolicy, mask AccessField) error {
	return s.setAccess(ch, policy, mask, tierVolatile)
}

// SetChannelAccessPersist applies the masked fields of policy to the
// channel's non-volatile tier and persists the tier.
func (s *Store) SetChannelAccessPersist(ch uint8, policy AccessPolicy, mask AccessField) error {
	return s.setAccess(ch, policy, mask, tierNonVolatile)
}

// AuthTypeSupported returns the channel's supported-auth bitmask.
func (s *Store) AuthTypeSupported(ch uint8) (AuthTypeMask, error) {
	if !s.IsValidChannel(ch) {
		return 0, errors.New(ErrCodeInvalidFieldRequest, "invalid channel").
			WithContext("channel", int(ch))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[ch].Info.AuthTypeSupported, nil
}

// SetAuthTypeSupported installs the channel's supported-auth bitmask.
// The bitmask is owned by the authentication subsystem, which populates it
// after load; it is never read from the definition file.
func (s *Store) SetAuthTypeSupported(ch uint8, mask AuthTypeMask) error {
	if !s.IsValidChannel(ch) {
		return errors.New(ErrCodeInvalidFieldRequest, "invalid channel").
			WithContext("channel", int(ch))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[ch].Info.AuthTypeSupported = mask
	return nil
}

// EnabledAuthType reports the authentication type enabled for the given
// privilege on the channel. Pending integration with the authentication
// subsystem this always answers AuthNone for valid requests, matching
// peers that negotiate sessions without per-privilege auth selection.
func (s *Store) EnabledAuthType(ch uint8, priv Privilege) (AuthType, error) {
	if !s.IsValidChannel(ch) {
		return AuthNone, errors.New(ErrCodeInvalidFieldRequest, "invalid channel").
			WithContext("channel", int(ch))
	}
	if s.SessionSupport(ch) == SessionNone {
		return AuthNone, errors.New(ErrCodeInvalidFieldRequest, "session-less channel has no auth data").
			WithContext("channel", int(ch))
	}
	if !priv.Valid() {
		return AuthNone, errors.New(ErrCodeInvalidFieldRequest, "invalid privilege").
			WithContext("privilege", int(priv))
	}
	return AuthNone, nil
}

// validateAccessOp rejects access-data operations on out-of-range,
// unconfigured, or session-less channels.
func (s *Store) validateAccessOp(ch uint8) error {
	if !s.IsValidChannel(ch) {
		return errors.New(ErrCodeInvalidFieldRequest, "invalid channel").
			WithContext("channel", int(ch))
	}
	if s.SessionSupport(ch) == SessionNone {
		return errors.New(ErrCodeActionNotSupported, "session-less channel has no access data").
			WithContext("channel", int(ch))
	}
	return nil
}

// access is the read-through path shared by both tiers. It does not take
// the cross-process lock; see the consistency note at the top of the file.
func (s *Store) access(ch uint8, t accessTier) (AccessPolicy, error) {
	if err := s.validateAccessOp(ch); err != nil {
		return AccessPolicy{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAndReloadLocked(t); err != nil {
		return AccessPolicy{}, err
	}
	return *s.tierPolicy(ch, t), nil
}

// setAccess is the write-through path shared by both tiers: validate
// before any mutation, serialize against peer writers, reload to observe
// their latest state, apply the masked fields, persist.
func (s *Store) setAccess(ch uint8, policy AccessPolicy, mask AccessField, t accessTier) error {
	if err := s.validateAccessOp(ch); err != nil {
		return err
	}
	if mask&FieldAccessMode != 0 && !policy.AccessMode.Valid() {
		return errors.New(ErrCodeInvalidFieldRequest, "invalid access mode").
			WithContext("access_mode_index", int(policy.AccessMode))
	}
	if mask&FieldPrivLimit != 0 && !policy.PrivLimit.Valid() {
		return errors.New(ErrCodeInvalidFieldRequest, "invalid privilege limit").
			WithContext("privilege_index", int(policy.PrivLimit))
	}

	if err := s.lock.Lock(); err != nil {
		return errors.Wrap(err, ErrCodeUnspecifiedError, "failed to acquire channel mutex")
	}
	defer func() { _ = s.lock.Unlock() }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAndReloadLocked(t); err != nil {
		return err
	}

	stored := s.tierPolicy(ch, t)
	oldPolicy := *stored
	if mask&FieldAccessMode != 0 {
		stored.AccessMode = policy.AccessMode
	}
	if mask&FieldUserAuthEnabled != 0 {
		stored.UserAuthDisabled = policy.UserAuthDisabled
	}
	if mask&FieldPerMsgAuthEnabled != 0 {
		stored.PerMsgAuthDisabled = policy.PerMsgAuthDisabled
	}
	if mask&FieldAlertingEnabled != 0 {
		stored.AlertingDisabled = policy.AlertingDisabled
	}
	if mask&FieldPrivLimit != 0 {
		stored.PrivLimit = policy.PrivLimit
	}

	if err := s.writeTierLocked(t); err != nil {
		// In-memory state is already updated; the on-disk write is the
		// durability boundary, so the caller still sees a failure.
		return errors.Wrap(err, ErrCodeUnspecifiedError, "failed to persist access data").
			WithContext("tier", t.String())
	}

	s.audit.LogAccessChange(int(ch), t.String(), mask, oldPolicy, *stored)
	return nil
}
