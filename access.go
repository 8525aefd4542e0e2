// access.go: Two-tier access policy persistence
//
// The volatile and non-volatile tiers are symmetric code paths over
// different file locations and lifetimes. Reads go through the staleness
// check; writes additionally serialize the whole tier back to disk. The
// on-disk write is the durability boundary: a serialization failure
// leaves the in-memory table updated and reports an error.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/agilira/go-errors"
)

// accessTier selects one of the two access policy persistence tiers.
type accessTier int

const (
	tierVolatile accessTier = iota
	tierNonVolatile
)

func (t accessTier) String() string {
	if t == tierVolatile {
		return "volatile"
	}
	return "non-volatile"
}

// Wire schema of one access policy entry. The tier files are objects keyed
// by channel-number string, carrying entries only for channels whose
// session-support class is not "none".
type accessEntry struct {
	AccessMode         string `json:"access_mode"`
	UserAuthDisabled   bool   `json:"user_auth_disabled"`
	PerMsgAuthDisabled bool   `json:"per_msg_auth_disabled"`
	AlertingDisabled   bool   `json:"alerting_disabled"`
	PrivLimit          string `json:"priv_limit"`
}

func (s *Store) tierPath(t accessTier) string {
	if t == tierVolatile {
		return s.cfg.VolatileAccessFile
	}
	return s.cfg.NVAccessFile
}

func (s *Store) tierCache(t accessTier) *reloadCache {
	if t == tierVolatile {
		return &s.volCache
	}
	return &s.nvCache
}

func (s *Store) tierPolicy(ch uint8, t accessTier) *AccessPolicy {
	if t == tierVolatile {
		return &s.channels[ch].Access.Volatile
	}
	return &s.channels[ch].Access.NonVolatile
}

// readTierLocked reparses a tier file into the channel table.
//
// Records are mutated in place, entry by entry: a parse failure partway
// through leaves channels already visited holding the new file's values
// and the rest holding pre-reload state. Callers surface the error; a
// retried operation re-attempts the reload.
func (s *Store) readTierLocked(t accessTier) error {
	path := s.tierPath(t)
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, ErrCodeIOError, "failed to read access file").
			WithContext("path", path)
	}

	doc := make(map[string]*accessEntry)
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, ErrCodeCorruptedConfig, "corrupted access file").
			WithContext("path", path)
	}

	for key, entry := range doc {
		ch, err := strconv.ParseUint(key, 10, 8)
		if err != nil || ch > uint64(MaxChannels) {
			return errors.New(ErrCodeCorruptedConfig, "access entry channel out of range").
				WithContext("key", key).
				WithContext("path", path)
		}
		if entry == nil {
			return errors.New(ErrCodeCorruptedConfig, "null access entry").
				WithContext("key", key).
				WithContext("path", path)
		}
		mode, err := ParseAccessMode(entry.AccessMode)
		if err != nil {
			return errors.Wrap(err, ErrCodeCorruptedConfig, "corrupted access entry").
				WithContext("key", key)
		}
		priv, err := ParsePrivilege(entry.PrivLimit)
		if err != nil {
			return errors.Wrap(err, ErrCodeCorruptedConfig, "corrupted access entry").
				WithContext("key", key)
		}
		*s.tierPolicy(uint8(ch), t) = AccessPolicy{
			AccessMode:         mode,
			UserAuthDisabled:   entry.UserAuthDisabled,
			PerMsgAuthDisabled: entry.PerMsgAuthDisabled,
			AlertingDisabled:   entry.AlertingDisabled,
			PrivLimit:          priv,
		}
	}

	s.tierCache(t).refresh(path)
	return nil
}

// writeTierLocked serializes the full tier back to disk and refreshes the
// cached timestamp. Channels without session support are omitted from the
// file entirely.
func (s *Store) writeTierLocked(t accessTier) error {
	doc := make(map[string]accessEntry)
	for ch := 0; ch < numChannels; ch++ {
		if s.channels[ch].Info.SessionSupport == SessionNone {
			continue
		}
		policy := s.tierPolicy(uint8(ch), t)
		mode, err := accessModeName(policy.AccessMode)
		if err != nil {
			return err
		}
		priv, err := privilegeName(policy.PrivLimit)
		if err != nil {
			return err
		}
		doc[strconv.Itoa(ch)] = accessEntry{
			AccessMode:         mode,
			UserAuthDisabled:   policy.UserAuthDisabled,
			PerMsgAuthDisabled: policy.PerMsgAuthDisabled,
			AlertingDisabled:   policy.AlertingDisabled,
			PrivLimit:          priv,
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, ErrCodeIOError, "failed to serialize access data")
	}
	path := s.tierPath(t)
	if err := atomicWriteFile(path, data, 0o640); err != nil {
		return errors.Wrap(err, ErrCodeIOError, "failed to write access file").
			WithContext("path", path)
	}

	s.tierCache(t).refresh(path)
	return nil
}

// checkAndReloadLocked forces a tier reparse when the backing file changed
// since the last observation. Any failure is reported as the generic
// unspecified error the command layer expects.
func (s *Store) checkAndReloadLocked(t accessTier) error {
	if !s.tierCache(t).stale(s.tierPath(t)) {
		return nil
	}
	if err := s.readTierLocked(t); err != nil {
		return errors.Wrap(err, ErrCodeUnspecifiedError, "failed to reload access data").
			WithContext("tier", t.String())
	}
	return nil
}

// initPersistDataLocked runs the bootstrap cascade at construction:
// definition load, then non-volatile tier (seeded from the factory default
// file when absent or unreadable), then volatile tier (seeded from the
// freshly resolved non-volatile file). Runtime policy therefore inherits
// persisted policy at boot.
func (s *Store) initPersistDataLocked() error {
	if err := s.loadChannelDefinitionLocked(); err != nil {
		return err
	}

	if err := s.readTierLocked(tierNonVolatile); err != nil {
		if err := copyFile(s.cfg.AccessDefaultFile, s.cfg.NVAccessFile); err != nil {
			return errors.Wrap(err, ErrCodeIOError, "failed to seed non-volatile access file")
		}
		if err := s.readTierLocked(tierNonVolatile); err != nil {
			return errors.Wrap(err, ErrCodeIOError, "failed to read seeded non-volatile access file")
		}
	}

	if err := s.readTierLocked(tierVolatile); err != nil {
		// The non-volatile file is guaranteed readable by now.
		if err := copyFile(s.cfg.NVAccessFile, s.cfg.VolatileAccessFile); err != nil {
			return errors.Wrap(err, ErrCodeIOError, "failed to seed volatile access file")
		}
		if err := s.readTierLocked(tierVolatile); err != nil {
			return errors.Wrap(err, ErrCodeIOError, "failed to read seeded volatile access file")
		}
	}

	return nil
}

// atomicWriteFile writes data through a temporary file in the target
// directory followed by rename, so peers never observe a torn file.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// copyFile copies src to dst atomically, creating parent directories.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return atomicWriteFile(dst, data, 0o640)
}
