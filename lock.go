// lock.go: Cross-process writer lock with crash recovery
//
// Writers in different processes must serialize their read-reload-mutate-
// write sequences on the shared access files. The mutex is an advisory
// lock on a dedicated file in the OS namespace, which outlives any single
// process; a process that dies mid-write releases its advisory lock
// automatically, but the mutex file itself may carry state left by a
// crashed former holder (a partially created file, stale permissions).
//
// A second, ordinary lock file acts as a one-time bootstrap arbiter:
//
//  1. Open (creating if absent) the bootstrap file.
//  2. Try a non-blocking exclusive lock on it.
//  3. On success this process is the sole live participant right now:
//     remove and recreate the mutex file, then downgrade the bootstrap
//     hold to shared for the rest of the process's life.
//  4. On failure a live peer exists and the mutex file is known-good:
//     take a shared hold and open the existing mutex file.
//
// Every participant ends up holding the bootstrap file shared, so the next
// process to start detects "live peers present" by its exclusive attempt
// failing. At most one reinitialization happens per boot generation, and a
// mutex a live peer depends on is never reset.
//
// The lock is not reentrant. The store's public mutators acquire it once
// and call *Locked variants internally, so no call path nests; within a
// process an embedded sync.Mutex serializes goroutines on top of the
// per-file-description advisory lock.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/agilira/go-errors"
)

const (
	mutexFileName     = "chancfg_channel.lock"
	bootstrapFileName = "chancfg_cleanup.lock"
)

// ProcessLock is the cross-process mutual-exclusion primitive guarding
// writer critical sections on the shared access files.
type ProcessLock struct {
	mu        sync.Mutex // serializes goroutines within this process
	mutexFile *os.File   // advisory-locked per critical section
	bootstrap *os.File   // held shared for the process lifetime
	recovered bool       // this process reset the mutex at bootstrap
}

// OpenProcessLock runs the bootstrap/recovery protocol in dir and returns
// a lock ready for use. Acquisitions block indefinitely; a wedged holder
// is only ever recovered by a subsequent process restart re-running this
// protocol, never by runtime cancellation.
func OpenProcessLock(dir string) (*ProcessLock, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(err, ErrCodeLockError, "failed to create lock directory").
			WithContext("dir", dir)
	}

	bootstrapPath := filepath.Join(dir, bootstrapFileName)
	bootstrap, err := os.OpenFile(bootstrapPath, os.O_CREATE|os.O_RDWR, 0o640)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeLockError, "failed to open bootstrap lock file").
			WithContext("path", bootstrapPath)
	}

	l := &ProcessLock{bootstrap: bootstrap}
	mutexPath := filepath.Join(dir, mutexFileName)

	if err := flockTryExclusive(bootstrap); err == nil {
		// Sole live participant at this moment: clear whatever a crashed
		// former holder left behind and recreate the mutex fresh.
		l.recovered = true
		_ = os.Remove(mutexPath)
		if l.mutexFile, err = os.OpenFile(mutexPath, os.O_CREATE|os.O_RDWR, 0o640); err != nil {
			_ = bootstrap.Close()
			return nil, errors.Wrap(err, ErrCodeLockError, "failed to recreate mutex file").
				WithContext("path", mutexPath)
		}
		// Downgrade to shared so peers can skip reinitialization while we
		// are alive, without blocking each other.
		if err := flockShared(bootstrap); err != nil {
			_ = l.mutexFile.Close()
			_ = bootstrap.Close()
			return nil, errors.Wrap(err, ErrCodeLockError, "failed to downgrade bootstrap lock")
		}
		return l, nil
	}

	// A live peer holds the bootstrap file: the mutex is known-good.
	if err := flockShared(bootstrap); err != nil {
		_ = bootstrap.Close()
		return nil, errors.Wrap(err, ErrCodeLockError, "failed to take shared bootstrap lock")
	}
	if l.mutexFile, err = os.OpenFile(mutexPath, os.O_CREATE|os.O_RDWR, 0o640); err != nil {
		_ = bootstrap.Close()
		return nil, errors.Wrap(err, ErrCodeLockError, "failed to open mutex file").
			WithContext("path", mutexPath)
	}
	return l, nil
}

// Recovered reports whether this process reset the mutex during bootstrap,
// i.e. it found no live peers.
func (l *ProcessLock) Recovered() bool {
	return l.recovered
}

// Lock acquires the cross-process mutex, blocking until the holder (in
// this or any peer process) releases it.
func (l *ProcessLock) Lock() error {
	l.mu.Lock()
	if err := flockExclusive(l.mutexFile); err != nil {
		l.mu.Unlock()
		return errors.Wrap(err, ErrCodeLockError, "failed to acquire channel mutex")
	}
	return nil
}

// Unlock releases the cross-process mutex.
func (l *ProcessLock) Unlock() error {
	err := flockUnlock(l.mutexFile)
	l.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, ErrCodeLockError, "failed to release channel mutex")
	}
	return nil
}

// Close releases the process's shared bootstrap hold and the mutex file
// descriptor. After Close the next process to bootstrap may observe no
// live participants and reset the mutex.
func (l *ProcessLock) Close() error {
	var firstErr error
	if l.mutexFile != nil {
		if err := l.mutexFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		l.mutexFile = nil
	}
	if l.bootstrap != nil {
		if err := l.bootstrap.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		l.bootstrap = nil
	}
	if firstErr != nil {
		return errors.Wrap(firstErr, ErrCodeLockError, "failed to close lock files")
	}
	return nil
}
