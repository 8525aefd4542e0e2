//go:build unix

// lock_unix.go: Advisory file locking primitives
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import (
	"os"

	"golang.org/x/sys/unix"
)

// flockExclusive takes a blocking exclusive advisory lock on f.
func flockExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

// flockTryExclusive attempts a non-blocking exclusive advisory lock on f.
// Returns unix.EWOULDBLOCK when another process holds the lock.
func flockTryExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

// flockShared takes a blocking shared advisory lock on f. Calling it while
// holding the exclusive lock atomically downgrades the hold.
func flockShared(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_SH)
}

// flockUnlock releases any advisory lock held on f.
func flockUnlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
