// reload.go: Pull-based staleness detection for the access tiers
//
// Each mutable access file carries a cached last-observed modification
// time. A peer process's write is only noticed on this process's next
// read or write; nothing is pushed. A stat failure is treated as "always
// stale" so a recreated or momentarily missing file forces a reparse.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import (
	"os"
	"time"
)

// reloadCache is the per-file last-observed modification timestamp.
type reloadCache struct {
	modTime time.Time
	valid   bool
}

// fileModTime returns the current modification time of path.
func fileModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// stale reports whether the backing file changed since the last observation.
// Comparison is by exact timestamp, not ordering: a restored older file is
// a change too.
func (c *reloadCache) stale(path string) bool {
	current, err := fileModTime(path)
	if err != nil {
		return true
	}
	return !c.valid || !current.Equal(c.modTime)
}

// refresh records the file's current modification time. Called after every
// successful tier read or write; a stat failure invalidates the cache so
// the next access reloads.
func (c *reloadCache) refresh(path string) {
	current, err := fileModTime(path)
	if err != nil {
		c.valid = false
		return
	}
	c.modTime = current
	c.valid = true
}
