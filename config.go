// config.go: Store configuration
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import "path/filepath"

// Config configures a Store. All paths are deployment configuration, not
// part of the on-wire contract; tests point them at temporary directories
// to get fully isolated instances.
type Config struct {
	// ChannelDefinitionFile is the immutable channel-definition document
	// (JSON or YAML, detected by extension). Read once at construction.
	ChannelDefinitionFile string

	// AccessDefaultFile is the read-only factory-default access policy
	// document used to seed the non-volatile file on first use.
	AccessDefaultFile string

	// NVAccessFile is the reboot-surviving access policy tier.
	NVAccessFile string

	// VolatileAccessFile is the runtime (resettable) access policy tier.
	VolatileAccessFile string

	// LockDir holds the cross-process mutex and bootstrap arbiter files.
	// Every process sharing the access files must use the same directory.
	LockDir string

	// Audit configures the mutation audit trail.
	// Default: enabled with the unified backend.
	Audit AuditConfig
}

// Default deployment locations, mirroring the split between immutable
// provider data, reboot-persisted state, and runtime state.
const (
	defaultChannelDefinitionFile = "/usr/share/chancfg/channel_config.json"
	defaultAccessDefaultFile     = "/usr/share/chancfg/channel_access.json"
	defaultNVAccessFile          = "/var/lib/chancfg/channel_access_nv.json"
	defaultVolatileAccessFile    = "/run/chancfg/channel_access_volatile.json"
	defaultLockDir               = "/run/chancfg"
)

// WithDefaults applies the default deployment paths to unset fields.
func (c *Config) WithDefaults() *Config {
	config := *c

	if config.ChannelDefinitionFile == "" {
		config.ChannelDefinitionFile = defaultChannelDefinitionFile
	}
	if config.AccessDefaultFile == "" {
		config.AccessDefaultFile = defaultAccessDefaultFile
	}
	if config.NVAccessFile == "" {
		config.NVAccessFile = defaultNVAccessFile
	}
	if config.VolatileAccessFile == "" {
		config.VolatileAccessFile = defaultVolatileAccessFile
	}
	if config.LockDir == "" {
		// Keep the lock files next to the volatile tier when a custom
		// volatile path was given, so co-operating processes agree.
		if config.VolatileAccessFile != defaultVolatileAccessFile {
			config.LockDir = filepath.Dir(config.VolatileAccessFile)
		} else {
			config.LockDir = defaultLockDir
		}
	}
	if config.Audit == (AuditConfig{}) {
		config.Audit = DefaultAuditConfig()
	}

	return &config
}
