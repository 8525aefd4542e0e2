// env_config.go: Environment variable configuration for chancfg
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agilira/go-errors"
)

// Environment variables recognized by LoadConfigFromEnv. Path variables
// override the corresponding Config fields; audit variables override the
// embedded AuditConfig.
const (
	envChannelDefinitionFile = "CHANCFG_CHANNEL_DEFINITION_FILE"
	envAccessDefaultFile     = "CHANCFG_ACCESS_DEFAULT_FILE"
	envNVAccessFile          = "CHANCFG_NV_ACCESS_FILE"
	envVolatileAccessFile    = "CHANCFG_VOLATILE_ACCESS_FILE"
	envLockDir               = "CHANCFG_LOCK_DIR"

	envAuditEnabled       = "CHANCFG_AUDIT_ENABLED"
	envAuditOutputFile    = "CHANCFG_AUDIT_OUTPUT_FILE"
	envAuditMinLevel      = "CHANCFG_AUDIT_MIN_LEVEL"
	envAuditBufferSize    = "CHANCFG_AUDIT_BUFFER_SIZE"
	envAuditFlushInterval = "CHANCFG_AUDIT_FLUSH_INTERVAL"
)

// LoadConfigFromEnv builds a Config from CHANCFG_* environment variables,
// for container deployments where mounting a configuration file for the
// store itself would be circular. Unset variables keep their defaults.
func LoadConfigFromEnv() (*Config, error) {
	config := &Config{
		ChannelDefinitionFile: os.Getenv(envChannelDefinitionFile),
		AccessDefaultFile:     os.Getenv(envAccessDefaultFile),
		NVAccessFile:          os.Getenv(envNVAccessFile),
		VolatileAccessFile:    os.Getenv(envVolatileAccessFile),
		LockDir:               os.Getenv(envLockDir),
	}

	audit := DefaultAuditConfig()
	if v := os.Getenv(envAuditEnabled); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeInvalidConfig,
				"invalid boolean in "+envAuditEnabled)
		}
		audit.Enabled = enabled
	}
	if v := os.Getenv(envAuditOutputFile); v != "" {
		audit.OutputFile = v
	}
	if v := os.Getenv(envAuditMinLevel); v != "" {
		level, err := parseAuditLevel(v)
		if err != nil {
			return nil, err
		}
		audit.MinLevel = level
	}
	if v := os.Getenv(envAuditBufferSize); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			return nil, errors.New(ErrCodeInvalidConfig,
				"invalid buffer size in "+envAuditBufferSize).
				WithContext("value", v)
		}
		audit.BufferSize = size
	}
	if v := os.Getenv(envAuditFlushInterval); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeInvalidConfig,
				"invalid duration in "+envAuditFlushInterval)
		}
		audit.FlushInterval = interval
	}
	config.Audit = audit

	return config.WithDefaults(), nil
}

func parseAuditLevel(value string) (AuditLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "INFO":
		return AuditInfo, nil
	case "WARN":
		return AuditWarn, nil
	case "CRITICAL":
		return AuditCritical, nil
	case "SECURITY":
		return AuditSecurity, nil
	default:
		return AuditInfo, errors.New(ErrCodeInvalidAuditConfig,
			"invalid audit level").WithContext("value", value)
	}
}
