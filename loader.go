// loader.go: Static channel-definition loading
//
// The channel-definition document is immutable for the process lifetime
// and read exactly once, at Store construction. Slots the document does
// not mention are installed as reserved/invalid records; any enum string
// that fails to resolve aborts the entire load as a corrupted config.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import (
	"os"
	"strconv"

	"github.com/agilira/go-errors"
)

// Wire schema of one channel-definition entry. The document is an object
// keyed by channel-number string.
type channelDefEntry struct {
	Name           string          `json:"name" yaml:"name"`
	IsValid        bool            `json:"is_valid" yaml:"is_valid"`
	ActiveSessions *int            `json:"active_sessions" yaml:"active_sessions"`
	ChannelInfo    *channelDefInfo `json:"channel_info" yaml:"channel_info"`
}

type channelDefInfo struct {
	MediumType       string `json:"medium_type" yaml:"medium_type"`
	ProtocolType     string `json:"protocol_type" yaml:"protocol_type"`
	SessionSupported string `json:"session_supported" yaml:"session_supported"`
	IsIPMI           bool   `json:"is_ipmi" yaml:"is_ipmi"`
}

// loadChannelDefinitionLocked populates the channel table from the
// definition file. Failure here is fatal to Store construction: the
// process cannot operate without a valid channel table.
//
// The supported-auth bitmask is never read from this file; it is owned by
// the authentication subsystem and starts out empty on every load.
func (s *Store) loadChannelDefinitionLocked() error {
	path := s.cfg.ChannelDefinitionFile
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, ErrCodeIOError, "failed to read channel definition file").
			WithContext("path", path)
	}

	format := DetectFormat(path)
	if format == FormatUnknown {
		return errors.New(ErrCodeInvalidConfig, "unsupported channel definition format").
			WithContext("path", path)
	}

	doc := make(map[string]*channelDefEntry)
	if err := decodeDocument(data, format, &doc); err != nil {
		return errors.Wrap(err, ErrCodeCorruptedConfig, "corrupted channel definition file").
			WithContext("path", path)
	}

	for ch := 0; ch < numChannels; ch++ {
		entry, ok := doc[strconv.Itoa(ch)]
		if !ok || entry == nil {
			// Unconfigured (reserved) slot.
			s.channels[ch] = defaultChannelRecord(uint8(ch))
			continue
		}
		record, err := parseChannelDefEntry(uint8(ch), entry)
		if err != nil {
			return errors.Wrap(err, ErrCodeCorruptedConfig, "corrupted channel definition entry").
				WithContext("channel", ch)
		}
		s.channels[ch] = record
	}

	return nil
}

// parseChannelDefEntry converts one definition entry into a table record.
func parseChannelDefEntry(ch uint8, entry *channelDefEntry) (ChannelRecord, error) {
	var record ChannelRecord

	if entry.Name == "" {
		return record, errors.New(ErrCodeCorruptedConfig, "channel entry missing name")
	}
	if entry.ChannelInfo == nil {
		return record, errors.New(ErrCodeCorruptedConfig, "channel entry missing channel_info")
	}

	record.Name = entry.Name
	record.ID = ch
	record.Valid = entry.IsValid
	if entry.ActiveSessions != nil {
		record.ActiveSessions = *entry.ActiveSessions
	}

	medium, err := ParseMediumType(entry.ChannelInfo.MediumType)
	if err != nil {
		return record, err
	}
	protocol, err := ParseProtocolType(entry.ChannelInfo.ProtocolType)
	if err != nil {
		return record, err
	}
	session, err := ParseSessionSupport(entry.ChannelInfo.SessionSupported)
	if err != nil {
		return record, err
	}

	record.Info = ChannelInfo{
		MediumType:        medium,
		ProtocolType:      protocol,
		SessionSupport:    session,
		IsManagementProto: entry.ChannelInfo.IsIPMI,
		AuthTypeSupported: AuthTypeMask(0),
	}
	return record, nil
}
