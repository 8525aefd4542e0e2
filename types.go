// types.go: Channel table value types
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

// MaxChannels is the highest addressable channel number. The channel table
// holds MaxChannels+1 slots, indexed 0..MaxChannels inclusive.
const MaxChannels uint8 = 15

const numChannels = int(MaxChannels) + 1

// AuthTypeMask is a bitmask of supported authentication types, indexed by
// AuthType wire value.
type AuthTypeMask uint8

// Supports reports whether the authentication type bit is set.
func (m AuthTypeMask) Supports(t AuthType) bool {
	return m&(1<<t) != 0
}

// ChannelInfo is the immutable descriptive block of a channel, fixed at
// load time. AuthTypeSupported is the one exception: it is owned by the
// authentication subsystem and populated through SetAuthTypeSupported.
type ChannelInfo struct {
	MediumType        MediumType
	ProtocolType      ProtocolType
	SessionSupport    SessionSupport
	IsManagementProto bool // channel natively carries the management command protocol
	AuthTypeSupported AuthTypeMask
}

// AccessPolicy is the mutable per-channel access policy. Two independent
// instances exist per channel, one per persistence tier. Values cross the
// API boundary by explicit field copy only.
type AccessPolicy struct {
	AccessMode         AccessMode
	UserAuthDisabled   bool
	PerMsgAuthDisabled bool
	AlertingDisabled   bool
	PrivLimit          Privilege
}

// ChannelAccess holds both persistence tiers of a channel's access policy.
type ChannelAccess struct {
	Volatile    AccessPolicy
	NonVolatile AccessPolicy
}

// ChannelRecord is one slot of the channel table.
type ChannelRecord struct {
	Name           string
	ID             uint8
	Valid          bool
	ActiveSessions int // externally maintained counter, opaque to this core
	Info           ChannelInfo
	Access         ChannelAccess
}

// AccessField selects access-policy fields for a masked update. Fields are
// independently selectable and freely combinable.
type AccessField uint8

const (
	FieldAccessMode AccessField = 1 << iota
	FieldUserAuthEnabled
	FieldPerMsgAuthEnabled
	FieldAlertingEnabled
	FieldPrivLimit

	FieldAll = FieldAccessMode | FieldUserAuthEnabled | FieldPerMsgAuthEnabled |
		FieldAlertingEnabled | FieldPrivLimit
)

// defaultChannelName is installed for channel slots absent from the
// channel-definition file.
const defaultChannelName = "RESERVED"

// defaultChannelRecord returns the reserved/invalid record used for
// unconfigured slots.
func defaultChannelRecord(ch uint8) ChannelRecord {
	return ChannelRecord{
		Name:  defaultChannelName,
		ID:    ch,
		Valid: false,
		Info: ChannelInfo{
			MediumType:        MediumReserved,
			ProtocolType:      ProtocolReserved,
			SessionSupport:    SessionNone,
			IsManagementProto: false,
			AuthTypeSupported: AuthTypeMask(0),
		},
	}
}
