// enums.go: Wire enumeration tables for channel configuration
//
// Every enumeration here mirrors the management-controller wire protocol:
// the index of a string in its table IS the value that goes on the wire.
// Tables are therefore order-significant and must never be reordered,
// extended in the middle, or "cleaned up".
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import (
	"fmt"

	"github.com/agilira/go-errors"
)

// AccessMode is the policy governing when a channel accepts commands.
type AccessMode uint8

const (
	AccessDisabled AccessMode = iota
	AccessPreBoot
	AccessAlwaysAvailable
	AccessShared
)

var accessModeList = [...]string{
	"disabled", "pre-boot", "always_available", "shared",
}

// SessionSupport classifies whether and how a channel supports
// stateful authenticated sessions.
type SessionSupport uint8

const (
	SessionNone SessionSupport = iota
	SessionSingle
	SessionMulti
	SessionBased
)

var sessionSupportList = [...]string{
	"session-less", "single-session", "multi-session", "session-based",
}

// Privilege is a command privilege level.
type Privilege uint8

const (
	PrivReserved Privilege = iota
	PrivCallback
	PrivUser
	PrivOperator
	PrivAdmin
	PrivOEM
)

var privList = [...]string{
	"priv-reserved", "priv-callback", "priv-user",
	"priv-operator", "priv-admin", "priv-oem",
}

// MediumType is the static physical transport classification of a channel.
type MediumType uint8

const (
	MediumReserved MediumType = iota
	MediumIPMB
	MediumICMBV10
	MediumICMBV09
	MediumLAN8032
	MediumSerial
	MediumOtherLAN
	MediumPCISMBus
	MediumSMBusV11
	MediumSMBusV20
	MediumUSBV1x
	MediumUSBV2x
	MediumSystemInterface
	MediumOEM
	MediumUnknown
)

var mediumTypeList = [...]string{
	"reserved", "ipmb", "icmb-v1.0", "icmb-v0.9", "lan-802.3",
	"serial", "other-lan", "pci-smbus", "smbus-v1.0", "smbus-v2.0",
	"usb-1x", "usb-2x", "system-interface", "oem", "unknown",
}

// ProtocolType is the framing protocol carried by a channel.
type ProtocolType uint8

const (
	ProtocolNA ProtocolType = iota
	ProtocolIPMBV10
	ProtocolICMBV11
	ProtocolReserved
	ProtocolSMBus
	ProtocolKCS
	ProtocolSMIC
	ProtocolBT10
	ProtocolBT15
	ProtocolTMode
	ProtocolOEM
)

var protocolTypeList = [...]string{
	"na", "ipmb-1.0", "icmb-2.0", "reserved", "ipmi-smbus",
	"kcs", "smic", "bt-10", "bt-15", "tmode", "oem",
}

// AuthType is a session authentication algorithm identifier. The supported
// set of a channel is carried as a bitmask indexed by these values.
type AuthType uint8

const (
	AuthNone AuthType = iota
	AuthMD2
	AuthMD5
	AuthReserved
	AuthStraightPassword
	AuthOEM
)

// Valid reports whether the value is a member of the closed enumeration.
// Out-of-range values are never clamped; callers reject them.
func (m AccessMode) Valid() bool     { return int(m) < len(accessModeList) }
func (s SessionSupport) Valid() bool { return int(s) < len(sessionSupportList) }
func (p Privilege) Valid() bool      { return int(p) < len(privList) }
func (m MediumType) Valid() bool     { return int(m) < len(mediumTypeList) }
func (p ProtocolType) Valid() bool   { return int(p) < len(protocolTypeList) }

func (m AccessMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("AccessMode(%d)", uint8(m))
	}
	return accessModeList[m]
}

func (s SessionSupport) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SessionSupport(%d)", uint8(s))
	}
	return sessionSupportList[s]
}

func (p Privilege) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Privilege(%d)", uint8(p))
	}
	return privList[p]
}

func (m MediumType) String() string {
	if !m.Valid() {
		return fmt.Sprintf("MediumType(%d)", uint8(m))
	}
	return mediumTypeList[m]
}

func (p ProtocolType) String() string {
	if !p.Valid() {
		return fmt.Sprintf("ProtocolType(%d)", uint8(p))
	}
	return protocolTypeList[p]
}

// lookupIndex resolves a configuration string against an ordered wire table.
func lookupIndex(table []string, value, kind string) (uint8, error) {
	for i, s := range table {
		if s == value {
			return uint8(i), nil
		}
	}
	return 0, errors.New(ErrCodeInvalidFieldRequest, "invalid "+kind).
		WithContext(kind, value)
}

// ParseAccessMode resolves a configuration string to its wire value.
func ParseAccessMode(value string) (AccessMode, error) {
	idx, err := lookupIndex(accessModeList[:], value, "access mode")
	return AccessMode(idx), err
}

// ParseSessionSupport resolves a configuration string to its wire value.
func ParseSessionSupport(value string) (SessionSupport, error) {
	idx, err := lookupIndex(sessionSupportList[:], value, "session support")
	return SessionSupport(idx), err
}

// ParsePrivilege resolves a configuration string to its wire value.
func ParsePrivilege(value string) (Privilege, error) {
	idx, err := lookupIndex(privList[:], value, "privilege")
	return Privilege(idx), err
}

// ParseMediumType resolves a configuration string to its wire value.
func ParseMediumType(value string) (MediumType, error) {
	idx, err := lookupIndex(mediumTypeList[:], value, "medium type")
	return MediumType(idx), err
}

// ParseProtocolType resolves a configuration string to its wire value.
func ParseProtocolType(value string) (ProtocolType, error) {
	idx, err := lookupIndex(protocolTypeList[:], value, "protocol type")
	return ProtocolType(idx), err
}

// accessModeName returns the serialization string for a stored access mode.
// An out-of-range value in the table is a corruption, not a conversion case.
func accessModeName(m AccessMode) (string, error) {
	if !m.Valid() {
		return "", errors.New(ErrCodeInvalidFieldRequest, "invalid access mode").
			WithContext("access_mode_index", int(m))
	}
	return accessModeList[m], nil
}

func privilegeName(p Privilege) (string, error) {
	if !p.Valid() {
		return "", errors.New(ErrCodeInvalidFieldRequest, "invalid privilege").
			WithContext("privilege_index", int(p))
	}
	return privList[p], nil
}
