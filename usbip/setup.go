// SPDX-License-Identifier: Apache-2.0

package usbip

// bmRequestType bit layout: bit 7 direction, bits 6-5 type,
// bits 4-0 recipient.

// SetupDirection is the direction bit of a control request.
type SetupDirection uint8

const (
	SetupHostToDevice SetupDirection = 0
	SetupDeviceToHost SetupDirection = 1
)

func (d SetupDirection) String() string {
	if d == SetupDeviceToHost {
		return "device-to-host"
	}
	return "host-to-device"
}

// SetupType is the two-bit request type field of a control request.
type SetupType uint8

const (
	SetupTypeStandard SetupType = 0
	SetupTypeClass    SetupType = 1
	SetupTypeVendor   SetupType = 2
)

func (t SetupType) String() string {
	switch t {
	case SetupTypeStandard:
		return "standard"
	case SetupTypeClass:
		return "class"
	case SetupTypeVendor:
		return "vendor"
	default:
		return "reserved/unknown"
	}
}

// SetupRecipient is the five-bit recipient field of a control request.
type SetupRecipient uint8

const (
	SetupRecipientDevice    SetupRecipient = 0
	SetupRecipientInterface SetupRecipient = 1
	SetupRecipientEndpoint  SetupRecipient = 2
	SetupRecipientOther     SetupRecipient = 3
)

func (r SetupRecipient) String() string {
	switch r {
	case SetupRecipientDevice:
		return "device"
	case SetupRecipientInterface:
		return "interface"
	case SetupRecipientEndpoint:
		return "endpoint"
	case SetupRecipientOther:
		return "other"
	default:
		return "reserved/unknown"
	}
}

// Direction extracts the direction bit of RequestType.
func (s SetupPacket) Direction() SetupDirection {
	return SetupDirection((s.RequestType & 0x80) >> 7)
}

// Type extracts the request type field of RequestType.
func (s SetupPacket) Type() SetupType {
	return SetupType((s.RequestType & 0x60) >> 5)
}

// Recipient extracts the recipient field of RequestType.
func (s SetupPacket) Recipient() SetupRecipient {
	return SetupRecipient(s.RequestType & 0x1f)
}

var standardRequestNames = map[uint8]string{
	0:  "GET_STATUS",
	1:  "CLEAR_FEATURE",
	3:  "SET_FEATURE",
	5:  "SET_ADDRESS",
	6:  "GET_DESCRIPTOR",
	7:  "SET_DESCRIPTOR",
	8:  "GET_CONFIGURATION",
	9:  "SET_CONFIGURATION",
	10: "GET_INTERFACE",
	11: "SET_INTERFACE",
	12: "SYNCH_FRAME",
}

// RequestName maps Request to its standard-request name. Codes with no
// standard meaning, including all class and vendor requests, map to
// "reserved/unknown".
func (s SetupPacket) RequestName() string {
	if name, ok := standardRequestNames[s.Request]; ok {
		return name
	}
	return "reserved/unknown"
}
