// SPDX-License-Identifier: Apache-2.0

package usbip

import "fmt"

// Command identifies one of the four URB-level USB/IP message kinds.
type Command uint32

const (
	CmdSubmit Command = 1
	CmdUnlink Command = 2
	RetSubmit Command = 3
	RetUnlink Command = 4
)

func (c Command) String() string {
	switch c {
	case CmdSubmit:
		return "USBIP_CMD_SUBMIT"
	case CmdUnlink:
		return "USBIP_CMD_UNLINK"
	case RetSubmit:
		return "USBIP_RET_SUBMIT"
	case RetUnlink:
		return "USBIP_RET_UNLINK"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(c))
	}
}

// Direction of a transfer. USBIP_DIR_IN means data flows out of the
// device into the request; USBIP_DIR_OUT carries data towards the device.
type Direction uint32

const (
	DirIn  Direction = 0 // device to host
	DirOut Direction = 1 // host to device
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "device-to-host"
	case DirOut:
		return "host-to-device"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(d))
	}
}

// URB transfer flag bits carried in SubmitCommand.TransferFlags.
const (
	URBShortNotOK       = 1 << 0
	URBIsoASAP          = 1 << 1
	URBNoTransferDMAMap = 1 << 2
	URBNoFSBR           = 1 << 5
	URBZeroPacket       = 1 << 6
	URBNoInterrupt      = 1 << 7
	URBFreeBuffer       = 1 << 8
	URBDirMask          = 1 << 9
)

// Header carries the fields shared by every USB/IP message. The command
// word itself is not stored; it is derived from the payload variant, so
// a message with a mismatched command/payload pair cannot be built.
type Header struct {
	SeqNum    uint32
	DeviceID  uint32
	Direction Direction
	Endpoint  uint32
}

// Message is one decoded USB/IP message: the common header plus exactly
// one payload variant.
type Message struct {
	Header
	Payload Payload
}

// Command reports the wire command code selected by the payload variant.
func (m *Message) Command() Command {
	return m.Payload.command()
}

// Payload is the per-kind body of a message. SubmitCommand,
// UnlinkCommand, SubmitReply and UnlinkReply are the only
// implementations; the unexported method keeps the union closed.
type Payload interface {
	command() Command
}

// SubmitCommand requests a USB transfer. Data is present only on
// host-to-device transfers and then holds TransferBufferLength bytes.
type SubmitCommand struct {
	TransferFlags        uint32
	TransferBufferLength uint32
	StartFrame           uint32
	NumberOfPackets      uint32
	Interval             uint32
	Setup                SetupPacket
	Data                 []byte
}

// UnlinkCommand cancels a previously submitted transfer. SeqNum is the
// sequence number of the submit to cancel, distinct from the header's.
type UnlinkCommand struct {
	SeqNum uint32
}

// SubmitReply completes a submit. Data holds ActualLength bytes.
type SubmitReply struct {
	Status          uint32
	ActualLength    uint32
	StartFrame      uint32
	NumberOfPackets uint32
	ErrorCount      uint32
	Setup           SetupPacket
	Data            []byte
}

// UnlinkReply completes an unlink.
type UnlinkReply struct {
	Status uint32
}

func (*SubmitCommand) command() Command { return CmdSubmit }
func (*UnlinkCommand) command() Command { return CmdUnlink }
func (*SubmitReply) command() Command   { return RetSubmit }
func (*UnlinkReply) command() Command   { return RetUnlink }

// SetupPacket is the 8-byte setup stage of a USB control transfer.
type SetupPacket struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
}
