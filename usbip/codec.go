// SPDX-License-Identifier: Apache-2.0

package usbip

import (
	"github.com/efficientgo/core/errors"
)

const (
	// HeaderLen is the size of the fixed message header.
	HeaderLen = 20

	// MaxFrameLen is the size of the monolithic record kernel-facing
	// transports exchange: the header, the largest fixed payload and
	// zero padding. It is also the buffer size a transport must supply
	// per read.
	MaxFrameLen = 65536
)

// Decode parses one complete wire frame into a host-order Message. The
// command word is peeked from the raw big-endian header before any
// other conversion, since the per-kind field layout depends on it.
// Trailing padding beyond the declared payload is ignored. Decoded data
// is copied out of buf; the result does not alias the input.
func Decode(buf []byte) (*Message, error) {
	if len(buf) < HeaderLen {
		return nil, &TruncatedBufferError{Need: HeaderLen, Have: len(buf)}
	}

	hw := walker{buf: buf, layout: headerLayout}
	command := hw.u32()
	m := &Message{Header: Header{
		SeqNum:    hw.u32(),
		DeviceID:  hw.u32(),
		Direction: Direction(hw.u32()),
		Endpoint:  hw.u32(),
	}}

	body := buf[HeaderLen:]
	var err error
	switch Command(command) {
	case CmdSubmit:
		m.Payload, err = decodeSubmitCommand(body, m.Direction)
	case CmdUnlink:
		m.Payload, err = decodeUnlinkCommand(body)
	case RetSubmit:
		m.Payload, err = decodeSubmitReply(body)
	case RetUnlink:
		m.Payload, err = decodeUnlinkReply(body)
	default:
		err = &UnsupportedCommandError{Command: command}
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func decodeSubmitCommand(body []byte, dir Direction) (*SubmitCommand, error) {
	if err := checkFixed(body, submitCommandLayout); err != nil {
		return nil, err
	}
	w := walker{buf: body, layout: submitCommandLayout}
	p := &SubmitCommand{
		TransferFlags:        w.u32(),
		TransferBufferLength: w.u32(),
		StartFrame:           w.u32(),
		NumberOfPackets:      w.u32(),
		Interval:             w.u32(),
		Setup:                readSetup(&w),
	}
	// Data rides along only on host-to-device transfers; for
	// device-to-host, the buffer length is a size request.
	if dir == DirOut {
		data, err := sliceData(body, w.off, p.TransferBufferLength)
		if err != nil {
			return nil, err
		}
		p.Data = data
	}
	return p, nil
}

func decodeSubmitReply(body []byte) (*SubmitReply, error) {
	if err := checkFixed(body, submitReplyLayout); err != nil {
		return nil, err
	}
	w := walker{buf: body, layout: submitReplyLayout}
	p := &SubmitReply{
		Status:          w.u32(),
		ActualLength:    w.u32(),
		StartFrame:      w.u32(),
		NumberOfPackets: w.u32(),
		ErrorCount:      w.u32(),
		Setup:           readSetup(&w),
	}
	data, err := sliceData(body, w.off, p.ActualLength)
	if err != nil {
		return nil, err
	}
	p.Data = data
	return p, nil
}

func decodeUnlinkCommand(body []byte) (*UnlinkCommand, error) {
	if err := checkFixed(body, unlinkCommandLayout); err != nil {
		return nil, err
	}
	w := walker{buf: body, layout: unlinkCommandLayout}
	return &UnlinkCommand{SeqNum: w.u32()}, nil
}

func decodeUnlinkReply(body []byte) (*UnlinkReply, error) {
	if err := checkFixed(body, unlinkReplyLayout); err != nil {
		return nil, err
	}
	w := walker{buf: body, layout: unlinkReplyLayout}
	return &UnlinkReply{Status: w.u32()}, nil
}

func readSetup(w *walker) SetupPacket {
	return SetupPacket{
		RequestType: w.u8(),
		Request:     w.u8(),
		Value:       w.u16(),
		Index:       w.u16(),
		Length:      w.u16(),
	}
}

func checkFixed(body []byte, layout []fieldOrder) error {
	if fixed := layoutSize(layout); len(body) < fixed {
		return &TruncatedBufferError{Need: HeaderLen + fixed, Have: HeaderLen + len(body)}
	}
	return nil
}

// sliceData copies the n declared trailing data bytes starting at off,
// bounds-checked against the body.
func sliceData(body []byte, off int, n uint32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	end := off + int(n)
	if end > len(body) {
		return nil, &TruncatedBufferError{Need: HeaderLen + end, Have: HeaderLen + len(body)}
	}
	data := make([]byte, n)
	copy(data, body[off:end])
	return data, nil
}

// Encode serializes m into its compact wire form: header, fixed payload
// fields, data. It is the exact left-inverse of Decode for every
// well-formed message. Use EncodeFrame when the peer expects the full
// fixed-size record.
func Encode(m *Message) ([]byte, error) {
	if m.Payload == nil {
		return nil, errors.New("message has no payload")
	}

	var (
		layout []fieldOrder
		data   []byte
	)
	switch p := m.Payload.(type) {
	case *SubmitCommand:
		layout = submitCommandLayout
		if m.Direction == DirOut {
			if int(p.TransferBufferLength) != len(p.Data) {
				return nil, errors.Newf("submit command declares %d data bytes but carries %d", p.TransferBufferLength, len(p.Data))
			}
			data = p.Data
		} else if len(p.Data) != 0 {
			return nil, errors.New("submit command carries data on a device-to-host transfer")
		}
	case *UnlinkCommand:
		layout = unlinkCommandLayout
	case *SubmitReply:
		layout = submitReplyLayout
		if int(p.ActualLength) != len(p.Data) {
			return nil, errors.Newf("submit reply declares %d data bytes but carries %d", p.ActualLength, len(p.Data))
		}
		data = p.Data
	case *UnlinkReply:
		layout = unlinkReplyLayout
	}

	fixed := layoutSize(layout)
	buf := make([]byte, HeaderLen+fixed+len(data))

	hw := walker{buf: buf, layout: headerLayout}
	hw.putU32(uint32(m.Command()))
	hw.putU32(m.SeqNum)
	hw.putU32(m.DeviceID)
	hw.putU32(uint32(m.Direction))
	hw.putU32(m.Endpoint)

	w := walker{buf: buf[HeaderLen:], layout: layout}
	switch p := m.Payload.(type) {
	case *SubmitCommand:
		w.putU32(p.TransferFlags)
		w.putU32(p.TransferBufferLength)
		w.putU32(p.StartFrame)
		w.putU32(p.NumberOfPackets)
		w.putU32(p.Interval)
		writeSetup(&w, p.Setup)
	case *UnlinkCommand:
		w.putU32(p.SeqNum)
	case *SubmitReply:
		w.putU32(p.Status)
		w.putU32(p.ActualLength)
		w.putU32(p.StartFrame)
		w.putU32(p.NumberOfPackets)
		w.putU32(p.ErrorCount)
		writeSetup(&w, p.Setup)
	case *UnlinkReply:
		w.putU32(p.Status)
	}

	copy(buf[HeaderLen+fixed:], data)
	return buf, nil
}

// EncodeFrame serializes m and zero-pads the result to MaxFrameLen, the
// monolithic record size the kernel side of the protocol exchanges.
func EncodeFrame(m *Message) ([]byte, error) {
	b, err := Encode(m)
	if err != nil {
		return nil, err
	}
	if len(b) > MaxFrameLen {
		return nil, errors.Newf("message of %d bytes exceeds the maximum frame size", len(b))
	}
	frame := make([]byte, MaxFrameLen)
	copy(frame, b)
	return frame, nil
}

func writeSetup(w *walker, s SetupPacket) {
	w.putU8(s.RequestType)
	w.putU8(s.Request)
	w.putU16(s.Value)
	w.putU16(s.Index)
	w.putU16(s.Length)
}
