// SPDX-License-Identifier: Apache-2.0

package usbip

import "encoding/binary"

// The wire format mixes byte orders: every header and payload word is
// big-endian, but value, index and length inside the embedded setup
// packet travel little-endian. The layouts below are the single
// authority on field widths and byte order; decode and encode both walk
// them field by field, in declaration order.

type fieldOrder struct {
	name  string
	width int
	order binary.ByteOrder // nil for single bytes
}

var (
	headerLayout = []fieldOrder{
		{"command", 4, binary.BigEndian},
		{"seqnum", 4, binary.BigEndian},
		{"devid", 4, binary.BigEndian},
		{"direction", 4, binary.BigEndian},
		{"endpoint", 4, binary.BigEndian},
	}

	setupLayout = []fieldOrder{
		{"setup.bmRequestType", 1, nil},
		{"setup.bRequest", 1, nil},
		{"setup.wValue", 2, binary.LittleEndian},
		{"setup.wIndex", 2, binary.LittleEndian},
		{"setup.wLength", 2, binary.LittleEndian},
	}

	submitCommandLayout = append([]fieldOrder{
		{"transfer_flags", 4, binary.BigEndian},
		{"transfer_buffer_length", 4, binary.BigEndian},
		{"start_frame", 4, binary.BigEndian},
		{"number_of_packets", 4, binary.BigEndian},
		{"interval", 4, binary.BigEndian},
	}, setupLayout...)

	submitReplyLayout = append([]fieldOrder{
		{"status", 4, binary.BigEndian},
		{"actual_length", 4, binary.BigEndian},
		{"start_frame", 4, binary.BigEndian},
		{"number_of_packets", 4, binary.BigEndian},
		{"error_count", 4, binary.BigEndian},
	}, setupLayout...)

	unlinkCommandLayout = []fieldOrder{
		{"seqnum", 4, binary.BigEndian},
	}

	unlinkReplyLayout = []fieldOrder{
		{"status", 4, binary.BigEndian},
	}
)

func layoutSize(layout []fieldOrder) int {
	var n int
	for _, f := range layout {
		n += f.width
	}
	return n
}

// walker reads or writes the fields of one layout in declaration order.
// Each call consumes the next layout entry; a width mismatch between a
// layout and the code walking it panics, so drift fails loudly in tests.
// Callers bounds-check the buffer against layoutSize before walking.
type walker struct {
	buf    []byte
	layout []fieldOrder
	off    int
	ix     int
}

func (w *walker) next(width int) fieldOrder {
	f := w.layout[w.ix]
	if f.width != width {
		panic("usbip: layout mismatch on field " + f.name)
	}
	w.ix++
	return f
}

func (w *walker) u32() uint32 {
	f := w.next(4)
	v := f.order.Uint32(w.buf[w.off:])
	w.off += 4
	return v
}

func (w *walker) u16() uint16 {
	f := w.next(2)
	v := f.order.Uint16(w.buf[w.off:])
	w.off += 2
	return v
}

func (w *walker) u8() uint8 {
	w.next(1)
	v := w.buf[w.off]
	w.off++
	return v
}

func (w *walker) putU32(v uint32) {
	f := w.next(4)
	f.order.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *walker) putU16(v uint16) {
	f := w.next(2)
	f.order.PutUint16(w.buf[w.off:], v)
	w.off += 2
}

func (w *walker) putU8(v uint8) {
	w.next(1)
	w.buf[w.off] = v
	w.off++
}
