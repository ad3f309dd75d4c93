package usbip

import (
	"encoding/binary"
	"testing"
)

func TestLayoutSizes(t *testing.T) {
	for _, tc := range []struct {
		name   string
		layout []fieldOrder
		size   int
	}{
		{"header", headerLayout, HeaderLen},
		{"submit command", submitCommandLayout, 28},
		{"submit reply", submitReplyLayout, 28},
		{"unlink command", unlinkCommandLayout, 4},
		{"unlink reply", unlinkReplyLayout, 4},
	} {
		if got := layoutSize(tc.layout); got != tc.size {
			t.Errorf("%s layout: got %d bytes; want %d", tc.name, got, tc.size)
		}
	}
}

// Every multi-byte field on the wire is big-endian except the setup
// packet's value, index and length, which are little-endian.
func TestLayoutByteOrders(t *testing.T) {
	littleEndian := map[string]bool{
		"setup.wValue":  true,
		"setup.wIndex":  true,
		"setup.wLength": true,
	}

	check := func(name string, layout []fieldOrder) {
		for _, f := range layout {
			switch {
			case f.width == 1:
				if f.order != nil {
					t.Errorf("%s: single-byte field %s has a byte order", name, f.name)
				}
			case littleEndian[f.name]:
				if f.order != binary.LittleEndian {
					t.Errorf("%s: field %s should be little-endian", name, f.name)
				}
			default:
				if f.order != binary.BigEndian {
					t.Errorf("%s: field %s should be big-endian", name, f.name)
				}
			}
		}
	}
	check("header", headerLayout)
	check("submit command", submitCommandLayout)
	check("submit reply", submitReplyLayout)
	check("unlink command", unlinkCommandLayout)
	check("unlink reply", unlinkReplyLayout)
}
