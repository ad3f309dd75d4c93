package usbip

import "testing"

func TestSetupRequestTypeDecomposition(t *testing.T) {
	for _, tc := range []struct {
		requestType uint8
		direction   string
		typ         string
		recipient   string
	}{
		{0x80, "device-to-host", "standard", "device"},
		{0x00, "host-to-device", "standard", "device"},
		{0x21, "host-to-device", "class", "interface"},
		{0xc2, "device-to-host", "vendor", "endpoint"},
		{0x03, "host-to-device", "standard", "other"},
		{0x1f, "host-to-device", "standard", "reserved/unknown"},
		{0x60, "host-to-device", "reserved/unknown", "device"},
	} {
		s := SetupPacket{RequestType: tc.requestType}
		if got := s.Direction().String(); got != tc.direction {
			t.Errorf("0x%02x direction: got %q; want %q", tc.requestType, got, tc.direction)
		}
		if got := s.Type().String(); got != tc.typ {
			t.Errorf("0x%02x type: got %q; want %q", tc.requestType, got, tc.typ)
		}
		if got := s.Recipient().String(); got != tc.recipient {
			t.Errorf("0x%02x recipient: got %q; want %q", tc.requestType, got, tc.recipient)
		}
	}
}

func TestSetupRequestName(t *testing.T) {
	for _, tc := range []struct {
		request uint8
		name    string
	}{
		{0, "GET_STATUS"},
		{1, "CLEAR_FEATURE"},
		{2, "reserved/unknown"},
		{6, "GET_DESCRIPTOR"},
		{9, "SET_CONFIGURATION"},
		{12, "SYNCH_FRAME"},
		{200, "reserved/unknown"},
	} {
		s := SetupPacket{Request: tc.request}
		if got := s.RequestName(); got != tc.name {
			t.Errorf("request %d: got %q; want %q", tc.request, got, tc.name)
		}
	}
}
