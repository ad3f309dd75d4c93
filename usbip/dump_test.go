package usbip

import (
	"strings"
	"testing"
)

func TestRenderSubmitCommand(t *testing.T) {
	m := &Message{
		Header: Header{SeqNum: 1234, DeviceID: 65538, Direction: DirOut, Endpoint: 2},
		Payload: &SubmitCommand{
			TransferFlags:        0x200,
			TransferBufferLength: 4,
			Setup:                SetupPacket{Request: 9, Value: 1},
			Data:                 []byte{0xde, 0xad, 0xbe, 0xef},
		},
	}

	want := `{
  command = USBIP_CMD_SUBMIT
  seqnum = 1234
  devid = 65538
  direction = host-to-device
  endpoint = 2
  submit.transfer_flags = 0x00000200
  submit.transfer_buffer_length = 4
  submit.start_frame = 0
  submit.number_of_packets = 0
  submit.interval = 0
  submit.setup.direction = host-to-device
  submit.setup.type = standard
  submit.setup.recipient = device
  submit.setup.request = SET_CONFIGURATION
  submit.setup.value = 1
  submit.setup.index = 0
  submit.setup.length = 0
  submit.data[4] = {
    deadbeef
  }
}
`
	if got := Render(m); got != want {
		t.Errorf("render mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderUnlinkPair(t *testing.T) {
	cmd := &Message{
		Header:  Header{SeqNum: 8, Direction: DirIn},
		Payload: &UnlinkCommand{SeqNum: 5},
	}
	if got := Render(cmd); !strings.Contains(got, "unlink.seqnum = 5") {
		t.Errorf("unlink command render missing cross-referenced seqnum:\n%s", got)
	}

	ret := &Message{
		Header:  Header{SeqNum: 8, Direction: DirIn},
		Payload: &UnlinkReply{Status: 115},
	}
	if got := Render(ret); !strings.Contains(got, "unlink.status = 115") {
		t.Errorf("unlink reply render missing status:\n%s", got)
	}
}

func TestRenderTruncatedData(t *testing.T) {
	// Declared length exceeds the bytes present; render must mark the
	// shortfall instead of reading out of bounds.
	m := &Message{
		Header: Header{SeqNum: 9, Direction: DirIn},
		Payload: &SubmitReply{
			ActualLength: 64,
			Data:         make([]byte, 10),
		},
	}
	got := Render(m)
	if !strings.Contains(got, "<truncated: 10 of 64 bytes>") {
		t.Errorf("render missing truncation marker:\n%s", got)
	}
}

func TestRenderHexGrouping(t *testing.T) {
	data := make([]byte, 70)
	for i := range data {
		data[i] = 0x41
	}
	m := &Message{
		Header: Header{Direction: DirIn},
		Payload: &SubmitReply{
			ActualLength: 70,
			Data:         data,
		},
	}

	want := "  submit.data[70] = {\n" +
		"    " + strings.Repeat("41", 32) + "\n" +
		"    " + strings.Repeat("41", 32) + "\n" +
		"    " + strings.Repeat("41", 6) + "\n" +
		"  }\n"
	if got := Render(m); !strings.Contains(got, want) {
		t.Errorf("hex grouping mismatch:\n%s", got)
	}
}

func TestRenderIdempotent(t *testing.T) {
	m := &Message{
		Header: Header{SeqNum: 7, Direction: DirOut},
		Payload: &SubmitCommand{
			TransferBufferLength: 2,
			Setup:                SetupPacket{RequestType: 0x80, Request: 6},
			Data:                 []byte{1, 2},
		},
	}
	if first, second := Render(m), Render(m); first != second {
		t.Errorf("render not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}
