// SPDX-License-Identifier: Apache-2.0

package usbip

import (
	"fmt"
	"strings"
)

const hexBytesPerLine = 32

// Render produces a deterministic, human-readable dump of m: one field
// per line in data-model order, with data bytes as lowercase hex in
// 32-byte groups. It never fails; a message whose declared data length
// exceeds the bytes actually present gets an explicit truncation marker
// instead of an out-of-bounds read.
func Render(m *Message) string {
	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  command = %s\n", m.Command())
	fmt.Fprintf(&b, "  seqnum = %d\n", m.SeqNum)
	fmt.Fprintf(&b, "  devid = %d\n", m.DeviceID)
	fmt.Fprintf(&b, "  direction = %s\n", m.Direction)
	fmt.Fprintf(&b, "  endpoint = %d\n", m.Endpoint)

	switch p := m.Payload.(type) {
	case *SubmitCommand:
		fmt.Fprintf(&b, "  submit.transfer_flags = 0x%08x\n", p.TransferFlags)
		fmt.Fprintf(&b, "  submit.transfer_buffer_length = %d\n", p.TransferBufferLength)
		fmt.Fprintf(&b, "  submit.start_frame = %d\n", p.StartFrame)
		fmt.Fprintf(&b, "  submit.number_of_packets = %d\n", p.NumberOfPackets)
		fmt.Fprintf(&b, "  submit.interval = %d\n", p.Interval)
		renderSetup(&b, "submit", p.Setup)
		if m.Direction == DirOut {
			renderData(&b, "submit", p.Data, p.TransferBufferLength)
		}
	case *UnlinkCommand:
		fmt.Fprintf(&b, "  unlink.seqnum = %d\n", p.SeqNum)
	case *SubmitReply:
		fmt.Fprintf(&b, "  submit.status = %d\n", p.Status)
		fmt.Fprintf(&b, "  submit.actual_length = %d\n", p.ActualLength)
		fmt.Fprintf(&b, "  submit.start_frame = %d\n", p.StartFrame)
		fmt.Fprintf(&b, "  submit.number_of_packets = %d\n", p.NumberOfPackets)
		fmt.Fprintf(&b, "  submit.error_count = %d\n", p.ErrorCount)
		renderSetup(&b, "submit", p.Setup)
		renderData(&b, "submit", p.Data, p.ActualLength)
	case *UnlinkReply:
		fmt.Fprintf(&b, "  unlink.status = %d\n", p.Status)
	}

	b.WriteString("}\n")
	return b.String()
}

func renderSetup(b *strings.Builder, prefix string, s SetupPacket) {
	fmt.Fprintf(b, "  %s.setup.direction = %s\n", prefix, s.Direction())
	fmt.Fprintf(b, "  %s.setup.type = %s\n", prefix, s.Type())
	fmt.Fprintf(b, "  %s.setup.recipient = %s\n", prefix, s.Recipient())
	fmt.Fprintf(b, "  %s.setup.request = %s\n", prefix, s.RequestName())
	fmt.Fprintf(b, "  %s.setup.value = %d\n", prefix, s.Value)
	fmt.Fprintf(b, "  %s.setup.index = %d\n", prefix, s.Index)
	fmt.Fprintf(b, "  %s.setup.length = %d\n", prefix, s.Length)
}

func renderData(b *strings.Builder, prefix string, data []byte, declared uint32) {
	fmt.Fprintf(b, "  %s.data[%d] = {", prefix, declared)
	n := len(data)
	if uint32(n) > declared {
		n = int(declared)
	}
	for i := 0; i < n; i++ {
		if i%hexBytesPerLine == 0 {
			b.WriteString("\n    ")
		}
		fmt.Fprintf(b, "%02x", data[i])
	}
	if uint32(len(data)) < declared {
		fmt.Fprintf(b, "\n    <truncated: %d of %d bytes>", len(data), declared)
	}
	b.WriteString("\n  }\n")
}
