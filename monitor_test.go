package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/usbip-tools/usbip-inspect/usbip"
)

type fakeSource struct {
	frames [][]byte
	ix     int
}

func (f *fakeSource) ReadFrame() ([]byte, error) {
	if f.ix >= len(f.frames) {
		return nil, io.EOF
	}
	frame := f.frames[f.ix]
	f.ix++
	return frame, nil
}

func (f *fakeSource) Close() error { return nil }

func TestMonitorSurvivesBadFrames(t *testing.T) {
	valid, err := usbip.Encode(&usbip.Message{
		Header:  usbip.Header{SeqNum: 3, Direction: usbip.DirIn},
		Payload: &usbip.UnlinkReply{Status: 0},
	})
	if err != nil {
		t.Fatal(err)
	}

	unknown := make([]byte, 48)
	unknown[3] = 99 // command word

	source := &fakeSource{frames: [][]byte{
		valid,
		unknown,
		make([]byte, 4), // truncated header
	}}

	var dump bytes.Buffer
	m := newMonitor(source, &dump, nil, prometheus.NewRegistry())

	err = m.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to read frame") {
		t.Fatalf("expected exhausted-source error; got %v", err)
	}

	if !strings.Contains(dump.String(), "command = USBIP_RET_UNLINK") {
		t.Errorf("dump missing rendered message:\n%s", dump.String())
	}

	if got := testutil.ToFloat64(m.framesTotal.WithLabelValues("USBIP_RET_UNLINK")); got != 1 {
		t.Errorf("frames_total: got %v; want 1", got)
	}
	if got := testutil.ToFloat64(m.decodeErrorsTotal.WithLabelValues("unsupported_command")); got != 1 {
		t.Errorf("decode_errors_total{unsupported_command}: got %v; want 1", got)
	}
	if got := testutil.ToFloat64(m.decodeErrorsTotal.WithLabelValues("truncated_buffer")); got != 1 {
		t.Errorf("decode_errors_total{truncated_buffer}: got %v; want 1", got)
	}
}

func TestMonitorStopsOnCancel(t *testing.T) {
	source := &fakeSource{}
	m := newMonitor(source, io.Discard, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Run(ctx); err != nil {
		t.Errorf("cancelled run should return nil; got %v", err)
	}
}
