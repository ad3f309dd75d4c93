package usbip

import (
	"net"
	"reflect"
	"testing"
	"time"
)

func TestDatagramSourceReadFrame(t *testing.T) {
	client, server := net.Pipe()
	defer func() { _ = server.Close() }()

	frame := submitCommandFrame([]byte{1, 2, 3, 4})
	go func() {
		_, _ = server.Write(frame)
	}()

	src := NewDatagramSource(client, time.Second)
	defer func() { _ = src.Close() }()

	got, err := src.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, frame) {
		t.Errorf("frame: got %x; want %x", got, frame)
	}
}

func TestDatagramSourceReadTimeout(t *testing.T) {
	client, server := net.Pipe()
	defer func() { _ = server.Close() }()

	src := NewDatagramSource(client, 10*time.Millisecond)
	defer func() { _ = src.Close() }()

	if _, err := src.ReadFrame(); err == nil {
		t.Error("expected timeout error")
	}
}

func TestSocketpairDeliversFrames(t *testing.T) {
	local, kernel, err := Socketpair()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = kernel.Close() }()

	frame, err := EncodeFrame(&Message{
		Header:  Header{SeqNum: 11, Direction: DirIn},
		Payload: &UnlinkReply{Status: 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := kernel.Write(frame); err != nil {
		t.Fatal(err)
	}

	src := NewDatagramSource(local, time.Second)
	defer func() { _ = src.Close() }()

	got, err := src.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	msg, err := Decode(got)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Command() != RetUnlink || msg.SeqNum != 11 {
		t.Errorf("unexpected message: %+v", msg)
	}
}
