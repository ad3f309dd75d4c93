// SPDX-License-Identifier: Apache-2.0

package usbip

import (
	"net"
	"time"

	"github.com/efficientgo/core/errors"
)

// FrameSource yields one complete USB/IP frame per call. The codec does
// no partial-read buffering of its own, so implementations must hand
// over whole frames, each at most MaxFrameLen bytes.
type FrameSource interface {
	ReadFrame() ([]byte, error)
	Close() error
}

// DatagramSource reads frames from a datagram-style connection where
// one read yields one complete message, as with the AF_UNIX socketpair
// the vhci controller writes to.
type DatagramSource struct {
	conn        net.Conn
	readTimeout time.Duration
}

// NewDatagramSource wraps conn. A zero readTimeout means reads block
// indefinitely.
func NewDatagramSource(conn net.Conn, readTimeout time.Duration) *DatagramSource {
	return &DatagramSource{
		conn:        conn,
		readTimeout: readTimeout,
	}
}

func (s *DatagramSource) ReadFrame() ([]byte, error) {
	if s.readTimeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, MaxFrameLen)
	n, err := s.conn.Read(buf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read usbip frame")
	}
	return buf[:n], nil
}

func (s *DatagramSource) Close() error {
	return s.conn.Close()
}
