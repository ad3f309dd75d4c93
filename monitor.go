// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	baseerrors "errors"
	"io"

	"github.com/efficientgo/core/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/usbip-tools/usbip-inspect/usbip"
)

// monitor pulls frames from one device's transport socket, decodes
// them and writes the rendered dump. Decode failures are counted and
// logged, never fatal: the next frame may well be fine.
type monitor struct {
	source usbip.FrameSource
	logger log.Logger
	dumpTo io.Writer

	framesTotal       *prometheus.CounterVec
	decodeErrorsTotal *prometheus.CounterVec
	payloadBytesTotal prometheus.Counter
}

func newMonitor(source usbip.FrameSource, dumpTo io.Writer, logger log.Logger, reg prometheus.Registerer) *monitor {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	m := &monitor{
		source: source,
		logger: logger,
		dumpTo: dumpTo,
		framesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "usbip_frames_total",
			Help: "The number of USB/IP frames decoded, by command.",
		}, []string{"command"}),
		decodeErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "usbip_decode_errors_total",
			Help: "The number of frames that failed to decode, by reason.",
		}, []string{"reason"}),
		payloadBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "usbip_payload_bytes_total",
			Help: "The number of transfer data bytes seen in decoded frames.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.framesTotal, m.decodeErrorsTotal, m.payloadBytesTotal)
	}

	return m
}

// Run reads frames until the context is cancelled or the source fails.
func (m *monitor) Run(ctx context.Context) error {
	for {
		buf, err := m.source.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to read frame")
		}

		msg, err := usbip.Decode(buf)
		if err != nil {
			m.decodeErrorsTotal.WithLabelValues(decodeErrorReason(err)).Inc()
			_ = level.Warn(m.logger).Log("msg", "failed to decode frame", "err", err, "len", len(buf))
			continue
		}

		m.framesTotal.WithLabelValues(msg.Command().String()).Inc()
		m.payloadBytesTotal.Add(float64(payloadBytes(msg)))
		if _, err := io.WriteString(m.dumpTo, usbip.Render(msg)); err != nil {
			return errors.Wrap(err, "failed to write dump")
		}
	}
}

func payloadBytes(m *usbip.Message) int {
	switch p := m.Payload.(type) {
	case *usbip.SubmitCommand:
		return len(p.Data)
	case *usbip.SubmitReply:
		return len(p.Data)
	default:
		return 0
	}
}

func decodeErrorReason(err error) string {
	var unsupported *usbip.UnsupportedCommandError
	var truncated *usbip.TruncatedBufferError
	switch {
	case baseerrors.As(err, &unsupported):
		return "unsupported_command"
	case baseerrors.As(err, &truncated):
		return "truncated_buffer"
	default:
		return "other"
	}
}
