// SPDX-License-Identifier: Apache-2.0

package usbip

import "fmt"

// UnsupportedCommandError reports a command word matching none of the
// four known message kinds. Recoverable; the caller decides whether to
// skip, log or abort.
type UnsupportedCommandError struct {
	Command uint32
}

func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("unsupported usbip command %d", e.Command)
}

// TruncatedBufferError reports a buffer too short for the fixed fields
// or the declared variable-length data of its message kind.
type TruncatedBufferError struct {
	Need int
	Have int
}

func (e *TruncatedBufferError) Error() string {
	return fmt.Sprintf("truncated usbip message: need %d bytes, have %d", e.Need, e.Have)
}
