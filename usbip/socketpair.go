// SPDX-License-Identifier: Apache-2.0

package usbip

import (
	"net"
	"os"

	"github.com/efficientgo/core/errors"
	"golang.org/x/sys/unix"
)

// Socketpair creates the connected AF_UNIX datagram pair that wires the
// vhci controller to an inspector: kernel goes to the controller's
// attach file, local feeds the codec one datagram per message. The
// caller owns both ends.
func Socketpair() (local net.Conn, kernel *os.File, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create socketpair")
	}
	kernel = os.NewFile(uintptr(fds[0]), "vhci-socket")
	localFile := os.NewFile(uintptr(fds[1]), "inspect-socket")
	// net.FileConn dups the descriptor, so the intermediate file is
	// closed either way.
	local, err = net.FileConn(localFile)
	_ = localFile.Close()
	if err != nil {
		_ = kernel.Close()
		return nil, nil, errors.Wrap(err, "failed to wrap socketpair end")
	}
	return local, kernel, nil
}
