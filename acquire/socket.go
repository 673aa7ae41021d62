// File: acquire/socket.go
// Author: momentics <momentics@gmail.com>
//
// Socket buffer tuning: the receiver requests a larger SO_RCVBUF than
// Go's net package configures by default, to absorb scheduling jitter
// at high sample rates without dropping datagrams at the kernel socket
// queue. Grounded on the raw-fd extraction pattern used for TCP_INFO
// introspection elsewhere in the example corpus.

package acquire

import (
	"net"

	"github.com/higebu/netfd"
	"golang.org/x/sys/unix"
)

// DefaultRcvBufBytes is the requested kernel socket receive buffer size.
const DefaultRcvBufBytes = 4 * 1024 * 1024

// TuneRcvBuf raises the UDP socket's SO_RCVBUF. Failure is non-fatal:
// the kernel may clamp or refuse the request under net.core.rmem_max,
// and acquisition proceeds with whatever the kernel granted.
func TuneRcvBuf(conn *net.UDPConn, bytes int) error {
	fd := netfd.GetFdFromConn(conn)
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, bytes)
}
