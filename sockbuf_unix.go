//go:build unix

package redisconn

import (
	"net"

	"golang.org/x/sys/unix"
)

// socketBufferSizes reads the kernel's effective send and receive
// buffer sizes for the connection. The kernel may have rounded or
// doubled whatever was requested, so the values are read back rather
// than assumed.
func socketBufferSizes(conn *net.TCPConn) (sndbuf, rcvbuf int, err error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, 0, err
	}

	var opErr error
	err = raw.Control(func(fd uintptr) {
		sndbuf, opErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF)
		if opErr != nil {
			return
		}
		rcvbuf, opErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF)
	})
	if err != nil {
		return 0, 0, err
	}
	if opErr != nil {
		return 0, 0, opErr
	}
	return sndbuf, rcvbuf, nil
}
