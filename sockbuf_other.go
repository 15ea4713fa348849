//go:build !unix

package redisconn

import "net"

// socketBufferSizes reports zeros on platforms without SO_SNDBUF
// introspection, so the default application buffer size wins.
func socketBufferSizes(conn *net.TCPConn) (sndbuf, rcvbuf int, err error) {
	return 0, 0, nil
}
