package redisconn

import (
	"net"
	"time"
)

// defaultBufferSize is the application read buffer size used when the
// kernel buffers are smaller
const defaultBufferSize = 4096

// SocketOption tunes the established TCP connection before the
// handshake runs. Options apply in the order supplied; the first
// failure aborts the connection attempt.
type SocketOption func(*net.TCPConn) error

// WithNoDelay controls Nagle's algorithm on the connection
//
// Example:
//
//	WithNoDelay(true)
func WithNoDelay(enabled bool) SocketOption {
	return func(conn *net.TCPConn) error {
		return conn.SetNoDelay(enabled)
	}
}

// WithKeepAlive enables or disables TCP keep-alive probes
func WithKeepAlive(enabled bool) SocketOption {
	return func(conn *net.TCPConn) error {
		return conn.SetKeepAlive(enabled)
	}
}

// WithKeepAlivePeriod sets the interval between keep-alive probes
func WithKeepAlivePeriod(period time.Duration) SocketOption {
	return func(conn *net.TCPConn) error {
		return conn.SetKeepAlivePeriod(period)
	}
}

// WithLinger sets the linger behavior on close; negative restores the
// default of flushing in the background
func WithLinger(sec int) SocketOption {
	return func(conn *net.TCPConn) error {
		return conn.SetLinger(sec)
	}
}

// WithSendBuffer asks the kernel for a send buffer of the given size
func WithSendBuffer(bytes int) SocketOption {
	return func(conn *net.TCPConn) error {
		return conn.SetWriteBuffer(bytes)
	}
}

// WithReceiveBuffer asks the kernel for a receive buffer of the given size
func WithReceiveBuffer(bytes int) SocketOption {
	return func(conn *net.TCPConn) error {
		return conn.SetReadBuffer(bytes)
	}
}

// applySocketOpts runs the caller's tuning options in order
func applySocketOpts(conn *net.TCPConn, opts []SocketOption) error {
	for _, opt := range opts {
		if err := opt(conn); err != nil {
			return err
		}
	}
	return nil
}

// effectiveBufferSize picks the application buffer size: never smaller
// than either kernel buffer, so a full kernel buffer can be drained in
// one read
func effectiveBufferSize(sndbuf, rcvbuf, buffer int) int {
	max := buffer
	if sndbuf > max {
		max = sndbuf
	}
	if rcvbuf > max {
		max = rcvbuf
	}
	return max
}
