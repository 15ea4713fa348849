package redisconn

import (
	"net"
	"time"

	"github.com/raniellyferreira/redis-connkit/protocol"
)

// Conn is an established, handshake-complete connection. It owns the
// raw socket and the decoder state that survived the handshake; the
// caller's request traffic goes straight through Read and Write.
type Conn struct {
	conn    net.Conn
	opts    *MergedOptions
	decoder *protocol.Decoder

	// readBuf is sized so one read can drain a full kernel buffer
	readBuf    []byte
	bufferSize int

	dialDuration      time.Duration
	handshakeDuration time.Duration
}

// Connect dials host:port from the sanitized options, applies the
// caller's socket tuning, sizes the application read buffer from the
// kernel's effective buffer sizes, and runs the AUTH/SELECT handshake.
// On any failure after a successful dial the socket is closed before
// the error is returned.
func Connect(opts *MergedOptions) (*Conn, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	dialer := &net.Dialer{
		Timeout: timeout,
	}

	addr := opts.Addr()
	dialStart := time.Now()
	raw, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	tcp, ok := raw.(*net.TCPConn)
	if !ok {
		raw.Close()
		return nil, &ConnectError{Addr: addr, Err: ErrInvalidConfig}
	}

	if err := applySocketOpts(tcp, opts.SocketOpts); err != nil {
		tcp.Close()
		return nil, &SocketConfigError{Addr: addr, Err: err}
	}

	sndbuf, rcvbuf, err := socketBufferSizes(tcp)
	if err != nil {
		tcp.Close()
		return nil, &SocketConfigError{Addr: addr, Err: err}
	}

	bufferSize := effectiveBufferSize(sndbuf, rcvbuf, defaultBufferSize)
	conn := &Conn{
		conn:         tcp,
		opts:         opts,
		decoder:      protocol.NewDecoder(),
		readBuf:      make([]byte, bufferSize),
		bufferSize:   bufferSize,
		dialDuration: time.Since(dialStart),
	}

	handshakeStart := time.Now()
	if err := handshake(conn, opts); err != nil {
		tcp.Close()
		return nil, err
	}
	conn.handshakeDuration = time.Since(handshakeStart)

	return conn, nil
}

// Dial sanitizes the raw option maps and connects in one call. Use
// SanitizeOptions plus Connect separately when the transport-layer
// passthrough options matter.
func Dial(connOpts, behaviorOpts map[string]interface{}) (*Conn, error) {
	opts, _, err := SanitizeOptions(connOpts, behaviorOpts)
	if err != nil {
		return nil, err
	}
	return Connect(opts)
}

// Read reads from the underlying socket
func (c *Conn) Read(p []byte) (int, error) {
	return c.conn.Read(p)
}

// Write writes to the underlying socket
func (c *Conn) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

// Close releases the socket
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the server address of the connection
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// BufferSize returns the application read buffer size chosen at
// establishment: the maximum of the kernel send buffer, the kernel
// receive buffer, and the built-in default.
func (c *Conn) BufferSize() int {
	return c.bufferSize
}

// Options returns the immutable options this connection was built from
func (c *Conn) Options() *MergedOptions {
	return c.opts
}

// DialDuration returns the time spent dialing and tuning the socket
func (c *Conn) DialDuration() time.Duration {
	return c.dialDuration
}

// HandshakeDuration returns the time the AUTH/SELECT sequence took
func (c *Conn) HandshakeDuration() time.Duration {
	return c.handshakeDuration
}
