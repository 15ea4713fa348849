package redisconn

import (
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/raniellyferreira/redis-connkit/protocol"
)

// createListener starts a disposable TCP server for connection tests
// and returns its address
func createListener(t testing.TB, handler func(conn net.Conn)) string {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start test server: %v", err)
	}

	t.Cleanup(func() {
		listener.Close()
	})

	// Accept connections in background
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}

			go func(c net.Conn) {
				defer c.Close()

				if handler != nil {
					handler(c)
				}
			}(conn)
		}
	}()

	return listener.Addr().String()
}

// connOptsFor splits a listener address into a connection option map
func connOptsFor(t testing.TB, addr string, extra map[string]interface{}) map[string]interface{} {
	t.Helper()

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("Failed to split address %q: %v", addr, err)
	}
	port, err := net.LookupPort("tcp", portStr)
	if err != nil {
		t.Fatalf("Failed to parse port %q: %v", portStr, err)
	}

	opts := map[string]interface{}{
		"host": host,
		"port": port,
	}
	for key, value := range extra {
		opts[key] = value
	}
	return opts
}

// respondThenHold reads one client command, answers with the given
// replies, then keeps the connection open until the client closes it
func respondThenHold(replies ...string) func(conn net.Conn) {
	return func(conn net.Conn) {
		buf := make([]byte, 512)
		for _, reply := range replies {
			if _, err := conn.Read(buf); err != nil {
				return
			}
			if _, err := conn.Write([]byte(reply)); err != nil {
				return
			}
		}
		// Hold the connection open; the client side closes it
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}
}

// holdOpen keeps the connection open without reading or writing until
// the client closes it
func holdOpen() func(conn net.Conn) {
	return func(conn net.Conn) {
		buf := make([]byte, 1)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}
}

// scriptConn is a net.Conn whose reads return a fixed sequence of
// fragments, one fragment per Read call regardless of the buffer
// handed in, then io.EOF. Writes are captured for inspection.
type scriptConn struct {
	mu        sync.Mutex
	fragments [][]byte
	reads     int
	writes    [][]byte
	closed    bool
}

func newScriptConn(fragments ...string) *scriptConn {
	s := &scriptConn{}
	for _, fragment := range fragments {
		s.fragments = append(s.fragments, []byte(fragment))
	}
	return s
}

func (s *scriptConn) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reads >= len(s.fragments) {
		return 0, io.EOF
	}
	fragment := s.fragments[s.reads]
	s.reads++
	return copy(p, fragment), nil
}

func (s *scriptConn) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (s *scriptConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *scriptConn) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *scriptConn) written() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *scriptConn) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func (s *scriptConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6379}
}

func (s *scriptConn) SetDeadline(time.Time) error      { return nil }
func (s *scriptConn) SetReadDeadline(time.Time) error  { return nil }
func (s *scriptConn) SetWriteDeadline(time.Time) error { return nil }

// newScriptedConn builds a Conn over a scripted fake socket, skipping
// the dial path entirely
func newScriptedConn(fragments ...string) (*Conn, *scriptConn) {
	script := newScriptConn(fragments...)
	conn := &Conn{
		conn:       script,
		decoder:    protocol.NewDecoder(),
		readBuf:    make([]byte, defaultBufferSize),
		bufferSize: defaultBufferSize,
	}
	return conn, script
}
