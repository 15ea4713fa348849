package redisconn

import (
	"errors"
	"fmt"
	"io"

	"github.com/raniellyferreira/redis-connkit/protocol"
)

// Handshake runs the post-dial command sequence on a caller-supplied
// transport: AUTH when a password is configured, then SELECT when a
// database is configured. Connect performs it automatically; this
// entry point serves callers that dial and tune the socket themselves.
//
// Replies may arrive fragmented across any number of reads; unconsumed
// bytes left by one step carry into the next. After the final step any
// remaining bytes mean the server spoke out of turn, which is reported
// as a protocol violation. With neither a password nor a database
// configured the handshake is a no-op: nothing is written to or read
// from the transport.
func Handshake(rw io.ReadWriter, opts *MergedOptions) error {
	h := &handshaker{
		rw:      rw,
		decoder: protocol.NewDecoder(),
		buf:     make([]byte, defaultBufferSize),
	}
	return h.run(opts)
}

// handshake runs the sequence over an established connection, sharing
// its decoder so bytes surviving the handshake stay with the Conn
func handshake(conn *Conn, opts *MergedOptions) error {
	h := &handshaker{rw: conn.conn, decoder: conn.decoder, buf: conn.readBuf}
	return h.run(opts)
}

// handshaker is the ephemeral state of one handshake attempt: the
// transport, the resumable parser, and the read scratch buffer
type handshaker struct {
	rw      io.ReadWriter
	decoder *protocol.Decoder
	buf     []byte
}

func (h *handshaker) run(opts *MergedOptions) error {
	ran := false

	if opts.Password != "" {
		if err := h.step("AUTH", opts.Password); err != nil {
			return err
		}
		ran = true
	}

	if opts.Database != "" {
		if err := h.step("SELECT", opts.Database); err != nil {
			return err
		}
		ran = true
	}

	if ran && h.decoder.Len() > 0 {
		return &HandshakeError{Step: "verify", Err: ErrTrailingData}
	}

	return nil
}

// step writes one command and evaluates its single reply. A server
// error reply carries the server's text verbatim; anything other than
// +OK is rejected.
func (h *handshaker) step(cmd string, args ...string) error {
	if _, err := h.rw.Write(protocol.PackCommand(cmd, args...)); err != nil {
		return &HandshakeError{Step: cmd, Err: err}
	}

	reply, err := h.readReply()
	if err != nil {
		return &HandshakeError{Step: cmd, Err: err}
	}

	if reply.IsError() {
		return &HandshakeError{Step: cmd, ServerMsg: reply.Error()}
	}

	if !reply.IsStatus("OK") {
		return &HandshakeError{Step: cmd, Err: fmt.Errorf("unexpected reply: %s", reply.String())}
	}

	return nil
}

// readReply produces exactly one complete reply, reading as many times
// as the fragmentation of the stream requires. Bytes already buffered
// from a previous step are consumed before the transport is touched,
// so a step whose reply is already in the tail performs no reads at
// all.
func (h *handshaker) readReply() (protocol.Value, error) {
	for {
		value, err := h.decoder.Decode()
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, protocol.ErrIncomplete) {
			return protocol.Value{}, err
		}

		n, err := h.rw.Read(h.buf)
		if n > 0 {
			h.decoder.Feed(h.buf[:n])
			continue
		}
		if err == nil {
			// A read that blocks and then delivers nothing cannot make
			// progress; treat it like a closed connection
			err = io.ErrNoProgress
		}
		return protocol.Value{}, err
	}
}
