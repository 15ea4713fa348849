package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

const (
	// CRLF is the Redis protocol line terminator
	CRLF = "\r\n"

	// maxBulkSize is the maximum size for bulk strings (1GB)
	maxBulkSize = 1024 * 1024 * 1024

	// maxArraySize is the maximum size for arrays
	maxArraySize = 1024 * 1024
)

var (
	crlfBytes = []byte(CRLF)
)

// ErrIncomplete reports that a buffer does not yet contain one complete
// RESP value. The caller should read more bytes and parse again; the
// buffer content seen so far is not an error.
var ErrIncomplete = errors.New("incomplete RESP value")

// Parse decodes exactly one RESP value from the front of buf and returns
// it together with the unconsumed remainder. If buf holds only a prefix
// of a value, Parse returns ErrIncomplete and the caller must retry with
// the same bytes plus whatever arrives next. Any other error means the
// buffer is malformed and no amount of further input can repair it.
//
// The returned Value and remainder alias buf; they are valid only as
// long as buf is not modified.
func Parse(buf []byte) (Value, []byte, error) {
	value, n, err := parseValue(buf)
	if err != nil {
		return Value{}, nil, err
	}
	return value, buf[n:], nil
}

// parseValue decodes one value and reports how many bytes it consumed.
func parseValue(buf []byte) (Value, int, error) {
	if len(buf) == 0 {
		return Value{}, 0, ErrIncomplete
	}

	switch ValueType(buf[0]) {
	case TypeSimpleString:
		return parseLineValue(buf, TypeSimpleString)
	case TypeError:
		return parseLineValue(buf, TypeError)
	case TypeInteger:
		return parseInteger(buf)
	case TypeBulkString:
		return parseBulkString(buf)
	case TypeArray:
		return parseArray(buf)
	default:
		if buf[0] == 0 {
			return Value{}, 0, fmt.Errorf("unknown RESP type: empty byte (connection may be closed)")
		}
		return Value{}, 0, fmt.Errorf("unknown RESP type: %c (0x%02x)", buf[0], buf[0])
	}
}

// parseLine extracts the line that starts right after the type byte.
// It returns the line without its CRLF and the total bytes consumed
// including the type byte and terminator.
func parseLine(buf []byte) ([]byte, int, error) {
	idx := bytes.Index(buf[1:], crlfBytes)
	if idx == -1 {
		return nil, 0, ErrIncomplete
	}
	return buf[1 : 1+idx], 1 + idx + 2, nil
}

// parseLineValue decodes a simple string or error value
func parseLineValue(buf []byte, t ValueType) (Value, int, error) {
	line, n, err := parseLine(buf)
	if err != nil {
		return Value{}, 0, err
	}

	return Value{
		Type: t,
		Data: line,
	}, n, nil
}

// parseInteger decodes an integer value
func parseInteger(buf []byte) (Value, int, error) {
	line, n, err := parseLine(buf)
	if err != nil {
		return Value{}, 0, err
	}

	integer, err := parseInt64(line)
	if err != nil {
		return Value{}, 0, fmt.Errorf("invalid integer: %s", line)
	}

	return Value{
		Type:    TypeInteger,
		Integer: integer,
	}, n, nil
}

// parseBulkString decodes a bulk string value
func parseBulkString(buf []byte) (Value, int, error) {
	line, n, err := parseLine(buf)
	if err != nil {
		return Value{}, 0, err
	}

	length, err := parseInt64(line)
	if err != nil {
		return Value{}, 0, fmt.Errorf("invalid bulk string length: %s", line)
	}

	// Handle null bulk string
	if length == -1 {
		return Value{
			Type:   TypeBulkString,
			IsNull: true,
		}, n, nil
	}

	// Validate length
	if length < 0 || length > maxBulkSize {
		return Value{}, 0, fmt.Errorf("invalid bulk string length: %d", length)
	}

	total := n + int(length) + 2
	if len(buf) < total {
		return Value{}, 0, ErrIncomplete
	}

	// Validate the trailing CRLF
	if !bytes.Equal(buf[n+int(length):total], crlfBytes) {
		return Value{}, 0, fmt.Errorf("expected CRLF terminator [13, 10], got [%d, %d]",
			buf[n+int(length)], buf[n+int(length)+1])
	}

	return Value{
		Type: TypeBulkString,
		Data: buf[n : n+int(length)],
	}, total, nil
}

// parseArray decodes an array value, element by element
func parseArray(buf []byte) (Value, int, error) {
	line, n, err := parseLine(buf)
	if err != nil {
		return Value{}, 0, err
	}

	length, err := parseInt64(line)
	if err != nil {
		return Value{}, 0, fmt.Errorf("invalid array length: %s", line)
	}

	// Handle null array
	if length == -1 {
		return Value{
			Type:   TypeArray,
			IsNull: true,
		}, n, nil
	}

	// Validate length
	if length < 0 || length > maxArraySize {
		return Value{}, 0, fmt.Errorf("invalid array length: %d", length)
	}

	array := make([]Value, length)
	consumed := n
	for i := int64(0); i < length; i++ {
		value, m, err := parseValue(buf[consumed:])
		if err != nil {
			// ErrIncomplete propagates so the caller can resume the
			// whole array once more bytes arrive
			return Value{}, 0, err
		}
		array[i] = value
		consumed += m
	}

	return Value{
		Type:  TypeArray,
		Array: array,
	}, consumed, nil
}

// parseInt64 parses an int64 from a byte slice without allocation
func parseInt64(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, strconv.ErrSyntax
	}

	var neg bool
	var i int

	switch b[0] {
	case '-':
		neg = true
		i = 1
	case '+':
		i = 1
	default:
		i = 0
	}

	if i >= len(b) {
		return 0, strconv.ErrSyntax
	}

	var n int64
	for ; i < len(b); i++ {
		if b[i] < '0' || b[i] > '9' {
			return 0, strconv.ErrSyntax
		}

		// Check for overflow
		if n > (1<<63-1)/10 {
			return 0, strconv.ErrRange
		}

		n = n*10 + int64(b[i]-'0')
	}

	if neg {
		return -n, nil
	}
	return n, nil
}

// Decoder accumulates bytes from a connection and decodes RESP values
// out of them as they become complete. It is the resumable counterpart
// to Parse: feed it whatever fragments the network delivers, in any
// split, and call Decode until it stops returning ErrIncomplete.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	buf []byte
}

// NewDecoder creates an empty decoder
func NewDecoder() *Decoder {
	return &Decoder{
		buf: make([]byte, 0, 512), // Initial capacity for the accumulation buffer
	}
}

// Feed appends raw bytes from the connection to the decode buffer
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Decode returns the next complete RESP value from the buffer. It
// returns ErrIncomplete when the buffered bytes form only a prefix of
// a value; feed more bytes and call Decode again. Malformed input
// returns a permanent error and leaves the buffer untouched.
func (d *Decoder) Decode() (Value, error) {
	value, rest, err := Parse(d.buf)
	if err != nil {
		return Value{}, err
	}

	// The decoded value aliases the old buffer, so the remainder is
	// copied out before later Feed calls can overwrite it
	d.buf = append(make([]byte, 0, len(rest)), rest...)
	return value, nil
}

// Buffered returns the bytes that have been fed but not yet consumed
// by a successful Decode. The slice is valid until the next Feed,
// Decode, or Reset.
func (d *Decoder) Buffered() []byte {
	return d.buf
}

// Len returns the number of unconsumed buffered bytes
func (d *Decoder) Len() int {
	return len(d.buf)
}

// Reset discards all buffered bytes
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}
