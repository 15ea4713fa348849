package protocol

import "strconv"

// PackCommand encodes a command and its arguments as a RESP array of
// bulk strings, ready to be written to a connection in one call.
func PackCommand(cmd string, args ...string) []byte {
	// Size estimate: headers are small, so this mostly avoids a
	// second allocation for typical AUTH/SELECT-sized commands
	size := 16 + len(cmd)
	for _, arg := range args {
		size += 16 + len(arg)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, byte(TypeArray))
	buf = strconv.AppendInt(buf, int64(1+len(args)), 10)
	buf = append(buf, crlfBytes...)

	buf = appendBulkString(buf, cmd)
	for _, arg := range args {
		buf = appendBulkString(buf, arg)
	}

	return buf
}

// appendBulkString appends one RESP bulk string to buf
func appendBulkString(buf []byte, s string) []byte {
	buf = append(buf, byte(TypeBulkString))
	buf = strconv.AppendInt(buf, int64(len(s)), 10)
	buf = append(buf, crlfBytes...)
	buf = append(buf, s...)
	buf = append(buf, crlfBytes...)
	return buf
}
