// Package protocol implements the Redis Serialization Protocol (RESP)
// for parsing and packing Redis protocol messages.
//
// The parser is resumable: a reply rarely arrives from the network in
// one piece, so Parse decodes from a plain byte buffer and reports
// ErrIncomplete when the buffer holds only a prefix of a value. The
// Decoder type wraps that loop, accumulating fragments across reads:
//
//	dec := protocol.NewDecoder()
//	for {
//		n, err := conn.Read(chunk)
//		if err != nil {
//			break
//		}
//		dec.Feed(chunk[:n])
//		value, err := dec.Decode()
//		if err == protocol.ErrIncomplete {
//			continue
//		}
//		// Process value
//	}
//
// The package supports all RESP data types:
//   - Simple Strings
//   - Errors
//   - Integers
//   - Bulk Strings
//   - Arrays
//   - Null values
package protocol
