package redisconn

import (
	"errors"
	"fmt"
)

// Error types for specific failure scenarios
var (
	// ErrInvalidConfig indicates invalid configuration options
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotConnected indicates there is no established connection
	ErrNotConnected = errors.New("not connected")

	// ErrClosed indicates the connector has been stopped
	ErrClosed = errors.New("connector is closed")

	// ErrTrailingData indicates the server sent bytes beyond the final
	// expected handshake reply
	ErrTrailingData = errors.New("unexpected trailing bytes after handshake")
)

// ConfigErrorKind identifies which validation rule a configuration
// value failed
type ConfigErrorKind string

const (
	// ConfigUnknownKey reports a key that is not a recognized connection option
	ConfigUnknownKey ConfigErrorKind = "unknown-key"

	// ConfigInvalidPort reports a port that is not a valid port number
	ConfigInvalidPort ConfigErrorKind = "invalid-port"

	// ConfigInvalidLog reports log options that are not a map of event names to levels
	ConfigInvalidLog ConfigErrorKind = "invalid-log"

	// ConfigInvalidValue reports any other option whose value has the wrong shape
	ConfigInvalidValue ConfigErrorKind = "invalid-value"
)

// ConfigError represents a rejected configuration option with the
// offending key and value preserved for the caller
type ConfigError struct {
	Kind  ConfigErrorKind
	Key   string
	Value interface{}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	switch e.Kind {
	case ConfigUnknownKey:
		return fmt.Sprintf("unknown connection option: %s", e.Key)
	case ConfigInvalidPort:
		return fmt.Sprintf("invalid port: %v", e.Value)
	case ConfigInvalidLog:
		return fmt.Sprintf("invalid log options: %v", e.Value)
	default:
		return fmt.Sprintf("invalid value for option %s: %v", e.Key, e.Value)
	}
}

// Unwrap returns ErrInvalidConfig so callers can match any
// configuration failure with errors.Is
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// ConnectError represents a failure to establish the TCP connection
type ConnectError struct {
	Addr string
	Err  error
}

// Error implements the error interface
func (e *ConnectError) Error() string {
	return fmt.Sprintf("connection error to %s: %v", e.Addr, e.Err)
}

// Unwrap returns the wrapped error
func (e *ConnectError) Unwrap() error {
	return e.Err
}

// SocketConfigError represents a failure to inspect or apply socket
// options on an already established connection
type SocketConfigError struct {
	Addr string
	Err  error
}

// Error implements the error interface
func (e *SocketConfigError) Error() string {
	return fmt.Sprintf("socket configuration error on %s: %v", e.Addr, e.Err)
}

// Unwrap returns the wrapped error
func (e *SocketConfigError) Unwrap() error {
	return e.Err
}

// HandshakeError represents a failure during the post-dial command
// sequence. Step names the command that failed ("AUTH", "SELECT") or
// "verify" for violations detected after the final reply.
type HandshakeError struct {
	Step      string
	ServerMsg string // verbatim server error text, when the server replied with -ERR
	Err       error
}

// Error implements the error interface
func (e *HandshakeError) Error() string {
	if e.ServerMsg != "" {
		return fmt.Sprintf("handshake %s failed: %s", e.Step, e.ServerMsg)
	}
	return fmt.Sprintf("handshake %s failed: %v", e.Step, e.Err)
}

// Unwrap returns the wrapped error
func (e *HandshakeError) Unwrap() error {
	return e.Err
}
