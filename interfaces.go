package redisconn

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// Logger interface for custom logging implementations
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info message with optional fields
	Info(msg string, fields ...Field)

	// Error logs an error message with optional fields
	Error(msg string, fields ...Field)
}

// MetricsCollector interface for metrics collection
type MetricsCollector interface {
	// RecordConnectDuration records the time taken to dial and tune the socket
	RecordConnectDuration(duration time.Duration)

	// RecordHandshakeDuration records the time taken by the AUTH/SELECT sequence
	RecordHandshakeDuration(duration time.Duration)

	// RecordReconnection records a reconnection event
	RecordReconnection()

	// RecordDisconnection records a lost connection
	RecordDisconnection()

	// RecordError records an error event
	RecordError(errorType string)
}

// ConnStats provides connection lifecycle statistics
type ConnStats struct {
	mu sync.RWMutex

	// Connection stats
	ConnectedAt    time.Time
	DisconnectedAt time.Time
	ConnectCount   int64
	FailureCount   int64
	Disconnections int64

	// Last failure observed, empty until the first failure
	LastError string
}

// GetConnectedAt returns when the current connection was established (thread-safe)
func (s *ConnStats) GetConnectedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ConnectedAt
}

// GetConnectCount returns the number of successful connections (thread-safe)
func (s *ConnStats) GetConnectCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ConnectCount
}

// GetFailureCount returns the number of failed connection attempts (thread-safe)
func (s *ConnStats) GetFailureCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.FailureCount
}

// GetDisconnections returns the number of lost connections (thread-safe)
func (s *ConnStats) GetDisconnections() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Disconnections
}

// GetLastError returns the most recent failure text (thread-safe)
func (s *ConnStats) GetLastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastError
}

func (s *ConnStats) recordConnected(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ConnectedAt = at
	s.ConnectCount++
}

func (s *ConnStats) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailureCount++
	if err != nil {
		s.LastError = err.Error()
	}
}

func (s *ConnStats) recordDisconnected(at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DisconnectedAt = at
	s.Disconnections++
	if err != nil {
		s.LastError = err.Error()
	}
}

// snapshot returns a copy without the lock for callers to read freely
func (s *ConnStats) snapshot() ConnStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ConnStats{
		ConnectedAt:    s.ConnectedAt,
		DisconnectedAt: s.DisconnectedAt,
		ConnectCount:   s.ConnectCount,
		FailureCount:   s.FailureCount,
		Disconnections: s.Disconnections,
		LastError:      s.LastError,
	}
}

// defaultLogger is a simple logger implementation using the standard log package
type defaultLogger struct{}

func (l *defaultLogger) Debug(msg string, fields ...Field) {
	l.logWithFields("DEBUG", msg, fields...)
}

func (l *defaultLogger) Info(msg string, fields ...Field) {
	l.logWithFields("INFO", msg, fields...)
}

func (l *defaultLogger) Error(msg string, fields ...Field) {
	l.logWithFields("ERROR", msg, fields...)
}

func (l *defaultLogger) logWithFields(level, msg string, fields ...Field) {
	logMsg := level + ": " + msg
	for _, field := range fields {
		logMsg += " " + field.Key + "=" + formatValue(field.Value)
	}
	log.Println(logMsg)
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	default:
		return fmt.Sprintf("%v", val)
	}
}
