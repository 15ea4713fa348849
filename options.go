package redisconn

import (
	"net"
	"strconv"
	"time"
)

// LogEvent names a connection lifecycle event whose log severity can
// be tuned per event through the "log" behavior option.
type LogEvent string

// Connection lifecycle events
const (
	EventDisconnection    LogEvent = "disconnection"
	EventFailedConnection LogEvent = "failed_connection"
	EventReconnection     LogEvent = "reconnection"
)

// LogLevel is the severity a lifecycle event is logged at
type LogLevel string

// Log severities
const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelError LogLevel = "error"
)

// connectionDefaults lists the recognized connection options and their
// defaults. Any other key in the connection group is rejected.
var connectionDefaults = map[string]interface{}{
	"host":     "localhost",
	"port":     6379,
	"password": nil,
	"database": nil,
}

// behaviorDefaults lists the recognized behavior options and their
// defaults. Durations are in milliseconds. The "log" entry is the one
// nested option: its per-event levels merge individually. Keys outside
// this table pass through untouched for the transport layer.
var behaviorDefaults = map[string]interface{}{
	"socket_opts":           nil,
	"sync_connect":          false,
	"backoff_initial":       500,
	"backoff_max":           30000,
	"exit_on_disconnection": false,
	"timeout":               5000,
	"log": map[string]interface{}{
		"disconnection":     "error",
		"failed_connection": "error",
		"reconnection":      "info",
	},
}

// MergedOptions is the complete connection configuration after
// defaults have been applied. It is created once per connection
// attempt and never mutated afterwards.
type MergedOptions struct {
	Host     string
	Port     int
	Password string // empty means no AUTH step
	Database string // empty means no SELECT step

	SocketOpts          []SocketOption
	SyncConnect         bool
	BackoffInitial      time.Duration
	BackoffMax          time.Duration
	Log                 map[LogEvent]LogLevel
	ExitOnDisconnection bool
	Timeout             time.Duration
}

// Addr returns the host:port dial target
func (o *MergedOptions) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// LogLevelFor returns the configured severity for a lifecycle event,
// defaulting to error for events with no configured level
func (o *MergedOptions) LogLevelFor(event LogEvent) LogLevel {
	if level, ok := o.Log[event]; ok {
		return level
	}
	return LevelError
}

// ConnectionMap returns the connection group as a map. Feeding the
// result back through SanitizeOptions yields the same options.
func (o *MergedOptions) ConnectionMap() map[string]interface{} {
	m := map[string]interface{}{
		"host": o.Host,
		"port": o.Port,
	}
	if o.Password != "" {
		m["password"] = o.Password
	}
	if o.Database != "" {
		m["database"] = o.Database
	}
	return m
}

// BehaviorMap returns the behavior group as a map with durations in
// milliseconds. Feeding the result back through SanitizeOptions yields
// the same options.
func (o *MergedOptions) BehaviorMap() map[string]interface{} {
	log := make(map[string]interface{}, len(o.Log))
	for event, level := range o.Log {
		log[string(event)] = string(level)
	}

	m := map[string]interface{}{
		"sync_connect":          o.SyncConnect,
		"backoff_initial":       int(o.BackoffInitial / time.Millisecond),
		"backoff_max":           int(o.BackoffMax / time.Millisecond),
		"exit_on_disconnection": o.ExitOnDisconnection,
		"timeout":               int(o.Timeout / time.Millisecond),
		"log":                   log,
	}
	if len(o.SocketOpts) > 0 {
		m["socket_opts"] = o.SocketOpts
	}
	return m
}

// SanitizeOptions validates the caller-supplied option maps and merges
// them with defaults. connOpts may contain only host, port, password
// and database. Recognized behavior keys in behaviorOpts are validated
// and merged; everything else is returned in the passthrough map,
// untouched, for the caller's transport layer.
//
// SanitizeOptions performs no I/O and does not modify its arguments.
func SanitizeOptions(connOpts, behaviorOpts map[string]interface{}) (*MergedOptions, map[string]interface{}, error) {
	for key := range connOpts {
		if _, ok := connectionDefaults[key]; !ok {
			return nil, nil, &ConfigError{Kind: ConfigUnknownKey, Key: key}
		}
	}

	if value, ok := connOpts["port"]; ok {
		if port, isInt := asInt(value); !isInt || port <= 0 || port > 65535 {
			return nil, nil, &ConfigError{Kind: ConfigInvalidPort, Key: "port", Value: value}
		}
	}

	recognized := make(map[string]interface{}, len(behaviorOpts))
	passthrough := make(map[string]interface{})
	for key, value := range behaviorOpts {
		if _, ok := behaviorDefaults[key]; ok {
			recognized[key] = value
		} else {
			passthrough[key] = value
		}
	}

	merged, err := buildMerged(
		mergeOptions(connectionDefaults, connOpts),
		mergeOptions(behaviorDefaults, recognized),
	)
	if err != nil {
		return nil, nil, err
	}
	return merged, passthrough, nil
}

// mergeOptions overlays supplied values onto a defaults table. A
// nested map default merges per key, caller entries overriding
// individual leaf values; every other default is replaced wholesale.
func mergeOptions(defaults, supplied map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(defaults))
	for key, value := range defaults {
		merged[key] = value
	}

	for key, value := range supplied {
		defNested, nestedDefault := merged[key].(map[string]interface{})
		subNested, nestedValue := toStringMap(value)
		if nestedDefault && nestedValue {
			merged[key] = mergeNested(defNested, subNested)
			continue
		}
		merged[key] = value
	}
	return merged
}

// mergeNested overlays leaf values of one nested option level
func mergeNested(defaults, supplied map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(defaults))
	for key, value := range defaults {
		merged[key] = value
	}
	for key, value := range supplied {
		merged[key] = value
	}
	return merged
}

// buildMerged coerces the merged maps into the typed options record,
// rejecting values of the wrong shape
func buildMerged(conn, behavior map[string]interface{}) (*MergedOptions, error) {
	opts := &MergedOptions{}

	host, ok := asString(conn["host"])
	if !ok || host == "" {
		return nil, &ConfigError{Kind: ConfigInvalidValue, Key: "host", Value: conn["host"]}
	}
	opts.Host = host

	port, ok := asInt(conn["port"])
	if !ok {
		return nil, &ConfigError{Kind: ConfigInvalidPort, Key: "port", Value: conn["port"]}
	}
	opts.Port = port

	if value := conn["password"]; value != nil {
		password, ok := asString(value)
		if !ok {
			return nil, &ConfigError{Kind: ConfigInvalidValue, Key: "password", Value: value}
		}
		opts.Password = password
	}

	if value := conn["database"]; value != nil {
		switch {
		case isString(value):
			opts.Database, _ = asString(value)
		case isInt(value):
			db, _ := asInt(value)
			opts.Database = strconv.Itoa(db)
		default:
			return nil, &ConfigError{Kind: ConfigInvalidValue, Key: "database", Value: value}
		}
	}

	if value := behavior["socket_opts"]; value != nil {
		sockOpts, ok := value.([]SocketOption)
		if !ok {
			return nil, &ConfigError{Kind: ConfigInvalidValue, Key: "socket_opts", Value: value}
		}
		opts.SocketOpts = sockOpts
	}

	boolKeys := map[string]*bool{
		"sync_connect":          &opts.SyncConnect,
		"exit_on_disconnection": &opts.ExitOnDisconnection,
	}
	for key, dst := range boolKeys {
		b, ok := asBool(behavior[key])
		if !ok {
			return nil, &ConfigError{Kind: ConfigInvalidValue, Key: key, Value: behavior[key]}
		}
		*dst = b
	}

	durationKeys := map[string]*time.Duration{
		"backoff_initial": &opts.BackoffInitial,
		"backoff_max":     &opts.BackoffMax,
		"timeout":         &opts.Timeout,
	}
	for key, dst := range durationKeys {
		d, ok := asDuration(behavior[key])
		if !ok || d < 0 {
			return nil, &ConfigError{Kind: ConfigInvalidValue, Key: key, Value: behavior[key]}
		}
		*dst = d
	}

	log, ok := toLogMap(behavior["log"])
	if !ok {
		return nil, &ConfigError{Kind: ConfigInvalidLog, Key: "log", Value: behavior["log"]}
	}
	opts.Log = log

	return opts, nil
}

// toStringMap normalizes the supported map shapes for nested options
func toStringMap(value interface{}) (map[string]interface{}, bool) {
	switch m := value.(type) {
	case map[string]interface{}:
		return m, true
	case map[string]string:
		converted := make(map[string]interface{}, len(m))
		for k, v := range m {
			converted[k] = v
		}
		return converted, true
	case map[LogEvent]LogLevel:
		converted := make(map[string]interface{}, len(m))
		for k, v := range m {
			converted[string(k)] = string(v)
		}
		return converted, true
	default:
		return nil, false
	}
}

// toLogMap validates that a log option is a flat mapping from event
// names to known severity levels
func toLogMap(value interface{}) (map[LogEvent]LogLevel, bool) {
	m, ok := toStringMap(value)
	if !ok {
		return nil, false
	}

	log := make(map[LogEvent]LogLevel, len(m))
	for event, raw := range m {
		level, ok := asString(raw)
		if !ok {
			return nil, false
		}
		switch LogLevel(level) {
		case LevelDebug, LevelInfo, LevelError:
			log[LogEvent(event)] = LogLevel(level)
		default:
			return nil, false
		}
	}
	return log, true
}

func isString(value interface{}) bool {
	_, ok := value.(string)
	return ok
}

func asString(value interface{}) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

func isInt(value interface{}) bool {
	_, ok := asInt(value)
	return ok
}

// asInt accepts the integer shapes that typed callers and decoded
// JSON/YAML documents produce
func asInt(value interface{}) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func asBool(value interface{}) (bool, bool) {
	b, ok := value.(bool)
	return b, ok
}

// asDuration interprets bare numbers as milliseconds; time.Duration
// values and duration strings like "500ms" pass through unchanged
func asDuration(value interface{}) (time.Duration, bool) {
	switch v := value.(type) {
	case time.Duration:
		return v, true
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, false
		}
		return d, true
	}
	if n, ok := asInt(value); ok {
		return time.Duration(n) * time.Millisecond, true
	}
	return 0, false
}

// connectorConfig holds the tunables of a Connector beyond the
// sanitized connection options
type connectorConfig struct {
	logger                Logger
	metrics               MetricsCollector
	onConnect             func(*Conn) error
	handshakeFailureLimit uint32
}

// defaultConnectorConfig returns a configuration with sensible defaults
func defaultConnectorConfig() *connectorConfig {
	return &connectorConfig{
		logger: &defaultLogger{},
	}
}

// Option represents a configuration option for a Connector
type Option func(*connectorConfig) error

// WithLogger sets a custom logger for the connector
//
// Example:
//
//	WithLogger(myCustomLogger)
func WithLogger(logger Logger) Option {
	return func(c *connectorConfig) error {
		if logger == nil {
			return ErrInvalidConfig
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics enables metrics collection with the provided collector
//
// Example:
//
//	WithMetrics(myMetricsCollector)
func WithMetrics(collector MetricsCollector) Option {
	return func(c *connectorConfig) error {
		c.metrics = collector
		return nil
	}
}

// WithOnConnect registers a hook invoked after each successful
// handshake, before the connection is announced as established. A
// non-nil error from the hook closes the socket and schedules a
// reconnect attempt. The connector owns the socket once the hook
// returns.
//
// Example:
//
//	WithOnConnect(func(conn *redisconn.Conn) error {
//	    return warmup(conn)
//	})
func WithOnConnect(fn func(*Conn) error) Option {
	return func(c *connectorConfig) error {
		c.onConnect = fn
		return nil
	}
}

// WithHandshakeFailureLimit arms a circuit breaker that opens after n
// consecutive handshake rejections, at which point the connector gives
// up and shuts down instead of hammering a server that keeps refusing
// credentials. Transport-level connect failures do not count: those
// stay on the backoff schedule. Zero leaves the breaker disabled.
//
// Example:
//
//	WithHandshakeFailureLimit(3)
func WithHandshakeFailureLimit(n uint32) Option {
	return func(c *connectorConfig) error {
		c.handshakeFailureLimit = n
		return nil
	}
}
