package redisconn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// Connector supervises a single connection: it dials, hands the socket
// through the handshake, and re-establishes the connection with
// exponential backoff when it drops. The connector owns the socket
// exclusively once started.
type Connector struct {
	id   string
	opts *MergedOptions
	cfg  *connectorConfig

	// Connection state
	mu        sync.RWMutex
	conn      *Conn
	connected bool

	// Control channels
	stopChan    chan struct{}
	doneChan    chan struct{}
	firstResult chan error
	firstOnce   sync.Once
	started     int32 // atomic flag to prevent double start
	stopped     int32 // atomic flag to prevent double stop
	runEnded    int32 // atomic flag to prevent double doneChan close

	// Statistics
	stats *ConnStats

	// Optional handshake fail-fast
	breaker *gobreaker.CircuitBreaker[*Conn]
}

// NewConnector sanitizes the option maps and builds a supervisor for
// one connection to the configured server. Behavior options that are
// not recognized are ignored here; use SanitizeOptions directly when
// the passthrough options matter.
func NewConnector(connOpts, behaviorOpts map[string]interface{}, options ...Option) (*Connector, error) {
	opts, passthrough, err := SanitizeOptions(connOpts, behaviorOpts)
	if err != nil {
		return nil, err
	}

	cfg := defaultConnectorConfig()
	for _, option := range options {
		if err := option(cfg); err != nil {
			return nil, err
		}
	}

	if len(passthrough) > 0 {
		keys := make([]string, 0, len(passthrough))
		for key := range passthrough {
			keys = append(keys, key)
		}
		cfg.logger.Debug("Ignoring unrecognized behavior options",
			Field{Key: "keys", Value: keys})
	}

	c := &Connector{
		id:          uuid.New().String(),
		opts:        opts,
		cfg:         cfg,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
		firstResult: make(chan error, 1),
		stats:       &ConnStats{},
	}

	if cfg.handshakeFailureLimit > 0 {
		limit := cfg.handshakeFailureLimit
		c.breaker = gobreaker.NewCircuitBreaker[*Conn](gobreaker.Settings{
			Name:    "handshake " + opts.Addr(),
			Timeout: opts.BackoffMax,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= limit
			},
			IsSuccessful: func(err error) bool {
				// Transport failures stay on the backoff schedule;
				// only handshake rejections count toward the limit
				var hs *HandshakeError
				return err == nil || !errors.As(err, &hs)
			},
		})
	}

	return c, nil
}

// Start launches the supervising loop. With sync_connect set, Start
// blocks until the first connection attempt resolves and returns its
// error; a failed first attempt then stops the connector. Without
// sync_connect, Start returns immediately and the loop retries failed
// attempts on the backoff schedule.
func (c *Connector) Start(ctx context.Context) error {
	if atomic.LoadInt32(&c.stopped) == 1 {
		return ErrClosed
	}
	if !atomic.CompareAndSwapInt32(&c.started, 0, 1) {
		return fmt.Errorf("connector already started")
	}

	c.cfg.logger.Info("Starting connector",
		Field{Key: "instance", Value: c.id},
		Field{Key: "addr", Value: c.opts.Addr()})

	go c.run()

	if !c.opts.SyncConnect {
		return nil
	}

	select {
	case err := <-c.firstResult:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts the connector down and closes any live connection
func (c *Connector) Stop() error {
	// Use atomic CAS to ensure we only stop once
	if !atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		return nil
	}

	c.cfg.logger.Info("Stopping connector", Field{Key: "instance", Value: c.id})

	close(c.stopChan)

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()

	if atomic.LoadInt32(&c.started) == 0 {
		return nil
	}

	select {
	case <-c.doneChan:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("stop timeout")
	}
}

// Connected reports whether a handshake-complete connection is live
func (c *Connector) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// ID returns the connector's instance identifier, unique per Connector
func (c *Connector) ID() string {
	return c.id
}

// Addr returns the host:port this connector dials
func (c *Connector) Addr() string {
	return c.opts.Addr()
}

// Stats returns a copy of the current connection statistics
func (c *Connector) Stats() ConnStats {
	return c.stats.snapshot()
}

// Done returns a channel closed when the supervising loop exits, either
// through Stop, exit_on_disconnection, or the handshake failure limit.
func (c *Connector) Done() <-chan struct{} {
	return c.doneChan
}

// run is the main supervising loop
func (c *Connector) run() {
	defer func() {
		// Use atomic CAS to ensure we only close doneChan once
		if atomic.CompareAndSwapInt32(&c.runEnded, 0, 1) {
			close(c.doneChan)
		}
	}()

	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.InitialInterval = c.opts.BackoffInitial
	backoffCfg.MaxInterval = c.opts.BackoffMax

	firstAttempt := true
	everConnected := false

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		conn, err := c.establish()
		if err != nil {
			c.stats.recordFailure(err)
			c.recordMetricError(err)
			c.logEvent(EventFailedConnection, "Connection attempt failed",
				Field{Key: "instance", Value: c.id},
				Field{Key: "addr", Value: c.opts.Addr()},
				Field{Key: "error", Value: err})
			c.reportFirst(err)

			if errors.Is(err, gobreaker.ErrOpenState) {
				c.cfg.logger.Error("Handshake failure limit reached, giving up",
					Field{Key: "instance", Value: c.id},
					Field{Key: "addr", Value: c.opts.Addr()})
				return
			}

			if firstAttempt && c.opts.SyncConnect {
				return
			}
			firstAttempt = false

			sleep := backoffCfg.NextBackOff()
			if sleep == backoff.Stop {
				sleep = c.opts.BackoffMax
			}
			select {
			case <-c.stopChan:
				return
			case <-time.After(sleep):
			}
			continue
		}

		backoffCfg.Reset()
		firstAttempt = false
		reconnected := everConnected
		everConnected = true

		c.setConn(conn)
		c.stats.recordConnected(time.Now())
		if c.cfg.metrics != nil {
			c.cfg.metrics.RecordConnectDuration(conn.DialDuration())
			c.cfg.metrics.RecordHandshakeDuration(conn.HandshakeDuration())
			if reconnected {
				c.cfg.metrics.RecordReconnection()
			}
		}
		if reconnected {
			c.logEvent(EventReconnection, "Reconnected",
				Field{Key: "instance", Value: c.id},
				Field{Key: "addr", Value: c.opts.Addr()})
		} else {
			c.cfg.logger.Info("Connected",
				Field{Key: "instance", Value: c.id},
				Field{Key: "addr", Value: c.opts.Addr()},
				Field{Key: "buffer", Value: conn.BufferSize()})
		}
		c.reportFirst(nil)

		watchErr := c.watch(conn)
		c.clearConn()
		conn.Close()

		select {
		case <-c.stopChan:
			return
		default:
		}

		c.stats.recordDisconnected(time.Now(), watchErr)
		if c.cfg.metrics != nil {
			c.cfg.metrics.RecordDisconnection()
		}
		c.logEvent(EventDisconnection, "Connection lost",
			Field{Key: "instance", Value: c.id},
			Field{Key: "addr", Value: c.opts.Addr()},
			Field{Key: "error", Value: watchErr})

		if c.opts.ExitOnDisconnection {
			return
		}
	}
}

// establish runs one full connection attempt, through the breaker when
// one is armed
func (c *Connector) establish() (*Conn, error) {
	if c.breaker != nil {
		return c.breaker.Execute(c.connectOnce)
	}
	return c.connectOnce()
}

func (c *Connector) connectOnce() (*Conn, error) {
	conn, err := Connect(c.opts)
	if err != nil {
		return nil, err
	}

	if c.cfg.onConnect != nil {
		if err := c.cfg.onConnect(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("on-connect hook: %w", err)
		}
	}

	return conn, nil
}

// watch blocks until the connection dies or the connector stops. The
// connector owns the socket after the handshake and never issues
// requests on it, so any bytes arriving here are unsolicited and are
// treated as a protocol violation.
func (c *Connector) watch(conn *Conn) error {
	for {
		n, err := conn.Read(conn.readBuf)
		if n > 0 {
			return fmt.Errorf("server sent %d unsolicited bytes", n)
		}
		if err != nil {
			return err
		}
	}
}

func (c *Connector) setConn(conn *Conn) {
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
}

func (c *Connector) clearConn() {
	c.mu.Lock()
	c.conn = nil
	c.connected = false
	c.mu.Unlock()
}

// reportFirst delivers the outcome of the first connection attempt to
// a sync_connect Start exactly once
func (c *Connector) reportFirst(err error) {
	c.firstOnce.Do(func() {
		c.firstResult <- err
	})
}

func (c *Connector) recordMetricError(err error) {
	if c.cfg.metrics == nil {
		return
	}
	var hs *HandshakeError
	if errors.As(err, &hs) {
		c.cfg.metrics.RecordError("handshake")
		return
	}
	c.cfg.metrics.RecordError("connect")
}

// logEvent logs a lifecycle event at the severity configured for it
func (c *Connector) logEvent(event LogEvent, msg string, fields ...Field) {
	switch c.opts.LogLevelFor(event) {
	case LevelDebug:
		c.cfg.logger.Debug(msg, fields...)
	case LevelInfo:
		c.cfg.logger.Info(msg, fields...)
	default:
		c.cfg.logger.Error(msg, fields...)
	}
}
