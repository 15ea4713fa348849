// Package redisconn bootstraps Redis connections: it validates and
// merges caller configuration, establishes and tunes the TCP socket,
// and performs the synchronous AUTH/SELECT handshake before handing
// the connection over.
//
// Configuration arrives as two maps. The connection group accepts only
// host, port, password and database; anything else is rejected. The
// behavior group tunes reconnect backoff, lifecycle log severities and
// connect timeout, and passes unrecognized keys through untouched.
//
// Basic usage:
//
//	conn, err := redisconn.Dial(
//		map[string]interface{}{"host": "localhost", "port": 6379, "password": "secret"},
//		map[string]interface{}{"timeout": 2000},
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conn.Close()
//
// For a connection that re-establishes itself with exponential backoff,
// use a Connector:
//
//	connector, err := redisconn.NewConnector(connOpts, behaviorOpts)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := connector.Start(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//	defer connector.Stop()
//
// The library supports:
//
//   - Strict option sanitizing with structured configuration errors
//   - Socket buffer tuning from the kernel's effective buffer sizes
//   - A resumable RESP reply parser that handles arbitrary fragmentation
//   - Supervised reconnection with exponential backoff
//   - Per-event log severities and pluggable structured logging
//
// For more examples and advanced usage, see the examples/ directory.
package redisconn
