package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	redisconn "github.com/raniellyferreira/redis-connkit"
	"go.uber.org/zap"
)

func main() {
	var configPath = flag.String("config", "", "YAML or JSON options file")
	var host = flag.String("host", "localhost", "Redis host")
	var port = flag.Int("port", 6379, "Redis port")
	var password = flag.String("password", "", "Password for the AUTH step")
	var database = flag.String("database", "", "Database for the SELECT step")
	var timeout = flag.Int("timeout", 5000, "Connect timeout in milliseconds")
	var watch = flag.Bool("watch", false, "Keep the connection supervised and log lifecycle events")
	var versionFlag = flag.Bool("version", false, "Show version information")
	var helpFlag = flag.Bool("help", false, "Show help message")

	flag.Parse()

	if *versionFlag {
		fmt.Printf("conn-check %s\n", redisconn.Version)
		for key, value := range redisconn.VersionInfo() {
			if key != "version" {
				fmt.Printf("  %s: %s\n", key, value)
			}
		}
		os.Exit(0)
	}

	if *helpFlag {
		fmt.Println("Redis Connection Check Tool")
		fmt.Println("===========================")
		fmt.Println("Usage: conn-check [--config=file] [--host=host] [--port=port]")
		fmt.Println("")
		fmt.Println("Flags:")
		fmt.Println("  --config    Options file; flags are ignored when set")
		fmt.Println("  --host      Redis host (default localhost)")
		fmt.Println("  --port      Redis port (default 6379)")
		fmt.Println("  --password  Password sent with AUTH after connecting")
		fmt.Println("  --database  Database selected after connecting")
		fmt.Println("  --timeout   Connect timeout in milliseconds (default 5000)")
		fmt.Println("  --watch     Supervise the connection until interrupted")
		fmt.Println("  --version   Show version information")
		fmt.Println("")
		fmt.Println("Example:")
		fmt.Println("  conn-check --host=localhost --port=6380 --database=3 --watch")
		os.Exit(0)
	}

	opts, err := buildOptions(*configPath, *host, *port, *password, *database, *timeout)
	if err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	if *watch {
		runWatch(opts)
		return
	}

	runCheck(opts)
}

// buildOptions resolves the connection options from a file or the
// individual flags
func buildOptions(configPath, host string, port int, password, database string, timeout int) (*redisconn.MergedOptions, error) {
	if configPath != "" {
		opts, passthrough, err := redisconn.LoadOptionsFile(configPath)
		if err != nil {
			return nil, err
		}
		for key := range passthrough {
			log.Printf("Ignoring unrecognized behavior option %q", key)
		}
		return opts, nil
	}

	connOpts := map[string]interface{}{
		"host": host,
		"port": port,
	}
	if password != "" {
		connOpts["password"] = password
	}
	if database != "" {
		connOpts["database"] = database
	}

	opts, _, err := redisconn.SanitizeOptions(connOpts, map[string]interface{}{
		"timeout": timeout,
	})
	return opts, err
}

// runCheck performs a single connect-and-handshake round trip and
// reports what it measured
func runCheck(opts *redisconn.MergedOptions) {
	fmt.Printf("Connecting to %s...\n", opts.Addr())

	conn, err := redisconn.Connect(opts)
	if err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer conn.Close()

	fmt.Println("Connection established")
	fmt.Printf("  Remote address:     %s\n", conn.RemoteAddr())
	fmt.Printf("  Dial duration:      %s\n", conn.DialDuration())
	fmt.Printf("  Handshake duration: %s\n", conn.HandshakeDuration())
	fmt.Printf("  Read buffer:        %d bytes\n", conn.BufferSize())
	if opts.Password != "" {
		fmt.Println("  AUTH:               ok")
	}
	if opts.Database != "" {
		fmt.Printf("  SELECT %s:           ok\n", opts.Database)
	}
}

// runWatch supervises the connection until the process is interrupted,
// logging lifecycle events through zap
func runWatch(opts *redisconn.MergedOptions) {
	zapLog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zapLog.Sync()

	connector, err := redisconn.NewConnector(
		opts.ConnectionMap(),
		opts.BehaviorMap(),
		redisconn.WithLogger(redisconn.NewZapLogger(zapLog)),
	)
	if err != nil {
		log.Fatalf("Failed to build connector: %v", err)
	}

	if err := connector.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start connector: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-connector.Done():
	}

	if err := connector.Stop(); err != nil {
		log.Printf("Stop: %v", err)
	}

	stats := connector.Stats()
	fmt.Printf("Connections: %d, failures: %d, disconnections: %d\n",
		stats.ConnectCount, stats.FailureCount, stats.Disconnections)
	if stats.LastError != "" {
		fmt.Printf("Last error: %s\n", stats.LastError)
	}
}
