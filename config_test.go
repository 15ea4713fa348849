package redisconn_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	redisconn "github.com/raniellyferreira/redis-connkit"
)

const optionsYAML = `
connection:
  host: redis.example.com
  port: 6380
  password: secret
  database: 3
behavior:
  sync_connect: true
  backoff_initial: 250
  tcp_user_timeout: 5000
  log:
    reconnection: debug
socket:
  no_delay: true
  keepalive_period: 30000
`

func TestParseOptionsYAML(t *testing.T) {
	opts, passthrough, err := redisconn.ParseOptionsYAML([]byte(optionsYAML))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if opts.Host != "redis.example.com" {
		t.Errorf("Wrong host: %s", opts.Host)
	}
	if opts.Port != 6380 {
		t.Errorf("Wrong port: %d", opts.Port)
	}
	if opts.Password != "secret" {
		t.Errorf("Wrong password: %q", opts.Password)
	}
	if opts.Database != "3" {
		t.Errorf("Wrong database: %q", opts.Database)
	}
	if !opts.SyncConnect {
		t.Error("Expected sync_connect true")
	}
	if opts.BackoffInitial != 250*time.Millisecond {
		t.Errorf("Wrong backoff_initial: %v", opts.BackoffInitial)
	}
	if got := opts.LogLevelFor(redisconn.EventReconnection); got != redisconn.LevelDebug {
		t.Errorf("Wrong reconnection level: %s", got)
	}
	if len(opts.SocketOpts) != 2 {
		t.Errorf("Expected 2 socket options, got %d", len(opts.SocketOpts))
	}
	if passthrough["tcp_user_timeout"] != 5000 {
		t.Errorf("Wrong passthrough: %v", passthrough)
	}
}

func TestParseOptionsJSON(t *testing.T) {
	doc := `{
		"connection": {"host": "redis.example.com", "port": 6380, "database": 2},
		"behavior": {"timeout": 1500},
		"socket": {"no_delay": true}
	}`

	opts, _, err := redisconn.ParseOptionsJSON([]byte(doc))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if opts.Port != 6380 {
		t.Errorf("Wrong port: %d", opts.Port)
	}
	if opts.Database != "2" {
		t.Errorf("Wrong database: %q", opts.Database)
	}
	if opts.Timeout != 1500*time.Millisecond {
		t.Errorf("Wrong timeout: %v", opts.Timeout)
	}
	if len(opts.SocketOpts) != 1 {
		t.Errorf("Expected 1 socket option, got %d", len(opts.SocketOpts))
	}
}

func TestParseOptionsJSONFractionalPort(t *testing.T) {
	doc := `{"connection": {"port": 6379.5}}`

	_, _, err := redisconn.ParseOptionsJSON([]byte(doc))

	var cfgErr *redisconn.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Kind != redisconn.ConfigInvalidPort {
		t.Errorf("Expected invalid-port, got %s", cfgErr.Kind)
	}
}

func TestParseOptionsYAMLEmpty(t *testing.T) {
	opts, passthrough, err := redisconn.ParseOptionsYAML(nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if opts.Host != "localhost" || opts.Port != 6379 {
		t.Errorf("Expected defaults, got %s:%d", opts.Host, opts.Port)
	}
	if len(passthrough) != 0 {
		t.Errorf("Expected no passthrough, got %v", passthrough)
	}
}

func TestParseOptionsYAMLUnknownConnectionKey(t *testing.T) {
	doc := "connection:\n  foo: 1\n"

	_, _, err := redisconn.ParseOptionsYAML([]byte(doc))

	var cfgErr *redisconn.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Kind != redisconn.ConfigUnknownKey || cfgErr.Key != "foo" {
		t.Errorf("Wrong error: kind=%s key=%s", cfgErr.Kind, cfgErr.Key)
	}
}

func TestParseOptionsYAMLMalformed(t *testing.T) {
	_, _, err := redisconn.ParseOptionsYAML([]byte("connection: [unclosed"))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "unmarshal options") {
		t.Errorf("Expected unmarshal error, got %q", err.Error())
	}
}

func TestLoadOptionsFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "redis.yaml")
	if err := os.WriteFile(yamlPath, []byte(optionsYAML), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	opts, _, err := redisconn.LoadOptionsFile(yamlPath)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if opts.Host != "redis.example.com" {
		t.Errorf("Wrong host: %s", opts.Host)
	}

	jsonPath := filepath.Join(dir, "redis.json")
	doc := `{"connection": {"host": "json.example.com"}}`
	if err := os.WriteFile(jsonPath, []byte(doc), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	opts, _, err = redisconn.LoadOptionsFile(jsonPath)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if opts.Host != "json.example.com" {
		t.Errorf("Wrong host: %s", opts.Host)
	}
}

func TestLoadOptionsFileMissing(t *testing.T) {
	_, _, err := redisconn.LoadOptionsFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "read options file") {
		t.Errorf("Expected read error, got %q", err.Error())
	}
}
