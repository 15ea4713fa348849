package redisconn

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// optionsFile is the on-disk layout of a connection options document.
// The connection and behavior sections are free-form maps that go
// through SanitizeOptions unchanged, so a file can carry passthrough
// behavior keys just like programmatic callers can. The socket section
// names the tuning knobs that cannot be expressed as plain values.
type optionsFile struct {
	Connection map[string]interface{} `yaml:"connection" json:"connection"`
	Behavior   map[string]interface{} `yaml:"behavior" json:"behavior"`
	Socket     *socketOptsFile        `yaml:"socket" json:"socket"`
}

// socketOptsFile lists the socket tuning flags expressible in a file.
// Durations are in milliseconds, linger in seconds.
type socketOptsFile struct {
	NoDelay         *bool `yaml:"no_delay" json:"no_delay"`
	KeepAlive       *bool `yaml:"keepalive" json:"keepalive"`
	KeepAlivePeriod *int  `yaml:"keepalive_period" json:"keepalive_period"`
	Linger          *int  `yaml:"linger" json:"linger"`
	SendBuffer      *int  `yaml:"send_buffer" json:"send_buffer"`
	ReceiveBuffer   *int  `yaml:"receive_buffer" json:"receive_buffer"`
}

// LoadOptionsFile reads an options document from disk and sanitizes
// it. Files ending in .json parse as JSON, everything else as YAML.
func LoadOptionsFile(path string) (*MergedOptions, map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read options file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseOptionsJSON(data)
	}
	return ParseOptionsYAML(data)
}

// ParseOptionsYAML sanitizes an options document from YAML bytes
func ParseOptionsYAML(data []byte) (*MergedOptions, map[string]interface{}, error) {
	var file optionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("unmarshal options: %w", err)
	}
	return sanitizeFile(&file)
}

// ParseOptionsJSON sanitizes an options document from JSON bytes
func ParseOptionsJSON(data []byte) (*MergedOptions, map[string]interface{}, error) {
	var file optionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("unmarshal options: %w", err)
	}
	return sanitizeFile(&file)
}

func sanitizeFile(file *optionsFile) (*MergedOptions, map[string]interface{}, error) {
	behavior := file.Behavior
	if behavior == nil {
		behavior = make(map[string]interface{})
	}
	if file.Socket != nil {
		behavior["socket_opts"] = file.Socket.socketOpts()
	}
	return SanitizeOptions(file.Connection, behavior)
}

// socketOpts converts the file section into tuning options, applied in
// a fixed order
func (s *socketOptsFile) socketOpts() []SocketOption {
	var opts []SocketOption
	if s.NoDelay != nil {
		opts = append(opts, WithNoDelay(*s.NoDelay))
	}
	if s.KeepAlive != nil {
		opts = append(opts, WithKeepAlive(*s.KeepAlive))
	}
	if s.KeepAlivePeriod != nil {
		opts = append(opts, WithKeepAlivePeriod(time.Duration(*s.KeepAlivePeriod)*time.Millisecond))
	}
	if s.Linger != nil {
		opts = append(opts, WithLinger(*s.Linger))
	}
	if s.SendBuffer != nil {
		opts = append(opts, WithSendBuffer(*s.SendBuffer))
	}
	if s.ReceiveBuffer != nil {
		opts = append(opts, WithReceiveBuffer(*s.ReceiveBuffer))
	}
	return opts
}
