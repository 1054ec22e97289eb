package config

import "time"

// DebuggerConfig defines the debug control plane listener.
type DebuggerConfig struct {
	// Addr is the HTTP listen address for the Connect service and event stream.
	Addr string `yaml:"addr" json:"addr"`

	// StreamPath is the websocket path serving live router events.
	StreamPath string `yaml:"stream_path" json:"stream_path"`

	// StreamBuffer is the per-client event buffer; events beyond it are dropped.
	StreamBuffer int `yaml:"stream_buffer" json:"stream_buffer"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

func DefaultDebuggerConfig() DebuggerConfig {
	return DebuggerConfig{
		Addr:            "127.0.0.1:1880",
		StreamPath:      "/events",
		StreamBuffer:    64,
		ShutdownTimeout: 5 * time.Second,
	}
}

func (c *DebuggerConfig) Merge(source *DebuggerConfig) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}

	if source.StreamPath != "" {
		c.StreamPath = source.StreamPath
	}

	if source.StreamBuffer > 0 {
		c.StreamBuffer = source.StreamBuffer
	}

	if source.ShutdownTimeout > 0 {
		c.ShutdownTimeout = source.ShutdownTimeout
	}
}
