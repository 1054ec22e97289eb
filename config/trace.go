package config

// TraceConfig selects where delivery traces are recorded.
type TraceConfig struct {
	// Store names a trace store backend: "memory" or "sqlite".
	// Empty disables tracing.
	Store string `yaml:"store" json:"store"`

	// Path is the database file for the sqlite backend.
	Path string `yaml:"path" json:"path"`
}

func DefaultTraceConfig() TraceConfig {
	return TraceConfig{
		Path: "flow-trace.db",
	}
}

func (c *TraceConfig) Merge(source *TraceConfig) {
	if source.Store != "" {
		c.Store = source.Store
	}

	if source.Path != "" {
		c.Path = source.Path
	}
}
