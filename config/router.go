package config

// RouterConfig defines configuration for a router instance.
type RouterConfig struct {
	// Name identifies the router in logs and events.
	Name string `yaml:"name" json:"name"`

	// Observer names a registered observability observer ("noop", "slog", ...).
	Observer string `yaml:"observer" json:"observer"`

	// QueueCapacity is the initial send queue capacity. The queue grows on demand.
	QueueCapacity int `yaml:"queue_capacity" json:"queue_capacity"`

	// ResetRoutesOnInit clears the routing table when collaborators are
	// rebound with Init. By default routes survive re-initialization.
	ResetRoutesOnInit bool `yaml:"reset_routes_on_init" json:"reset_routes_on_init"`
}

// DefaultRouterConfig returns a RouterConfig with sensible defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		Name:          "default",
		Observer:      "slog",
		QueueCapacity: 64,
	}
}

func (c *RouterConfig) Merge(source *RouterConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}

	if source.QueueCapacity > 0 {
		c.QueueCapacity = source.QueueCapacity
	}

	if source.ResetRoutesOnInit {
		c.ResetRoutesOnInit = source.ResetRoutesOnInit
	}
}
