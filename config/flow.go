package config

// NodeConfig declares one node and its outgoing wires. Wires holds one entry
// per output port, each listing destination node ids in delivery order.
type NodeConfig struct {
	ID       string         `yaml:"id" json:"id"`
	Type     string         `yaml:"type" json:"type"`
	Wires    [][]string     `yaml:"wires" json:"wires,omitempty"`
	Settings map[string]any `yaml:"settings" json:"settings,omitempty"`
}

// FlowConfig is a graph definition: the nodes to create and how they are wired.
type FlowConfig struct {
	Name  string       `yaml:"name" json:"name"`
	Nodes []NodeConfig `yaml:"nodes" json:"nodes"`
}

func DefaultFlowConfig() FlowConfig {
	return FlowConfig{
		Name: "flow",
	}
}

func (c *FlowConfig) Merge(source *FlowConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if len(source.Nodes) > 0 {
		c.Nodes = source.Nodes
	}
}

// Node returns the node declared under id.
func (c *FlowConfig) Node(id string) (NodeConfig, bool) {
	for _, n := range c.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeConfig{}, false
}
