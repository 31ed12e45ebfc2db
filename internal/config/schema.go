package config

// NetworkConfig is the top-level YAML structure.
type NetworkConfig struct {
	Version string      `yaml:"version"`
	Engine  EngineConf  `yaml:"engine"`
	Network NetworkSpec `yaml:"network"`
}

// EngineConf holds tunable tracing settings.
type EngineConf struct {
	TraceWorkers   int    `yaml:"trace_workers"`
	QueueDepth     int    `yaml:"queue_depth"`
	TraceTimeoutMs int    `yaml:"trace_timeout_ms"`
	QueueOrder     string `yaml:"queue_order"` // "fifo" | "lifo"
}

// NetworkSpec describes the equipment and how it is wired.
type NetworkSpec struct {
	Equipment   []EquipmentDef  `yaml:"equipment"`
	Connections []ConnectionDef `yaml:"connections"`
	Feeders     []FeederDef     `yaml:"feeders"`
	LvFeeders   []FeederDef     `yaml:"lv_feeders"`
}

// EquipmentDef is one piece of conducting equipment. Terminals are numbered
// from 1 in the order listed; terminal ids are "<id>-t<n>".
type EquipmentDef struct {
	ID            string        `yaml:"id"`
	Name          string        `yaml:"name"`
	Kind          string        `yaml:"kind"`
	BaseVoltage   int           `yaml:"base_voltage"`
	Substation    string        `yaml:"substation"`
	NormallyOpen  bool          `yaml:"normally_open"`
	CurrentlyOpen *bool         `yaml:"currently_open"` // defaults to normally_open
	Terminals     []TerminalDef `yaml:"terminals"`
}

// TerminalDef holds per-terminal attributes.
type TerminalDef struct {
	Phases        string `yaml:"phases"`
	RatedVoltage  int    `yaml:"rated_voltage"`
	NormalPhases  string `yaml:"normal_phases"`  // observed phases, positional
	CurrentPhases string `yaml:"current_phases"` // defaults to normal_phases
}

// ConnectionDef wires terminals to one connectivity node.
type ConnectionDef struct {
	Node      string   `yaml:"node"`
	Terminals []string `yaml:"terminals"`
}

// FeederDef names a feeder and its head terminal.
type FeederDef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Head string `yaml:"head"`
}
