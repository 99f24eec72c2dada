package spec

type IsolationSpec struct {
	Mode string `yaml:"mode"` // "flat" or "isolated"
	// Actions loaded into an isolated environment; empty loads all.
	Actions []string `yaml:"actions"`
}

type TransformSpec struct {
	Name             string         `yaml:"name"`
	Action           string         `yaml:"action"`
	From             map[string]any `yaml:"from"`
	To               map[string]any `yaml:"to"`
	Params           map[string]any `yaml:"params"`
	Isolation        IsolationSpec  `yaml:"isolation"`
	InternalServices bool           `yaml:"internal_services"`
}

type workerSection struct {
	Address   string `yaml:"address"` // e.g. "localhost:7070"
	TimeoutMS int    `yaml:"timeout_ms"`
}

type File struct {
	SchemaVersion string `yaml:"schema_version"`

	// Workspace is the root of every transformation's output directories.
	Workspace   string        `yaml:"workspace"`
	Parallelism int           `yaml:"parallelism"`
	Worker      workerSection `yaml:"worker"`

	Transforms []TransformSpec `yaml:"transforms"`
}
