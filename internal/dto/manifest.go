package dto

// Manifest is the on-disk shape of a command manifest.
// It uses "mapstructure" tags so the same struct decodes from YAML, JSON or TOML trees.
type Manifest struct {
	Version  string        `json:"version" mapstructure:"version"`
	Commands []CommandSpec `json:"commands" mapstructure:"commands"`
}

// CommandSpec declares one command. Handler names a function in the handler registry.
type CommandSpec struct {
	Route       string         `json:"route" mapstructure:"route"`
	Description string         `json:"description" mapstructure:"description"`
	Permission  string         `json:"permission" mapstructure:"permission"`
	Handler     string         `json:"handler" mapstructure:"handler"`
	Async       bool           `json:"async" mapstructure:"async"`
	Arguments   []ArgumentSpec `json:"arguments" mapstructure:"arguments"`
}

// ArgumentSpec declares one argument and the mapper that parses it.
type ArgumentSpec struct {
	Name        string `json:"name" mapstructure:"name"`
	Kind        string `json:"kind" mapstructure:"kind"`
	Shorthand   string `json:"shorthand" mapstructure:"shorthand"`
	Description string `json:"description" mapstructure:"description"`

	// Mapper Config
	Type    string   `json:"type" mapstructure:"type"`
	Min     *float64 `json:"min" mapstructure:"min"`
	Max     *float64 `json:"max" mapstructure:"max"`
	Pattern string   `json:"pattern" mapstructure:"pattern"`
	Options []string `json:"options" mapstructure:"options"`
	Lower   bool     `json:"lower" mapstructure:"lower"`
}
