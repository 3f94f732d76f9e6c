package loam

// NodeMetadata is the frontmatter (or JSON/YAML body) of one node document.
// It uses "mapstructure" tags to match the keys written in the files.
type NodeMetadata struct {
	// Key overrides the document name as the node's key within the plan.
	Key  string `json:"key" mapstructure:"key"`
	Kind string `json:"kind" mapstructure:"kind"`

	// ID and Value stay untyped: strict repositories yield json.Number and
	// the component constructors do the numeric checks.
	ID    any    `json:"id" mapstructure:"id"`
	Name  string `json:"name" mapstructure:"name"`
	State string `json:"state" mapstructure:"state"`
	Value any    `json:"value" mapstructure:"value"`

	// Root marks the walk's starting node. A root-kind document is the root
	// without it.
	Root bool `json:"root" mapstructure:"root"`

	Transitions []LoaderTransition `json:"transitions" mapstructure:"transitions"`
	// To is shorthand for a single unlabeled transition.
	To string `json:"to" mapstructure:"to"`
}

// LoaderTransition is an outgoing edge as declared in a document.
type LoaderTransition struct {
	To   string `json:"to" mapstructure:"to"`
	Name string `json:"name" mapstructure:"name"`
}
