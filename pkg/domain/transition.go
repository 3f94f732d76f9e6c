package domain

// Transition labels an edge. It carries no guard or effect: every outgoing
// edge is followed during a walk.
type Transition struct {
	Name string `json:"name" yaml:"name"`
}
