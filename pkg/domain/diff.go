package domain

// GraphDiff represents the changes between two snapshots of the same plan.
// It is designed to be serialized to JSON for step-by-step updates on a client.
type GraphDiff struct {
	// Visited lists handles whose visited flag flipped to true, in handle order.
	Visited []NodeHandle `json:"visited"`

	// Root is set when the designated root changed.
	Root *NodeHandle `json:"root,omitempty"`
}

// Diff calculates the difference between prev and next.
// If prev is nil, every visited node of next is reported (initial load).
// It returns nil when nothing changed.
func Diff(prev, next *Graph) *GraphDiff {
	if next == nil {
		return nil
	}

	diff := &GraphDiff{}
	for _, n := range next.Nodes() {
		if !n.Component.Visited() {
			continue
		}
		if prev != nil {
			old, err := prev.Node(n.Handle)
			if err == nil && old.Visited() {
				continue
			}
		}
		diff.Visited = append(diff.Visited, n.Handle)
	}

	nextRoot, nextOK := next.Root()
	if prev == nil {
		if nextOK {
			diff.Root = &nextRoot
		}
	} else if prevRoot, prevOK := prev.Root(); prevOK != nextOK || prevRoot != nextRoot {
		if nextOK {
			diff.Root = &nextRoot
		}
	}

	if len(diff.Visited) == 0 && diff.Root == nil {
		return nil
	}
	return diff
}
