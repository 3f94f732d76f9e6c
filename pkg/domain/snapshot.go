package domain

import (
	"encoding/json"
	"fmt"
)

// Snapshot is one immutable, complete serialization of a graph taken right
// after a node was visited.
type Snapshot struct {
	Sequence int
	Node     NodeHandle
	data     []byte
}

// NewSnapshot wraps already-encoded graph bytes. The bytes are copied.
func NewSnapshot(seq int, node NodeHandle, data []byte) Snapshot {
	return Snapshot{Sequence: seq, Node: node, data: append([]byte(nil), data...)}
}

// Bytes returns a copy of the serialized graph.
func (s Snapshot) Bytes() []byte {
	return append([]byte(nil), s.data...)
}

// Size is the length of the serialized graph in bytes.
func (s Snapshot) Size() int { return len(s.data) }

// Graph decodes the snapshot into an independent graph.
func (s Snapshot) Graph() (*Graph, error) {
	g, err := DecodeGraph(s.data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %d: %w", s.Sequence, err)
	}
	return g, nil
}

type snapshotRecord struct {
	Sequence int             `json:"sequence"`
	Node     NodeHandle      `json:"node"`
	Graph    json.RawMessage `json:"graph"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotRecord{Sequence: s.Sequence, Node: s.Node, Graph: s.data})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*s = NewSnapshot(rec.Sequence, rec.Node, rec.Graph)
	return nil
}

// Log is the ordered, append-only sequence of snapshots produced by a walk.
type Log struct {
	entries []Snapshot
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// LogFrom rebuilds a log from stored snapshots, which must be numbered 0..n-1 in order.
func LogFrom(entries ...Snapshot) (*Log, error) {
	for i, s := range entries {
		if s.Sequence != i {
			return nil, fmt.Errorf("snapshot log out of order: sequence %d at position %d", s.Sequence, i)
		}
	}
	return &Log{entries: append([]Snapshot(nil), entries...)}, nil
}

// Record serializes the entire graph and appends it, attributed to node.
func (l *Log) Record(g *Graph, node NodeHandle) error {
	data, err := EncodeGraph(g)
	if err != nil {
		return err
	}
	l.entries = append(l.entries, Snapshot{Sequence: len(l.entries), Node: node, data: data})
	return nil
}

func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// At returns the snapshot with the given sequence number.
func (l *Log) At(seq int) (Snapshot, bool) {
	if l == nil || seq < 0 || seq >= len(l.entries) {
		return Snapshot{}, false
	}
	return l.entries[seq], true
}

// Last returns the most recent snapshot.
func (l *Log) Last() (Snapshot, bool) {
	return l.At(l.Len() - 1)
}

// Entries returns the snapshots in order. The slice is a copy.
func (l *Log) Entries() []Snapshot {
	if l == nil {
		return nil
	}
	out := make([]Snapshot, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clone returns an independent log with the same entries.
func (l *Log) Clone() *Log {
	return &Log{entries: l.Entries()}
}

func (l *Log) MarshalJSON() ([]byte, error) {
	entries := l.entries
	if entries == nil {
		entries = []Snapshot{}
	}
	return json.Marshal(entries)
}

func (l *Log) UnmarshalJSON(data []byte) error {
	var entries []Snapshot
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	restored, err := LogFrom(entries...)
	if err != nil {
		return err
	}
	*l = *restored
	return nil
}
