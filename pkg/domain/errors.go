package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when a component state is outside its kind's enumeration.
var ErrInvalidState = errors.New("invalid state")

// ErrInvalidPayload is returned when a component payload does not match its kind.
var ErrInvalidPayload = errors.New("invalid payload")

// ErrUnknownNode is returned when a handle does not belong to the graph.
var ErrUnknownNode = errors.New("unknown node")

// ErrMissingRoot is returned when a traversal is requested on a graph without a root.
var ErrMissingRoot = errors.New("missing root")

// ErrGraphBusy is returned when a graph is already leased to another traversal.
var ErrGraphBusy = errors.New("graph is leased to another traversal")

// ErrGraphModified is returned by a walk whose graph gained nodes while leased.
var ErrGraphModified = errors.New("graph structure changed during traversal")

// ErrLeaseReleased is returned when a released lease is used again.
var ErrLeaseReleased = errors.New("lease already released")

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ComponentError describes a rejected component construction.
type ComponentError struct {
	Kind  Kind
	Field string
	Value any
	Err   error
}

func (e *ComponentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Value == nil {
		return fmt.Sprintf("%s.%s: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("%s.%s: %v (got %v)", e.Kind, e.Field, e.Err, e.Value)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// NodeError ties an error to a node handle.
type NodeError struct {
	Handle NodeHandle
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %d: %v", e.Handle, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
