package circuit

import (
	"errors"
	"fmt"
)

var (
	// ErrTopology matches *TopologyError.
	ErrTopology = errors.New("circuit: topology error")
	// ErrValue matches *ValueError.
	ErrValue = errors.New("circuit: invalid element value")
)

// TopologyError reports a circuit with no referenceable nodes, or a lookup of
// an element that does not exist.
type TopologyError struct {
	Element string
	Reason  string
}

func (e *TopologyError) Error() string {
	if e.Element == "" {
		return fmt.Sprintf("circuit: %s", e.Reason)
	}
	return fmt.Sprintf("circuit: element %s: %s", e.Element, e.Reason)
}

func (e *TopologyError) Is(target error) bool { return target == ErrTopology }

type ValueError struct {
	Element string
	Value   float64
	Reason  string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("circuit: element %s value %g: %s", e.Element, e.Value, e.Reason)
}

func (e *ValueError) Is(target error) bool { return target == ErrValue }
