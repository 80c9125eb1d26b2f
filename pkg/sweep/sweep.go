package sweep

import (
	"fmt"
	"strings"

	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/edp1096/toy-mna/pkg/netlist"
	"github.com/edp1096/toy-mna/pkg/solver"
)

// Func is a scalar function of the swept element value.
type Func func(value float64) (float64, error)

type Quantity int

const (
	NodeVoltage  Quantity = iota
	ElementPower          // power dissipated in the swept resistor
)

func ParseQuantity(s string) (Quantity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "voltage", "v":
		return NodeVoltage, nil
	case "", "power", "p":
		return ElementPower, nil
	default:
		return 0, fmt.Errorf("unknown sweep quantity %q", s)
	}
}

// Sweeper observes one node while one element's value varies. The base
// circuit is never modified; each evaluation patches, builds and solves a
// fresh copy.
type Sweeper struct {
	base       *circuit.Circuit
	element    netlist.Element
	node       int
	method     solver.Method
	solverOpts []solver.Option
	workers    int
}

type Option func(*Sweeper)

func WithMethod(m solver.Method) Option { return func(s *Sweeper) { s.method = m } }
func WithSolverOptions(opts ...solver.Option) Option {
	return func(s *Sweeper) { s.solverOpts = append(s.solverOpts, opts...) }
}
func WithWorkers(n int) Option { return func(s *Sweeper) { s.workers = n } }

func New(ckt *circuit.Circuit, element string, node int, opts ...Option) (*Sweeper, error) {
	elem, err := ckt.Element(element)
	if err != nil {
		return nil, err
	}
	if !ckt.HasNode(node) {
		return nil, &circuit.TopologyError{Reason: fmt.Sprintf("node %d is not part of the circuit (nodes %v)", node, ckt.Nodes())}
	}

	s := &Sweeper{
		base:    ckt,
		element: elem,
		node:    node,
		method:  solver.Direct,
		workers: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Sweeper) Element() netlist.Element { return s.element }
func (s *Sweeper) Node() int                { return s.node }

// Patch returns the base circuit with the swept element set to value.
func (s *Sweeper) Patch(value float64) (*circuit.Circuit, error) {
	return s.base.WithValue(s.element.Name, value)
}

func (s *Sweeper) Solve(value float64) (*solver.Solution, error) {
	ckt, err := s.Patch(value)
	if err != nil {
		return nil, err
	}
	sys, err := ckt.Build()
	if err != nil {
		return nil, err
	}
	sol, err := solver.Solve(sys, s.method, s.solverOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s=%g: %w", s.element.Name, value, err)
	}
	return sol, nil
}

// Eval returns the observed node voltage for the given element value.
func (s *Sweeper) Eval(value float64) (float64, error) {
	sol, err := s.Solve(value)
	if err != nil {
		return 0, err
	}
	return sol.Voltage(s.node), nil
}

// EvalPower returns the power dissipated in the swept resistor, (Va-Vb)²/R.
func (s *Sweeper) EvalPower(value float64) (float64, error) {
	if s.element.Kind != netlist.Resistor {
		return 0, fmt.Errorf("power objective requires a resistor, %s is %v", s.element.Name, s.element.Kind)
	}
	sol, err := s.Solve(value)
	if err != nil {
		return 0, err
	}
	vab := sol.Voltage(s.element.NodeA) - sol.Voltage(s.element.NodeB)
	return vab * vab / value, nil
}

func (s *Sweeper) Func(q Quantity) Func {
	if q == ElementPower {
		return s.EvalPower
	}
	return s.Eval
}
