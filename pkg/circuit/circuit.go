package circuit

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/edp1096/toy-mna/pkg/device"
	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/edp1096/toy-mna/pkg/netlist"
)

// Circuit is an immutable, ordered set of elements plus the derived set of
// non-ground nodes. Patching returns a new Circuit.
type Circuit struct {
	elements []netlist.Element
	nodes    []int
	byName   map[string]int
}

func New(elements []netlist.Element) (*Circuit, error) {
	c := &Circuit{
		elements: append([]netlist.Element(nil), elements...),
		byName:   make(map[string]int, len(elements)),
	}

	nodeSet := make(map[int]struct{})
	for i, elem := range c.elements {
		if err := validate(elem); err != nil {
			return nil, err
		}
		key := strings.ToUpper(elem.Name)
		if _, dup := c.byName[key]; dup {
			return nil, &TopologyError{Element: elem.Name, Reason: "duplicate element name"}
		}
		c.byName[key] = i

		for _, node := range []int{elem.NodeA, elem.NodeB} {
			if node < 0 {
				return nil, &TopologyError{Element: elem.Name, Reason: fmt.Sprintf("negative node %d", node)}
			}
			if node != 0 {
				nodeSet[node] = struct{}{}
			}
		}
	}

	c.nodes = make([]int, 0, len(nodeSet))
	for node := range nodeSet {
		c.nodes = append(c.nodes, node)
	}
	sort.Ints(c.nodes)

	return c, nil
}

// Parse is netlist.Parse followed by New.
func Parse(input string) (*Circuit, error) {
	elements, err := netlist.Parse(input)
	if err != nil {
		return nil, err
	}
	return New(elements)
}

func validate(elem netlist.Element) error {
	if math.IsNaN(elem.Value) || math.IsInf(elem.Value, 0) {
		return &ValueError{Element: elem.Name, Value: elem.Value, Reason: "value must be finite"}
	}
	if elem.Kind == netlist.Resistor && elem.Value == 0 {
		return &ValueError{Element: elem.Name, Value: elem.Value, Reason: "resistor value must be non-zero"}
	}
	return nil
}

// Elements returns a copy of the element list in netlist order.
func (c *Circuit) Elements() []netlist.Element {
	return append([]netlist.Element(nil), c.elements...)
}

func (c *Circuit) Len() int {
	return len(c.elements)
}

// Nodes returns the ascending non-ground node identifiers.
func (c *Circuit) Nodes() []int {
	return append([]int(nil), c.nodes...)
}

func (c *Circuit) HasNode(node int) bool {
	if node == 0 {
		return true
	}
	idx := sort.SearchInts(c.nodes, node)
	return idx < len(c.nodes) && c.nodes[idx] == node
}

// Element looks up an element by name, case-insensitively.
func (c *Circuit) Element(name string) (netlist.Element, error) {
	idx, ok := c.byName[strings.ToUpper(name)]
	if !ok {
		return netlist.Element{}, &TopologyError{Element: name, Reason: "element not found"}
	}
	return c.elements[idx], nil
}

// WithValue returns a new Circuit in which the named element carries value.
// The receiver is left untouched.
func (c *Circuit) WithValue(name string, value float64) (*Circuit, error) {
	idx, ok := c.byName[strings.ToUpper(name)]
	if !ok {
		return nil, &TopologyError{Element: name, Reason: "element not found"}
	}

	patched := c.elements[idx]
	patched.Value = value
	if err := validate(patched); err != nil {
		return nil, err
	}

	elements := append([]netlist.Element(nil), c.elements...)
	elements[idx] = patched

	return &Circuit{
		elements: elements,
		nodes:    c.nodes,
		byName:   c.byName,
	}, nil
}

func (c *Circuit) String() string {
	return netlist.Format(c.elements)
}

// Build assembles the MNA system. Node rows follow the ascending node order,
// voltage source rows follow netlist order after all node rows.
func (c *Circuit) Build() (*matrix.System, error) {
	if len(c.nodes) == 0 {
		return nil, &TopologyError{Reason: fmt.Sprintf("no non-ground nodes referenced by %d element(s)", len(c.elements))}
	}

	var sources []string
	for _, elem := range c.elements {
		if elem.Kind == netlist.VoltageSource {
			sources = append(sources, elem.Name)
		}
	}

	sys := matrix.NewSystem(c.nodes, sources)

	branch := 0
	for _, elem := range c.elements {
		dev, err := device.CreateDevice(elem)
		if err != nil {
			return nil, fmt.Errorf("creating device %s: %w", elem.Name, err)
		}
		dev.SetNodes([]int{sys.NodeIndex(elem.NodeA), sys.NodeIndex(elem.NodeB)})

		if v, ok := dev.(*device.VoltageSource); ok {
			v.SetBranchIndex(sys.BranchIndex(branch))
			branch++
		}

		if err := dev.Stamp(sys); err != nil {
			return nil, fmt.Errorf("stamping device %s: %w", dev.GetName(), err)
		}
	}

	return sys, nil
}
