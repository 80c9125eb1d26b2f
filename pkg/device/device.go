package device

import (
	"fmt"

	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/edp1096/toy-mna/pkg/netlist"
)

type Device interface {
	GetName() string
	GetType() netlist.Kind
	GetNodes() []int
	GetValue() float64
	SetNodes(nodes []int)
	Stamp(matrix matrix.DeviceMatrix) error
}

// BaseDevice carries the matrix row indices of the terminals (0 for ground),
// not the physical node numbers.
type BaseDevice struct {
	Name  string
	Nodes []int
	Value float64
}

func (d *BaseDevice) GetName() string {
	return d.Name
}

func (d *BaseDevice) GetNodes() []int {
	return d.Nodes
}

func (d *BaseDevice) GetValue() float64 {
	return d.Value
}

func (d *BaseDevice) SetNodes(nodes []int) {
	d.Nodes = nodes
}

// CreateDevice builds the stamping device for a netlist element.
func CreateDevice(elem netlist.Element) (Device, error) {
	switch elem.Kind {
	case netlist.Resistor:
		return NewResistor(elem.Name, elem.Value), nil
	case netlist.VoltageSource:
		return NewDCVoltageSource(elem.Name, elem.Value), nil
	case netlist.CurrentSource:
		return NewDCCurrentSource(elem.Name, elem.Value), nil
	default:
		return nil, fmt.Errorf("unsupported element kind %v for %s", elem.Kind, elem.Name)
	}
}

func twoNodes(d *BaseDevice) (int, int, error) {
	if len(d.Nodes) != 2 {
		return 0, 0, fmt.Errorf("%s: requires exactly 2 nodes", d.Name)
	}
	return d.Nodes[0], d.Nodes[1], nil
}
