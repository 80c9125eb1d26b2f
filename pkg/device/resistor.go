package device

import (
	"fmt"

	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/edp1096/toy-mna/pkg/netlist"
)

type Resistor struct {
	BaseDevice
}

func NewResistor(name string, value float64) *Resistor {
	return &Resistor{
		BaseDevice: BaseDevice{
			Name:  name,
			Nodes: make([]int, 2),
			Value: value,
		},
	}
}

func (r *Resistor) GetType() netlist.Kind { return netlist.Resistor }

func (r *Resistor) Stamp(matrix matrix.DeviceMatrix) error {
	n1, n2, err := twoNodes(&r.BaseDevice)
	if err != nil {
		return err
	}
	if r.Value == 0 {
		return fmt.Errorf("resistor %s: zero resistance", r.Name)
	}

	g := 1.0 / r.Value // Conductance. G = 1/R

	if n1 != 0 {
		matrix.AddElement(n1, n1, g)
		if n2 != 0 {
			matrix.AddElement(n1, n2, -g)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			matrix.AddElement(n2, n1, -g)
		}
		matrix.AddElement(n2, n2, g)
	}

	return nil
}
