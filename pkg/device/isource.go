package device

import (
	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/edp1096/toy-mna/pkg/netlist"
)

type CurrentSource struct {
	BaseDevice
}

func NewDCCurrentSource(name string, value float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: BaseDevice{
			Name:  name,
			Nodes: make([]int, 2),
			Value: value,
		},
	}
}

func (i *CurrentSource) GetType() netlist.Kind { return netlist.CurrentSource }

// Stamp injects -J into node a and +J into node b.
func (i *CurrentSource) Stamp(matrix matrix.DeviceMatrix) error {
	n1, n2, err := twoNodes(&i.BaseDevice)
	if err != nil {
		return err
	}

	if n1 != 0 {
		matrix.AddRHS(n1, -i.Value)
	}
	if n2 != 0 {
		matrix.AddRHS(n2, i.Value)
	}

	return nil
}
