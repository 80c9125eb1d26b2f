package device

import (
	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/edp1096/toy-mna/pkg/netlist"
)

type VoltageSource struct {
	BaseDevice
	// Branch index for MNA
	branchIdx int
}

func NewDCVoltageSource(name string, value float64) *VoltageSource {
	return &VoltageSource{
		BaseDevice: BaseDevice{
			Name:  name,
			Nodes: make([]int, 2),
			Value: value,
		},
	}
}

func (v *VoltageSource) GetType() netlist.Kind { return netlist.VoltageSource }

func (v *VoltageSource) SetBranchIndex(idx int) {
	v.branchIdx = idx
}

func (v *VoltageSource) BranchIndex() int {
	return v.branchIdx
}

// Stamp adds the branch equation V(a) - V(b) = Value and the branch current
// into the KCL rows of both terminals.
func (v *VoltageSource) Stamp(matrix matrix.DeviceMatrix) error {
	n1, n2, err := twoNodes(&v.BaseDevice)
	if err != nil {
		return err
	}
	bIdx := v.branchIdx

	if n1 != 0 {
		matrix.AddElement(n1, bIdx, 1)
		matrix.AddElement(bIdx, n1, 1)
	}
	if n2 != 0 {
		matrix.AddElement(n2, bIdx, -1)
		matrix.AddElement(bIdx, n2, -1)
	}
	matrix.AddRHS(bIdx, v.Value)

	return nil
}
