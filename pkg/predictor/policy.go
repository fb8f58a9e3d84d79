package predictor

import (
	"fmt"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/types"
	"github.com/nergy-se/factoryenergy/pkg/machine"
)

type policyPredictor struct {
	next   Predictor
	policy types.MachinePolicy
}

// WithMachinePolicy applies policy to machine identifiers before they reach p.
// MachinePolicyNative returns p unchanged.
func WithMachinePolicy(p Predictor, policy types.MachinePolicy) Predictor {
	switch policy {
	case types.MachinePolicyReject, types.MachinePolicyFallback:
		return &policyPredictor{next: p, policy: policy}
	}
	return p
}

func (pp *policyPredictor) Predict(in Input) (*Estimate, error) {
	if !machine.Valid(in.Machine) {
		if pp.policy == types.MachinePolicyReject {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMachine, in.Machine)
		}
		in.Machine = machine.Default
	}
	return pp.next.Predict(in)
}

func (pp *policyPredictor) Strategy() types.Strategy {
	return pp.next.Strategy()
}

func (pp *policyPredictor) Ready() bool {
	return pp.next.Ready()
}
