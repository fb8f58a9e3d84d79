package types

// Strategy selects the algorithm used to estimate energy consumption.
type Strategy string

var (
	StrategyFormula = Strategy("formula")
	StrategyLookup  = Strategy("lookup")
	StrategyModel   = Strategy("model")
)

func (s Strategy) Valid() bool {
	switch s {
	case StrategyFormula, StrategyLookup, StrategyModel:
		return true
	}
	return false
}

// MachinePolicy decides what happens to a machine identifier outside the known set.
type MachinePolicy string

var (
	// MachinePolicyNative keeps each strategy's own behaviour: formula and model fall back, lookup rejects.
	MachinePolicyNative   = MachinePolicy("native")
	MachinePolicyReject   = MachinePolicy("reject")
	MachinePolicyFallback = MachinePolicy("fallback")
)

func (p MachinePolicy) Valid() bool {
	switch p {
	case MachinePolicyNative, MachinePolicyReject, MachinePolicyFallback:
		return true
	}
	return false
}
