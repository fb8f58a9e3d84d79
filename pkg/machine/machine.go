// Package machine holds the closed set of factory machines the predictor knows about.
package machine

const (
	MachineA = "Machine_A"
	MachineB = "Machine_B"
	MachineC = "Machine_C"

	// Default is used when an unknown identifier is substituted and is the reference category of the one-hot encoding.
	Default = MachineA
)

var all = []string{MachineA, MachineB, MachineC}

var descriptions = map[string]string{
	MachineA: "Base machine - Standard energy consumption",
	MachineB: "Mid-tier machine - Moderate energy consumption",
	MachineC: "Heavy-duty machine - High energy consumption",
}

// All returns the machine identifiers in fixed order. The returned slice is a copy.
func All() []string {
	out := make([]string, len(all))
	copy(out, all)
	return out
}

func Descriptions() map[string]string {
	out := make(map[string]string, len(descriptions))
	for k, v := range descriptions {
		out[k] = v
	}
	return out
}

func Valid(id string) bool {
	_, ok := descriptions[id]
	return ok
}

// OneHot encodes id as [isMachineB, isMachineC]. Machine_A and unknown ids encode as zeros.
func OneHot(id string) [2]float64 {
	switch id {
	case MachineB:
		return [2]float64{1, 0}
	case MachineC:
		return [2]float64{0, 1}
	}
	return [2]float64{0, 0}
}
