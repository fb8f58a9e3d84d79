package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllIsFixed(t *testing.T) {
	assert.Equal(t, []string{"Machine_A", "Machine_B", "Machine_C"}, All())

	m := All()
	m[0] = "Machine_Z"
	assert.Equal(t, "Machine_A", All()[0])
}

func TestDescriptionsCoverAll(t *testing.T) {
	d := Descriptions()
	assert.Len(t, d, 3)
	for _, id := range All() {
		assert.NotEmpty(t, d[id], id)
		assert.True(t, Valid(id))
	}
	assert.False(t, Valid("Machine_Z"))
	assert.False(t, Valid(""))
}

func TestOneHot(t *testing.T) {
	var tests = []struct {
		id       string
		expected [2]float64
	}{
		{id: MachineA, expected: [2]float64{0, 0}},
		{id: MachineB, expected: [2]float64{1, 0}},
		{id: MachineC, expected: [2]float64{0, 1}},
		{id: "Machine_Z", expected: [2]float64{0, 0}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, OneHot(tt.id))
		})
	}
}
