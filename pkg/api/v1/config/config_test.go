package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nergy-se/factoryenergy/pkg/modbusclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "")
	c, err := Load([]string{})
	require.NoError(t, err)

	assert.Equal(t, ":8000", c.Listen)
	assert.Equal(t, "formula", c.Strategy)
	assert.Equal(t, "native", c.MachinePolicy)
	assert.Equal(t, "energy_predictor.json", c.ModelPath)
	assert.Equal(t, 10, c.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, c.Origins())
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("FACTORY_STRATEGY", "lookup")
	t.Setenv("FACTORY_LISTEN", ":9000")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	c, err := Load([]string{})
	require.NoError(t, err)

	assert.Equal(t, "lookup", c.Strategy)
	assert.Equal(t, ":9000", c.Listen)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Origins())
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("FACTORY_STRATEGY", "lookup")

	c, err := Load([]string{"-strategy=model"})
	require.NoError(t, err)
	assert.Equal(t, "model", c.Strategy)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"strategy", "FACTORY_STRATEGY", "forest"},
		{"policy", "FACTORY_MACHINE_POLICY", "ignore"},
		{"loglevel", "FACTORY_LOG_LEVEL", "loud"},
		{"logformat", "FACTORY_LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.val)
			_, err := Load([]string{})
			assert.Error(t, err)
		})
	}
}

func TestSimulatorRegisters(t *testing.T) {
	c := &SimulatorConfig{ModbusRegisters: "Machine_A:100, Machine_B:30001:input, Machine_C:4:holding16"}
	regs, err := c.Registers()
	require.NoError(t, err)
	assert.Equal(t, map[string]modbusclient.Register{
		"Machine_A": {Address: 100, Type: modbusclient.Holding32},
		"Machine_B": {Address: 30001, Type: modbusclient.Input},
		"Machine_C": {Address: 4, Type: modbusclient.Holding16},
	}, regs)

	c.ModbusRegisters = "Machine_Z:1"
	_, err = c.Registers()
	assert.Error(t, err)

	c.ModbusRegisters = "Machine_A"
	_, err = c.Registers()
	assert.Error(t, err)

	c.ModbusRegisters = "Machine_A:70000"
	_, err = c.Registers()
	assert.Error(t, err)

	c.ModbusRegisters = "Machine_A:100:coil"
	_, err = c.Registers()
	assert.Error(t, err)
}

func TestLoadSimulator(t *testing.T) {
	t.Setenv("FACTORY_KAFKA_BROKERS", "k1:9092,k2:9092")
	c, err := LoadSimulator([]string{})
	require.NoError(t, err)

	assert.Equal(t, "@every 5s", c.Schedule)
	assert.Equal(t, SourceSimulated, c.Source)
	assert.Equal(t, 10, c.SummaryEvery)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Brokers())

	t.Setenv("FACTORY_SOURCE", "modbus")
	_, err = LoadSimulator([]string{})
	assert.Error(t, err)
}

func TestLoadSimulatorSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mqtt-password")
	require.NoError(t, os.WriteFile(path, []byte("s3cret\n"), 0600))
	t.Setenv("FACTORY_MQTT_PASSWORD_FILE", path)

	c, err := LoadSimulator([]string{})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", c.MQTTPassword)
	assert.Equal(t, "", c.ClickhousePassword)

	t.Setenv("FACTORY_MQTT_PASSWORD", "direct")
	c, err = LoadSimulator([]string{})
	require.NoError(t, err)
	assert.Equal(t, "direct", c.MQTTPassword)

	t.Setenv("FACTORY_CLICKHOUSE_PASSWORD_FILE", filepath.Join(t.TempDir(), "missing"))
	_, err = LoadSimulator([]string{})
	assert.ErrorContains(t, err, "error reading secret file")
}
