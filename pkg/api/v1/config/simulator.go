package config

import (
	"fmt"
	"strings"

	"github.com/nergy-se/factoryenergy/pkg/machine"
	"github.com/nergy-se/factoryenergy/pkg/modbusclient"
)

const (
	SourceSimulated = "simulated"
	SourceModbus    = "modbus"

	// MQTTEmbedded publishes through an in-process broker instead of a remote one.
	MQTTEmbedded = "embedded"
)

// SimulatorConfig configures the data collector. Sinks with an empty address are disabled.
type SimulatorConfig struct {
	Schedule     string `default:"@every 5s"`
	Source       string `default:"simulated"`
	Seed         int64
	SummaryEvery int `default:"10"`

	CSVPath    string `default:"energy_data.csv"`
	SqlitePath string

	ClickhouseAddr         string
	ClickhouseDatabase     string `default:"default"`
	ClickhouseUsername     string `default:"default"`
	ClickhousePassword     string
	ClickhousePasswordFile string

	KafkaBrokers string
	KafkaTopic   string `default:"factory.energy"`

	MQTTBroker         string
	MQTTEmbeddedListen string `default:":1883"`
	MQTTClientID       string `default:"factory-simulator"`
	MQTTUsername       string
	MQTTPassword       string
	MQTTPasswordFile   string

	ModbusAddress   string
	ModbusSlaveID   int    `default:"1"`
	ModbusRegisters string `default:"Machine_A:100,Machine_B:102,Machine_C:104"`

	// Serves /metrics when set, e.g. ":9100".
	MetricsListen string

	LogLevel  string `default:"info"`
	LogFormat string `default:"text"`
}

func LoadSimulator(args []string) (*SimulatorConfig, error) {
	c := &SimulatorConfig{}
	err := load(c, args)
	if err != nil {
		return nil, err
	}
	err = c.loadSecrets()
	if err != nil {
		return nil, err
	}
	return c, c.Validate()
}

func (c *SimulatorConfig) Validate() error {
	switch c.Source {
	case SourceSimulated:
	case SourceModbus:
		if c.ModbusAddress == "" {
			return fmt.Errorf("source %s requires a modbus address", SourceModbus)
		}
		if _, err := c.Registers(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if c.SummaryEvery <= 0 {
		return fmt.Errorf("summary interval must be positive, got %d", c.SummaryEvery)
	}
	return validateLogging(c.LogLevel, c.LogFormat)
}

func (c *SimulatorConfig) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

// Registers parses ModbusRegisters, a list of machine:address[:type] entries where type is holding32 (default),
// holding16 or input.
func (c *SimulatorConfig) Registers() (map[string]modbusclient.Register, error) {
	out := make(map[string]modbusclient.Register)
	for _, pair := range splitList(c.ModbusRegisters) {
		id, reg, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid register mapping %q", pair)
		}
		id = strings.TrimSpace(id)
		if !machine.Valid(id) {
			return nil, fmt.Errorf("invalid register mapping %q: unknown machine", pair)
		}
		r, err := modbusclient.ParseRegister(reg)
		if err != nil {
			return nil, fmt.Errorf("invalid register mapping %q: %w", pair, err)
		}
		out[id] = r
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no modbus registers configured")
	}
	return out, nil
}
