package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/meter"
	"github.com/nergy-se/factoryenergy/pkg/machine"
	"github.com/nergy-se/factoryenergy/pkg/modbusclient"
	"github.com/nergy-se/factoryenergy/pkg/predictor"
	"github.com/sirupsen/logrus"
)

// ModbusSource reads one register per machine, holding hundredths of a kWh.
type ModbusSource struct {
	client    modbusclient.Client
	registers map[string]modbusclient.Register
	now       func() time.Time
}

func NewModbusSource(client modbusclient.Client, registers map[string]modbusclient.Register) *ModbusSource {
	return &ModbusSource{
		client:    client,
		registers: registers,
		now:       time.Now,
	}
}

func (m *ModbusSource) Name() string {
	return "modbus"
}

// Read skips machines whose register fails and errors only when nothing could be read.
func (m *ModbusSource) Read(ctx context.Context) ([]meter.Reading, error) {
	ts := m.now()
	var readings []meter.Reading
	var errs []error
	for _, id := range machine.All() {
		reg, ok := m.registers[id]
		if !ok {
			continue
		}
		v, err := modbusclient.Read(m.client, reg)
		if err != nil {
			logrus.WithFields(logrus.Fields{"machine": id, "register": reg.String()}).Error(err)
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		readings = append(readings, meter.New(id, predictor.Round2(modbusclient.Scale100(v)), ts))
	}
	if len(readings) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return readings, nil
}
