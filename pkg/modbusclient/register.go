package modbusclient

import (
	"fmt"
	"strconv"
	"strings"
)

type RegisterType string

const (
	Holding32 RegisterType = "holding32"
	Holding16 RegisterType = "holding16"
	Input     RegisterType = "input"
)

// Register is a meter register and the table and width it is read with.
type Register struct {
	Address uint16
	Type    RegisterType
}

// ParseRegister parses "address" or "address:type". Type defaults to Holding32.
func ParseRegister(s string) (Register, error) {
	addr, typ, _ := strings.Cut(strings.TrimSpace(s), ":")
	v, err := strconv.ParseUint(strings.TrimSpace(addr), 10, 16)
	if err != nil {
		return Register{}, fmt.Errorf("invalid register address %q: %w", addr, err)
	}
	reg := Register{Address: uint16(v), Type: Holding32}
	if typ = strings.TrimSpace(typ); typ != "" {
		reg.Type = RegisterType(typ)
	}
	switch reg.Type {
	case Holding32, Holding16, Input:
		return reg, nil
	}
	return Register{}, fmt.Errorf("unknown register type %q", typ)
}

func (r Register) String() string {
	return fmt.Sprintf("%d:%s", r.Address, r.Type)
}

// Read reads reg from c with the call matching its type.
func Read(c Client, reg Register) (int, error) {
	switch reg.Type {
	case Holding16:
		return c.ReadHoldingRegister16(reg.Address)
	case Input:
		return c.ReadInputRegister(reg.Address)
	case Holding32, "":
		return c.ReadHoldingRegister32(reg.Address)
	}
	return 0, fmt.Errorf("unknown register type %q", reg.Type)
}
