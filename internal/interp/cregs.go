package interp

import (
	"fmt"
	"slices"
)

// MaxClassicalBits is the widest classical register.
const MaxClassicalBits = 64

type cregInfo struct {
	size int
	bits uint64
}

// ClassicalRegisters holds bit-packed classical register values. Bit 0 is the
// least significant.
type ClassicalRegisters struct {
	regs  map[string]*cregInfo
	order []string
}

func NewClassicalRegisters() *ClassicalRegisters {
	return &ClassicalRegisters{regs: make(map[string]*cregInfo)}
}

// Declare adds a zeroed register.
func (c *ClassicalRegisters) Declare(name string, size int) error {
	if _, ok := c.regs[name]; ok {
		return newError(DuplicateRegister, "creg", "register %q already declared", name)
	}
	if size <= 0 {
		return newError(IndexOutOfRange, "creg", "register %q: size must be positive, got %d", name, size)
	}
	if size > MaxClassicalBits {
		return newError(CapacityExceeded, "creg", "register %q[%d] wider than %d bits", name, size, MaxClassicalBits)
	}
	c.regs[name] = &cregInfo{size: size}
	c.order = append(c.order, name)
	return nil
}

func (c *ClassicalRegisters) lookup(name string) (*cregInfo, error) {
	r, ok := c.regs[name]
	if !ok {
		return nil, newError(UndefinedRegister, "creg", "no classical register %q", name)
	}
	return r, nil
}

// bitIndex normalises index; negative values count from the high end.
func (c *ClassicalRegisters) bitIndex(name string, index int) (*cregInfo, int, error) {
	r, err := c.lookup(name)
	if err != nil {
		return nil, 0, err
	}
	i := index
	if i < 0 {
		i += r.size
	}
	if i < 0 || i >= r.size {
		return nil, 0, newError(IndexOutOfRange, "creg", "%s[%d] out of range, size is %d", name, index, r.size)
	}
	return r, i, nil
}

// Bit returns bit index of name.
func (c *ClassicalRegisters) Bit(name string, index int) (int, error) {
	r, i, err := c.bitIndex(name, index)
	if err != nil {
		return 0, err
	}
	return int(r.bits>>i) & 1, nil
}

// SetBit stores value, which must be 0 or 1, in bit index of name.
func (c *ClassicalRegisters) SetBit(name string, index, value int) error {
	r, i, err := c.bitIndex(name, index)
	if err != nil {
		return err
	}
	switch value {
	case 0:
		r.bits &^= 1 << i
	case 1:
		r.bits |= 1 << i
	default:
		return newError(InvalidBitValue, "creg", "%s[%d]: bit value must be 0 or 1, got %d", name, index, value)
	}
	return nil
}

// Value returns the packed register value.
func (c *ClassicalRegisters) Value(name string) (uint64, error) {
	r, err := c.lookup(name)
	if err != nil {
		return 0, err
	}
	return r.bits, nil
}

// Size returns the declared width of name.
func (c *ClassicalRegisters) Size(name string) (int, error) {
	r, err := c.lookup(name)
	if err != nil {
		return 0, err
	}
	return r.size, nil
}

// Names returns the declared registers in declaration order.
func (c *ClassicalRegisters) Names() []string {
	return slices.Clone(c.order)
}

// RegisterValue is a point-in-time copy of one classical register.
type RegisterValue struct {
	Name  string
	Size  int
	Value uint64
}

// Bits renders the value most significant bit first, as OpenQASM results are
// conventionally printed.
func (r RegisterValue) Bits() string {
	return fmt.Sprintf("%0*b", r.Size, r.Value)
}

// Snapshot copies every register in declaration order.
func (c *ClassicalRegisters) Snapshot() []RegisterValue {
	out := make([]RegisterValue, len(c.order))
	for i, name := range c.order {
		r := c.regs[name]
		out[i] = RegisterValue{Name: name, Size: r.size, Value: r.bits}
	}
	return out
}
