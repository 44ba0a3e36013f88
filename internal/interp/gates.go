package interp

import (
	"slices"

	"qroute/internal/qasm"
)

// GateDefinition is a user gate as declared by "gate" or "opaque".
type GateDefinition struct {
	Name   string
	Params []string
	Qubits []string
	Body   []qasm.Statement

	// Opaque gates have no body and cannot be simulated.
	Opaque bool
}

// GateTable stores gate definitions by name.
type GateTable struct {
	gates map[string]*GateDefinition
	order []string
}

func NewGateTable() *GateTable {
	return &GateTable{gates: make(map[string]*GateDefinition)}
}

// Define adds def; names are unique.
func (t *GateTable) Define(def *GateDefinition) error {
	if _, ok := t.gates[def.Name]; ok {
		return newError(DuplicateGateDefinition, "gate", "gate %q already defined", def.Name)
	}
	t.gates[def.Name] = def
	t.order = append(t.order, def.Name)
	return nil
}

func (t *GateTable) Lookup(name string) (*GateDefinition, bool) {
	def, ok := t.gates[name]
	return def, ok
}

// Names returns the defined gates in definition order.
func (t *GateTable) Names() []string {
	return slices.Clone(t.order)
}

func (t *GateTable) Len() int { return len(t.gates) }
