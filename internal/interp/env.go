package interp

import (
	"fmt"

	"qroute/internal/qasm"
)

// Ref names a whole register or one slot of it.
type Ref struct {
	Name    string
	Index   int
	Indexed bool
}

func (r Ref) String() string {
	if r.Indexed {
		return fmt.Sprintf("%s[%d]", r.Name, r.Index)
	}
	return r.Name
}

// Env maps names visible to a statement onto register references and
// parameter values.
//
// There are only two kinds of scope: the global one, where every declared
// register is bound to itself, and the scope of one gate call, built from the
// call site's arguments. A call scope has no parent; a gate calling another
// gate builds the callee's scope from its own bindings.
type Env struct {
	gate   string
	regs   map[string]Ref
	params map[string]float64
}

// NewGlobalEnv returns the top-level scope.
func NewGlobalEnv() *Env {
	return &Env{regs: make(map[string]Ref), params: make(map[string]float64)}
}

// newCallEnv returns a fresh scope for an expansion of gate.
func newCallEnv(gate string) *Env {
	return &Env{gate: gate, regs: make(map[string]Ref), params: make(map[string]float64)}
}

// Global reports whether e is the top-level scope.
func (e *Env) Global() bool { return e.gate == "" }

// Gate returns the gate whose expansion e belongs to, or "" at top level.
func (e *Env) Gate() string { return e.gate }

// BindRegister binds name to ref. Quantum and classical registers share the
// global namespace.
func (e *Env) BindRegister(name string, ref Ref) error {
	if _, ok := e.regs[name]; ok {
		return newError(DuplicateRegister, "bind", "name %q already bound", name)
	}
	e.regs[name] = ref
	return nil
}

// BindParam binds a classical gate parameter.
func (e *Env) BindParam(name string, value float64) {
	e.params[name] = value
}

// Param implements qasm.Scope.
func (e *Env) Param(name string) (float64, bool) {
	v, ok := e.params[name]
	return v, ok
}

// Resolve maps a source operand to the register it denotes in this scope.
func (e *Env) Resolve(arg qasm.Argument) (Ref, error) {
	ref, ok := e.regs[arg.Name]
	if !ok {
		if e.Global() {
			return Ref{}, newError(UndefinedRegister, "resolve", "no register %q", arg.Name)
		}
		return Ref{}, newError(UndefinedRegister, "resolve", "%q is not an argument of gate %q", arg.Name, e.gate)
	}
	if !arg.Indexed {
		return ref, nil
	}
	if ref.Indexed {
		return Ref{}, newError(UnsupportedOperandShape, "resolve", "%s is bound to the single qubit %s and cannot be indexed", arg, ref)
	}
	return Ref{Name: ref.Name, Index: arg.Index, Indexed: true}, nil
}
