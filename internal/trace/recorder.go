// Package trace records the physical operations a program issues to the
// circuit engine, so the routed circuit can be inspected, printed as
// OpenQASM, or laid out in time steps.
package trace

import "slices"

// Engine is the set of engine operations a Recorder forwards.
type Engine interface {
	ObserveQubit(hw int) int
	ResetQubit(hw int)
	ApplyUniversalUnitary(hw int, theta, phi, lambda float64)
	ApplyControlledNot(control, target int)
	ApplySwap(a, b int)
	SwapPath(origin, target int) []int
}

// Operation types, named the way they appear in the recording.
const (
	OpU       = "U"
	OpCX      = "CX"
	OpSwap    = "SWAP"
	OpMeasure = "MEASURE"
	OpReset   = "RESET"
)

// Op is one physical operation on hardware qubits.
type Op struct {
	Type   string    // one of the Op* constants
	Qubits []int     // hardware qubits; control first for CX
	Params []float64 // theta, phi, lambda for U
	Result int       // observed bit for MEASURE
}

// Recorder forwards every call to an inner engine and keeps an ordered log
// of the operations that changed the state.
type Recorder struct {
	inner     Engine
	numQubits int
	ops       []Op
}

// NewRecorder wraps inner, a device of numQubits hardware qubits.
func NewRecorder(inner Engine, numQubits int) *Recorder {
	return &Recorder{inner: inner, numQubits: numQubits}
}

// NumQubits is the width of the recorded device.
func (r *Recorder) NumQubits() int { return r.numQubits }

func (r *Recorder) ObserveQubit(hw int) int {
	bit := r.inner.ObserveQubit(hw)
	r.ops = append(r.ops, Op{Type: OpMeasure, Qubits: []int{hw}, Result: bit})
	return bit
}

func (r *Recorder) ResetQubit(hw int) {
	r.inner.ResetQubit(hw)
	r.ops = append(r.ops, Op{Type: OpReset, Qubits: []int{hw}})
}

func (r *Recorder) ApplyUniversalUnitary(hw int, theta, phi, lambda float64) {
	r.inner.ApplyUniversalUnitary(hw, theta, phi, lambda)
	r.ops = append(r.ops, Op{Type: OpU, Qubits: []int{hw}, Params: []float64{theta, phi, lambda}})
}

func (r *Recorder) ApplyControlledNot(control, target int) {
	r.inner.ApplyControlledNot(control, target)
	r.ops = append(r.ops, Op{Type: OpCX, Qubits: []int{control, target}})
}

func (r *Recorder) ApplySwap(a, b int) {
	r.inner.ApplySwap(a, b)
	r.ops = append(r.ops, Op{Type: OpSwap, Qubits: []int{a, b}})
}

// SwapPath is a query and is not recorded.
func (r *Recorder) SwapPath(origin, target int) []int {
	return r.inner.SwapPath(origin, target)
}

// Ops returns the recorded operations in issue order.
func (r *Recorder) Ops() []Op {
	return slices.Clone(r.ops)
}

// Len is the number of recorded operations.
func (r *Recorder) Len() int { return len(r.ops) }

// Clear drops the recording but keeps the inner engine's state.
func (r *Recorder) Clear() { r.ops = nil }

// Counts tallies the recorded operations by type.
func (r *Recorder) Counts() map[string]int {
	counts := make(map[string]int)
	for _, op := range r.ops {
		counts[op.Type]++
	}
	return counts
}

// UsedQubits lists the hardware qubits touched by any operation, ascending.
func (r *Recorder) UsedQubits() []int {
	seen := make(map[int]bool)
	var out []int
	for _, op := range r.ops {
		for _, q := range op.Qubits {
			if !seen[q] {
				seen[q] = true
				out = append(out, q)
			}
		}
	}
	slices.Sort(out)
	return out
}
