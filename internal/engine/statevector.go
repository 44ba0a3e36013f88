package engine

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
	"slices"
)

// MaxQubits is the widest register a StateVector can address.
const MaxQubits = 64

// Matrix is a single-qubit operator in row-major order.
type Matrix [2][2]complex128

// StateVector stores only the basis states with non-zero amplitude, so the
// cost of an operation scales with the entanglement actually present rather
// than with the width of the device.
type StateVector struct {
	Amplitudes map[uint64]complex128
	NumQubits  int

	// Cutoff drops amplitudes whose magnitude falls below it after each gate.
	Cutoff float64
}

// NewStateVector returns |0...0> over numQubits qubits.
func NewStateVector(numQubits int) *StateVector {
	return &StateVector{
		Amplitudes: map[uint64]complex128{0: 1},
		NumQubits:  numQubits,
		Cutoff:     1e-12,
	}
}

func (s *StateVector) Clone() *StateVector {
	amps := make(map[uint64]complex128, len(s.Amplitudes))
	for k, v := range s.Amplitudes {
		amps[k] = v
	}
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits, Cutoff: s.Cutoff}
}

// UMatrix returns U(theta, phi, lambda).
func UMatrix(theta, phi, lambda float64) Matrix {
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	return Matrix{
		{c, -cmplx.Exp(complex(0, lambda)) * sn},
		{cmplx.Exp(complex(0, phi)) * sn, cmplx.Exp(complex(0, phi+lambda)) * c},
	}
}

// Apply1 applies a single-qubit operator to qubit q.
func (s *StateVector) Apply1(q int, m Matrix) {
	bit := uint64(1) << q
	next := make(map[uint64]complex128, 2*len(s.Amplitudes))
	for i, a := range s.Amplitudes {
		if i&bit == 0 {
			next[i] += m[0][0] * a
			next[i|bit] += m[1][0] * a
		} else {
			next[i&^bit] += m[0][1] * a
			next[i] += m[1][1] * a
		}
	}
	s.Amplitudes = next
	s.prune()
}

func (s *StateVector) applyCX(control, target int) {
	cBit := uint64(1) << control
	tBit := uint64(1) << target
	next := make(map[uint64]complex128, len(s.Amplitudes))
	for i, a := range s.Amplitudes {
		if i&cBit != 0 {
			i ^= tBit
		}
		next[i] = a
	}
	s.Amplitudes = next
}

func (s *StateVector) applySWAP(q1, q2 int) {
	bit1 := uint64(1) << q1
	bit2 := uint64(1) << q2
	next := make(map[uint64]complex128, len(s.Amplitudes))
	for i, a := range s.Amplitudes {
		if (i&bit1 == 0) != (i&bit2 == 0) {
			i ^= bit1 | bit2
		}
		next[i] = a
	}
	s.Amplitudes = next
}

// ProbabilityOfZero returns the probability of observing qubit q as 0.
func (s *StateVector) ProbabilityOfZero(q int) float64 {
	bit := uint64(1) << q
	prob0, total := 0.0, 0.0
	for i, a := range s.Amplitudes {
		p := real(a * cmplx.Conj(a))
		total += p
		if i&bit == 0 {
			prob0 += p
		}
	}
	if total == 0 {
		return 1
	}
	return prob0 / total
}

// measure samples qubit q, collapses the state and returns the outcome.
func (s *StateVector) measure(q int, rng *rand.Rand) int {
	outcome := 0
	if rng.Float64() >= s.ProbabilityOfZero(q) {
		outcome = 1
	}
	s.project(q, outcome)
	return outcome
}

// project keeps only the branch where qubit q equals outcome and renormalises.
func (s *StateVector) project(q, outcome int) {
	bit := uint64(1) << q
	norm := 0.0
	for i, a := range s.Amplitudes {
		if (i&bit != 0) == (outcome == 1) {
			norm += real(a * cmplx.Conj(a))
		} else {
			delete(s.Amplitudes, i)
		}
	}
	if norm == 0 {
		return
	}
	scale := complex(1/math.Sqrt(norm), 0)
	for i := range s.Amplitudes {
		s.Amplitudes[i] *= scale
	}
}

// reset projects qubit q onto |0>. When the |0> branch carries no weight the
// qubit is flipped instead, which yields |0> on that qubit without changing
// the rest of the state. Neither is a true mixed-state reset.
func (s *StateVector) reset(q int) {
	if s.ProbabilityOfZero(q) > s.Cutoff {
		s.project(q, 0)
		return
	}
	s.Apply1(q, Matrix{{0, 1}, {1, 0}})
}

func (s *StateVector) prune() {
	for i, a := range s.Amplitudes {
		if cmplx.Abs(a) < s.Cutoff {
			delete(s.Amplitudes, i)
		}
	}
}

// QubitProbability is the marginal distribution of one qubit.
type QubitProbability struct {
	Prob0 float64
	Prob1 float64
}

// GetQubitProbabilities returns the marginal distribution of each of the
// first n qubits.
func (s *StateVector) GetQubitProbabilities(n int) []QubitProbability {
	probs := make([]QubitProbability, n)
	for i, a := range s.Amplitudes {
		prob := real(a * cmplx.Conj(a))
		for q := range n {
			if i&(1<<q) != 0 {
				probs[q].Prob1 += prob
			} else {
				probs[q].Prob0 += prob
			}
		}
	}
	return probs
}

// BasisState is one non-zero term of the state.
type BasisState struct {
	Index     uint64
	Amplitude complex128
	Prob      float64
}

// Terms returns the non-zero basis states in ascending index order.
func (s *StateVector) Terms() []BasisState {
	keys := make([]uint64, 0, len(s.Amplitudes))
	for k := range s.Amplitudes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]BasisState, len(keys))
	for i, k := range keys {
		a := s.Amplitudes[k]
		out[i] = BasisState{Index: k, Amplitude: a, Prob: real(a * cmplx.Conj(a))}
	}
	return out
}
