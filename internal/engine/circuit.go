// Package engine simulates a device whose two-qubit operations are restricted
// to linked hardware qubits.
package engine

import (
	"fmt"
	"math/rand/v2"
)

// Topology is the adjacency structure the engine enforces.
type Topology interface {
	QubitCount() int
	Adjacent(a, b int) bool
	ShortestPath(origin, target int) []int
}

// Circuit is a state vector bound to a device topology. Every method takes
// hardware qubit indices.
type Circuit struct {
	state *StateVector
	topo  Topology
	rng   *rand.Rand
}

// Option configures a Circuit.
type Option func(*Circuit)

// WithSeed makes measurement outcomes reproducible.
func WithSeed(seed uint64) Option {
	return func(c *Circuit) { c.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithRand sets the random source used for measurement.
func WithRand(rng *rand.Rand) Option {
	return func(c *Circuit) { c.rng = rng }
}

// WithCutoff sets the magnitude below which amplitudes are discarded.
func WithCutoff(cutoff float64) Option {
	return func(c *Circuit) { c.state.Cutoff = cutoff }
}

// New returns a circuit with every hardware qubit in |0>.
func New(topo Topology, opts ...Option) (*Circuit, error) {
	n := topo.QubitCount()
	if n <= 0 || n > MaxQubits {
		return nil, fmt.Errorf("engine: %d qubits not supported (max %d)", n, MaxQubits)
	}
	c := &Circuit{
		state: NewStateVector(n),
		topo:  topo,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return c, nil
}

// Size returns the number of hardware qubits.
func (c *Circuit) Size() int { return c.state.NumQubits }

// State exposes the underlying state vector.
func (c *Circuit) State() *StateVector { return c.state }

func (c *Circuit) check(qs ...int) {
	for _, q := range qs {
		if q < 0 || q >= c.state.NumQubits {
			panic(fmt.Sprintf("engine: hardware qubit %d out of range [0,%d)", q, c.state.NumQubits))
		}
	}
}

func (c *Circuit) checkLinked(a, b int) {
	c.check(a, b)
	if !c.topo.Adjacent(a, b) {
		panic(fmt.Sprintf("engine: hardware qubits %d and %d are not linked", a, b))
	}
}

// ObserveQubit measures hardware qubit hw and collapses the state.
func (c *Circuit) ObserveQubit(hw int) int {
	c.check(hw)
	return c.state.measure(hw, c.rng)
}

// ResetQubit returns hardware qubit hw to |0> by projection.
func (c *Circuit) ResetQubit(hw int) {
	c.check(hw)
	c.state.reset(hw)
}

// ApplyUniversalUnitary applies U(theta, phi, lambda) to hardware qubit hw.
func (c *Circuit) ApplyUniversalUnitary(hw int, theta, phi, lambda float64) {
	c.check(hw)
	c.state.Apply1(hw, UMatrix(theta, phi, lambda))
}

// ApplyControlledNot applies CX between two linked hardware qubits.
func (c *Circuit) ApplyControlledNot(control, target int) {
	c.checkLinked(control, target)
	c.state.applyCX(control, target)
}

// ApplySwap exchanges the states of two linked hardware qubits.
func (c *Circuit) ApplySwap(a, b int) {
	c.checkLinked(a, b)
	c.state.applySWAP(a, b)
}

// SwapPath returns the shortest chain of linked hardware qubits from origin
// to target, both ends included.
func (c *Circuit) SwapPath(origin, target int) []int {
	return c.topo.ShortestPath(origin, target)
}

// ProbabilityOfZero returns the probability of observing hw as 0.
func (c *Circuit) ProbabilityOfZero(hw int) float64 {
	c.check(hw)
	return c.state.ProbabilityOfZero(hw)
}
