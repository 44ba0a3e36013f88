package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qroute/internal/topology"
)

const hadamard = math.Pi / 2

func applyH(c *Circuit, hw int) {
	c.ApplyUniversalUnitary(hw, hadamard, 0, math.Pi)
}

func applyX(c *Circuit, hw int) {
	c.ApplyUniversalUnitary(hw, math.Pi, 0, math.Pi)
}

func TestNewCircuitSizes(t *testing.T) {
	c, err := New(topology.IBMQ53())
	require.NoError(t, err)
	assert.Equal(t, 53, c.Size())
	assert.Equal(t, 1.0, c.ProbabilityOfZero(52))

	_, err = New(topology.Chain(65, false))
	assert.Error(t, err)
}

func TestUniversalUnitary(t *testing.T) {
	c, err := New(topology.Chain(2, false), WithSeed(1))
	require.NoError(t, err)

	applyX(c, 0)
	assert.InDelta(t, 0.0, c.ProbabilityOfZero(0), 1e-12)
	assert.InDelta(t, 1.0, c.ProbabilityOfZero(1), 1e-12)

	applyH(c, 1)
	assert.InDelta(t, 0.5, c.ProbabilityOfZero(1), 1e-12)

	applyH(c, 1)
	assert.InDelta(t, 1.0, c.ProbabilityOfZero(1), 1e-12)
	assert.Len(t, c.State().Amplitudes, 1, "interference should cancel the |1> branch")
}

func TestBellStateTerms(t *testing.T) {
	c, err := New(topology.Chain(3, false))
	require.NoError(t, err)

	applyH(c, 0)
	c.ApplyControlledNot(0, 1)

	terms := c.State().Terms()
	require.Len(t, terms, 2)
	assert.Equal(t, uint64(0b00), terms[0].Index)
	assert.Equal(t, uint64(0b11), terms[1].Index)
	assert.InDelta(t, 0.5, terms[0].Prob, 1e-12)
	assert.InDelta(t, 0.5, terms[1].Prob, 1e-12)

	probs := c.State().GetQubitProbabilities(3)
	assert.InDelta(t, 0.5, probs[1].Prob1, 1e-12)
	assert.InDelta(t, 0.0, probs[2].Prob1, 1e-12)
}

func TestObserveCollapses(t *testing.T) {
	for seed := range uint64(20) {
		c, err := New(topology.Chain(2, false), WithSeed(seed))
		require.NoError(t, err)
		applyH(c, 0)
		c.ApplyControlledNot(0, 1)

		first := c.ObserveQubit(0)
		assert.Equal(t, first, c.ObserveQubit(1), "seed %d: Bell pair must agree", seed)
		assert.Equal(t, first, c.ObserveQubit(0), "seed %d: repeated observation must agree", seed)
	}
}

func TestObserveStatistics(t *testing.T) {
	ones := 0
	const trials = 2000
	for seed := range uint64(trials) {
		c, err := New(topology.Chain(1, false), WithSeed(seed))
		require.NoError(t, err)
		applyH(c, 0)
		ones += c.ObserveQubit(0)
	}
	assert.InDelta(t, trials/2, ones, 150)
}

func TestSwap(t *testing.T) {
	c, err := New(topology.Chain(3, false))
	require.NoError(t, err)
	applyX(c, 0)
	c.ApplySwap(0, 1)
	assert.InDelta(t, 1.0, c.ProbabilityOfZero(0), 1e-12)
	assert.InDelta(t, 0.0, c.ProbabilityOfZero(1), 1e-12)

	// swapping two |1> qubits is a no-op
	applyX(c, 2)
	c.ApplySwap(1, 2)
	assert.Equal(t, []BasisState{{Index: 0b110, Amplitude: c.State().Amplitudes[0b110], Prob: 1}}, c.State().Terms())
}

func TestResetQubit(t *testing.T) {
	c, err := New(topology.Chain(2, false), WithSeed(3))
	require.NoError(t, err)

	applyX(c, 0)
	c.ResetQubit(0)
	assert.InDelta(t, 1.0, c.ProbabilityOfZero(0), 1e-12)

	applyH(c, 1)
	c.ResetQubit(1)
	assert.InDelta(t, 1.0, c.ProbabilityOfZero(1), 1e-12)
	assert.Len(t, c.State().Amplitudes, 1)
}

func TestLinkEnforcement(t *testing.T) {
	c, err := New(topology.Chain(3, false))
	require.NoError(t, err)
	assert.Panics(t, func() { c.ApplyControlledNot(0, 2) })
	assert.Panics(t, func() { c.ApplySwap(2, 0) })
	assert.Panics(t, func() { c.ObserveQubit(3) })
	assert.NotPanics(t, func() { c.ApplyControlledNot(1, 2) })
}

func TestSwapPathDelegates(t *testing.T) {
	c, err := New(topology.Chain(4, false))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1, 0}, c.SwapPath(3, 0))
}
