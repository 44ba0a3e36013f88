package trace

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qroute/internal/engine"
	"qroute/internal/qasm"
	"qroute/internal/topology"
)

func newRecorder(t *testing.T, n int) *Recorder {
	t.Helper()
	c, err := engine.New(topology.Chain(n, false), engine.WithSeed(7))
	require.NoError(t, err)
	return NewRecorder(c, n)
}

func TestRecorderForwardsAndRecords(t *testing.T) {
	r := newRecorder(t, 3)
	r.ApplyUniversalUnitary(0, math.Pi, 0, math.Pi)
	r.ApplySwap(0, 1)
	r.ApplyControlledNot(1, 2)
	assert.Equal(t, 1, r.ObserveQubit(2))
	r.ResetQubit(2)
	assert.Equal(t, []int{0, 1, 2}, r.SwapPath(0, 2))

	ops := r.Ops()
	require.Len(t, ops, 5)
	assert.Equal(t, Op{Type: OpU, Qubits: []int{0}, Params: []float64{math.Pi, 0, math.Pi}}, ops[0])
	assert.Equal(t, Op{Type: OpMeasure, Qubits: []int{2}, Result: 1}, ops[3])
	assert.Equal(t, map[string]int{OpU: 1, OpSwap: 1, OpCX: 1, OpMeasure: 1, OpReset: 1}, r.Counts())
	assert.Equal(t, []int{0, 1, 2}, r.UsedQubits())

	r.Clear()
	assert.Zero(t, r.Len())
}

func TestLayers(t *testing.T) {
	r := newRecorder(t, 4)
	r.ApplyUniversalUnitary(0, math.Pi/2, 0, math.Pi) // step 0
	r.ApplyUniversalUnitary(3, math.Pi/2, 0, math.Pi) // step 0
	r.ApplyControlledNot(0, 1)                        // step 1
	r.ApplyControlledNot(2, 3)                        // step 1
	r.ApplySwap(1, 2)                                 // step 2
	r.ObserveQubit(0)                                 // step 2

	layers := r.Layers()
	require.Len(t, layers, 3)
	assert.Len(t, layers[0], 2)
	assert.Len(t, layers[1], 2)
	assert.Equal(t, OpSwap, layers[2][0].Type)
	assert.Equal(t, OpMeasure, layers[2][1].Type)
	assert.Equal(t, 3, r.Depth())

	dag := r.DAG()
	assert.Equal(t, []int{2, 3}, dag[4].Dependencies)
	assert.Empty(t, dag[0].Dependencies)
}

func TestQASMReparses(t *testing.T) {
	r := newRecorder(t, 3)
	r.ApplyUniversalUnitary(0, math.Pi/2, 0, math.Pi)
	r.ApplySwap(0, 1)
	r.ApplyControlledNot(1, 2)
	r.ObserveQubit(1)
	r.ObserveQubit(2)
	r.ResetQubit(0)

	src := r.QASM()
	assert.Contains(t, src, "qreg hw[3];")
	assert.Contains(t, src, "creg m[2];")
	assert.Contains(t, src, "U(pi/2,0,pi) hw[0];")
	assert.Contains(t, src, "swap hw[0],hw[1];")
	assert.Contains(t, src, "measure hw[2] -> m[1];")

	stmts, err := qasm.Parse(src)
	require.NoError(t, err)
	var kinds []string
	for _, s := range stmts {
		if _, ok := s.(*qasm.GateDecl); ok {
			continue
		}
		kinds = append(kinds, qasm.Kind(s))
	}
	assert.Equal(t, "OPENQASM qreg creg U swap CX measure measure reset", strings.Join(kinds, " "))
}
