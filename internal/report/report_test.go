package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qroute/internal/qasm"
	"qroute/internal/sampler"
	"qroute/internal/topology"
)

func result() *sampler.Result {
	return &sampler.Result{
		ID:        uuid.New(),
		Program:   "bell",
		Topology:  "chain3",
		Shots:     10,
		Seed:      7,
		Registers: []string{"c"},
		Counts:    map[string]int{"00": 6, "11": 4},
		Mapping:   []int{2, 1},
		Swaps:     1,
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, result(), topology.Chain(3, false)))
	page := buf.String()
	assert.Contains(t, page, "<html")
	assert.Contains(t, page, "bell on chain3")
	assert.Contains(t, page, "hw[2]")
	assert.Contains(t, page, "virtual qubit 0")
	assert.Contains(t, page, "1 routing swaps")
}

func TestPlacementData(t *testing.T) {
	nodes, links := placementData(result(), topology.Chain(3, false))
	require.Len(t, nodes, 3)
	assert.Len(t, links, 2)

	assert.Equal(t, idleColor, nodes[0].ItemStyle.Color)
	assert.Equal(t, occupiedColor, nodes[1].ItemStyle.Color)
	assert.Equal(t, occupiedColor, nodes[2].ItemStyle.Color)
	assert.Equal(t, "hw[0]", links[0].Source)
	assert.Equal(t, "hw[1]", links[0].Target)
}

func TestWriteHTMLWithoutTopology(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, result(), nil))
	assert.Contains(t, buf.String(), "bell on chain3")
	assert.NotContains(t, buf.String(), "hw[0]")
}

const program = `OPENQASM 2.0;
gate pair a,b { U(pi/2,0,pi) a; CX a,b; }
gate chain3 a,b,c { pair a,b; pair b,c; }
qreg q[3];
creg c[1];
chain3 q[0],q[1],q[2];
if(c==1) pair q[0],q[1];
`

func TestGateTree(t *testing.T) {
	stmts, err := qasm.Parse(program)
	require.NoError(t, err)

	tree, err := GateTree(stmts)
	require.NoError(t, err)
	out := tree.String()
	assert.True(t, strings.HasPrefix(out, "2 gates"), out)
	assert.Contains(t, out, "chain3 a,b,c")
	assert.Contains(t, out, "pair a,b")
	assert.Contains(t, out, "pair b,c")
	assert.Contains(t, out, "CX a,b")
	// pair appears twice inside chain3 and once at top level
	assert.Equal(t, 3, strings.Count(out, "CX a,b"), out)

	tree, err = GateTree(stmts, "pair")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tree.String(), "1 gates"))

	_, err = GateTree(stmts, "missing")
	assert.ErrorContains(t, err, `"missing"`)
}
