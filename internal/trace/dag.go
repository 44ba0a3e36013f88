package trace

import "slices"

// Node is a recorded operation placed in the circuit's dependency graph.
// An operation depends on the most recent earlier operation on each of its
// qubits.
type Node struct {
	ID           int   // index of the operation in the recording
	Op           Op    // the operation itself
	Step         int   // earliest time step it can run in
	Dependencies []int // IDs of the nodes that must run before it
}

// DAG returns the dependency graph of the recording with every node at its
// earliest possible step.
func (r *Recorder) DAG() []Node {
	nodes := make([]Node, len(r.ops))
	lastOnQubit := make(map[int]int)
	for i, op := range r.ops {
		n := Node{ID: i, Op: op}
		for _, q := range op.Qubits {
			dep, ok := lastOnQubit[q]
			if !ok {
				continue
			}
			if !slices.Contains(n.Dependencies, dep) {
				n.Dependencies = append(n.Dependencies, dep)
			}
			n.Step = max(n.Step, nodes[dep].Step+1)
		}
		for _, q := range op.Qubits {
			lastOnQubit[q] = i
		}
		nodes[i] = n
	}
	return nodes
}

// Layers groups the operations by time step. Operations within a layer act
// on disjoint qubits and keep their recording order.
func (r *Recorder) Layers() [][]Op {
	var layers [][]Op
	for _, n := range r.DAG() {
		for len(layers) <= n.Step {
			layers = append(layers, nil)
		}
		layers[n.Step] = append(layers[n.Step], n.Op)
	}
	return layers
}

// Depth is the number of time steps of the recorded circuit.
func (r *Recorder) Depth() int {
	depth := 0
	for _, n := range r.DAG() {
		depth = max(depth, n.Step+1)
	}
	return depth
}
