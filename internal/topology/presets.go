package topology

import "fmt"

// ibmq53Links is the coupling map of the 53-qubit IBM Q device.
var ibmq53Links = [][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 4},
	{0, 5}, {4, 6}, {5, 7}, {6, 11},
	{7, 8}, {8, 9}, {9, 10}, {10, 11},
	{7, 12}, {11, 13}, {12, 14}, {13, 15}, {14, 16}, {15, 18},
	{9, 17},
	{16, 19}, {18, 20}, {19, 21}, {20, 22}, {21, 23}, {22, 27},
	{17, 25},
	{23, 24}, {24, 25}, {25, 26}, {26, 27},
	{23, 28}, {27, 29}, {28, 30}, {29, 34},
	{30, 31}, {31, 32}, {32, 33}, {33, 34},
	{30, 35}, {34, 36}, {35, 37}, {36, 38}, {37, 39}, {38, 41},
	{32, 40},
	{39, 42}, {41, 43}, {42, 44}, {43, 45}, {44, 46}, {45, 50},
	{40, 48},
	{46, 47}, {47, 48}, {48, 49}, {49, 50},
	{46, 51}, {50, 52},
}

// IBMQ53 returns the heavy-hexagon style 53-qubit IBM Q topology.
func IBMQ53() *Graph {
	g := New("ibmq53", 53)
	for _, l := range ibmq53Links {
		g.mustLink(l[0], l[1])
	}
	return g
}

// Chain links qubit i to i+1; periodic closes the ring.
func Chain(n int, periodic bool) *Graph {
	name := fmt.Sprintf("chain%d", n)
	if periodic {
		name = fmt.Sprintf("ring%d", n)
	}
	g := New(name, n)
	for i := 0; i+1 < n; i++ {
		g.mustLink(i, i+1)
	}
	if periodic && n > 2 {
		g.mustLink(n-1, 0)
	}
	return g
}

// Grid returns a rows x cols lattice numbered row-major.
func Grid(rows, cols int) *Graph {
	g := New(fmt.Sprintf("grid%dx%d", rows, cols), rows*cols)
	for r := range rows {
		for c := range cols {
			q := r*cols + c
			if c+1 < cols {
				g.mustLink(q, q+1)
			}
			if r+1 < rows {
				g.mustLink(q, q+cols)
			}
		}
	}
	return g
}

// AllToAll links every pair of qubits.
func AllToAll(n int) *Graph {
	g := New(fmt.Sprintf("alltoall%d", n), n)
	for i := range n {
		for j := i + 1; j < n; j++ {
			g.mustLink(i, j)
		}
	}
	return g
}

// Spec selects a topology by preset name or file path.
type Spec struct {
	Name   string
	Qubits int
	Rows   int
	Cols   int
}

// Build constructs the topology described by s. Names other than the
// presets are treated as paths to YAML topology files.
func (s Spec) Build() (*Graph, error) {
	switch s.Name {
	case "", "ibmq53":
		return IBMQ53(), nil
	case "chain", "ring", "alltoall":
		if s.Qubits <= 0 {
			return nil, fmt.Errorf("topology %s: qubits must be positive", s.Name)
		}
		switch s.Name {
		case "chain":
			return Chain(s.Qubits, false), nil
		case "ring":
			return Chain(s.Qubits, true), nil
		}
		return AllToAll(s.Qubits), nil
	case "grid":
		if s.Rows <= 0 || s.Cols <= 0 {
			return nil, fmt.Errorf("topology grid: rows and cols must be positive")
		}
		return Grid(s.Rows, s.Cols), nil
	}
	return Load(s.Name)
}
