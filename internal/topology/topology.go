// Package topology describes which hardware qubits of a device may interact
// directly.
package topology

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Graph is an undirected adjacency graph over hardware qubits 0..n-1.
type Graph struct {
	name      string
	neighbors [][]int
	links     int
}

// New returns a graph of n qubits with no links.
func New(name string, n int) *Graph {
	return &Graph{name: name, neighbors: make([][]int, n)}
}

// Name returns the graph's display name.
func (g *Graph) Name() string { return g.name }

// QubitCount returns the number of hardware qubits.
func (g *Graph) QubitCount() int { return len(g.neighbors) }

// LinkCount returns the number of undirected links.
func (g *Graph) LinkCount() int { return g.links }

// Link connects hardware qubits a and b.
func (g *Graph) Link(a, b int) error {
	n := len(g.neighbors)
	if a < 0 || a >= n || b < 0 || b >= n {
		return fmt.Errorf("link %d-%d: qubit out of range [0,%d)", a, b, n)
	}
	if a == b {
		return fmt.Errorf("link %d-%d: self loop", a, b)
	}
	if g.Adjacent(a, b) {
		return fmt.Errorf("link %d-%d: duplicate link", a, b)
	}
	g.neighbors[a] = insertSorted(g.neighbors[a], b)
	g.neighbors[b] = insertSorted(g.neighbors[b], a)
	g.links++
	return nil
}

func (g *Graph) mustLink(a, b int) {
	if err := g.Link(a, b); err != nil {
		panic(err)
	}
}

func insertSorted(s []int, v int) []int {
	i, _ := slices.BinarySearch(s, v)
	return slices.Insert(s, i, v)
}

// Adjacent reports whether a and b share a link.
func (g *Graph) Adjacent(a, b int) bool {
	if a < 0 || a >= len(g.neighbors) {
		return false
	}
	_, ok := slices.BinarySearch(g.neighbors[a], b)
	return ok
}

// Neighbors returns the qubits linked to q in ascending order.
func (g *Graph) Neighbors(q int) []int {
	return slices.Clone(g.neighbors[q])
}

// ShortestPath returns a shortest sequence of hardware qubits from origin to
// target, both ends included. Ties are broken towards lower qubit numbers.
// It returns nil when target is unreachable.
func (g *Graph) ShortestPath(origin, target int) []int {
	n := len(g.neighbors)
	if origin < 0 || origin >= n || target < 0 || target >= n {
		return nil
	}
	if origin == target {
		return []int{origin}
	}

	prev := make([]int, n)
	for i := range prev {
		prev[i] = -1
	}
	prev[origin] = origin
	queue := []int{origin}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == target {
			break
		}
		for _, next := range g.neighbors[cur] {
			if prev[next] == -1 {
				prev[next] = cur
				queue = append(queue, next)
			}
		}
	}
	if prev[target] == -1 {
		return nil
	}

	var path []int
	for q := target; q != origin; q = prev[q] {
		path = append(path, q)
	}
	path = append(path, origin)
	slices.Reverse(path)
	return path
}

// Connected reports whether every qubit can reach every other.
func (g *Graph) Connected() bool {
	n := len(g.neighbors)
	if n == 0 {
		return true
	}
	seen := make([]bool, n)
	seen[0] = true
	stack := []int{0}
	count := 1
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.neighbors[cur] {
			if !seen[next] {
				seen[next] = true
				count++
				stack = append(stack, next)
			}
		}
	}
	return count == n
}

// Links returns every link once as an ordered pair (a < b).
func (g *Graph) Links() [][]int {
	var out [][]int
	for a, ns := range g.neighbors {
		for _, b := range ns {
			if a < b {
				out = append(out, []int{a, b})
			}
		}
	}
	return out
}

// MaxQubits is the widest topology file accepted; the circuit engine addresses
// basis states as uint64.
const MaxQubits = 64

// File is the YAML form of a topology.
type File struct {
	Name   string  `yaml:"name"`
	Qubits int     `yaml:"qubits"`
	Links  [][]int `yaml:"links,flow"`
}

// Load reads a topology from a YAML file.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML topology.
func Parse(data []byte) (*Graph, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("topology: %w", err)
	}
	if f.Qubits <= 0 || f.Qubits > MaxQubits {
		return nil, fmt.Errorf("topology %q: qubits must be in 1..%d, got %d", f.Name, MaxQubits, f.Qubits)
	}
	g := New(f.Name, f.Qubits)
	for _, l := range f.Links {
		if len(l) != 2 {
			return nil, fmt.Errorf("topology %q: link %v must name two qubits", f.Name, l)
		}
		if err := g.Link(l[0], l[1]); err != nil {
			return nil, fmt.Errorf("topology %q: %w", f.Name, err)
		}
	}
	return g, nil
}

// Marshal encodes g as YAML.
func (g *Graph) Marshal() ([]byte, error) {
	return yaml.Marshal(File{Name: g.name, Qubits: g.QubitCount(), Links: g.Links()})
}
