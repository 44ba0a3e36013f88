package report

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"qroute/internal/qasm"
)

// GateTree prints how gates expand down to U and CX. With no names it
// covers the gates the program calls outside of gate bodies, in order of
// first use.
func GateTree(program []qasm.Statement, names ...string) (treeprint.Tree, error) {
	decls := make(map[string]*qasm.GateDecl)
	for _, s := range program {
		if d, ok := s.(*qasm.GateDecl); ok {
			decls[d.Name] = d
		}
	}
	if len(names) == 0 {
		names = calledGates(program)
	}

	tree := treeprint.NewWithRoot(fmt.Sprintf("%d gates", len(names)))
	for _, name := range names {
		d, ok := decls[name]
		if !ok {
			return nil, fmt.Errorf("gate %q is not defined", name)
		}
		expand(tree.AddBranch(signature(d)), d, decls)
	}
	return tree, nil
}

func calledGates(program []qasm.Statement) []string {
	var names []string
	seen := make(map[string]bool)
	var visit func(s qasm.Statement)
	visit = func(s qasm.Statement) {
		switch s := s.(type) {
		case *qasm.GateCall:
			if !seen[s.Name] {
				seen[s.Name] = true
				names = append(names, s.Name)
			}
		case *qasm.If:
			visit(s.Body)
		}
	}
	for _, s := range program {
		visit(s)
	}
	return names
}

// expand adds one node per body statement. Bodies only call gates defined
// before them, so the walk terminates.
func expand(branch treeprint.Tree, d *qasm.GateDecl, decls map[string]*qasm.GateDecl) {
	for _, s := range d.Body {
		text := strings.TrimSuffix(qasm.Format(s), ";")
		call, ok := s.(*qasm.GateCall)
		if !ok {
			branch.AddNode(text)
			continue
		}
		inner, ok := decls[call.Name]
		if !ok {
			branch.AddNode(text + " (opaque)")
			continue
		}
		expand(branch.AddBranch(text), inner, decls)
	}
}

func signature(d *qasm.GateDecl) string {
	var sb strings.Builder
	sb.WriteString(d.Name)
	if len(d.Params) > 0 {
		sb.WriteString("(" + strings.Join(d.Params, ",") + ")")
	}
	sb.WriteString(" " + strings.Join(d.Qubits, ","))
	return sb.String()
}
