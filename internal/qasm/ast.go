// Package qasm parses OpenQASM 2.0 source into a statement tree.
//
// The tree is a closed set of statement kinds: every concrete statement type
// in this package implements Statement, and no type outside it can, so a type
// switch over the kinds below is complete.
package qasm

import (
	"fmt"
	"strings"
)

// Position is a 1-based line/column location in the source.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Statement is one node of a parsed program.
type Statement interface {
	Pos() Position
	statement()
}

// Argument names a whole register or a single indexed slot of it.
type Argument struct {
	Name    string
	Index   int
	Indexed bool
	At      Position
}

func (a Argument) String() string {
	if a.Indexed {
		return fmt.Sprintf("%s[%d]", a.Name, a.Index)
	}
	return a.Name
}

// Version is the "OPENQASM x.y;" header.
type Version struct {
	Number string
	At     Position
}

// QregDecl declares a quantum register.
type QregDecl struct {
	Name string
	Size int
	At   Position
}

// CregDecl declares a classical register.
type CregDecl struct {
	Name string
	Size int
	At   Position
}

// GateDecl defines a user gate. Body holds only UStmt, CXStmt, GateCall and
// Barrier statements whose arguments are bare formal names.
type GateDecl struct {
	Name   string
	Params []string
	Qubits []string
	Body   []Statement
	At     Position
}

// OpaqueDecl declares a gate without a body.
type OpaqueDecl struct {
	Name   string
	Params []string
	Qubits []string
	At     Position
}

// Measure is "measure qubit -> bit;".
type Measure struct {
	Qubit Argument
	Bit   Argument
	At    Position
}

// Reset is "reset target;".
type Reset struct {
	Target Argument
	At     Position
}

// Barrier is "barrier a, b, ...;".
type Barrier struct {
	Targets []Argument
	At      Position
}

// UStmt is the built-in universal single-qubit unitary U(theta, phi, lambda).
type UStmt struct {
	Params []Expr
	Target Argument
	At     Position
}

// CXStmt is the built-in controlled-not.
type CXStmt struct {
	Control Argument
	Target  Argument
	At      Position
}

// GateCall invokes a gate defined with "gate" or "opaque".
type GateCall struct {
	Name   string
	Params []Expr
	Args   []Argument
	At     Position
}

// If guards Body with "creg == Value".
type If struct {
	Register string
	Value    uint64
	Body     Statement
	At       Position
}

func (s *Version) Pos() Position    { return s.At }
func (s *QregDecl) Pos() Position   { return s.At }
func (s *CregDecl) Pos() Position   { return s.At }
func (s *GateDecl) Pos() Position   { return s.At }
func (s *OpaqueDecl) Pos() Position { return s.At }
func (s *Measure) Pos() Position    { return s.At }
func (s *Reset) Pos() Position      { return s.At }
func (s *Barrier) Pos() Position    { return s.At }
func (s *UStmt) Pos() Position      { return s.At }
func (s *CXStmt) Pos() Position     { return s.At }
func (s *GateCall) Pos() Position   { return s.At }
func (s *If) Pos() Position         { return s.At }

func (*Version) statement()    {}
func (*QregDecl) statement()   {}
func (*CregDecl) statement()   {}
func (*GateDecl) statement()   {}
func (*OpaqueDecl) statement() {}
func (*Measure) statement()    {}
func (*Reset) statement()      {}
func (*Barrier) statement()    {}
func (*UStmt) statement()      {}
func (*CXStmt) statement()     {}
func (*GateCall) statement()   {}
func (*If) statement()         {}

// Kind returns the source keyword (or gate name) a statement was parsed from.
func Kind(s Statement) string {
	switch s := s.(type) {
	case *Version:
		return "OPENQASM"
	case *QregDecl:
		return "qreg"
	case *CregDecl:
		return "creg"
	case *GateDecl:
		return "gate"
	case *OpaqueDecl:
		return "opaque"
	case *Measure:
		return "measure"
	case *Reset:
		return "reset"
	case *Barrier:
		return "barrier"
	case *UStmt:
		return "U"
	case *CXStmt:
		return "CX"
	case *GateCall:
		return s.Name
	case *If:
		return "if"
	}
	return "?"
}

// Format renders a statement back to OpenQASM text on a single line.
// Gate bodies are rendered inline.
func Format(s Statement) string {
	switch s := s.(type) {
	case *Version:
		return fmt.Sprintf("OPENQASM %s;", s.Number)
	case *QregDecl:
		return fmt.Sprintf("qreg %s[%d];", s.Name, s.Size)
	case *CregDecl:
		return fmt.Sprintf("creg %s[%d];", s.Name, s.Size)
	case *GateDecl:
		var sb strings.Builder
		sb.WriteString("gate " + s.Name)
		if len(s.Params) > 0 {
			sb.WriteString("(" + strings.Join(s.Params, ",") + ")")
		}
		sb.WriteString(" " + strings.Join(s.Qubits, ",") + " {")
		for _, b := range s.Body {
			sb.WriteString(" " + Format(b))
		}
		sb.WriteString(" }")
		return sb.String()
	case *OpaqueDecl:
		p := ""
		if len(s.Params) > 0 {
			p = "(" + strings.Join(s.Params, ",") + ")"
		}
		return fmt.Sprintf("opaque %s%s %s;", s.Name, p, strings.Join(s.Qubits, ","))
	case *Measure:
		return fmt.Sprintf("measure %s -> %s;", s.Qubit, s.Bit)
	case *Reset:
		return fmt.Sprintf("reset %s;", s.Target)
	case *Barrier:
		return fmt.Sprintf("barrier %s;", joinArgs(s.Targets))
	case *UStmt:
		return fmt.Sprintf("U(%s) %s;", joinExprs(s.Params), s.Target)
	case *CXStmt:
		return fmt.Sprintf("CX %s,%s;", s.Control, s.Target)
	case *GateCall:
		if len(s.Params) > 0 {
			return fmt.Sprintf("%s(%s) %s;", s.Name, joinExprs(s.Params), joinArgs(s.Args))
		}
		return fmt.Sprintf("%s %s;", s.Name, joinArgs(s.Args))
	case *If:
		return fmt.Sprintf("if(%s==%d) %s", s.Register, s.Value, Format(s.Body))
	}
	return ""
}

func joinArgs(args []Argument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ",")
}
