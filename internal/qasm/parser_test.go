package qasm

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNamedCregs(t *testing.T) {
	src := `OPENQASM 2.0;

qreg q[3];
creg c0[1];
creg c1[1];

U(pi/2,0,pi) q[1];
CX q[1], q[2];
CX q[0], q[1];
measure q[0] -> c0[0];
measure q[1] -> c1[0];

if(c1==1) U(pi,0,pi) q[2];`

	stmts, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, stmts, 10)

	assert.Equal(t, &Version{Number: "2.0", At: Position{1, 1}}, stmts[0])
	assert.Equal(t, &QregDecl{Name: "q", Size: 3, At: Position{3, 1}}, stmts[1])
	assert.Equal(t, "c1", stmts[3].(*CregDecl).Name)

	cx := stmts[5].(*CXStmt)
	assert.Equal(t, Argument{Name: "q", Index: 1, Indexed: true, At: Position{8, 4}}, cx.Control)
	assert.Equal(t, 2, cx.Target.Index)

	m := stmts[7].(*Measure)
	assert.Equal(t, "q[0]", m.Qubit.String())
	assert.Equal(t, "c0[0]", m.Bit.String())

	cond := stmts[9].(*If)
	assert.Equal(t, "c1", cond.Register)
	assert.Equal(t, uint64(1), cond.Value)
	body := cond.Body.(*UStmt)
	assert.Equal(t, "q[2]", body.Target.String())
}

func TestParseGateDefinition(t *testing.T) {
	src := `gate rot(theta, phi) a, b {
  U(theta, phi, 0) a;
  CX a, b;
  barrier a, b;
}
qreg q[2];
rot(pi/4, -pi) q[0], q[1];`

	stmts, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, stmts, 3)

	decl := stmts[0].(*GateDecl)
	assert.Equal(t, "rot", decl.Name)
	assert.Equal(t, []string{"theta", "phi"}, decl.Params)
	assert.Equal(t, []string{"a", "b"}, decl.Qubits)
	require.Len(t, decl.Body, 3)
	assert.IsType(t, &UStmt{}, decl.Body[0])
	assert.IsType(t, &CXStmt{}, decl.Body[1])
	assert.IsType(t, &Barrier{}, decl.Body[2])

	call := stmts[2].(*GateCall)
	assert.Equal(t, "rot", call.Name)
	require.Len(t, call.Params, 2)
	v, err := Eval(call.Params[0], nil)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/4, v, 1e-12)
	v, err = Eval(call.Params[1], nil)
	require.NoError(t, err)
	assert.InDelta(t, -math.Pi, v, 1e-12)
}

func TestParseStandardLibraryInclude(t *testing.T) {
	src := `OPENQASM 2.0;
include "qelib1.inc";
include "qelib1.inc";
qreg q[2];
h q[0];
cx q[0], q[1];`

	stmts, err := Parse(src)
	require.NoError(t, err)

	gates := map[string]bool{}
	for _, s := range stmts {
		if d, ok := s.(*GateDecl); ok {
			assert.False(t, gates[d.Name], "gate %s defined twice", d.Name)
			gates[d.Name] = true
		}
	}
	for _, name := range []string{"u3", "u2", "u1", "cx", "h", "x", "ccx", "swap", "rz"} {
		assert.True(t, gates[name], "missing standard gate %s", name)
	}

	last := stmts[len(stmts)-1].(*GateCall)
	assert.Equal(t, "cx", last.Name)
}

func TestParseIncludeFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mylib.inc"), []byte("gate flip a { U(pi,0,pi) a; }\n"), 0o644))
	main := filepath.Join(dir, "main.qasm")
	require.NoError(t, os.WriteFile(main, []byte("include \"mylib.inc\";\nqreg q[1];\nflip q[0];\n"), 0o644))

	stmts, err := ParseFile(main)
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.Equal(t, "flip", stmts[0].(*GateDecl).Name)
}

func TestParseIncluderFunc(t *testing.T) {
	inc := IncluderFunc(func(name string) (string, error) {
		if name == "missing.inc" {
			return "", errors.New("not found")
		}
		return "qreg extra[1];", nil
	})

	stmts, err := Parse(`include "a.inc"; qreg q[1];`, WithIncluder(inc))
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "extra", stmts[0].(*QregDecl).Name)

	_, err = Parse(`include "missing.inc";`, WithIncluder(inc))
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Msg, "not found")
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"1.5707", 1.5707},
		{"pi", math.Pi},
		{"-pi/2", -math.Pi / 2},
		{"3*pi/4", 3 * math.Pi / 4},
		{"2^3", 8},
		{"-2^2", -4},
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"sqrt(4) + cos(0)", 3},
		{"3.14e-2", 0.0314},
		{"ln(exp(2))", 2},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			stmts, err := Parse("qreg q[1]; U(" + tt.src + ",0,0) q[0];")
			require.NoError(t, err)
			u := stmts[1].(*UStmt)
			got, err := Eval(u.Params[0], nil)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing semicolon", "qreg q[2]"},
		{"zero size", "qreg q[0];"},
		{"identifier in top-level expression", "qreg q[1]; U(theta,0,0) q[0];"},
		{"indexed gate argument", "gate g a { U(0,0,0) a[0]; }"},
		{"unknown formal", "gate g a { CX a, b; }"},
		{"measure in gate", "gate g a { measure a -> a; }"},
		{"nested gate", "gate g a { gate h b { U(0,0,0) b; } }"},
		{"duplicate formal", "gate g(a) a { U(0,0,0) a; }"},
		{"late header", "qreg q[1]; OPENQASM 2.0;"},
		{"unterminated string", `include "qelib1.inc`},
		{"bad character", "qreg q[1]; @"},
		{"cx arity", "qreg q[3]; CX q[0], q[1], q[2];"},
		{"reserved name", "qreg U[1];"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Positive(t, se.Pos.Line)
		})
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := Parse("qreg q[2];\ncreg c[2];\nmeasure q -> ;", WithFile("bell.qasm"))
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, Position{Line: 3, Col: 14}, se.Pos)
	assert.Equal(t, "bell.qasm:3:14: expected identifier, found \";\"", err.Error())
}

func TestFormatRoundTrip(t *testing.T) {
	src := `OPENQASM 2.0;
qreg q[2];
creg c[2];
gate g(theta) a,b { U(theta,0,pi/2) a; CX a,b; }
g(pi) q[0],q[1];
reset q;
barrier q[0],q[1];
measure q -> c;
if(c==3) U(0,0,0) q[0];`

	stmts, err := Parse(src)
	require.NoError(t, err)

	var out string
	for _, s := range stmts {
		out += Format(s) + "\n"
	}
	again, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, again, len(stmts))
	for i := range stmts {
		assert.Equal(t, Kind(stmts[i]), Kind(again[i]))
		assert.Equal(t, Format(stmts[i]), Format(again[i]))
	}
}

func TestFormatParam(t *testing.T) {
	assert.Equal(t, "pi/2", FormatParam(math.Pi/2))
	assert.Equal(t, "-3*pi/4", FormatParam(-3*math.Pi/4))
	assert.Equal(t, "0.25", FormatParam(0.25))
}
