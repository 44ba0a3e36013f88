package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qroute/internal/qasm"
)

const bell = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
creg c[2];
h q[0];
cx q[0],q[1];
measure q -> c;
`

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func writeProgram(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.qasm")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	path := writeProgram(t, `OPENQASM 2.0;
qreg q[3];
creg c[3];
U(pi,0,pi) q[0];
CX q[0],q[2];
measure q -> c;
`)
	out, err := execute(t, "run", path, "--topology", "chain", "--qubits", "3", "--seed", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "c = 101 (5)")
	assert.Contains(t, out, "q[0] -> hw[1]")
	assert.Contains(t, out, "routing swaps: 1")
}

func TestSampleCommandWithStore(t *testing.T) {
	path := writeProgram(t, bell)
	db := filepath.Join(t.TempDir(), "runs.db")
	out, err := execute(t, "sample", path, "--shots", "50", "--seed", "9", "--store", db)
	require.NoError(t, err)
	assert.Contains(t, out, "OUTCOME")
	assert.Regexp(t, `(?m)^(00|11)\s+\d+`, out)

	m := regexp.MustCompile(`saved run ([0-9a-f-]{36})`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)

	out, err = execute(t, "runs", "list", "--store", db)
	require.NoError(t, err)
	assert.Contains(t, out, m[1])

	out, err = execute(t, "runs", "show", m[1], "--store", db)
	require.NoError(t, err)
	assert.Contains(t, out, "50 shots")

	_, err = execute(t, "runs", "delete", m[1], "--store", db)
	require.NoError(t, err)
	_, err = execute(t, "runs", "show", m[1], "--store", db)
	assert.Error(t, err)
}

func TestCompileCommand(t *testing.T) {
	path := writeProgram(t, bell)
	out, err := execute(t, "compile", path, "--topology", "ring", "--qubits", "4")
	require.NoError(t, err)

	stmts, err := qasm.Parse(out)
	require.NoError(t, err, out)
	assert.NotEmpty(t, stmts)
	assert.Contains(t, out, "qreg hw[4];")
	assert.Contains(t, out, "// depth")
}

func TestGatesCommand(t *testing.T) {
	path := writeProgram(t, bell)
	out, err := execute(t, "gates", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 gates")
	assert.Contains(t, out, "h a")
	assert.Contains(t, out, "cx c,t")
	assert.Contains(t, out, "CX c,t")

	_, err = execute(t, "gates", path, "nosuch")
	assert.Error(t, err)
}

func TestSampleHTMLReport(t *testing.T) {
	path := writeProgram(t, bell)
	page := filepath.Join(t.TempDir(), "report.html")
	out, err := execute(t, "sample", path, "--shots", "20", "--seed", "4", "--topology", "chain", "--qubits", "2", "--html", page)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote report to")

	data, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Contains(t, string(data), "prog.qasm on chain2")
	assert.Contains(t, string(data), "hw[1]")
}

func TestTopologyCommand(t *testing.T) {
	out, err := execute(t, "topology", "--topology", "grid", "--rows", "2", "--cols", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "qubits:    4")
	assert.Contains(t, out, "links:     4")

	out, err = execute(t, "topology", "--topology", "chain", "--qubits", "3", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "qubits: 3")
}

func TestDescribeError(t *testing.T) {
	path := writeProgram(t, `OPENQASM 2.0;
qreg q[2];
creg c[1];
gate inner a,b { U(0,0,0) a; CX a,b; }
gate outer a,b { inner a,b; }
outer q[0],q[0];
`)
	_, err := execute(t, "run", path, "--topology", "chain", "--qubits", "2")
	require.Error(t, err)
	msg := describeError(err)
	assert.Contains(t, msg, "error[")
	assert.Contains(t, msg, "expanding: outer → inner")

	_, err = execute(t, "run", writeProgram(t, "OPENQASM 2.0; qreg"))
	require.Error(t, err)
	assert.Contains(t, describeError(err), "error[")

	_, err = execute(t, "topology", "--topology", "chain", "--qubits", "0")
	assert.Error(t, err)
}

func TestSamples(t *testing.T) {
	dir, err := filepath.Abs("../../samples")
	require.NoError(t, err)

	out, err := execute(t, "sample", filepath.Join(dir, "full_adder.qasm"), "--shots", "64", "--seed", "3")
	require.NoError(t, err)
	for _, line := range regexp.MustCompile(`(?m)^([01]{4})\s`).FindAllStringSubmatch(out, -1) {
		assert.Contains(t, []string{"0000", "0101", "0110", "1011"}, line[1])
	}

	out, err = execute(t, "run", filepath.Join(dir, "ghz_far.qasm"), "--topology", filepath.Join(dir, "heavy_square.yaml"), "--seed", "1")
	require.NoError(t, err)
	assert.Regexp(t, `c = (000000|111111)`, out)

	_, err = execute(t, "sample", filepath.Join(dir, "bell.qasm"), "--config", filepath.Join(dir, "qroute.yaml"), "--shots", "8", "--store", "")
	require.NoError(t, err)
}
