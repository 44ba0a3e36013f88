package trace

import (
	"fmt"
	"strings"

	"qroute/internal/qasm"
)

// QASM renders the recording as an OpenQASM 2.0 program on a single hardware
// register "hw". Measurements are written to consecutive bits of "m" in the
// order they happened.
func (r *Recorder) QASM() string {
	numMeasures := 0
	for _, op := range r.ops {
		if op.Type == OpMeasure {
			numMeasures++
		}
	}

	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg hw[%d];\n", max(r.numQubits, 1))
	if numMeasures > 0 {
		fmt.Fprintf(&sb, "creg m[%d];\n", numMeasures)
	}
	sb.WriteString("\n")

	bit := 0
	for _, op := range r.ops {
		switch op.Type {
		case OpU:
			fmt.Fprintf(&sb, "U(%s,%s,%s) hw[%d];\n",
				qasm.FormatParam(op.Params[0]), qasm.FormatParam(op.Params[1]), qasm.FormatParam(op.Params[2]), op.Qubits[0])
		case OpCX:
			fmt.Fprintf(&sb, "CX hw[%d],hw[%d];\n", op.Qubits[0], op.Qubits[1])
		case OpSwap:
			fmt.Fprintf(&sb, "swap hw[%d],hw[%d];\n", op.Qubits[0], op.Qubits[1])
		case OpReset:
			fmt.Fprintf(&sb, "reset hw[%d];\n", op.Qubits[0])
		case OpMeasure:
			fmt.Fprintf(&sb, "measure hw[%d] -> m[%d];\n", op.Qubits[0], bit)
			bit++
		}
	}
	return sb.String()
}
