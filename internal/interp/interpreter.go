// Package interp executes OpenQASM 2.0 programs on a device whose two-qubit
// operations are restricted to linked hardware qubits.
//
// Registers are allocated virtual qubits in declaration order. Before every
// CX the interpreter moves one operand along a shortest path of swaps until
// the two hardware qubits are linked, and records the new virtual to
// hardware mapping.
package interp

import (
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"qroute/internal/qasm"
)

// Engine is the circuit the interpreter drives. Every index is a hardware
// qubit.
type Engine interface {
	ObserveQubit(hw int) int
	ResetQubit(hw int)
	ApplyUniversalUnitary(hw int, theta, phi, lambda float64)
	ApplyControlledNot(control, target int)
	ApplySwap(a, b int)
	SwapPath(origin, target int) []int
}

// Topology describes the device the program is mapped onto.
type Topology interface {
	QubitCount() int
	Adjacent(a, b int) bool
}

// DefaultMaxDepth bounds nested gate expansion.
const DefaultMaxDepth = 64

type options struct {
	logger    log.Logger
	maxDepth  int
	parseOpts []qasm.Option
}

// Option configures an Interpreter.
type Option func(*options)

// WithLogger sets the logger; the default is log.Root().
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxDepth sets how deeply gate calls may nest.
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// WithParseOptions passes options through to qasm.Parse.
func WithParseOptions(opts ...qasm.Option) Option {
	return func(o *options) { o.parseOpts = append(o.parseOpts, opts...) }
}

// Interpreter runs one program once. Construct a new one per execution.
type Interpreter struct {
	program []qasm.Statement
	topo    Topology
	engine  Engine

	qregs  *QuantumRegisters
	cregs  *ClassicalRegisters
	gates  *GateTable
	global *Env

	log      log.Logger
	maxDepth int
	executed bool
	swaps    int
}

// Parse parses source, reporting failures as ParseError.
func Parse(source string, opts ...qasm.Option) ([]qasm.Statement, error) {
	stmts, err := qasm.Parse(source, opts...)
	if err != nil {
		return nil, &Error{Kind: ParseError, Op: "parse", Err: err}
	}
	return stmts, nil
}

// New parses source and prepares it for execution on engine.
func New(source string, topo Topology, engine Engine, opts ...Option) (*Interpreter, error) {
	o := buildOptions(opts)
	stmts, err := Parse(source, o.parseOpts...)
	if err != nil {
		return nil, err
	}
	return newInterpreter(stmts, topo, engine, o), nil
}

// NewFromStatements prepares an already parsed program.
func NewFromStatements(program []qasm.Statement, topo Topology, engine Engine, opts ...Option) *Interpreter {
	return newInterpreter(program, topo, engine, buildOptions(opts))
}

func buildOptions(opts []Option) *options {
	o := &options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.Root()
	}
	return o
}

func newInterpreter(program []qasm.Statement, topo Topology, engine Engine, o *options) *Interpreter {
	return &Interpreter{
		program:  program,
		topo:     topo,
		engine:   engine,
		qregs:    NewQuantumRegisters(topo.QubitCount()),
		cregs:    NewClassicalRegisters(),
		gates:    NewGateTable(),
		global:   NewGlobalEnv(),
		log:      o.logger,
		maxDepth: o.maxDepth,
	}
}

// Execute runs the program. It stops at the first failing statement; the
// effects of earlier statements are kept.
func (in *Interpreter) Execute() error {
	if in.executed {
		return newError(UnsupportedOperation, "execute", "program already executed")
	}
	in.executed = true
	for _, stmt := range in.program {
		if err := in.exec(stmt, in.global, 0); err != nil {
			return err
		}
	}
	in.log.Debug("Program executed", "statements", len(in.program), "qubits", in.qregs.Allocated(), "swaps", in.swaps)
	return nil
}

// Classical exposes the classical registers for inspecting results.
func (in *Interpreter) Classical() *ClassicalRegisters { return in.cregs }

// Quantum exposes the quantum registers and the current qubit mapping.
func (in *Interpreter) Quantum() *QuantumRegisters { return in.qregs }

// Gates exposes the gate definitions seen so far.
func (in *Interpreter) Gates() *GateTable { return in.gates }

// Swaps returns the number of routing swaps inserted so far.
func (in *Interpreter) Swaps() int { return in.swaps }

func (in *Interpreter) exec(stmt qasm.Statement, env *Env, depth int) error {
	in.log.Trace("Executing statement", "pos", stmt.Pos(), "op", qasm.Kind(stmt), "gate", env.Gate())
	err := in.dispatch(stmt, env, depth)
	if e, ok := err.(*Error); ok && e.Pos == (qasm.Position{}) {
		e.Pos = stmt.Pos()
	}
	return err
}

func (in *Interpreter) dispatch(stmt qasm.Statement, env *Env, depth int) error {
	switch s := stmt.(type) {
	case *qasm.Version:
		return in.version(s)
	case *qasm.QregDecl:
		return in.declareQreg(s, env)
	case *qasm.CregDecl:
		return in.declareCreg(s, env)
	case *qasm.GateDecl:
		return in.defineGate(s)
	case *qasm.OpaqueDecl:
		return in.gates.Define(&GateDefinition{Name: s.Name, Params: s.Params, Qubits: s.Qubits, Opaque: true})
	case *qasm.Measure:
		return in.measure(s, env)
	case *qasm.Reset:
		return in.reset(s, env)
	case *qasm.Barrier:
		return in.barrier(s, env)
	case *qasm.UStmt:
		return in.universal(s, env)
	case *qasm.CXStmt:
		return in.controlledNot(s, env)
	case *qasm.GateCall:
		return in.callGate(s, env, depth)
	case *qasm.If:
		return in.conditional(s, env, depth)
	}
	return newError(UnsupportedOperation, "execute", "unsupported statement %T", stmt)
}

func (in *Interpreter) version(s *qasm.Version) error {
	if s.Number != "2" && !strings.HasPrefix(s.Number, "2.") {
		return newError(UnsupportedOperation, "OPENQASM", "version %s is not supported", s.Number)
	}
	return nil
}

func (in *Interpreter) declareQreg(s *qasm.QregDecl, env *Env) error {
	if !env.Global() {
		return newError(UnsupportedOperation, "qreg", "declaration inside gate %q", env.Gate())
	}
	if _, ok := env.regs[s.Name]; ok {
		return newError(DuplicateRegister, "qreg", "name %q already declared", s.Name)
	}
	if err := in.qregs.Declare(s.Name, s.Size); err != nil {
		return err
	}
	return env.BindRegister(s.Name, Ref{Name: s.Name})
}

func (in *Interpreter) declareCreg(s *qasm.CregDecl, env *Env) error {
	if !env.Global() {
		return newError(UnsupportedOperation, "creg", "declaration inside gate %q", env.Gate())
	}
	if _, ok := env.regs[s.Name]; ok {
		return newError(DuplicateRegister, "creg", "name %q already declared", s.Name)
	}
	if err := in.cregs.Declare(s.Name, s.Size); err != nil {
		return err
	}
	return env.BindRegister(s.Name, Ref{Name: s.Name})
}

// defineGate stores a gate. A body may only call gates defined before it,
// which rules out direct and mutual recursion.
func (in *Interpreter) defineGate(s *qasm.GateDecl) error {
	if _, ok := in.gates.Lookup(s.Name); ok {
		return newError(DuplicateGateDefinition, "gate", "gate %q already defined", s.Name)
	}
	for _, stmt := range s.Body {
		call, ok := stmt.(*qasm.GateCall)
		if !ok {
			continue
		}
		if _, ok := in.gates.Lookup(call.Name); !ok {
			return &Error{
				Kind:   UndefinedGate,
				Op:     "gate",
				Reason: "gate " + s.Name + " calls undefined gate " + call.Name,
				Pos:    call.Pos(),
			}
		}
	}
	return in.gates.Define(&GateDefinition{Name: s.Name, Params: s.Params, Qubits: s.Qubits, Body: s.Body})
}

// qubits expands a reference into virtual qubit indices.
func (in *Interpreter) qubits(ref Ref) ([]int, error) {
	if ref.Indexed {
		v, err := in.qregs.VirtualIndex(ref.Name, ref.Index)
		if err != nil {
			return nil, err
		}
		return []int{v}, nil
	}
	size, err := in.qregs.Size(ref.Name)
	if err != nil {
		return nil, err
	}
	out := make([]int, size)
	for i := range out {
		out[i], _ = in.qregs.VirtualIndex(ref.Name, i)
	}
	return out, nil
}

func (in *Interpreter) measure(s *qasm.Measure, env *Env) error {
	qref, err := env.Resolve(s.Qubit)
	if err != nil {
		return err
	}
	cref, err := env.Resolve(s.Bit)
	if err != nil {
		return err
	}

	type target struct{ virtual, bit int }
	var targets []target
	switch {
	case qref.Indexed && cref.Indexed:
		v, err := in.qregs.VirtualIndex(qref.Name, qref.Index)
		if err != nil {
			return err
		}
		if _, err := in.cregs.Bit(cref.Name, cref.Index); err != nil {
			return err
		}
		targets = append(targets, target{v, cref.Index})
	case !qref.Indexed && !cref.Indexed:
		qs, err := in.qubits(qref)
		if err != nil {
			return err
		}
		csize, err := in.cregs.Size(cref.Name)
		if err != nil {
			return err
		}
		if len(qs) != csize {
			return newError(SizeMismatch, "measure", "%s has %d qubits but %s has %d bits", qref, len(qs), cref, csize)
		}
		for i, v := range qs {
			targets = append(targets, target{v, i})
		}
	default:
		return newError(UnsupportedOperandShape, "measure", "cannot measure %s into %s", qref, cref)
	}

	for _, t := range targets {
		bit := in.engine.ObserveQubit(in.qregs.HardwareOf(t.virtual))
		if err := in.cregs.SetBit(cref.Name, t.bit, bit); err != nil {
			return err
		}
	}
	return nil
}

// reset projects each qubit onto |0>. This is not a true mixed-state reset;
// the engine only offers projection.
func (in *Interpreter) reset(s *qasm.Reset, env *Env) error {
	ref, err := env.Resolve(s.Target)
	if err != nil {
		return err
	}
	qs, err := in.qubits(ref)
	if err != nil {
		return err
	}
	for _, v := range qs {
		in.engine.ResetQubit(in.qregs.HardwareOf(v))
	}
	return nil
}

// barrier only validates its operands.
func (in *Interpreter) barrier(s *qasm.Barrier, env *Env) error {
	for _, arg := range s.Targets {
		ref, err := env.Resolve(arg)
		if err != nil {
			return err
		}
		if _, err := in.qubits(ref); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) evalParams(op string, exprs []qasm.Expr, env *Env) ([]float64, error) {
	vals := make([]float64, len(exprs))
	for i, e := range exprs {
		v, err := qasm.Eval(e, env)
		if err != nil {
			return nil, &Error{Kind: UnsupportedOperation, Op: op, Err: err}
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, newError(UnsupportedOperation, op, "parameter %s evaluates to %v", e, v)
		}
		vals[i] = v
	}
	return vals, nil
}

func (in *Interpreter) universal(s *qasm.UStmt, env *Env) error {
	if len(s.Params) != 3 {
		return arityError("U", "parameters", len(s.Params), 3)
	}
	p, err := in.evalParams("U", s.Params, env)
	if err != nil {
		return err
	}
	ref, err := env.Resolve(s.Target)
	if err != nil {
		return err
	}
	qs, err := in.qubits(ref)
	if err != nil {
		return err
	}
	for _, v := range qs {
		in.engine.ApplyUniversalUnitary(in.qregs.HardwareOf(v), p[0], p[1], p[2])
	}
	return nil
}

func (in *Interpreter) controlledNot(s *qasm.CXStmt, env *Env) error {
	cref, err := env.Resolve(s.Control)
	if err != nil {
		return err
	}
	tref, err := env.Resolve(s.Target)
	if err != nil {
		return err
	}
	cs, err := in.qubits(cref)
	if err != nil {
		return err
	}
	ts, err := in.qubits(tref)
	if err != nil {
		return err
	}

	var pairs [][2]int
	switch {
	case cref.Indexed && tref.Indexed:
		pairs = append(pairs, [2]int{cs[0], ts[0]})
	case cref.Indexed:
		for _, t := range ts {
			pairs = append(pairs, [2]int{cs[0], t})
		}
	case tref.Indexed:
		for _, c := range cs {
			pairs = append(pairs, [2]int{c, ts[0]})
		}
	default:
		if len(cs) != len(ts) {
			return newError(SizeMismatch, "CX", "%s has %d qubits but %s has %d", cref, len(cs), tref, len(ts))
		}
		for i := range cs {
			pairs = append(pairs, [2]int{cs[i], ts[i]})
		}
	}

	for _, p := range pairs {
		if p[0] == p[1] {
			return newError(UnsupportedOperandShape, "CX", "control and target are the same qubit (%s, %s)", cref, tref)
		}
		if err := in.route(p[0], p[1]); err != nil {
			return err
		}
		in.engine.ApplyControlledNot(in.qregs.HardwareOf(p[0]), in.qregs.HardwareOf(p[1]))
	}
	return nil
}

func (in *Interpreter) callGate(s *qasm.GateCall, env *Env, depth int) error {
	def, ok := in.gates.Lookup(s.Name)
	if !ok {
		return newError(UndefinedGate, s.Name, "gate %q is not defined", s.Name)
	}
	if def.Opaque {
		return newError(UnsupportedOperation, s.Name, "opaque gate %q has no definition to simulate", s.Name)
	}
	if len(s.Params) != len(def.Params) {
		return arityError(s.Name, "parameters", len(s.Params), len(def.Params))
	}
	if len(s.Args) != len(def.Qubits) {
		return arityError(s.Name, "qubit arguments", len(s.Args), len(def.Qubits))
	}
	if depth >= in.maxDepth {
		return newError(UnsupportedOperation, s.Name, "gate expansion nested deeper than %d", in.maxDepth)
	}

	vals, err := in.evalParams(s.Name, s.Params, env)
	if err != nil {
		return err
	}
	call := newCallEnv(def.Name)
	for i, name := range def.Params {
		call.BindParam(name, vals[i])
	}
	for i, arg := range s.Args {
		ref, err := env.Resolve(arg)
		if err != nil {
			return err
		}
		if _, err := in.qubits(ref); err != nil {
			return err
		}
		if err := call.BindRegister(def.Qubits[i], ref); err != nil {
			return err
		}
	}

	for _, stmt := range def.Body {
		if err := in.exec(stmt, call, depth+1); err != nil {
			return WithinGate(def.Name, err)
		}
	}
	return nil
}

func (in *Interpreter) conditional(s *qasm.If, env *Env, depth int) error {
	val, err := in.cregs.Value(s.Register)
	if err != nil {
		return err
	}
	if val != s.Value {
		return nil
	}
	return in.exec(s.Body, env, depth)
}
