package qasm

import (
	_ "embed"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
)

//go:embed qelib1.inc
var qelib1 string

// StandardLibrary is the name under which the embedded standard gate library
// is served to include statements.
const StandardLibrary = "qelib1.inc"

const maxIncludeDepth = 16

// Includer resolves the file named by an include statement to source text.
type Includer interface {
	Include(name string) (string, error)
}

// IncluderFunc adapts a function to the Includer interface.
type IncluderFunc func(name string) (string, error)

func (f IncluderFunc) Include(name string) (string, error) { return f(name) }

// DirIncluder serves the embedded standard library and reads every other
// include relative to Dir.
type DirIncluder struct {
	Dir string
}

func (d DirIncluder) Include(name string) (string, error) {
	if name == StandardLibrary {
		return qelib1, nil
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.Dir, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type config struct {
	file     string
	includer Includer
}

// Option configures Parse.
type Option func(*config)

// WithFile names the source in syntax errors and sets the directory used to
// resolve relative includes.
func WithFile(name string) Option {
	return func(c *config) {
		c.file = name
		if _, ok := c.includer.(DirIncluder); ok {
			c.includer = DirIncluder{Dir: filepath.Dir(name)}
		}
	}
}

// WithIncluder replaces the include resolver.
func WithIncluder(inc Includer) Option {
	return func(c *config) { c.includer = inc }
}

// Parse parses an OpenQASM 2.0 program. Include statements are resolved
// immediately and their statements spliced in place; each file is included
// at most once.
func Parse(src string, opts ...Option) ([]Statement, error) {
	cfg := &config{includer: DirIncluder{Dir: "."}}
	for _, opt := range opts {
		opt(cfg)
	}
	p := &parser{cfg: cfg, included: map[string]bool{}}
	stmts, err := p.parseSource(cfg.file, src, 0)
	if err != nil {
		return nil, err
	}
	log.Debug("Parsed OpenQASM source", "file", cfg.file, "statements", len(stmts), "includes", len(p.included))
	return stmts, nil
}

// ParseFile reads and parses the program at path.
func ParseFile(path string, opts ...Option) ([]Statement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data), append([]Option{WithFile(path)}, opts...)...)
}

type parser struct {
	cfg      *config
	included map[string]bool
}

// fileParser parses a single source file.
type fileParser struct {
	*parser
	lx    *lexer
	tok   token
	depth int

	// formals of the gate whose body is being parsed, nil at top level
	params map[string]bool
	qubits map[string]bool
}

func (p *parser) parseSource(file, src string, depth int) ([]Statement, error) {
	fp := &fileParser{parser: p, lx: newLexer(file, src), depth: depth}
	if err := fp.advance(); err != nil {
		return nil, err
	}
	return fp.program()
}

func (p *fileParser) advance() error {
	tok, err := p.lx.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *fileParser) errorf(pos Position, format string, args ...any) error {
	return p.lx.errorf(pos, format, args...)
}

func (p *fileParser) isSymbol(s string) bool {
	return p.tok.kind == tokSymbol && p.tok.text == s
}

func (p *fileParser) expectSymbol(s string) error {
	if !p.isSymbol(s) {
		return p.errorf(p.tok.pos, "expected %q, found %s", s, p.tok)
	}
	return p.advance()
}

func (p *fileParser) expectIdent() (token, error) {
	tok := p.tok
	if tok.kind != tokIdent {
		return tok, p.errorf(tok.pos, "expected identifier, found %s", tok)
	}
	if reserved[tok.text] {
		return tok, p.errorf(tok.pos, "%q is a reserved word", tok.text)
	}
	return tok, p.advance()
}

func (p *fileParser) expectInt() (int, Position, error) {
	tok := p.tok
	if tok.kind != tokInt {
		return 0, tok.pos, p.errorf(tok.pos, "expected integer, found %s", tok)
	}
	n, err := strconv.Atoi(tok.text)
	if err != nil {
		return 0, tok.pos, p.errorf(tok.pos, "integer %s out of range", tok.text)
	}
	return n, tok.pos, p.advance()
}

var reserved = map[string]bool{
	"OPENQASM": true, "include": true, "qreg": true, "creg": true,
	"gate": true, "opaque": true, "measure": true, "reset": true,
	"barrier": true, "U": true, "CX": true, "if": true, "pi": true,
}

func (p *fileParser) program() ([]Statement, error) {
	var stmts []Statement
	first := true
	for p.tok.kind != tokEOF {
		if p.tok.kind == tokIdent && p.tok.text == "include" {
			inc, err := p.include()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, inc...)
			first = false
			continue
		}
		if p.tok.kind == tokIdent && p.tok.text == "OPENQASM" && !first {
			return nil, p.errorf(p.tok.pos, "OPENQASM header must be the first statement")
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		first = false
	}
	return stmts, nil
}

func (p *fileParser) include() ([]Statement, error) {
	pos := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokString {
		return nil, p.errorf(p.tok.pos, "expected file name, found %s", p.tok)
	}
	name := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectSymbol(";"); err != nil {
		return nil, err
	}
	if p.included[name] {
		return nil, nil
	}
	if p.depth+1 > maxIncludeDepth {
		return nil, p.errorf(pos, "include nesting deeper than %d", maxIncludeDepth)
	}
	src, err := p.cfg.includer.Include(name)
	if err != nil {
		return nil, p.errorf(pos, "include %q: %v", name, err)
	}
	p.included[name] = true
	return p.parseSource(name, src, p.depth+1)
}

func (p *fileParser) statement() (Statement, error) {
	tok := p.tok
	if tok.kind != tokIdent {
		return nil, p.errorf(tok.pos, "expected statement, found %s", tok)
	}
	switch tok.text {
	case "OPENQASM":
		return p.version()
	case "qreg", "creg":
		return p.register()
	case "gate":
		return p.gateDecl()
	case "opaque":
		return p.opaqueDecl()
	case "if":
		return p.ifStmt()
	}
	return p.quantumOp()
}

func (p *fileParser) version() (Statement, error) {
	pos := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokReal && p.tok.kind != tokInt {
		return nil, p.errorf(p.tok.pos, "expected version number, found %s", p.tok)
	}
	v := &Version{Number: p.tok.text, At: pos}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return v, p.expectSymbol(";")
}

func (p *fileParser) register() (Statement, error) {
	kw := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("["); err != nil {
		return nil, err
	}
	size, sizePos, err := p.expectInt()
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, p.errorf(sizePos, "register %s must have positive size", name.text)
	}
	if err := p.expectSymbol("]"); err != nil {
		return nil, err
	}
	if err := p.expectSymbol(";"); err != nil {
		return nil, err
	}
	if kw.text == "qreg" {
		return &QregDecl{Name: name.text, Size: size, At: kw.pos}, nil
	}
	return &CregDecl{Name: name.text, Size: size, At: kw.pos}, nil
}

// signature parses "name [(params)] qubits" shared by gate and opaque.
func (p *fileParser) signature() (string, []string, []string, error) {
	name, err := p.expectIdent()
	if err != nil {
		return "", nil, nil, err
	}
	var params []string
	if p.isSymbol("(") {
		if err := p.advance(); err != nil {
			return "", nil, nil, err
		}
		if !p.isSymbol(")") {
			params, err = p.identList()
			if err != nil {
				return "", nil, nil, err
			}
		}
		if err := p.expectSymbol(")"); err != nil {
			return "", nil, nil, err
		}
	}
	qubits, err := p.identList()
	if err != nil {
		return "", nil, nil, err
	}
	seen := map[string]bool{}
	for _, n := range append(append([]string{}, params...), qubits...) {
		if seen[n] {
			return "", nil, nil, p.errorf(name.pos, "gate %s: duplicate formal %q", name.text, n)
		}
		seen[n] = true
	}
	return name.text, params, qubits, nil
}

func (p *fileParser) identList() ([]string, error) {
	var names []string
	for {
		tok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		names = append(names, tok.text)
		if !p.isSymbol(",") {
			return names, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func (p *fileParser) gateDecl() (Statement, error) {
	pos := p.tok.pos
	if p.params != nil {
		return nil, p.errorf(pos, "gate definitions cannot be nested")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, params, qubits, err := p.signature()
	if err != nil {
		return nil, err
	}
	decl := &GateDecl{Name: name, Params: params, Qubits: qubits, At: pos}

	p.params = toSet(params)
	p.qubits = toSet(qubits)
	defer func() { p.params, p.qubits = nil, nil }()

	if err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	for !p.isSymbol("}") {
		if p.tok.kind == tokEOF {
			return nil, p.errorf(pos, "gate %s: missing closing brace", name)
		}
		stmt, err := p.quantumOp()
		if err != nil {
			return nil, err
		}
		if _, ok := stmt.(*Measure); ok {
			return nil, p.errorf(stmt.Pos(), "gate %s: measure is not allowed in a gate body", name)
		}
		if _, ok := stmt.(*Reset); ok {
			return nil, p.errorf(stmt.Pos(), "gate %s: reset is not allowed in a gate body", name)
		}
		decl.Body = append(decl.Body, stmt)
	}
	return decl, p.advance()
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func (p *fileParser) opaqueDecl() (Statement, error) {
	pos := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, params, qubits, err := p.signature()
	if err != nil {
		return nil, err
	}
	return &OpaqueDecl{Name: name, Params: params, Qubits: qubits, At: pos}, p.expectSymbol(";")
}

func (p *fileParser) ifStmt() (Statement, error) {
	pos := p.tok.pos
	if p.params != nil {
		return nil, p.errorf(pos, "if is not allowed in a gate body")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	reg, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("=="); err != nil {
		return nil, err
	}
	if p.tok.kind != tokInt {
		return nil, p.errorf(p.tok.pos, "expected integer, found %s", p.tok)
	}
	value, err := strconv.ParseUint(p.tok.text, 10, 64)
	if err != nil {
		return nil, p.errorf(p.tok.pos, "integer %s out of range", p.tok.text)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	body, err := p.quantumOp()
	if err != nil {
		return nil, err
	}
	return &If{Register: reg.text, Value: value, Body: body, At: pos}, nil
}

// quantumOp parses U, CX, measure, reset, barrier or a gate call.
func (p *fileParser) quantumOp() (Statement, error) {
	tok := p.tok
	if tok.kind != tokIdent {
		return nil, p.errorf(tok.pos, "expected operation, found %s", tok)
	}
	switch tok.text {
	case "U":
		if err := p.advance(); err != nil {
			return nil, err
		}
		params, err := p.exprList()
		if err != nil {
			return nil, err
		}
		target, err := p.argument()
		if err != nil {
			return nil, err
		}
		return &UStmt{Params: params, Target: target, At: tok.pos}, p.expectSymbol(";")

	case "CX":
		if err := p.advance(); err != nil {
			return nil, err
		}
		args, err := p.argumentList()
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, p.errorf(tok.pos, "CX takes 2 arguments, found %d", len(args))
		}
		return &CXStmt{Control: args[0], Target: args[1], At: tok.pos}, p.expectSymbol(";")

	case "measure":
		if err := p.advance(); err != nil {
			return nil, err
		}
		qubit, err := p.argument()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol("->"); err != nil {
			return nil, err
		}
		bit, err := p.argument()
		if err != nil {
			return nil, err
		}
		return &Measure{Qubit: qubit, Bit: bit, At: tok.pos}, p.expectSymbol(";")

	case "reset":
		if err := p.advance(); err != nil {
			return nil, err
		}
		target, err := p.argument()
		if err != nil {
			return nil, err
		}
		return &Reset{Target: target, At: tok.pos}, p.expectSymbol(";")

	case "barrier":
		if err := p.advance(); err != nil {
			return nil, err
		}
		args, err := p.argumentList()
		if err != nil {
			return nil, err
		}
		return &Barrier{Targets: args, At: tok.pos}, p.expectSymbol(";")
	}

	if reserved[tok.text] {
		return nil, p.errorf(tok.pos, "unexpected %q", tok.text)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	call := &GateCall{Name: tok.text, At: tok.pos}
	if p.isSymbol("(") {
		params, err := p.exprList()
		if err != nil {
			return nil, err
		}
		call.Params = params
	}
	args, err := p.argumentList()
	if err != nil {
		return nil, err
	}
	call.Args = args
	return call, p.expectSymbol(";")
}

func (p *fileParser) argumentList() ([]Argument, error) {
	var args []Argument
	for {
		arg, err := p.argument()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.isSymbol(",") {
			return args, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func (p *fileParser) argument() (Argument, error) {
	name, err := p.expectIdent()
	if err != nil {
		return Argument{}, err
	}
	arg := Argument{Name: name.text, At: name.pos}
	if p.qubits != nil && !p.qubits[name.text] {
		return arg, p.errorf(name.pos, "%q is not a qubit argument of the enclosing gate", name.text)
	}
	if !p.isSymbol("[") {
		return arg, nil
	}
	if p.qubits != nil {
		return arg, p.errorf(name.pos, "gate arguments cannot be indexed")
	}
	if err := p.advance(); err != nil {
		return arg, err
	}
	idx, _, err := p.expectInt()
	if err != nil {
		return arg, err
	}
	arg.Index, arg.Indexed = idx, true
	return arg, p.expectSymbol("]")
}

// exprList parses "( expr, ... )"; the list may be empty.
func (p *fileParser) exprList() ([]Expr, error) {
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var exprs []Expr
	if p.isSymbol(")") {
		return exprs, p.advance()
	}
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if !p.isSymbol(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return exprs, p.expectSymbol(")")
}

func (p *fileParser) expr() (Expr, error) {
	x, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isSymbol("+") || p.isSymbol("-") {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		y, err := p.term()
		if err != nil {
			return nil, err
		}
		x = Binary{Op: op, X: x, Y: y}
	}
	return x, nil
}

func (p *fileParser) term() (Expr, error) {
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isSymbol("*") || p.isSymbol("/") {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		y, err := p.unary()
		if err != nil {
			return nil, err
		}
		x = Binary{Op: op, X: x, Y: y}
	}
	return x, nil
}

func (p *fileParser) unary() (Expr, error) {
	if p.isSymbol("-") || p.isSymbol("+") {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == '+' {
			return x, nil
		}
		return Unary{Op: '-', X: x}, nil
	}
	return p.power()
}

func (p *fileParser) power() (Expr, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	if !p.isSymbol("^") {
		return x, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	y, err := p.unary()
	if err != nil {
		return nil, err
	}
	return Binary{Op: '^', X: x, Y: y}, nil
}

func (p *fileParser) primary() (Expr, error) {
	tok := p.tok
	switch tok.kind {
	case tokInt, tokReal:
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, p.errorf(tok.pos, "invalid number %s", tok.text)
		}
		return Number{Value: v}, p.advance()

	case tokIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if tok.text == "pi" {
			return Pi{}, nil
		}
		if IsFunction(tok.text) {
			if err := p.expectSymbol("("); err != nil {
				return nil, err
			}
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			return Call{Func: tok.text, Arg: arg}, p.expectSymbol(")")
		}
		if !p.params[tok.text] {
			return nil, p.errorf(tok.pos, "unknown parameter %q", tok.text)
		}
		return Ident{Name: tok.text}, nil

	case tokSymbol:
		if tok.text == "(" {
			if err := p.advance(); err != nil {
				return nil, err
			}
			x, err := p.expr()
			if err != nil {
				return nil, err
			}
			return x, p.expectSymbol(")")
		}
	}
	return nil, p.errorf(tok.pos, "expected expression, found %s", tok)
}
