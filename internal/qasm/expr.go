package qasm

import (
	"fmt"
	"math"
	"strconv"
)

// Expr is a classical gate-parameter expression.
type Expr interface {
	String() string
	expr()
}

// Number is a real or integer literal.
type Number struct {
	Value float64
}

// Pi is the constant pi.
type Pi struct{}

// Ident references a gate's classical parameter.
type Ident struct {
	Name string
}

// Unary is a prefix minus.
type Unary struct {
	Op byte
	X  Expr
}

// Binary is one of + - * / ^.
type Binary struct {
	Op   byte
	X, Y Expr
}

// Call applies one of the unary functions sin, cos, tan, exp, ln, sqrt.
type Call struct {
	Func string
	Arg  Expr
}

func (Number) expr() {}
func (Pi) expr()     {}
func (Ident) expr()  {}
func (Unary) expr()  {}
func (Binary) expr() {}
func (Call) expr()   {}

func (n Number) String() string { return FormatParam(n.Value) }
func (Pi) String() string       { return "pi" }
func (i Ident) String() string  { return i.Name }
func (u Unary) String() string  { return fmt.Sprintf("%c%s", u.Op, u.X) }
func (b Binary) String() string { return fmt.Sprintf("(%s%c%s)", b.X, b.Op, b.Y) }
func (c Call) String() string   { return fmt.Sprintf("%s(%s)", c.Func, c.Arg) }

// Scope resolves identifiers while evaluating an expression.
type Scope interface {
	Param(name string) (float64, bool)
}

// EvalError reports an expression that cannot be evaluated.
type EvalError struct {
	Expr   Expr
	Reason string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("cannot evaluate %s: %s", e.Expr, e.Reason)
}

var functions = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"exp":  math.Exp,
	"ln":   math.Log,
	"sqrt": math.Sqrt,
}

// IsFunction reports whether name is a built-in expression function.
func IsFunction(name string) bool {
	_, ok := functions[name]
	return ok
}

// Eval evaluates e, resolving identifiers through scope. scope may be nil
// when e is known to contain no identifiers.
func Eval(e Expr, scope Scope) (float64, error) {
	switch e := e.(type) {
	case Number:
		return e.Value, nil
	case Pi:
		return math.Pi, nil
	case Ident:
		if scope != nil {
			if v, ok := scope.Param(e.Name); ok {
				return v, nil
			}
		}
		return 0, &EvalError{Expr: e, Reason: "unbound parameter " + strconv.Quote(e.Name)}
	case Unary:
		x, err := Eval(e.X, scope)
		if err != nil {
			return 0, err
		}
		if e.Op == '-' {
			return -x, nil
		}
		return x, nil
	case Binary:
		x, err := Eval(e.X, scope)
		if err != nil {
			return 0, err
		}
		y, err := Eval(e.Y, scope)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case '+':
			return x + y, nil
		case '-':
			return x - y, nil
		case '*':
			return x * y, nil
		case '/':
			if y == 0 {
				return 0, &EvalError{Expr: e, Reason: "division by zero"}
			}
			return x / y, nil
		case '^':
			return math.Pow(x, y), nil
		}
		return 0, &EvalError{Expr: e, Reason: fmt.Sprintf("unknown operator %q", e.Op)}
	case Call:
		fn, ok := functions[e.Func]
		if !ok {
			return 0, &EvalError{Expr: e, Reason: "unknown function " + strconv.Quote(e.Func)}
		}
		x, err := Eval(e.Arg, scope)
		if err != nil {
			return 0, err
		}
		return fn(x), nil
	}
	return 0, &EvalError{Expr: e, Reason: "unsupported expression"}
}

// FormatParam formats a parameter value, using pi notation when the value is
// one of the common pi fractions.
func FormatParam(val float64) string {
	type piForm struct {
		value   float64
		display string
	}
	piForms := []piForm{
		{2 * math.Pi, "2*pi"},
		{math.Pi, "pi"},
		{math.Pi / 2, "pi/2"},
		{math.Pi / 3, "pi/3"},
		{math.Pi / 4, "pi/4"},
		{math.Pi / 6, "pi/6"},
		{math.Pi / 8, "pi/8"},
		{3 * math.Pi / 4, "3*pi/4"},
		{3 * math.Pi / 2, "3*pi/2"},
		{2 * math.Pi / 3, "2*pi/3"},
	}

	for _, pf := range piForms {
		if math.Abs(val-pf.value) < 1e-10 {
			return pf.display
		}
		if math.Abs(val+pf.value) < 1e-10 {
			return "-" + pf.display
		}
	}

	return strconv.FormatFloat(val, 'g', -1, 64)
}
