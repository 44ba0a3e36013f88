package interp

import (
	"errors"
	"fmt"

	"qroute/internal/qasm"
)

// Kind classifies an interpreter failure.
type Kind int

const (
	Unknown Kind = iota
	ParseError
	DuplicateRegister
	DuplicateGateDefinition
	CapacityExceeded
	IndexOutOfRange
	SizeMismatch
	ArityMismatch
	UnsupportedOperandShape
	UnsupportedOperation
	UndefinedGate
	UndefinedRegister
	InvalidBitValue
)

var kindNames = [...]string{
	Unknown:                 "Unknown",
	ParseError:              "ParseError",
	DuplicateRegister:       "DuplicateRegister",
	DuplicateGateDefinition: "DuplicateGateDefinition",
	CapacityExceeded:        "CapacityExceeded",
	IndexOutOfRange:         "IndexOutOfRange",
	SizeMismatch:            "SizeMismatch",
	ArityMismatch:           "ArityMismatch",
	UnsupportedOperandShape: "UnsupportedOperandShape",
	UnsupportedOperation:    "UnsupportedOperation",
	UndefinedGate:           "UndefinedGate",
	UndefinedRegister:       "UndefinedRegister",
	InvalidBitValue:         "InvalidBitValue",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Arity tells which way a parameter or operand count was wrong.
type Arity int

const (
	ArityNone Arity = iota
	TooFew
	TooMany
)

func (a Arity) String() string {
	switch a {
	case TooFew:
		return "few"
	case TooMany:
		return "many"
	}
	return ""
}

func arityOf(got, want int) Arity {
	if got < want {
		return TooFew
	}
	return TooMany
}

// Error is the single error type returned by Execute.
//
// An Error with a non-empty Gate wraps the failure raised inside that gate's
// body; Kind is copied from the wrapped error so callers need not unwrap to
// classify it.
type Error struct {
	Kind   Kind
	Op     string
	Reason string
	Arity  Arity
	Gate   string
	Pos    qasm.Position
	Err    error
}

func (e *Error) Error() string {
	if e.Gate != "" {
		return fmt.Sprintf("in gate %q: %v", e.Gate, e.Err)
	}
	msg := e.Op + ": " + e.Reason
	if e.Reason == "" && e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel errors of the same Kind, so errors.Is(err,
// ErrSizeMismatch) holds for every size mismatch.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Reason == "" && t.Gate == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrParse                   = &Error{Kind: ParseError}
	ErrDuplicateRegister       = &Error{Kind: DuplicateRegister}
	ErrDuplicateGateDefinition = &Error{Kind: DuplicateGateDefinition}
	ErrCapacityExceeded        = &Error{Kind: CapacityExceeded}
	ErrIndexOutOfRange         = &Error{Kind: IndexOutOfRange}
	ErrSizeMismatch            = &Error{Kind: SizeMismatch}
	ErrArityMismatch           = &Error{Kind: ArityMismatch}
	ErrUnsupportedOperandShape = &Error{Kind: UnsupportedOperandShape}
	ErrUnsupportedOperation    = &Error{Kind: UnsupportedOperation}
	ErrUndefinedGate           = &Error{Kind: UndefinedGate}
	ErrUndefinedRegister       = &Error{Kind: UndefinedRegister}
	ErrInvalidBitValue         = &Error{Kind: InvalidBitValue}
)

func newError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Reason: fmt.Sprintf(format, args...)}
}

func arityError(op, what string, got, want int) *Error {
	a := arityOf(got, want)
	return &Error{
		Kind:   ArityMismatch,
		Op:     op,
		Arity:  a,
		Reason: fmt.Sprintf("too %s %s: expected %d, got %d", a, what, want, got),
	}
}

// WithinGate annotates err as raised while expanding gate name. The original
// reason is preserved and reachable through Unwrap.
func WithinGate(name string, err error) error {
	if err == nil {
		return nil
	}
	e := &Error{Kind: KindOf(err), Op: name, Gate: name, Err: err}
	var inner *Error
	if errors.As(err, &inner) {
		e.Arity = inner.Arity
	}
	return e
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// GateTrace lists the gates err was raised inside, outermost first.
func GateTrace(err error) []string {
	var trace []string
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		if e.Gate == "" {
			break
		}
		trace = append(trace, e.Gate)
		err = e.Err
	}
	return trace
}
