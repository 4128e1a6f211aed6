// Package nova ties the scanner, compiler and VM together behind one
// entry point, the way original_source's VM::interpret /
// interpret_with_reset glues its own parser and VM.
package nova

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/leonidas1712/nova/internal/compiler"
	"github.com/leonidas1712/nova/internal/vm"
)

// ErrorKind tags which stage of the pipeline an Error came from.
type ErrorKind int

const (
	// ParseErrorKind marks a failure during scanning or compiling.
	ParseErrorKind ErrorKind = iota
	// RuntimeErrorKind marks a failure during VM execution.
	RuntimeErrorKind
)

// Error wraps a pipeline failure with the kind of stage it came from,
// rendered with the "(ParseError) ..." / "(RuntimeError) ..." prefix
// original_source/src/utils/err.rs's InterpretErr::Display uses.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ParseErrorKind:
		return fmt.Sprintf("(ParseError) %s", e.Err)
	case RuntimeErrorKind:
		return fmt.Sprintf("(RuntimeError) %s", e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Interpreter bundles a persistent VM with the compile options applied
// to every source it interprets, so a host (the REPL, in particular)
// can run one line after another with globals and interned strings
// surviving between calls.
type Interpreter struct {
	vm        *vm.VM
	logger    *logrus.Logger
	traceOn   bool
	resetEach bool
	firstCall bool
}

// Option configures an Interpreter or a one-shot Interpret call.
type Option func(*Interpreter)

// WithTrace attaches a logger that receives debug-level records from
// the scanner, compiler and VM for every call.
func WithTrace(logger *logrus.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
		in.traceOn = true
	}
}

// WithReset makes every Run call start from a clean VM (fresh globals
// and string intern table), matching original_source's
// interpret_with_reset(source, true) rather than the REPL's
// persistent-state default.
func WithReset() Option {
	return func(in *Interpreter) { in.resetEach = true }
}

// New returns an Interpreter with a fresh VM. Globals and interned
// strings persist across Run calls unless WithReset is given.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{firstCall: true}
	for _, opt := range opts {
		opt(in)
	}
	var vmOpts []vm.Option
	if in.logger != nil {
		vmOpts = append(vmOpts, vm.WithTrace(in.logger))
	}
	in.vm = vm.New(vmOpts...)
	return in
}

// Run compiles and executes source against this Interpreter's VM. The
// first call always starts from a clean VM; later calls persist state
// unless WithReset was given to New.
func (in *Interpreter) Run(source []byte) (vm.Value, error) {
	var compOpts []compiler.Option
	if in.logger != nil {
		compOpts = append(compOpts, compiler.WithTrace(in.logger))
	}

	chunk, err := compiler.Compile(source, compOpts...)
	if err != nil {
		return vm.Value{}, &Error{Kind: ParseErrorKind, Err: err}
	}

	reset := in.resetEach || in.firstCall
	in.firstCall = false

	result, err := in.vm.Run(chunk, reset)
	if err != nil {
		return vm.Value{}, &Error{Kind: RuntimeErrorKind, Err: err}
	}
	return result, nil
}

// RenderValue renders a result value the way this Interpreter's VM
// would print it, resolving interned string hashes against its own
// intern table.
func (in *Interpreter) RenderValue(v vm.Value) string {
	return in.vm.RenderValue(v)
}

// Interpret compiles and runs source against a fresh VM in one shot,
// matching original_source's VM::interpret (always resets). Most
// callers that only need to run a single program use this instead of
// constructing an Interpreter directly.
func Interpret(source []byte, opts ...Option) (vm.Value, error) {
	opts = append(opts, WithReset())
	in := New(opts...)
	return in.Run(source)
}

// IsParseError reports whether err is a parse-stage Error.
func IsParseError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ParseErrorKind
}

// IsRuntimeError reports whether err is a runtime-stage Error.
func IsRuntimeError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == RuntimeErrorKind
}
