package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// RuntimeError wraps a runtime failure with the source line active
// when it occurred, mirroring original_source's top-level
// "[line N] msg" wrapping of its VM's internal errors.
type RuntimeError struct {
	Line int
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("[line %d] %s", e.Line, e.Msg)
}

// VM is the stack interpreter: globals and the string intern table
// persist across Run calls (VM-scoped, not process-scoped) unless a
// caller asks for a reset. The value stack and instruction pointer
// are always fresh per Run.
type VM struct {
	Globals map[uint64]Value
	Strings map[uint64]string

	out    io.Writer
	logger *logrus.Logger
}

// Option configures a VM.
type Option func(*VM)

// WithTrace attaches a logger that receives a debug-level record for
// every dispatched instruction.
func WithTrace(logger *logrus.Logger) Option {
	return func(vm *VM) { vm.logger = logger }
}

// WithOutput overrides where Print writes; it defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) { vm.out = w }
}

// New returns a VM with empty globals and intern table.
func New(opts ...Option) *VM {
	vm := &VM{
		Globals: make(map[uint64]Value),
		Strings: make(map[uint64]string),
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Run executes chunk against a fresh value stack and instruction
// pointer. If reset is true, globals and the intern table are cleared
// first. It returns the final result value (Unit if the instruction
// stream falls off the end without a Return) or the first runtime
// error encountered.
func (vm *VM) Run(chunk *Chunk, reset bool) (Value, error) {
	if reset {
		vm.Globals = make(map[uint64]Value)
		vm.Strings = make(map[uint64]string)
	}

	stack := NewStack()
	ip := 0

	rtErr := func(msg string) error {
		return &RuntimeError{Line: chunk.LineOfOp(ip), Msg: msg}
	}

	for ip < len(chunk.Code) {
		instr := chunk.Code[ip]
		vm.trace(ip, instr)

		switch instr.Op {
		case OpReturn:
			v, err := stack.Pop()
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			return v, nil

		case OpConstant:
			v, err := chunk.GetConstant(instr.Index)
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			if err := stack.Push(v); err != nil {
				return Value{}, rtErr(err.Error())
			}

		case OpLoadString:
			if _, ok := vm.Strings[instr.Hash]; !ok {
				s, ok := chunk.Strings[instr.Hash]
				if !ok {
					return Value{}, rtErr("invalid string hash from chunk")
				}
				vm.Strings[instr.Hash] = s
			}
			if err := stack.Push(ObjString(instr.Hash)); err != nil {
				return Value{}, rtErr(err.Error())
			}

		case OpAdd:
			right, err := stack.Pop()
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			left, err := stack.Pop()
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			result, err := vm.add(left, right)
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			if err := stack.Push(result); err != nil {
				return Value{}, rtErr(err.Error())
			}

		case OpSub, OpMul, OpDiv:
			right, err := stack.Pop()
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			left, err := stack.Pop()
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			if left.Kind != KindInteger || right.Kind != KindInteger {
				return Value{}, rtErr(fmt.Sprintf("expected number but got: %s", mismatchedKind(left, right)))
			}
			var result int64
			switch instr.Op {
			case OpSub:
				result = left.Int - right.Int
			case OpMul:
				result = left.Int * right.Int
			case OpDiv:
				if right.Int == 0 {
					return Value{}, rtErr("division by zero")
				}
				result = left.Int / right.Int
			}
			if err := stack.Push(Integer(result)); err != nil {
				return Value{}, rtErr(err.Error())
			}

		case OpNegate:
			v, err := stack.Pop()
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			if v.Kind != KindInteger {
				return Value{}, rtErr(fmt.Sprintf("expected number but got: %s", v.Kind))
			}
			if err := stack.Push(Integer(-v.Int)); err != nil {
				return Value{}, rtErr(err.Error())
			}

		case OpNot:
			v, err := stack.Pop()
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			b, err := v.ExpectBool()
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			if err := stack.Push(Bool(!b)); err != nil {
				return Value{}, rtErr(err.Error())
			}

		case OpTrue:
			if err := stack.Push(Bool(true)); err != nil {
				return Value{}, rtErr(err.Error())
			}
		case OpFalse:
			if err := stack.Push(Bool(false)); err != nil {
				return Value{}, rtErr(err.Error())
			}

		case OpGetGlobal:
			h := HashString(instr.Name)
			v, ok := vm.Globals[h]
			if !ok {
				return Value{}, rtErr(fmt.Sprintf("Variable '%s' is not defined.", instr.Name))
			}
			if err := stack.Push(v); err != nil {
				return Value{}, rtErr(err.Error())
			}

		case OpSetGlobal:
			v, err := stack.Pop()
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			vm.Globals[HashString(instr.Name)] = v

		case OpGetLocal:
			v, err := stack.Get(instr.Slot)
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			if err := stack.Push(v); err != nil {
				return Value{}, rtErr(err.Error())
			}

		case OpSetLocal:
			v, err := stack.Peek()
			if err != nil {
				return Value{}, rtErr("no value to set local variable")
			}
			if err := stack.Set(instr.Slot, v); err != nil {
				return Value{}, rtErr(err.Error())
			}

		case OpPop:
			if _, err := stack.Pop(); err != nil {
				return Value{}, rtErr(err.Error())
			}

		case OpEndScope:
			var ret Value
			if instr.IsExpr {
				v, err := stack.Pop()
				if err != nil {
					return Value{}, rtErr(err.Error())
				}
				ret = v
			}
			for i := 0; i < instr.Count; i++ {
				if _, err := stack.Pop(); err != nil {
					return Value{}, rtErr(err.Error())
				}
			}
			if instr.IsExpr {
				if err := stack.Push(ret); err != nil {
					return Value{}, rtErr(err.Error())
				}
			}

		case OpIfFalseJump:
			v, err := stack.Pop()
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			b, err := v.ExpectBool()
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			if !b {
				ip = instr.Target
			}

		case OpJump:
			ip = instr.Target

		case OpPrint:
			v, err := stack.Pop()
			if err != nil {
				return Value{}, rtErr(err.Error())
			}
			fmt.Fprintln(vm.out, vm.RenderValue(v))

		default:
			return Value{}, rtErr(fmt.Sprintf("unknown opcode: %v", instr.Op))
		}

		ip++
	}

	return Unit(), nil
}

func (vm *VM) add(left, right Value) (Value, error) {
	if left.Kind == KindInteger && right.Kind == KindInteger {
		return Integer(left.Int + right.Int), nil
	}
	if left.Kind == KindString {
		if right.Kind != KindString {
			return Value{}, fmt.Errorf("expected number or string but got: %s", right.Kind)
		}
		leftText, ok := vm.Strings[left.Hash]
		if !ok {
			return Value{}, fmt.Errorf("invalid hash for string (not interned)")
		}
		rightText, ok := vm.Strings[right.Hash]
		if !ok {
			return Value{}, fmt.Errorf("invalid hash for string (not interned)")
		}
		combined := leftText + rightText
		h := HashString(combined)
		vm.Strings[h] = combined
		return ObjString(h), nil
	}
	return Value{}, fmt.Errorf("expected number or string but got: %s", left.Kind)
}

func mismatchedKind(left, right Value) ValueKind {
	if left.Kind != KindInteger {
		return left.Kind
	}
	return right.Kind
}

// RenderValue renders a value the way Print and the top-level result
// printer do: strings in double quotes, booleans as true/false,
// integers decimal, unit as "()".
func (vm *VM) RenderValue(v Value) string {
	switch v.Kind {
	case KindInteger:
		return fmt.Sprintf("%d", v.Int)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindString:
		text, ok := vm.Strings[v.Hash]
		if !ok {
			text = ""
		}
		return fmt.Sprintf("%q", text)
	case KindUnit:
		return "()"
	default:
		return "<invalid>"
	}
}

func (vm *VM) trace(ip int, instr Instruction) {
	if vm.logger == nil {
		return
	}
	vm.logger.WithFields(logrus.Fields{
		"ip": ip,
		"op": instr.Op.String(),
	}).Debug("vm: dispatch")
}
