package compiler

import (
	"fmt"

	"github.com/leonidas1712/nova/internal/vm"
)

// local is one entry of the compiler's locals table: an identifier
// together with the scope depth it was declared at. Its position in
// the slice is also the absolute value-stack slot the compiled
// GetLocal/SetLocal instructions address, since locals are pushed in
// declaration order with nothing else left lingering on the stack
// between them (expression statements are popped; only a scope's
// trailing expression is left for EndScope to account for).
type local struct {
	name  string
	depth int
}

func (c *compiler) beginScope() { c.scopeDepth++ }

// endScope decrements the scope depth and trims every local declared
// at the scope just closed, returning how many were trimmed — the
// count EndScope needs to pop at runtime.
func (c *compiler) endScope() int {
	c.scopeDepth--
	count := 0
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.locals = c.locals[:len(c.locals)-1]
		count++
	}
	return count
}

// maxLocals bounds the compiler's locals table well above the runtime
// value stack's capacity. Spec's "value_stack grown to capacity" is a
// runtime boundary (stack.go's "stack overflow"); this cap exists only
// to stop a pathological program from growing the locals slice without
// bound — it must never trigger before the runtime one does.
const maxLocals = vm.StackSize * 4

// addLocal appends a new local at the current scope depth and returns
// its slot. Called unconditionally on every `let` and every bare
// assignment in local scope — even if a local of the same name
// already exists — so that each declaration shadows rather than
// mutates an outer binding.
func (c *compiler) addLocal(name string) (int, error) {
	if len(c.locals) >= maxLocals {
		return 0, fmt.Errorf("too many local variables in one scope")
	}
	c.locals = append(c.locals, local{name: name, depth: c.scopeDepth})
	return len(c.locals) - 1, nil
}

// resolveLocal scans from the innermost local outward so that
// shadowing binds to the nearest declaration.
func (c *compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}
