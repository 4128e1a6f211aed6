package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leonidas1712/nova/internal/vm"
)

func TestCompileArithmetic(t *testing.T) {
	chunk, err := Compile([]byte("1 + 2 * 3"))
	require.NoError(t, err)

	ops := opsOf(chunk)
	require.Equal(t, []vm.OpCode{vm.OpConstant, vm.OpConstant, vm.OpConstant, vm.OpMul, vm.OpAdd, vm.OpReturn}, ops)
}

func TestCompileLetAndPrint(t *testing.T) {
	chunk, err := Compile([]byte(`let x = 1; print x;`))
	require.NoError(t, err)

	ops := opsOf(chunk)
	require.Equal(t, []vm.OpCode{vm.OpConstant, vm.OpSetGlobal, vm.OpGetGlobal, vm.OpPrint}, ops)
	require.Equal(t, "x", chunk.Code[1].Name)
	require.Equal(t, "x", chunk.Code[2].Name)
}

func TestCompileBlockLocals(t *testing.T) {
	chunk, err := Compile([]byte(`{ let x = 1; let y = 2; x + y }`))
	require.NoError(t, err)

	ops := opsOf(chunk)
	require.Equal(t, []vm.OpCode{
		vm.OpConstant, vm.OpSetLocal,
		vm.OpConstant, vm.OpSetLocal,
		vm.OpGetLocal, vm.OpGetLocal, vm.OpAdd,
		vm.OpEndScope, vm.OpReturn,
	}, ops)

	endScope := chunk.Code[len(chunk.Code)-2]
	require.Equal(t, 2, endScope.Count)
	require.True(t, endScope.IsExpr)
}

func TestCompileIfExpressionTrailingReturn(t *testing.T) {
	chunk, err := Compile([]byte(`if (true) { 2 } else { 3 }`))
	require.NoError(t, err)

	ops := opsOf(chunk)
	require.Equal(t, vm.OpTrue, ops[0])
	require.Equal(t, vm.OpIfFalseJump, ops[1])
	last := ops[len(ops)-1]
	require.Equal(t, vm.OpReturn, last)

	// Both branches leave a value, so both EndScope instructions are
	// marked IsExpr, and the trailing Return actually fires.
	var endScopeCount int
	for _, instr := range chunk.Code {
		if instr.Op == vm.OpEndScope {
			endScopeCount++
			require.True(t, instr.IsExpr)
		}
	}
	require.Equal(t, 2, endScopeCount)
}

func TestCompileIfStatementNoTrailingValue(t *testing.T) {
	chunk, err := Compile([]byte(`if (true) { print 1; } let x = 2;`))
	require.NoError(t, err)

	ops := opsOf(chunk)
	require.NotContains(t, ops, vm.OpReturn)
}

func TestCompileAssignmentShadowsLocal(t *testing.T) {
	chunk, err := Compile([]byte(`{ let x = 1; x = 2; x }`))
	require.NoError(t, err)

	ops := opsOf(chunk)
	require.Equal(t, []vm.OpCode{
		vm.OpConstant, vm.OpSetLocal,
		vm.OpConstant, vm.OpSetLocal,
		vm.OpGetLocal,
		vm.OpEndScope, vm.OpReturn,
	}, ops)
}

func TestCompileStringLiteral(t *testing.T) {
	chunk, err := Compile([]byte(`"hi"`))
	require.NoError(t, err)
	require.Equal(t, []vm.OpCode{vm.OpLoadString, vm.OpReturn}, opsOf(chunk))
	require.Equal(t, "hi", chunk.Strings[chunk.Code[0].Hash])
}

func TestCompileConstantDedup(t *testing.T) {
	chunk, err := Compile([]byte(`1 + 1`))
	require.NoError(t, err)
	require.Len(t, chunk.Constants, 1)
}

func TestCompileErrorAdjacentExpressions(t *testing.T) {
	_, err := Compile([]byte(`1 2`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Expressions not allowed immediately after another expression.")
}

func TestCompileErrorUnmatchedParen(t *testing.T) {
	_, err := Compile([]byte(`(1 + 2`))
	require.Error(t, err)
}

func TestCompileErrorExpectedExpression(t *testing.T) {
	_, err := Compile([]byte(`let x = ;`))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestCompileUnaryPrecedence(t *testing.T) {
	chunk, err := Compile([]byte(`-1 + 2`))
	require.NoError(t, err)
	ops := opsOf(chunk)
	require.Equal(t, []vm.OpCode{vm.OpConstant, vm.OpNegate, vm.OpConstant, vm.OpAdd, vm.OpReturn}, ops)
}

func opsOf(chunk *vm.Chunk) []vm.OpCode {
	ops := make([]vm.OpCode, len(chunk.Code))
	for i, instr := range chunk.Code {
		ops[i] = instr.Op
	}
	return ops
}
