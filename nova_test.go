package nova

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leonidas1712/nova/internal/vm"
)

func run(t *testing.T, source string) (vm.Value, *Interpreter) {
	t.Helper()
	in := New(WithReset())
	v, err := in.Run([]byte(source))
	require.NoError(t, err)
	return v, in
}

func TestEndToEndArithmetic(t *testing.T) {
	v, _ := run(t, `1 + 2 - 3 * 5 + 6 / 9`)
	require.Equal(t, vm.KindInteger, v.Kind)
	require.Equal(t, int64(-12), v.Int)
}

func TestEndToEndStringConcat(t *testing.T) {
	v, in := run(t, `"abc" + "def"`)
	require.Equal(t, `"abcdef"`, in.RenderValue(v))
}

func TestEndToEndGlobals(t *testing.T) {
	v, _ := run(t, `let x = 10; let y = x * 2; y + x`)
	require.Equal(t, int64(30), v.Int)
}

func TestEndToEndNestedArithmetic(t *testing.T) {
	v, _ := run(t, `let x = (10+20)*30; let y = 30+50; x + (y*2 + 3)`)
	require.Equal(t, int64(1063), v.Int)
}

func TestEndToEndIfTrue(t *testing.T) {
	v, _ := run(t, `if (true) { 2 } else { 3 }`)
	require.Equal(t, int64(2), v.Int)
}

func TestEndToEndIfFalse(t *testing.T) {
	v, _ := run(t, `if (false) { 2 } else { 3 }`)
	require.Equal(t, int64(3), v.Int)
}

func TestEndToEndNestedScopesShadowAndPrint(t *testing.T) {
	var out bytes.Buffer
	in := New(WithReset())
	in.vm = vm.New(vm.WithOutput(&out))

	v, err := in.Run([]byte(`{ let a = 1; { let a = 2; print a; } print a; }`))
	require.NoError(t, err)
	require.Equal(t, vm.KindUnit, v.Kind)
	require.Equal(t, "2\n1\n", out.String())
}

func TestInterpretOneShot(t *testing.T) {
	v, err := Interpret([]byte(`1 + 1`))
	require.NoError(t, err)
	require.Equal(t, int64(2), v.Int)
}

func TestInterpretPersistsAcrossCallsWithoutReset(t *testing.T) {
	in := New()
	_, err := in.Run([]byte(`let counter = 1;`))
	require.NoError(t, err)

	v, err := in.Run([]byte(`counter = counter + 1; counter`))
	require.NoError(t, err)
	require.Equal(t, int64(2), v.Int)
}

func TestInterpretResetClearsGlobals(t *testing.T) {
	in := New(WithReset())
	_, err := in.Run([]byte(`let counter = 1;`))
	require.NoError(t, err)

	_, err = in.Run([]byte(`counter`))
	require.Error(t, err)
	require.True(t, IsRuntimeError(err))
}

func TestBoundaryStackOverflow(t *testing.T) {
	var src bytes.Buffer
	src.WriteString("{ ")
	for i := 0; i < vm.StackSize+10; i++ {
		src.WriteString("let v = 1; ")
	}
	src.WriteString("1 }")

	_, err := Interpret(src.Bytes())
	require.Error(t, err)
	require.True(t, IsRuntimeError(err))
	require.Contains(t, err.Error(), "stack overflow")
}

func TestBoundaryUndefinedGlobal(t *testing.T) {
	_, err := Interpret([]byte(`missing`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Variable 'missing' is not defined.")
	require.True(t, IsRuntimeError(err))
}

func TestBoundaryUnmatchedParen(t *testing.T) {
	_, err := Interpret([]byte(`)`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unmatched closing token: )")
	require.True(t, IsParseError(err))
}

func TestBoundaryUnterminatedString(t *testing.T) {
	_, err := Interpret([]byte(`"abc`))
	require.Error(t, err)
	require.Contains(t, err.Error(), `unterminated opening token: "`)
	require.True(t, IsParseError(err))
}

func TestBoundaryAdjacentExpressions(t *testing.T) {
	_, err := Interpret([]byte(`1 2`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Expressions not allowed immediately after another expression.")
	require.True(t, IsParseError(err))
}

func TestRoundTripLiteral(t *testing.T) {
	v, _ := run(t, `42`)
	require.Equal(t, int64(42), v.Int)
}

func TestRoundTripAssignThenRead(t *testing.T) {
	v, _ := run(t, `x = 5; x`)
	require.Equal(t, int64(5), v.Int)
}

func TestRoundTripBlockValue(t *testing.T) {
	v, _ := run(t, `{ 7 }`)
	require.Equal(t, int64(7), v.Int)
}

func TestDeterminism(t *testing.T) {
	const source = `let x = 10; let y = x * 2; y + x`
	v1, err := Interpret([]byte(source))
	require.NoError(t, err)
	v2, err := Interpret([]byte(source))
	require.NoError(t, err)
	require.Equal(t, v1, v2)
}
