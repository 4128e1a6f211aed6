// Package vm implements Nova's tagged instruction set, constant pool
// and stack-based interpreter.
package vm

import "fmt"

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindInteger ValueKind = iota
	KindBool
	KindString
	KindUnit
)

// Value is a fixed-size, trivially-copyable sum type: Integer, Bool,
// ObjString (carrying only a hash — the text lives in an intern
// table), or Unit.
type Value struct {
	Kind ValueKind
	Int  int64
	Bool bool
	Hash uint64
}

// Integer constructs an integer value.
func Integer(i int64) Value { return Value{Kind: KindInteger, Int: i} }

// Bool constructs a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// ObjString constructs a string value carrying only its intern hash.
func ObjString(hash uint64) Value { return Value{Kind: KindString, Hash: hash} }

// Unit constructs the unit value, the result of a statement with no
// expression result.
func Unit() Value { return Value{Kind: KindUnit} }

// ExpectBool coerces a value to a boolean the way Not does: a nonzero
// integer is true, zero is false; bools pass through; strings and
// unit are not coercible.
func (v Value) ExpectBool() (bool, error) {
	switch v.Kind {
	case KindBool:
		return v.Bool, nil
	case KindInteger:
		return v.Int != 0, nil
	default:
		return false, fmt.Errorf("expected boolean but got: %s", v.Kind)
	}
}

func (k ValueKind) String() string {
	switch k {
	case KindInteger:
		return "number"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	case KindUnit:
		return "unit"
	default:
		return "unknown"
	}
}
