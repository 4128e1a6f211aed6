package compiler

import (
	"strconv"

	"github.com/leonidas1712/nova/internal/scanner"
	"github.com/leonidas1712/nova/internal/vm"
)

// Precedence is the Pratt parser's operator-binding ladder, low to
// high, per spec.md §4.2.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssign
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

// next returns the next-higher precedence, used to recurse into a
// binary operator's right operand so that operators of the same
// precedence are left-associative.
func (p Precedence) next() Precedence {
	if p >= PrecPrimary {
		return PrecPrimary
	}
	return p + 1
}

type prefixFn func(c *compiler, canAssign bool) error
type infixFn func(c *compiler) error

// parseRule pairs a token kind with its prefix parser, infix parser
// and infix binding precedence. A kind absent from the table (or
// present with a nil prefix/infix) has no parse rule for that
// position, per spec.md §9's "Open Questions resolved" #1: comparison,
// logical, pipe, lambda and infix-marker tokens are scanned but carry
// no rule, so they stop the Pratt loop rather than ever being emitted.
type parseRule struct {
	prefix prefixFn
	infix  infixFn
	prec   Precedence
}

var rules map[scanner.TokenKind]parseRule

func init() {
	rules = map[scanner.TokenKind]parseRule{
		scanner.Integer:   {prefix: parseNumber, prec: PrecNone},
		scanner.Minus:     {prefix: parseUnary, infix: parseBinary, prec: PrecTerm},
		scanner.Plus:      {infix: parseBinary, prec: PrecTerm},
		scanner.Star:      {infix: parseBinary, prec: PrecFactor},
		scanner.Slash:     {infix: parseBinary, prec: PrecFactor},
		scanner.Bang:      {prefix: parseUnary, prec: PrecNone},
		scanner.LeftParen: {prefix: parseGrouping, prec: PrecNone},
		scanner.Quote:     {prefix: parseString, prec: PrecNone},
		scanner.Ident:     {prefix: parseIdent, prec: PrecNone},
		scanner.True:      {prefix: parseLiteralTrue, prec: PrecNone},
		scanner.False:     {prefix: parseLiteralFalse, prec: PrecNone},
	}
}

func getRule(kind scanner.TokenKind) parseRule { return rules[kind] }

func parseNumber(c *compiler, canAssign bool) error {
	tok := c.prevTok
	n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
	if err != nil {
		return c.errAt(tok, "invalid integer literal")
	}
	idx := c.chunk.AddConstant(vm.Integer(n), tok.Line)
	c.emit(vm.Instruction{Op: vm.OpConstant, Index: idx}, tok.Line)
	return nil
}

func parseLiteralTrue(c *compiler, canAssign bool) error {
	c.emit(vm.Instruction{Op: vm.OpTrue}, c.prevTok.Line)
	return nil
}

func parseLiteralFalse(c *compiler, canAssign bool) error {
	c.emit(vm.Instruction{Op: vm.OpFalse}, c.prevTok.Line)
	return nil
}

// parseUnary handles both '-' (negate) and '!' (not) in prefix
// position; both recurse at PrecUnary so e.g. "-1+2" binds the minus
// to just the 1.
func parseUnary(c *compiler, canAssign bool) error {
	tok := c.prevTok
	if err := c.parsePrecedence(PrecUnary); err != nil {
		return err
	}
	switch tok.Kind {
	case scanner.Minus:
		c.emit(vm.Instruction{Op: vm.OpNegate}, tok.Line)
	case scanner.Bang:
		c.emit(vm.Instruction{Op: vm.OpNot}, tok.Line)
	}
	return nil
}

// parseBinary recurses at the operator's own precedence plus one, so
// that "1-2-3" parses as "(1-2)-3" (left associativity).
func parseBinary(c *compiler) error {
	tok := c.prevTok
	rule := getRule(tok.Kind)
	if err := c.parsePrecedence(rule.prec.next()); err != nil {
		return err
	}
	var op vm.OpCode
	switch tok.Kind {
	case scanner.Plus:
		op = vm.OpAdd
	case scanner.Minus:
		op = vm.OpSub
	case scanner.Star:
		op = vm.OpMul
	case scanner.Slash:
		op = vm.OpDiv
	default:
		return c.errAt(tok, "Unrecognised operation")
	}
	c.emit(vm.Instruction{Op: op}, tok.Line)
	return nil
}

func parseGrouping(c *compiler, canAssign bool) error {
	if err := c.expression(); err != nil {
		return err
	}
	_, err := c.consume(scanner.RightParen, "')' after expression")
	return err
}

// parseString handles the StringQuote-delimited literal: an optional
// interior String token between two Quote tokens. An empty string is
// two adjacent Quote tokens with no interior.
func parseString(c *compiler, canAssign bool) error {
	open := c.prevTok
	var text string
	if c.currTok.Kind == scanner.String {
		tok, err := c.consume(scanner.String, "string contents")
		if err != nil {
			return err
		}
		text = tok.Lexeme
	}
	if c.currTok.Kind != scanner.Quote {
		// Running off the end with the string delimiter still open is
		// the scanner's own unterminated-delimiter condition, not a
		// generic "expected token" mismatch — surface its message.
		if err := c.sc.End(); err != nil {
			return c.errGeneric(err.Error())
		}
		return c.errAt(c.currTok, "Expected closing '\"' but got "+c.describe(c.currTok))
	}
	if _, err := c.consume(scanner.Quote, "closing '\"'"); err != nil {
		return err
	}
	hash := c.chunk.InternString(text)
	c.emit(vm.Instruction{Op: vm.OpLoadString, Hash: hash}, open.Line)
	return nil
}

// parseIdent is the prefix rule for a bare identifier: either a get
// (resolved against the locals table first, falling back to a global
// lookup) or, when immediately followed by '=' in an assignable
// position, an assignment that itself consumes the terminating ';'.
// An assignment always (re)declares a local in local scope — exactly
// like `let` — so it shadows rather than overwrites any existing local
// of the same name, per spec.md §4.2.
func parseIdent(c *compiler, canAssign bool) error {
	ident := c.prevTok

	if canAssign && c.currTok.Kind == scanner.Equal {
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.expression(); err != nil {
			return err
		}
		if _, err := c.consume(scanner.Semicolon, "';' after assignment"); err != nil {
			return err
		}
		if c.scopeDepth > 0 {
			slot, err := c.addLocal(ident.Lexeme)
			if err != nil {
				return c.errAt(ident, err.Error())
			}
			c.emit(vm.Instruction{Op: vm.OpSetLocal, Slot: slot}, ident.Line)
		} else {
			c.emit(vm.Instruction{Op: vm.OpSetGlobal, Name: ident.Lexeme}, ident.Line)
		}
		// Already consumed the trailing ';' above — tell
		// expressionStatement not to look for one of its own.
		c.isStmt = true
		return nil
	}

	if slot, ok := c.resolveLocal(ident.Lexeme); ok {
		c.emit(vm.Instruction{Op: vm.OpGetLocal, Slot: slot}, ident.Line)
	} else {
		c.emit(vm.Instruction{Op: vm.OpGetGlobal, Name: ident.Lexeme}, ident.Line)
	}
	return nil
}
