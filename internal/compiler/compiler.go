// Package compiler turns Nova source into a bytecode chunk in a
// single pass: no intermediate AST, Pratt precedence climbing driving
// straight-line emission, exactly as original_source's compiler.rs
// does it.
package compiler

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/leonidas1712/nova/internal/scanner"
	"github.com/leonidas1712/nova/internal/vm"
)

// compiler holds the single-pass parse/emit state: a two-token lookahead
// window over the scanner, the chunk under construction, and the
// locals table for the scope currently open.
type compiler struct {
	sc    *scanner.Scanner
	chunk *vm.Chunk

	prevTok scanner.Token
	currTok scanner.Token

	locals     []local
	scopeDepth int

	// isStmt tracks whether the most recently compiled construct
	// self-terminated (consumed its own ';' or '}') rather than
	// leaving a value for expressionStatement to close out. Set
	// after every declaration per spec.md §4.2; expressionStatement
	// consults it to tell a bare trailing expression apart from one
	// that already closed itself out (an assignment).
	isStmt bool

	logger *logrus.Logger
}

// Option configures a Compile call.
type Option func(*compiler)

// WithTrace attaches a logger that receives a debug-level record for
// every token consumed, mirroring the scanner's own trace option.
func WithTrace(logger *logrus.Logger) Option {
	return func(c *compiler) { c.logger = logger }
}

// Compile scans and parses source in one pass, returning the
// resulting chunk or the first parse error encountered. A final bare
// expression at the top level (nothing left to consume but EOF)
// leaves its value for an implicit trailing Return, matching
// original_source's REPL-friendly "last expression is the result"
// behavior.
func Compile(source []byte, opts ...Option) (*vm.Chunk, error) {
	c := &compiler{chunk: vm.NewChunk()}
	for _, opt := range opts {
		opt(c)
	}

	var scanOpts []scanner.Option
	if c.logger != nil {
		scanOpts = append(scanOpts, scanner.WithTrace(c.logger))
	}
	c.sc = scanner.New(source, scanOpts...)

	if err := c.advance(); err != nil {
		return nil, err
	}

	produced, err := c.runDeclarations(c.isAtEnd)
	if err != nil {
		return nil, err
	}

	if produced {
		c.emit(vm.Instruction{Op: vm.OpReturn}, c.line())
	}

	if err := c.sc.End(); err != nil {
		return nil, c.errGeneric(err.Error())
	}

	return c.chunk, nil
}

// runDeclarations drives a sequence of declarations until isTerminator
// reports true, discarding the value of every declaration but the
// last (an if/block chain may leave a value between two declarations
// with no semicolon between them; the caller only cares about the
// final one). It returns whether the final declaration in the
// sequence produced a value still sitting on the stack.
func (c *compiler) runDeclarations(isTerminator func() bool) (bool, error) {
	produced := false
	for !isTerminator() {
		var err error
		produced, err = c.declaration()
		if err != nil {
			return false, err
		}
		if !isTerminator() && produced {
			c.emit(vm.Instruction{Op: vm.OpPop}, c.line())
			produced = false
		}
	}
	return produced, nil
}

func (c *compiler) declaration() (bool, error) {
	switch c.currTok.Kind {
	case scanner.Let:
		if err := c.advance(); err != nil {
			return false, err
		}
		return false, c.letDeclaration()
	case scanner.Print:
		if err := c.advance(); err != nil {
			return false, err
		}
		return false, c.printStatement()
	case scanner.If:
		if err := c.advance(); err != nil {
			return false, err
		}
		return c.ifExpression()
	case scanner.LeftBrace:
		if err := c.advance(); err != nil {
			return false, err
		}
		return c.blockScope()
	default:
		return c.expressionStatement()
	}
}

func (c *compiler) letDeclaration() error {
	name, err := c.consume(scanner.Ident, "a variable name")
	if err != nil {
		return err
	}
	if _, err := c.consume(scanner.Equal, "'=' after variable name"); err != nil {
		return err
	}
	if err := c.expression(); err != nil {
		return err
	}
	if _, err := c.consume(scanner.Semicolon, "';' after variable declaration"); err != nil {
		return err
	}
	if c.scopeDepth > 0 {
		slot, err := c.addLocal(name.Lexeme)
		if err != nil {
			return c.errAt(name, err.Error())
		}
		c.emit(vm.Instruction{Op: vm.OpSetLocal, Slot: slot}, name.Line)
	} else {
		c.emit(vm.Instruction{Op: vm.OpSetGlobal, Name: name.Lexeme}, name.Line)
	}
	c.isStmt = true
	return nil
}

func (c *compiler) printStatement() error {
	line := c.currTok.Line
	if err := c.expression(); err != nil {
		return err
	}
	if _, err := c.consume(scanner.Semicolon, "';' after value"); err != nil {
		return err
	}
	c.emit(vm.Instruction{Op: vm.OpPrint}, line)
	c.isStmt = true
	return nil
}

// ifExpression implements spec.md §4.2's algorithm: condition, a
// placeholder IfFalseJump, the then-branch, a placeholder Jump over
// the else-branch, then the else-branch (or none), with both jump
// targets patched once the branch lengths are known. The then-branch
// is taken as representative of whether the construct as a whole
// produces a value — spec.md's own wording makes keeping the two
// branches stack-balanced the programmer's responsibility, not
// something the compiler re-verifies.
func (c *compiler) ifExpression() (bool, error) {
	if _, err := c.consume(scanner.LeftParen, "'(' after 'if'"); err != nil {
		return false, err
	}
	if err := c.expression(); err != nil {
		return false, err
	}
	if _, err := c.consume(scanner.RightParen, "')' after condition"); err != nil {
		return false, err
	}

	jumpIfFalse := c.emitJump(vm.OpIfFalseJump)

	thenProduces, err := c.declaration()
	if err != nil {
		return false, err
	}

	jumpOverElse := c.emitJump(vm.OpJump)
	// The VM does ip = target then an unconditional ip++, so landing on
	// jumpOverElse's own index is what actually lands execution on the
	// else-branch's first instruction (one past the Jump itself) —
	// patching to len(Code) here would overshoot it by one.
	c.chunk.PatchTarget(jumpIfFalse, jumpOverElse)

	matched, err := c.match(scanner.Else)
	if err != nil {
		return false, err
	}
	if matched {
		if _, err := c.declaration(); err != nil {
			return false, err
		}
	}
	// Same ip++ accounting: to land exactly on the instruction after the
	// else-branch, patch to len(Code)-1, not len(Code).
	c.chunk.PatchTarget(jumpOverElse, len(c.chunk.Code)-1)

	c.isStmt = true
	return thenProduces, nil
}

// blockScope compiles a '{'-delimited scope: a fresh locals frame,
// a sequence of declarations up to the closing '}', then a single
// EndScope instruction that pops every local the block declared and,
// if the block's last declaration left a value, preserves it above
// the pop.
func (c *compiler) blockScope() (bool, error) {
	c.beginScope()

	produced, err := c.runDeclarations(func() bool {
		return c.currTok.Kind == scanner.RightBrace || c.isAtEnd()
	})
	if err != nil {
		return false, err
	}

	if _, err := c.consume(scanner.RightBrace, "'}' after block"); err != nil {
		return false, err
	}

	count := c.endScope()
	c.emit(vm.Instruction{Op: vm.OpEndScope, Count: count, IsExpr: produced}, c.line())
	c.isStmt = true
	return produced, nil
}

// expressionStatement parses a bare expression. If parsing it already
// self-terminated (a nested assignment consumed its own ';'), nothing
// further is needed. Otherwise a trailing ';' closes it out as an
// ordinary statement (its value popped); reaching a scope boundary
// with no ';' leaves the value for the enclosing scope or program to
// claim. Anything else is two expressions jammed together with no
// separator, which spec.md treats as an error.
func (c *compiler) expressionStatement() (bool, error) {
	c.isStmt = false
	if err := c.expression(); err != nil {
		return false, err
	}
	if c.isStmt {
		return false, nil
	}

	matched, err := c.match(scanner.Semicolon)
	if err != nil {
		return false, err
	}
	if matched {
		c.emit(vm.Instruction{Op: vm.OpPop}, c.line())
		return false, nil
	}

	if c.atBoundary() {
		return true, nil
	}

	return false, c.errAt(c.currTok, "Expressions not allowed immediately after another expression.")
}

func (c *compiler) expression() error {
	return c.parsePrecedence(PrecAssign)
}

// parsePrecedence is the Pratt parser's core loop: one prefix parse
// followed by zero or more infix parses, each bound to stop at
// anything of lower precedence than prec. Tokens with no parse rule
// carry PrecNone, which is below every calling precedence, so the
// loop naturally exits before ever dereferencing a nil infix fn.
func (c *compiler) parsePrecedence(prec Precedence) error {
	if err := c.advance(); err != nil {
		return err
	}
	rule := getRule(c.prevTok.Kind)
	if rule.prefix == nil {
		return c.errAt(c.prevTok, fmt.Sprintf("Expected expression but got %s", c.describe(c.prevTok)))
	}
	canAssign := prec <= PrecAssign
	if err := rule.prefix(c, canAssign); err != nil {
		return err
	}

	for !c.isAtEnd() && prec <= getRule(c.currTok.Kind).prec {
		if err := c.advance(); err != nil {
			return err
		}
		infix := getRule(c.prevTok.Kind).infix
		if infix == nil {
			break
		}
		if err := infix(c); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) emitJump(op vm.OpCode) int {
	return c.chunk.Write(vm.Instruction{Op: op, Target: 0}, c.line())
}

func (c *compiler) emit(instr vm.Instruction, line int) int {
	return c.chunk.Write(instr, line)
}

// advance shifts the lookahead window forward by one token.
func (c *compiler) advance() error {
	c.prevTok = c.currTok
	tok, err := c.sc.Next()
	if err != nil {
		return c.errAt(tok, err.Error())
	}
	c.currTok = tok
	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"kind":   tok.Kind.Repr(),
			"lexeme": tok.Lexeme,
			"line":   tok.Line,
		}).Debug("compiler: advance")
	}
	return nil
}

// consume advances past currTok if it matches kind, else reports a
// parse error naming what was expected in human terms.
func (c *compiler) consume(kind scanner.TokenKind, what string) (scanner.Token, error) {
	if c.currTok.Kind == kind {
		tok := c.currTok
		return tok, c.advance()
	}
	return scanner.Token{}, c.errAt(c.currTok, fmt.Sprintf("Expected %s but got %s", what, c.describe(c.currTok)))
}

// match advances and reports true if currTok is kind, else leaves the
// lookahead window untouched.
func (c *compiler) match(kind scanner.TokenKind) (bool, error) {
	if c.currTok.Kind != kind {
		return false, nil
	}
	return true, c.advance()
}

func (c *compiler) isAtEnd() bool { return c.currTok.Kind == scanner.EOF }

// atBoundary reports whether currTok ends a scope: end of input at
// the top level, or the '}' closing an enclosing block.
func (c *compiler) atBoundary() bool {
	return c.currTok.Kind == scanner.EOF || c.currTok.Kind == scanner.RightBrace
}

func (c *compiler) line() int {
	if c.prevTok.Line != 0 {
		return c.prevTok.Line
	}
	return c.currTok.Line
}

func (c *compiler) describe(tok scanner.Token) string {
	if tok.Kind == scanner.EOF {
		return "end of input"
	}
	return fmt.Sprintf("'%s'", tok.Lexeme)
}

func (c *compiler) errAt(tok scanner.Token, reason string) error {
	if tok.Kind == scanner.EOF {
		return &ParseError{Line: tok.Line, AtEnd: true, Reason: reason}
	}
	if tok.Kind == scanner.Error {
		return &ParseError{Line: tok.Line, Reason: reason}
	}
	return &ParseError{Line: tok.Line, Lexeme: tok.Lexeme, Reason: reason}
}

func (c *compiler) errGeneric(reason string) error {
	return &ParseError{Line: c.line(), Reason: reason}
}
