package scanner

import "fmt"

// delimiter pairs an opening and closing token kind. CanIgnore marks
// delimiters like the string quote whose interior suppresses other
// openers from being pushed (there is no nesting inside a string).
type delimiter struct {
	opener    TokenKind
	closer    TokenKind
	canIgnore bool
}

// delimScanner tracks delimiter balance across the whole token stream,
// advancing once per token produced by the scanner.
type delimScanner struct {
	delims []delimiter
	stack  []delimiter
}

func newDelimScanner() *delimScanner {
	return &delimScanner{
		delims: []delimiter{
			{opener: LeftParen, closer: RightParen},
			{opener: LeftBrace, closer: RightBrace},
			{opener: Quote, closer: Quote, canIgnore: true},
		},
	}
}

func (d *delimScanner) getOpener(kind TokenKind) (delimiter, bool) {
	for _, del := range d.delims {
		if del.opener == kind {
			return del, true
		}
	}
	return delimiter{}, false
}

func (d *delimScanner) getCloser(kind TokenKind) (delimiter, bool) {
	for _, del := range d.delims {
		if del.closer == kind {
			return del, true
		}
	}
	return delimiter{}, false
}

func (d *delimScanner) canPushOpener() bool {
	if len(d.stack) == 0 {
		return true
	}
	return !d.stack[len(d.stack)-1].canIgnore
}

// Advance feeds one token kind into the delimiter state machine.
func (d *delimScanner) Advance(kind TokenKind) error {
	if opener, ok := d.getOpener(kind); ok && d.canPushOpener() {
		d.stack = append(d.stack, opener)
		return nil
	}
	if closer, ok := d.getCloser(kind); ok {
		if len(d.stack) == 0 {
			return fmt.Errorf("unmatched closing token: %s", closer.closer.Repr())
		}
		top := d.stack[len(d.stack)-1]
		if top.closer == kind {
			d.stack = d.stack[:len(d.stack)-1]
			return nil
		}
		if !top.canIgnore {
			return fmt.Errorf("closing token %s does not match opening token %s", kind.Repr(), top.opener.Repr())
		}
		return nil
	}
	return nil
}

// End reports whether any delimiter is still open at end-of-input.
func (d *delimScanner) End() error {
	if len(d.stack) > 0 {
		top := d.stack[len(d.stack)-1]
		return fmt.Errorf("unterminated opening token: %s", top.opener.Repr())
	}
	return nil
}
