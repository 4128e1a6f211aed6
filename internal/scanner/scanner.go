package scanner

import "github.com/sirupsen/logrus"

// Option configures a Scanner.
type Option func(*Scanner)

// WithTrace attaches a logger that receives a debug-level record for
// every token produced, mirroring the trace mode of nuxvm's lexer but
// through structured fields instead of raw stderr writes.
func WithTrace(logger *logrus.Logger) Option {
	return func(s *Scanner) { s.logger = logger }
}

// Scanner is a one-character-lookahead streaming tokenizer over a
// source buffer. It is resumable: each call to Next returns the next
// token without materializing the rest of the stream.
type Scanner struct {
	src      []byte
	current  int
	line     int
	inString bool

	delim  *delimScanner
	logger *logrus.Logger
}

// New constructs a Scanner over source.
func New(source []byte, opts ...Option) *Scanner {
	s := &Scanner{
		src:   source,
		line:  1,
		delim: newDelimScanner(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scanner) atEnd() bool { return s.current >= len(s.src) }

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekAt(offset int) byte {
	idx := s.current + offset
	if idx >= len(s.src) {
		return 0
	}
	return s.src[idx]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }

// Next returns the next token. At end-of-input it returns a token of
// kind EOF forever after. If the token just produced left the
// delimiter stack in a bad state, Next returns that token alongside
// the offending error, per spec: "the compiler reports delimiter
// errors against the token that triggered them."
func (s *Scanner) Next() (Token, error) {
	if s.inString {
		if !s.atEnd() && s.peek() != '"' {
			start := s.current
			line := s.line
			for !s.atEnd() && s.peek() != '"' {
				if s.peek() == '\n' {
					s.line++
				}
				s.current++
			}
			tok := Token{Kind: String, Lexeme: string(s.src[start:s.current]), Line: line}
			s.trace(tok)
			return tok, nil
		}
	} else {
		s.skipTrivia()
	}

	line := s.line
	if s.atEnd() {
		tok := Token{Kind: EOF, Lexeme: "", Line: line}
		s.trace(tok)
		return tok, nil
	}

	start := s.current
	c := s.peek()

	var tok Token
	switch {
	case isDigit(c):
		tok = s.scanNumber(line)
	case c == '"':
		s.current++
		s.inString = !s.inString
		tok = Token{Kind: Quote, Lexeme: "\"", Line: line}
	default:
		tok = s.scanTrieOrIdent(line)
	}
	_ = start

	err := s.delim.Advance(tok.Kind)
	s.trace(tok)
	return tok, err
}

func (s *Scanner) skipTrivia() {
	for !s.atEnd() {
		switch c := s.peek(); {
		case c == ' ' || c == '\t' || c == '\r':
			s.current++
		case c == '\n':
			s.line++
			s.current++
		case c == '/' && s.peekAt(1) == '/':
			for !s.atEnd() && s.peek() != '\n' {
				s.current++
			}
		default:
			return
		}
	}
}

func (s *Scanner) scanNumber(line int) Token {
	start := s.current
	for !s.atEnd() && isDigit(s.peek()) {
		s.current++
	}
	kind := Integer
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		kind = Float
		s.current++
		for !s.atEnd() && isDigit(s.peek()) {
			s.current++
		}
	}
	return Token{Kind: kind, Lexeme: string(s.src[start:s.current]), Line: line}
}

// scanTrieOrIdent implements the maximal-munch keyword/operator rule:
// a trie match is only accepted as a fixed-spelling token if it is not
// itself a strict prefix of a longer identifier.
func (s *Scanner) scanTrieOrIdent(line int) Token {
	start := s.current
	firstIsIdentChar := isIdentStart(s.peek())

	if kind, length, ok := keywordTrie.LongestMatch(s.src[s.current:]); ok {
		followChar := s.peekAt(length)
		followIsIdentChar := isIdentChar(followChar)
		if !firstIsIdentChar || !followIsIdentChar {
			s.current += length
			return Token{Kind: kind, Lexeme: string(s.src[start:s.current]), Line: line}
		}
	}

	if firstIsIdentChar {
		for !s.atEnd() && isIdentChar(s.peek()) {
			s.current++
		}
		return Token{Kind: Ident, Lexeme: string(s.src[start:s.current]), Line: line}
	}

	s.current++
	return Token{Kind: Error, Lexeme: string(s.src[start:s.current]), Line: line}
}

// End reports a delimiter error if the stack is non-empty at
// end-of-input. The compiler calls this once the scanner reports EOF.
func (s *Scanner) End() error {
	return s.delim.End()
}

func (s *Scanner) trace(tok Token) {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(logrus.Fields{
		"kind":   tok.Kind,
		"lexeme": tok.Lexeme,
		"line":   tok.Line,
	}).Debug("scanner: token")
}
