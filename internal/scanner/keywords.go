package scanner

var keywordTrie = buildKeywordTrie()

// buildKeywordTrie populates the shared trie with every fixed-spelling
// operator, delimiter and keyword Nova recognizes. Two-character
// operators are added after their one-character prefixes; insertion
// order does not matter, since LongestMatch always prefers the deepest
// terminal node reached, so the walk finds both lengths correctly.
func buildKeywordTrie() *Trie[TokenKind] {
	t := NewTrie[TokenKind]()

	t.Add("(", LeftParen)
	t.Add(")", RightParen)
	t.Add("{", LeftBrace)
	t.Add("}", RightBrace)
	t.Add("\"", Quote)

	t.Add(",", Comma)
	t.Add(".", Dot)
	t.Add(";", Semicolon)
	t.Add("+", Plus)
	t.Add("-", Minus)
	t.Add("*", Star)
	t.Add("/", Slash)
	t.Add("=", Equal)
	t.Add("!", Bang)
	t.Add("<", Less)
	t.Add(">", Greater)

	t.Add("==", EqualEqual)
	t.Add("!=", BangEqual)
	t.Add("<=", LessEqual)
	t.Add(">=", GreaterEqual)

	t.Add(">>", Pipe)
	t.Add("->", Arrow)
	t.Add("$", Dollar)

	t.Add("print", Print)
	t.Add("return", Return)
	t.Add("if", If)
	t.Add("else", Else)
	t.Add("true", True)
	t.Add("false", False)
	t.Add("and", And)
	t.Add("or", Or)
	t.Add("fun", Fun)
	t.Add("let", Let)

	return t
}
