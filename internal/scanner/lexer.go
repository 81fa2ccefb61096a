package scanner

import (
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenPunct
	tokenString
	tokenTemplate
	tokenNumber
	tokenRegex
)

// token is a significant lexeme of a JavaScript or TypeScript source.
// Whitespace and comments never produce tokens.
type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
	// openExpr marks a template chunk ending in "${"
	openExpr bool
	// closesBlock marks a "}" ending a block rather than an object literal
	closesBlock bool
}

// keywords after which a slash starts a regular expression literal
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

// lexer splits source text into tokens. It understands just enough of the
// grammar to never report identifiers found inside comments, string
// literals, template text or regular expression literals.
type lexer struct {
	src  string
	pos  int
	prev *token
	// braces counts open curly braces; templates holds the brace depth at
	// which each pending template substitution was opened
	braces    int
	templates []int
	// blocks records for each open curly brace whether it opened a block
	blocks []bool
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

// tokens lexes the whole source.
func (l *lexer) tokens() []token {
	var result []token
	for {
		tok, ok := l.next()
		if !ok {
			return result
		}
		result = append(result, tok)
		l.prev = &result[len(result)-1]
	}
}

func (l *lexer) next() (token, bool) {
	l.skipTrivia()
	if l.pos >= len(l.src) {
		return token{}, false
	}

	start := l.pos
	c := l.src[l.pos]
	switch {
	case isIdentStart(l.src, l.pos):
		l.pos = identEnd(l.src, l.pos)
		return l.make(tokenIdent, start), true
	case isDigit(c) || (c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		l.readNumber()
		return l.make(tokenNumber, start), true
	case c == '"' || c == '\'':
		l.readString(c)
		return l.make(tokenString, start), true
	case c == '`':
		l.pos++
		return l.readTemplate(start), true
	case c == '{':
		l.blocks = append(l.blocks, l.opensBlock())
		l.braces++
		l.pos++
		return l.make(tokenPunct, start), true
	case c == '}':
		block := l.popBrace()
		if n := len(l.templates); n > 0 && l.templates[n-1] == l.braces {
			l.templates = l.templates[:n-1]
			l.braces--
			l.pos++
			return l.readTemplate(start), true
		}
		l.braces--
		l.pos++
		tok := l.make(tokenPunct, start)
		tok.closesBlock = block
		return tok, true
	case c == '/':
		if l.regexAllowed() && l.readRegex() {
			return l.make(tokenRegex, start), true
		}
		l.pos++
		return l.make(tokenPunct, start), true
	case c == '?' && l.peek(1) == '.' && !isDigit(l.peek(2)):
		l.pos += 2
		return l.make(tokenPunct, start), true
	case (c == '+' || c == '-') && l.peek(1) == c:
		l.pos += 2
		return l.make(tokenPunct, start), true
	case c == '.' && l.peek(1) == '.' && l.peek(2) == '.':
		l.pos += 3
		return l.make(tokenPunct, start), true
	default:
		_, size := utf8.DecodeRuneInString(l.src[l.pos:])
		l.pos += size
		return l.make(tokenPunct, start), true
	}
}

func (l *lexer) make(kind tokenKind, start int) token {
	return token{kind: kind, text: l.src[start:l.pos], start: start, end: l.pos}
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

// skipTrivia skips whitespace, line comments and block comments.
func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			l.pos++
		case c == '/' && l.peek(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.peek(1) == '*':
			l.pos += 2
			for l.pos < len(l.src) && !(l.src[l.pos] == '*' && l.peek(1) == '/') {
				l.pos++
			}
			l.pos += 2
			if l.pos > len(l.src) {
				l.pos = len(l.src)
			}
		case c >= utf8.RuneSelf:
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			if !unicode.IsSpace(r) && r != '\uFEFF' {
				return
			}
			l.pos += size
		default:
			return
		}
	}
}

func (l *lexer) readNumber() {
	hex := l.src[l.pos] == '0' && (l.peek(1) == 'x' || l.peek(1) == 'X')
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isDigit(c) || isLetter(c) || c == '_' || c == '.':
			l.pos++
		case (c == '+' || c == '-') && !hex && l.pos > 0 && (l.src[l.pos-1] == 'e' || l.src[l.pos-1] == 'E'):
			l.pos++
		default:
			return
		}
	}
}

// readString consumes a quoted string. An unterminated string ends at the
// line break.
func (l *lexer) readString(quote byte) {
	l.pos++
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '\\':
			l.pos += 2
		case quote:
			l.pos++
			return
		case '\n':
			return
		default:
			l.pos++
		}
	}
	if l.pos > len(l.src) {
		l.pos = len(l.src)
	}
}

// readTemplate consumes template text up to the closing backtick or the next
// substitution. The opening character has already been consumed.
func (l *lexer) readTemplate(start int) token {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\\':
			l.pos += 2
		case c == '`':
			l.pos++
			return l.make(tokenTemplate, start)
		case c == '$' && l.peek(1) == '{':
			l.pos += 2
			l.braces++
			l.blocks = append(l.blocks, false)
			l.templates = append(l.templates, l.braces)
			tok := l.make(tokenTemplate, start)
			tok.openExpr = true
			return tok
		default:
			l.pos++
		}
	}
	if l.pos > len(l.src) {
		l.pos = len(l.src)
	}
	return l.make(tokenTemplate, start)
}

// readRegex consumes a regular expression literal including its flags. It
// reports false, consuming nothing, when no literal ends on the same line.
func (l *lexer) readRegex() bool {
	pos := l.pos + 1
	inClass := false
	for pos < len(l.src) {
		c := l.src[pos]
		switch {
		case c == '\n' || c == '\r':
			return false
		case c == '\\':
			pos += 2
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			pos++
			for pos < len(l.src) && (isLetter(l.src[pos]) || isDigit(l.src[pos])) {
				pos++
			}
			l.pos = pos
			return true
		}
		pos++
	}
	return false
}

// regexAllowed decides whether a slash at the current position starts a
// regular expression rather than a division, based on the previous token.
func (l *lexer) regexAllowed() bool {
	prev := l.prev
	if prev == nil {
		return true
	}
	switch prev.kind {
	case tokenIdent:
		return regexKeywords[prev.text]
	case tokenNumber, tokenString, tokenRegex:
		return false
	case tokenTemplate:
		return prev.openExpr
	default:
		switch prev.text {
		case "}":
			return prev.closesBlock
		case ")", "]", "++", "--":
			return false
		}
		return true
	}
}

// opensBlock decides whether a curly brace at the current position opens a
// block rather than an object literal, based on the previous token.
func (l *lexer) opensBlock() bool {
	prev := l.prev
	if prev == nil {
		return true
	}
	switch prev.kind {
	case tokenIdent:
		// return {, case {, typeof { ... start an expression
		return !regexKeywords[prev.text] || prev.text == "else" || prev.text == "do"
	case tokenPunct:
		switch prev.text {
		case ")", ";", "{", "}":
			return true
		case ">":
			// arrow function body
			return prev.start > 0 && l.src[prev.start-1] == '='
		}
		return false
	default:
		return false
	}
}

// popBrace closes the innermost curly brace and reports whether it opened a
// block. An unbalanced brace counts as a block.
func (l *lexer) popBrace() bool {
	n := len(l.blocks)
	if n == 0 {
		return true
	}
	block := l.blocks[n-1]
	l.blocks = l.blocks[:n-1]
	return block
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentStart(src string, pos int) bool {
	c := src[pos]
	if isLetter(c) || c == '_' || c == '$' {
		return true
	}
	if c < utf8.RuneSelf {
		return false
	}
	r, _ := utf8.DecodeRuneInString(src[pos:])
	return unicode.IsLetter(r)
}

func identEnd(src string, pos int) int {
	for pos < len(src) {
		c := src[pos]
		if isLetter(c) || isDigit(c) || c == '_' || c == '$' {
			pos++
			continue
		}
		if c < utf8.RuneSelf {
			return pos
		}
		r, size := utf8.DecodeRuneInString(src[pos:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r) {
			return pos
		}
		pos += size
	}
	return pos
}
