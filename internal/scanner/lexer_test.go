package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func kinds(tokens []token) []tokenKind {
	result := make([]tokenKind, len(tokens))
	for i, tok := range tokens {
		result[i] = tok.kind
	}
	return result
}

func texts(tokens []token) []string {
	result := make([]string, len(tokens))
	for i, tok := range tokens {
		result[i] = tok.text
	}
	return result
}

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		texts []string
		kinds []tokenKind
	}{
		{
			name:  "member access",
			src:   "a?.b.c",
			texts: []string{"a", "?.", "b", ".", "c"},
			kinds: []tokenKind{tokenIdent, tokenPunct, tokenIdent, tokenPunct, tokenIdent},
		},
		{
			name:  "conditional with number",
			src:   "a?.5:1",
			texts: []string{"a", "?", ".5", ":", "1"},
			kinds: []tokenKind{tokenIdent, tokenPunct, tokenNumber, tokenPunct, tokenNumber},
		},
		{
			name:  "escaped quote",
			src:   `"a\"b" c`,
			texts: []string{`"a\"b"`, "c"},
			kinds: []tokenKind{tokenString, tokenIdent},
		},
		{
			name:  "regex after keyword",
			src:   "return /a\\/b[/]/gi",
			texts: []string{"return", "/a\\/b[/]/gi"},
			kinds: []tokenKind{tokenIdent, tokenRegex},
		},
		{
			name:  "division after paren",
			src:   "(a)/b/c",
			texts: []string{"(", "a", ")", "/", "b", "/", "c"},
			kinds: []tokenKind{tokenPunct, tokenIdent, tokenPunct, tokenPunct, tokenIdent, tokenPunct, tokenIdent},
		},
		{
			name:  "regex after block",
			src:   "if (a) {}\n/x/.test(y)",
			texts: []string{"if", "(", "a", ")", "{", "}", "/x/", ".", "test", "(", "y", ")"},
			kinds: []tokenKind{tokenIdent, tokenPunct, tokenIdent, tokenPunct, tokenPunct, tokenPunct, tokenRegex, tokenPunct, tokenIdent, tokenPunct, tokenIdent, tokenPunct},
		},
		{
			name:  "division after object literal",
			src:   "x = ({}) / 2 + {a: 1}/b/c",
			texts: []string{"x", "=", "(", "{", "}", ")", "/", "2", "+", "{", "a", ":", "1", "}", "/", "b", "/", "c"},
			kinds: []tokenKind{tokenIdent, tokenPunct, tokenPunct, tokenPunct, tokenPunct, tokenPunct, tokenPunct, tokenNumber, tokenPunct, tokenPunct, tokenIdent, tokenPunct, tokenNumber, tokenPunct, tokenPunct, tokenIdent, tokenPunct, tokenIdent},
		},
		{
			name:  "regex after arrow body",
			src:   "f = () => {}\n/y/g",
			texts: []string{"f", "=", "(", ")", "=", ">", "{", "}", "/y/g"},
			kinds: []tokenKind{tokenIdent, tokenPunct, tokenPunct, tokenPunct, tokenPunct, tokenPunct, tokenPunct, tokenPunct, tokenRegex},
		},
		{
			name:  "template substitution",
			src:   "`a${b}c`",
			texts: []string{"`a${", "b", "}c`"},
			kinds: []tokenKind{tokenTemplate, tokenIdent, tokenTemplate},
		},
		{
			name:  "exponent and increment",
			src:   "1e+5 i++",
			texts: []string{"1e+5", "i", "++"},
			kinds: []tokenKind{tokenNumber, tokenIdent, tokenPunct},
		},
		{
			name:  "unicode identifier and byte order mark",
			src:   "\uFEFFconst café = 1",
			texts: []string{"const", "café", "=", "1"},
			kinds: []tokenKind{tokenIdent, tokenIdent, tokenPunct, tokenNumber},
		},
		{
			name:  "unterminated block comment",
			src:   "a /* never closed",
			texts: []string{"a"},
			kinds: []tokenKind{tokenIdent},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := newLexer(tt.src).tokens()
			assert.Equal(t, tt.texts, texts(tokens))
			assert.Equal(t, tt.kinds, kinds(tokens))
		})
	}
}

func TestLexerOffsets(t *testing.T) {
	src := "x = `${ y }`"
	for _, tok := range newLexer(src).tokens() {
		assert.Equal(t, tok.text, src[tok.start:tok.end])
	}
}
