// Package scanner finds environment variable references in JavaScript and
// TypeScript sources.
//
// A source is first validated by the syntax front end (esbuild) and then
// lexed; matching runs on the token stream, so an access written inside a
// comment, a string, template text or a regular expression literal is never
// reported. Two access styles are supported, one per scan:
//
//	process.env.API_URL   (process variant)
//	NG_ENV.API_URL        (ng-env variant)
package scanner

import (
	"github.com/conneroisu/ngssc/internal/types"
)

// ReferenceScanner extracts EnvironmentReference values for one variant.
type ReferenceScanner struct {
	variant types.Variant
	parser  Parser
}

// New creates a scanner for the variant. A nil parser skips syntax
// validation.
func New(variant types.Variant, parser Parser) (*ReferenceScanner, error) {
	if err := variant.Validate(); err != nil {
		return nil, err
	}
	return &ReferenceScanner{variant: variant, parser: parser}, nil
}

// Scan returns the references in src in source order. path is used for
// diagnostics and to select the parser's loader.
func (s *ReferenceScanner) Scan(path string, src []byte) ([]types.EnvironmentReference, error) {
	if s.parser != nil {
		if err := s.parser.Parse(path, src); err != nil {
			return nil, err
		}
	}

	tokens := newLexer(string(src)).tokens()
	var refs []types.EnvironmentReference
	for i := 0; i < len(tokens); i++ {
		if i > 0 && isMemberAccess(tokens[i-1]) {
			continue
		}
		last, ok := s.match(tokens, i)
		if !ok {
			continue
		}
		refs = append(refs, types.EnvironmentReference{
			Name:    tokens[last].text,
			Start:   tokens[i].start,
			End:     tokens[last].end,
			Variant: s.variant,
		})
		i = last
	}
	return refs, nil
}

// match tests whether an access expression starts at tokens[i] and returns
// the index of its final token.
func (s *ReferenceScanner) match(tokens []token, i int) (int, bool) {
	var path []string
	if s.variant == types.VariantNgEnv {
		path = []string{"NG_ENV"}
	} else {
		path = []string{"process", "env"}
	}

	pos := i
	for _, segment := range path {
		if pos >= len(tokens) || tokens[pos].kind != tokenIdent || tokens[pos].text != segment {
			return 0, false
		}
		if pos+1 >= len(tokens) || !isDot(tokens[pos+1]) {
			return 0, false
		}
		pos += 2
	}
	if pos >= len(tokens) || tokens[pos].kind != tokenIdent {
		return 0, false
	}
	return pos, true
}

func isDot(tok token) bool {
	return tok.kind == tokenPunct && tok.text == "."
}

func isMemberAccess(tok token) bool {
	return tok.kind == tokenPunct && (tok.text == "." || tok.text == "?.")
}
