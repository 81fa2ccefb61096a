// Package tokenizer replaces environment variable references with
// placeholder tokens before an ahead-of-time build and rewrites the tokens
// found in the build output into runtime lookups afterwards.
//
// A token is a string literal of the form
//
//	"ngssc-token-<index>-<discriminator>"
//
// where index is the position of the reference in scan order and
// discriminator identifies the tokenization run. Both survive minification,
// requoting and relocation by the bundler.
package tokenizer

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
)

// TokenPrefix starts every token.
const TokenPrefix = "ngssc-token-"

// tokenPattern matches a token with any JavaScript quote. Opening and closing
// quote are compared by the caller.
var tokenPattern = regexp.MustCompile("([\"'`])" + regexp.QuoteMeta(TokenPrefix) + `(\d+)-(\d+)(["'` + "`])")

// maxDiscriminator bounds discriminators to values every JavaScript engine
// represents exactly.
const maxDiscriminator = 1 << 53

// Token formats the placeholder for the reference at index.
func Token(index int, discriminator uint64) string {
	return fmt.Sprintf("%q", TokenPrefix+strconv.Itoa(index)+"-"+strconv.FormatUint(discriminator, 10))
}

// NewDiscriminator returns a random run discriminator.
func NewDiscriminator() uint64 {
	return uint64(rand.Int63n(maxDiscriminator-1)) + 1
}

// Mapping is the ordered index to variable name record of one tokenization
// run. It lives in memory for the duration of one wrapped build.
type Mapping struct {
	Discriminator uint64
	Names         []string
}

// Lookup returns the name recorded for index.
func (m *Mapping) Lookup(index int) (string, bool) {
	if m == nil || index < 0 || index >= len(m.Names) {
		return "", false
	}
	return m.Names[index], true
}

// Len returns the number of tokens issued in the run.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Names)
}

// ParsedToken is a token decoded from text.
type ParsedToken struct {
	Text          string
	Index         int
	Discriminator uint64
	Start         int
	End           int
}

// FindTokens returns every well formed token in text in order of
// appearance.
func FindTokens(text string) []ParsedToken {
	var tokens []ParsedToken
	for _, m := range tokenPattern.FindAllStringSubmatchIndex(text, -1) {
		if text[m[2]:m[3]] != text[m[8]:m[9]] {
			continue
		}
		index, err := strconv.Atoi(text[m[4]:m[5]])
		if err != nil {
			index = -1
		}
		discriminator, err := strconv.ParseUint(text[m[6]:m[7]], 10, 64)
		if err != nil {
			discriminator = 0
		}
		tokens = append(tokens, ParsedToken{
			Text:          text[m[0]:m[1]],
			Index:         index,
			Discriminator: discriminator,
			Start:         m[0],
			End:           m[1],
		})
	}
	return tokens
}
