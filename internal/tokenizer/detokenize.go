package tokenizer

import (
	"strconv"
	"strings"

	"github.com/conneroisu/ngssc/internal/errors"
	"github.com/conneroisu/ngssc/internal/types"
)

// Detokenizer rewrites the tokens of one run into runtime lookups.
type Detokenizer struct {
	variant types.Variant
	mapping *Mapping
}

// NewDetokenizer creates a detokenizer for the mapping of a finished run.
func NewDetokenizer(variant types.Variant, mapping *Mapping) *Detokenizer {
	return &Detokenizer{variant: variant, mapping: mapping}
}

// Detokenize replaces every token in text. A token whose index is unknown or
// whose discriminator belongs to another run stays in place and is reported
// as a corrupt token error; the remaining tokens are still replaced. file is
// only used in error messages.
func (d *Detokenizer) Detokenize(file, text string) (string, []error) {
	tokens := FindTokens(text)
	if len(tokens) == 0 {
		return text, nil
	}

	var errs []error
	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	for _, tok := range tokens {
		name, err := d.resolve(file, tok)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sb.WriteString(text[last:tok.Start])
		sb.WriteString(d.variant.LookupExpression(name))
		last = tok.End
	}
	sb.WriteString(text[last:])

	return sb.String(), errs
}

func (d *Detokenizer) resolve(file string, tok ParsedToken) (string, error) {
	if d.mapping == nil || tok.Discriminator != d.mapping.Discriminator {
		return "", errors.ErrCorruptToken(file, tok.Text, "token belongs to another tokenization run").
			WithContext("discriminator", tok.Discriminator)
	}
	name, ok := d.mapping.Lookup(tok.Index)
	if !ok {
		return "", errors.ErrCorruptToken(file, tok.Text,
			"index "+strconv.Itoa(tok.Index)+" has no known variable").
			WithContext("index", tok.Index)
	}
	return name, nil
}
