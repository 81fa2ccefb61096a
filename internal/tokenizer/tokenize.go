package tokenizer

import (
	"sort"
	"strings"

	"github.com/conneroisu/ngssc/internal/errors"
	"github.com/conneroisu/ngssc/internal/types"
)

// Tokenize replaces the span of every reference with its token. The token
// index is the reference's position in refs; no byte outside the spans
// changes. The returned mapping records the variable name per index.
func Tokenize(src string, refs []types.EnvironmentReference, discriminator uint64) (string, *Mapping, error) {
	mapping := &Mapping{Discriminator: discriminator, Names: make([]string, 0, len(refs))}
	for _, ref := range refs {
		mapping.Names = append(mapping.Names, ref.Name)
	}

	// Spans are applied in offset order even if refs is not sorted.
	order := make([]int, len(refs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return refs[order[a]].Start < refs[order[b]].Start
	})

	var sb strings.Builder
	sb.Grow(len(src) + len(refs)*16)
	last := 0
	for _, i := range order {
		ref := refs[i]
		if ref.Start < last || ref.End > len(src) || ref.Start > ref.End {
			return "", nil, errors.NewInternalError(errors.ErrCodeInternalError,
				"reference span out of bounds or overlapping: "+ref.Name, nil)
		}
		sb.WriteString(src[last:ref.Start])
		sb.WriteString(Token(i, discriminator))
		last = ref.End
	}
	sb.WriteString(src[last:])

	return sb.String(), mapping, nil
}
