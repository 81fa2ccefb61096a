package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ngssc/internal/errors"
	"github.com/conneroisu/ngssc/internal/scanner"
	"github.com/conneroisu/ngssc/internal/types"
)

const environmentSource = `export const environment = {
  production: true,
  apiUrl: process.env.API_URL,
  // process.env.COMMENTED
  title: process.env.TITLE,
  again: process.env.API_URL,
};
`

func scan(t *testing.T, variant types.Variant, src string) []types.EnvironmentReference {
	t.Helper()
	s, err := scanner.New(variant, scanner.ESBuildParser{})
	require.NoError(t, err)
	refs, err := s.Scan("environment.prod.ts", []byte(src))
	require.NoError(t, err)
	return refs
}

// restore replaces every token with the reference text it stands for.
func restore(tokenized, src string, refs []types.EnvironmentReference) string {
	var sb strings.Builder
	last := 0
	for _, tok := range FindTokens(tokenized) {
		sb.WriteString(tokenized[last:tok.Start])
		ref := refs[tok.Index]
		sb.WriteString(src[ref.Start:ref.End])
		last = tok.End
	}
	sb.WriteString(tokenized[last:])
	return sb.String()
}

func TestToken(t *testing.T) {
	assert.Equal(t, `"ngssc-token-0-42"`, Token(0, 42))
	assert.Equal(t, `"ngssc-token-12-9007199254740991"`, Token(12, 9007199254740991))
}

func TestNewDiscriminator(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := NewDiscriminator()
		assert.GreaterOrEqual(t, d, uint64(1))
		assert.Less(t, d, uint64(maxDiscriminator))
	}
}

func TestTokenize(t *testing.T) {
	refs := scan(t, types.VariantProcess, environmentSource)
	require.Len(t, refs, 3)

	tokenized, mapping, err := Tokenize(environmentSource, refs, 7)
	require.NoError(t, err)

	assert.Contains(t, tokenized, `apiUrl: "ngssc-token-0-7",`)
	assert.Contains(t, tokenized, `title: "ngssc-token-1-7",`)
	assert.Contains(t, tokenized, `again: "ngssc-token-2-7",`)
	assert.Contains(t, tokenized, "// process.env.COMMENTED")
	assert.Equal(t, []string{"API_URL", "TITLE", "API_URL"}, mapping.Names)
	assert.Equal(t, uint64(7), mapping.Discriminator)
	assert.Equal(t, 3, mapping.Len())

	// The tokenized file stays valid source.
	refsAfter := scan(t, types.VariantProcess, tokenized)
	assert.Empty(t, refsAfter)
}

func TestTokenizeIndexLaw(t *testing.T) {
	refs := scan(t, types.VariantProcess, environmentSource)
	tokenized, _, err := Tokenize(environmentSource, refs, 99)
	require.NoError(t, err)

	tokens := FindTokens(tokenized)
	require.Len(t, tokens, len(refs))
	for i, tok := range tokens {
		assert.Equal(t, i, tok.Index)
		assert.Equal(t, uint64(99), tok.Discriminator)
	}
}

func TestTokenizeRoundTrip(t *testing.T) {
	refs := scan(t, types.VariantProcess, environmentSource)
	tokenized, _, err := Tokenize(environmentSource, refs, NewDiscriminator())
	require.NoError(t, err)
	assert.Equal(t, environmentSource, restore(tokenized, environmentSource, refs))
}

func TestTokenizeNoReferences(t *testing.T) {
	src := "export const environment = { production: true };"
	tokenized, mapping, err := Tokenize(src, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, src, tokenized)
	assert.Equal(t, 0, mapping.Len())
}

func TestTokenizeUnsortedReferences(t *testing.T) {
	src := "a=process.env.A;b=process.env.B;"
	refs := scan(t, types.VariantProcess, src)
	require.Len(t, refs, 2)

	tokenized, mapping, err := Tokenize(src, []types.EnvironmentReference{refs[1], refs[0]}, 3)
	require.NoError(t, err)
	assert.Equal(t, `a="ngssc-token-1-3";b="ngssc-token-0-3";`, tokenized)
	assert.Equal(t, []string{"B", "A"}, mapping.Names)
}

func TestTokenizeInvalidSpans(t *testing.T) {
	src := "a=process.env.A;"
	tests := []struct {
		name string
		refs []types.EnvironmentReference
	}{
		{"out of bounds", []types.EnvironmentReference{{Name: "A", Start: 2, End: 100}}},
		{"inverted", []types.EnvironmentReference{{Name: "A", Start: 10, End: 2}}},
		{"overlapping", []types.EnvironmentReference{{Name: "A", Start: 2, End: 15}, {Name: "B", Start: 5, End: 15}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Tokenize(src, tt.refs, 1)
			require.Error(t, err)
		})
	}
}

func TestFindTokens(t *testing.T) {
	text := `a="ngssc-token-0-5";b='ngssc-token-1-5';c=` + "`ngssc-token-2-5`" + `;d="ngssc-token-3-5';e="ngssc-token-x-5"`
	tokens := FindTokens(text)
	require.Len(t, tokens, 3)
	for i, tok := range tokens {
		assert.Equal(t, i, tok.Index)
		assert.Equal(t, tok.Text, text[tok.Start:tok.End])
	}
}

func TestDetokenize(t *testing.T) {
	mapping := &Mapping{Discriminator: 5, Names: []string{"TEST", "TEST2"}}

	tests := []struct {
		name     string
		variant  types.Variant
		input    string
		expected string
	}{
		{
			name:     "no tokens",
			variant:  types.VariantProcess,
			input:    "console.log(1)",
			expected: "console.log(1)",
		},
		{
			name:     "process variant",
			variant:  types.VariantProcess,
			input:    `const e={a:"ngssc-token-0-5",b:'ngssc-token-1-5'};`,
			expected: `const e={a:((self.process||{}).env||{}).TEST,b:((self.process||{}).env||{}).TEST2};`,
		},
		{
			name:     "ng env variant",
			variant:  types.VariantNgEnv,
			input:    `x="ngssc-token-1-5"`,
			expected: `x=(self.NG_ENV||{}).TEST2`,
		},
		{
			name:     "duplicated by the bundler",
			variant:  types.VariantProcess,
			input:    `a="ngssc-token-0-5";b="ngssc-token-0-5";c="ngssc-token-0-5"`,
			expected: `a=((self.process||{}).env||{}).TEST;b=((self.process||{}).env||{}).TEST;c=((self.process||{}).env||{}).TEST`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, errs := NewDetokenizer(tt.variant, mapping).Detokenize("main.js", tt.input)
			assert.Empty(t, errs)
			assert.Equal(t, tt.expected, result)
			assert.NotContains(t, result, TokenPrefix)
		})
	}
}

func TestDetokenizeCorruptTokens(t *testing.T) {
	mapping := &Mapping{Discriminator: 5, Names: []string{"TEST"}}
	input := `a="ngssc-token-0-5";b="ngssc-token-9-5";c="ngssc-token-0-6"`

	result, errs := NewDetokenizer(types.VariantProcess, mapping).Detokenize("dist/main.js", input)

	assert.Equal(t, `a=((self.process||{}).env||{}).TEST;b="ngssc-token-9-5";c="ngssc-token-0-6"`, result)
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.True(t, errors.IsCorruptToken(err))
		assert.Contains(t, err.Error(), "dist/main.js")
	}
	assert.Contains(t, errs[0].Error(), "index 9")
	assert.Contains(t, errs[1].Error(), "another tokenization run")
}

func TestDetokenizeWithoutMapping(t *testing.T) {
	result, errs := NewDetokenizer(types.VariantProcess, nil).Detokenize("main.js", `a="ngssc-token-0-5"`)
	assert.Equal(t, `a="ngssc-token-0-5"`, result)
	assert.Len(t, errs, 1)
}

func TestMappingLookup(t *testing.T) {
	mapping := &Mapping{Names: []string{"A"}}
	name, ok := mapping.Lookup(0)
	assert.True(t, ok)
	assert.Equal(t, "A", name)

	_, ok = mapping.Lookup(1)
	assert.False(t, ok)
	_, ok = mapping.Lookup(-1)
	assert.False(t, ok)

	var nilMapping *Mapping
	_, ok = nilMapping.Lookup(0)
	assert.False(t, ok)
	assert.Equal(t, 0, nilMapping.Len())
}
