// Package types provides common type definitions used throughout the ngssc CLI.
// This package contains shared types to avoid circular dependencies between packages.
package types

import (
	"fmt"
	"regexp"

	"github.com/conneroisu/ngssc/internal/errors"
)

// Variant selects the source syntax used to reference environment variables.
type Variant string

const (
	// VariantProcess recognizes process.env.NAME.
	VariantProcess Variant = "process"
	// VariantNgEnv recognizes NG_ENV.NAME.
	VariantNgEnv Variant = "ng-env"
)

// identifier matches a JavaScript identifier name as emitted by the scanner.
const identifier = `[A-Za-z_$][A-Za-z0-9_$]*`

var lookupPatterns = map[Variant]*regexp.Regexp{
	VariantProcess: regexp.MustCompile(
		`\(\(self\.process\|\|\{\}\)\.env\|\|\{\}\)\.(` + identifier + `)` +
			`|\bprocess\s*\.\s*env\s*\.\s*(` + identifier + `)`),
	VariantNgEnv: regexp.MustCompile(
		`\(self\.NG_ENV\|\|\{\}\)\.(` + identifier + `)` +
			`|\bNG_ENV\s*\.\s*(` + identifier + `)`),
}

// ResolveVariant maps the two mutually exclusive CLI/config switches to a
// Variant. Neither switch selects the process variant.
func ResolveVariant(processEnv, ngEnv bool) (Variant, error) {
	switch {
	case processEnv && ngEnv:
		return "", errors.ErrConflictingOptions("process-env", "ng-env")
	case ngEnv:
		return VariantNgEnv, nil
	default:
		return VariantProcess, nil
	}
}

// Validate reports whether v is one of the supported variants.
func (v Variant) Validate() error {
	switch v {
	case VariantProcess, VariantNgEnv:
		return nil
	default:
		return errors.NewConfigError(errors.ErrCodeInvalidVariant,
			fmt.Sprintf("unknown variant %q (supported: %s, %s)", v, VariantProcess, VariantNgEnv))
	}
}

// String returns the variant name.
func (v Variant) String() string {
	return string(v)
}

// Root returns the identifier an access expression starts with.
func (v Variant) Root() string {
	if v == VariantNgEnv {
		return "NG_ENV"
	}
	return "process"
}

// GlobalName returns the property of the window object the injected
// initializer assigns.
func (v Variant) GlobalName() string {
	return v.Root()
}

// LookupExpression returns the runtime lookup written into build artifacts
// for the variable name. It never throws when the initializer is missing.
func (v Variant) LookupExpression(name string) string {
	if v == VariantNgEnv {
		return "(self.NG_ENV||{})." + name
	}
	return "((self.process||{}).env||{})." + name
}

// LookupPattern returns the expression matching every runtime lookup of the
// variant, both the guarded form and the plain member access. Exactly one of
// the two capture groups is set per match.
func (v Variant) LookupPattern() *regexp.Regexp {
	if re, ok := lookupPatterns[v]; ok {
		return re
	}
	return lookupPatterns[VariantProcess]
}
