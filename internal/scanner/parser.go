package scanner

import (
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/conneroisu/ngssc/internal/errors"
)

// Parser is the syntax front end. It rejects source files that are not
// syntactically valid before any reference is extracted from them.
type Parser interface {
	Parse(path string, src []byte) error
}

// ParserLoader provides the syntax front end. Loading fails when the front
// end is unavailable.
type ParserLoader func() (Parser, error)

// ESBuildParser parses JavaScript and TypeScript with esbuild.
type ESBuildParser struct{}

// LoadESBuildParser is the default ParserLoader.
func LoadESBuildParser() (Parser, error) {
	return ESBuildParser{}, nil
}

// Parse implements Parser. Only the first syntax error is reported.
func (ESBuildParser) Parse(path string, src []byte) error {
	result := api.Transform(string(src), api.TransformOptions{
		Loader:     loaderFor(path),
		Sourcefile: path,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) == 0 {
		return nil
	}

	msg := result.Errors[0]
	line, column := 0, 0
	if msg.Location != nil {
		line = msg.Location.Line
		column = msg.Location.Column + 1
	}
	return errors.ErrParse(path, line, column, msg.Text)
}

func loaderFor(path string) api.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs":
		return api.LoaderJS
	case ".jsx":
		return api.LoaderJSX
	case ".tsx":
		return api.LoaderTSX
	default:
		return api.LoaderTS
	}
}
