// Package injector writes the configuration initializer into served HTML
// documents.
//
// The initializer is a self-executing script that assigns the environment
// values read on the server to the global the runtime lookups expect
// (self.process.env or self.NG_ENV). It is wrapped in a pair of delimiter
// comments so that a later run replaces it in place:
//
//	<!--CONFIG--><!--ngssc:begin--><script>...</script><!--ngssc:end-->
package injector

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/conneroisu/ngssc/internal/errors"
	"github.com/conneroisu/ngssc/internal/fsutil"
	"github.com/conneroisu/ngssc/internal/logging"
	"github.com/conneroisu/ngssc/internal/types"
)

const (
	// InsertionMarker is the comment templates carry where the initializer goes.
	InsertionMarker = "<!--CONFIG-->"
	// SnippetBegin and SnippetEnd delimit an injected initializer.
	SnippetBegin = "<!--ngssc:begin-->"
	SnippetEnd   = "<!--ngssc:end-->"
)

// DefaultDocumentPatterns selects the entry documents of a build, one per
// locale directory.
var DefaultDocumentPatterns = []string{"**/index.html"}

// LookupFunc reads a variable from the environment.
type LookupFunc func(name string) (string, bool)

// Engine generates and inserts the initializer for a fixed variable set.
type Engine struct {
	variant   types.Variant
	variables []string
	lookup    LookupFunc
	filter    *fsutil.Filter
	logger    logging.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLookup replaces os.LookupEnv as the environment source.
func WithLookup(lookup LookupFunc) Option {
	return func(e *Engine) error {
		e.lookup = lookup
		return nil
	}
}

// WithDocumentPatterns sets the patterns selecting documents during a
// recursive insertion.
func WithDocumentPatterns(patterns ...string) Option {
	return func(e *Engine) error {
		filter, err := fsutil.NewFilter(patterns...)
		if err != nil {
			return err
		}
		e.filter = filter
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger.WithComponent("injector")
		return nil
	}
}

// New creates an engine for the variables.
func New(variant types.Variant, variables []string, opts ...Option) (*Engine, error) {
	if err := variant.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		variant:   variant,
		variables: types.NewVariableSet(variables...).Names(),
		lookup:    os.LookupEnv,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.filter == nil {
		filter, err := fsutil.NewFilter(DefaultDocumentPatterns...)
		if err != nil {
			return nil, err
		}
		e.filter = filter
	}
	return e, nil
}

// Variables returns the variable names the engine populates.
func (e *Engine) Variables() []string {
	return append([]string(nil), e.variables...)
}

// Populate reads every variable from the environment. Unset variables map
// to nil.
func (e *Engine) Populate() map[string]interface{} {
	values := make(map[string]interface{}, len(e.variables))
	for _, name := range e.variables {
		if value, ok := e.lookup(name); ok {
			values[name] = value
		} else {
			values[name] = nil
		}
	}
	return values
}

// GenerateSnippet returns the delimited initializer with the current
// environment values. Keys keep the order of the variables.
func (e *Engine) GenerateSnippet() string {
	object := e.encodeValues()
	if e.variant == types.VariantProcess {
		object = `{"env":` + object + "}"
	}

	var sb strings.Builder
	sb.WriteString(SnippetBegin)
	sb.WriteString("<script>(function(self){self.")
	sb.WriteString(e.variant.GlobalName())
	sb.WriteString("=")
	sb.WriteString(object)
	sb.WriteString(";})(window)</script>")
	sb.WriteString(SnippetEnd)
	return sb.String()
}

// encodeValues encodes the populated values as a JSON object in variable
// order. json.Marshal escapes <, > and & so a value cannot close the script
// element.
func (e *Engine) encodeValues() string {
	values := e.Populate()
	var sb strings.Builder
	sb.WriteByte('{')
	for i, name := range e.variables {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		value, err := json.Marshal(values[name])
		if err != nil {
			// strings and nil always encode
			value = []byte("null")
		}
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(value)
	}
	sb.WriteByte('}')
	return sb.String()
}

// Apply returns document with the initializer in place. An existing
// initializer is replaced; otherwise the initializer is inserted right after
// the insertion marker. Apply never touches storage.
func (e *Engine) Apply(document string) (string, error) {
	return e.apply("", document)
}

func (e *Engine) apply(path, document string) (string, error) {
	loc := locate(document)
	snippet := e.GenerateSnippet()
	switch {
	case loc.begin >= 0 && loc.end < 0:
		// A begin delimiter without its end delimiter is left for the user to fix
		return "", errors.ErrMissingInsertionPoint(path, SnippetEnd)
	case loc.begin >= 0 && loc.end > loc.begin:
		return document[:loc.begin] + snippet + document[loc.end:], nil
	case loc.marker >= 0:
		return document[:loc.marker] + snippet + document[loc.marker:], nil
	default:
		return "", errors.ErrMissingInsertionPoint(path, InsertionMarker)
	}
}

// ApplyFile reads the document at path and returns it with the initializer
// applied, without writing it back.
func (e *Engine) ApplyFile(path string) (string, error) {
	content, err := fsutil.ReadFile(path)
	if err != nil {
		return "", err
	}
	return e.apply(path, string(content))
}

// InsertAndSave applies the initializer to the document at path and
// persists it. The file is left untouched when the result equals its
// current content.
func (e *Engine) InsertAndSave(path string) error {
	content, err := fsutil.ReadFile(path)
	if err != nil {
		return err
	}
	updated, err := e.apply(path, string(content))
	if err != nil {
		return err
	}
	if updated == string(content) {
		return nil
	}
	return fsutil.WriteFile(path, []byte(updated))
}

// InsertAndSaveRecursively runs InsertAndSave for every document below dir
// matching the document patterns. Each document is processed independently;
// failures are collected and returned together.
func (e *Engine) InsertAndSaveRecursively(ctx context.Context, dir string) ([]string, error) {
	files, err := fsutil.Files(dir, e.filter)
	if err != nil {
		return nil, err
	}

	collector := errors.NewErrorCollector()
	var done []string
	for _, file := range files {
		if err := e.InsertAndSave(file); err != nil {
			e.logger.Warn(ctx, err, "Skipping document", "file", file)
			collector.Add(err)
			continue
		}
		e.logger.Debug(ctx, "Inserted configuration", "file", file)
		done = append(done, file)
	}
	return done, collector.ErrorOrNil()
}

// location holds byte offsets found in a document; -1 means absent. marker
// is the offset just past the insertion marker, begin/end enclose an
// existing snippet including its delimiters.
type location struct {
	marker int
	begin  int
	end    int
}

// locate walks the document with the HTML tokenizer. Only real comment
// nodes count, so a marker written inside a script or attribute is ignored.
func locate(document string) location {
	loc := location{marker: -1, begin: -1, end: -1}
	markerText := commentText(InsertionMarker)
	beginText := commentText(SnippetBegin)
	endText := commentText(SnippetEnd)

	z := html.NewTokenizer(strings.NewReader(document))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or a read error; either way the document is exhausted
			return loc
		}
		raw := len(z.Raw())
		if tt == html.CommentToken {
			text := string(bytes.TrimSpace(z.Text()))
			switch {
			case text == markerText && loc.marker < 0:
				loc.marker = offset + raw
			case text == beginText && loc.begin < 0:
				loc.begin = offset
			case text == endText && loc.begin >= 0 && loc.end < 0:
				loc.end = offset + raw
			}
		}
		offset += raw
	}
}

func commentText(comment string) string {
	return strings.TrimSuffix(strings.TrimPrefix(comment, "<!--"), "-->")
}
