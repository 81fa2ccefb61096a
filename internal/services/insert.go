package services

import (
	"context"
	"path/filepath"
	"time"

	"github.com/conneroisu/ngssc/internal/config"
	"github.com/conneroisu/ngssc/internal/errors"
	"github.com/conneroisu/ngssc/internal/fsutil"
	"github.com/conneroisu/ngssc/internal/injector"
	"github.com/conneroisu/ngssc/internal/logging"
	"github.com/conneroisu/ngssc/internal/registry"
	"github.com/conneroisu/ngssc/internal/types"
	"github.com/conneroisu/ngssc/internal/watcher"
)

// IndexDocument is the entry document updated by a non-recursive insert.
const IndexDocument = "index.html"

// InsertService handles configuration insertion business logic
type InsertService struct {
	config *config.Config
	logger logging.Logger
	// Lookup reads variables from the environment, os.LookupEnv when nil
	Lookup injector.LookupFunc
}

// NewInsertService creates a new insert service
func NewInsertService(cfg *config.Config, logger logging.Logger) *InsertService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &InsertService{
		config: cfg,
		logger: logger.WithComponent("insert"),
	}
}

// InsertResult contains the result of an insert operation
type InsertResult struct {
	Variant   types.Variant
	Variables []string
	// Snippet is the generated initializer
	Snippet string
	// Documents lists the documents that now carry the initializer
	Documents []string
	// Dry reports that nothing was written
	Dry bool
}

// Insert discovers the variables of the configured directory (unless they
// are configured explicitly) and inserts the initializer into its entry
// document, or into every matching document when recursive. Per document
// failures of a recursive run are returned together after all documents
// were processed.
func (s *InsertService) Insert(ctx context.Context) (*InsertResult, error) {
	variant, err := s.config.ResolvedVariant()
	if err != nil {
		return nil, err
	}
	directory := s.config.Insert.Directory
	if !fsutil.IsDir(directory) {
		return nil, errors.ErrFileNotFound(directory)
	}

	variables, err := s.variables(variant, directory)
	if err != nil {
		return nil, err
	}

	opts := []injector.Option{
		injector.WithDocumentPatterns(s.config.Insert.DocumentPatterns...),
		injector.WithLogger(s.logger),
	}
	if s.Lookup != nil {
		opts = append(opts, injector.WithLookup(s.Lookup))
	}
	engine, err := injector.New(variant, variables, opts...)
	if err != nil {
		return nil, err
	}

	result := &InsertResult{
		Variant:   variant,
		Variables: variables,
		Snippet:   engine.GenerateSnippet(),
		Dry:       s.config.Insert.Dry,
	}
	if result.Dry {
		return result, nil
	}

	if s.config.Insert.Recursive {
		documents, err := engine.InsertAndSaveRecursively(ctx, directory)
		result.Documents = documents
		return result, err
	}

	document := filepath.Join(directory, IndexDocument)
	if err := engine.InsertAndSave(document); err != nil {
		return result, err
	}
	result.Documents = []string{document}
	s.logger.Info(ctx, "Inserted configuration", "file", document, "variables", len(variables))
	return result, nil
}

func (s *InsertService) variables(variant types.Variant, directory string) ([]string, error) {
	if len(s.config.Insert.Variables) > 0 {
		return types.NewVariableSet(s.config.Insert.Variables...).Names(), nil
	}
	reg, err := registry.New(variant, s.config.Insert.ArtifactPatterns...)
	if err != nil {
		return nil, err
	}
	set, err := reg.Discover(directory)
	if err != nil {
		return nil, err
	}
	return set.Names(), nil
}

// Watch runs Insert once and again after every debounced batch of document
// changes until ctx is cancelled. onInsert receives the outcome of every run.
// A first run that fails before any document is processed (configuration,
// missing directory, discovery) ends the watch early; document failures do
// not.
func (s *InsertService) Watch(ctx context.Context, delay time.Duration, onInsert func(*InsertResult, error)) error {
	result, err := s.Insert(ctx)
	if err != nil && result == nil {
		return err
	}
	onInsert(result, err)

	filter, err := fsutil.NewFilter(s.config.Insert.DocumentPatterns...)
	if err != nil {
		return err
	}
	fw, err := watcher.NewFileWatcher(s.config.Insert.Directory, filter, delay, s.logger)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeInternalError, "failed to create file watcher", err)
	}
	defer fw.Stop()

	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		for _, event := range events {
			s.logger.Debug(ctx, "Document changed", "file", event.Path, "event", event.Type.String())
		}
		result, err := s.Insert(ctx)
		onInsert(result, err)
		return err
	})
	if err := fw.Start(ctx); err != nil {
		return errors.WrapIO(err, errors.ErrCodeFileRead, s.config.Insert.Directory)
	}

	s.logger.Info(ctx, "Watching for document changes", "directory", s.config.Insert.Directory)
	<-ctx.Done()
	return nil
}
