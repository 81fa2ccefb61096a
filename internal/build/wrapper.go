// Package build wraps an external ahead-of-time build so that environment
// variable references survive compilation.
//
// A wrapped build tokenizes the environment source file, runs the build
// command, restores the source file whatever the outcome and finally turns
// the tokens found in the build output into runtime lookups.
package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/conneroisu/ngssc/internal/errors"
	"github.com/conneroisu/ngssc/internal/fsutil"
	"github.com/conneroisu/ngssc/internal/logging"
	"github.com/conneroisu/ngssc/internal/scanner"
	"github.com/conneroisu/ngssc/internal/tokenizer"
	"github.com/conneroisu/ngssc/internal/types"
)

// DefaultArtifactPatterns selects the files detokenized after a build.
var DefaultArtifactPatterns = []string{"**/*.js", "**/*.mjs"}

// SpawnFunc runs the build command in dir and waits for it to finish.
type SpawnFunc func(ctx context.Context, dir string, command []string) error

// WrapOptions contains options for one wrapped build
type WrapOptions struct {
	// Directory is the project directory; the command runs in it
	Directory string
	// EnvironmentFile is the source file to tokenize, relative to Directory
	EnvironmentFile string
	// Dist is the build output directory, relative to Directory
	Dist string
	// Variant is the access style used in EnvironmentFile
	Variant types.Variant
	// Tokenize enables tokenization and detokenization
	Tokenize bool
	// Command is the build command and its arguments
	Command []string
	// ArtifactPatterns selects the output files to detokenize
	ArtifactPatterns []string
}

// WrapResult contains the result of a wrapped build
type WrapResult struct {
	// ExitCode is the exit code of the build command, -1 if it could not run
	ExitCode int
	// CommandErr is the error returned while running the command
	CommandErr error
	// References is the number of tokenized references
	References int
	// Variables are the distinct tokenized variable names in first-seen order
	Variables []string
	// Artifacts lists the output files that were rewritten
	Artifacts []string
	// Errors holds the per file detokenization failures
	Errors []error
}

// Success reports whether the command succeeded and every token was resolved.
func (r *WrapResult) Success() bool {
	return r.ExitCode == 0 && r.CommandErr == nil && len(r.Errors) == 0
}

// Wrapper runs wrapped builds.
type Wrapper struct {
	// LoadParser provides the syntax front end used for tokenization
	LoadParser scanner.ParserLoader
	// Spawn runs the build command
	Spawn SpawnFunc

	logger logging.Logger
}

// NewWrapper creates a wrapper spawning real processes.
func NewWrapper(logger logging.Logger) *Wrapper {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Wrapper{
		LoadParser: scanner.LoadESBuildParser,
		Spawn:      SpawnCommand,
		logger:     logger.WithComponent("wrap-aot"),
	}
}

// Run performs the wrapped build. Configuration problems, a missing source
// file, a missing syntax front end and parse errors are returned before the
// source file is modified. A failing command is reported in the result; it
// neither skips restoring the source nor detokenizing the output.
func (w *Wrapper) Run(ctx context.Context, opts WrapOptions) (*WrapResult, error) {
	if len(opts.Command) == 0 || opts.Command[0] == "" {
		return nil, errors.ErrNoCommand()
	}
	if err := opts.Variant.Validate(); err != nil {
		return nil, err
	}

	directory := opts.Directory
	if directory == "" {
		directory = "."
	}
	sourceFile := filepath.Join(directory, opts.EnvironmentFile)
	if info, err := os.Stat(sourceFile); err != nil || info.IsDir() {
		return nil, errors.ErrFileNotFound(sourceFile)
	}

	result := &WrapResult{}
	if !opts.Tokenize {
		w.runCommand(ctx, directory, opts.Command, result)
		return result, nil
	}

	parser, err := w.LoadParser()
	if err != nil {
		return nil, errors.ErrDependencyMissing("a JavaScript/TypeScript syntax front end",
			"The esbuild parser could not be loaded", err)
	}

	mapping, err := w.tokenizeAndBuild(ctx, directory, sourceFile, opts, parser, result)
	if err != nil {
		return result, err
	}

	distDir := filepath.Join(directory, opts.Dist)
	artifacts, errs, err := w.detokenizeOutput(ctx, distDir, opts, mapping)
	if err != nil {
		return result, err
	}
	result.Artifacts = artifacts
	result.Errors = errs
	return result, nil
}

// tokenizeAndBuild is the critical region: the source file holds tokens
// only while the command runs and is restored by the deferred write on
// every path out of this function, panics included.
func (w *Wrapper) tokenizeAndBuild(ctx context.Context, directory, sourceFile string, opts WrapOptions, parser scanner.Parser, result *WrapResult) (mapping *tokenizer.Mapping, err error) {
	original, err := fsutil.ReadFile(sourceFile)
	if err != nil {
		return nil, err
	}

	refScanner, err := scanner.New(opts.Variant, parser)
	if err != nil {
		return nil, err
	}
	refs, err := refScanner.Scan(sourceFile, original)
	if err != nil {
		return nil, err
	}
	tokenized, mapping, err := tokenizer.Tokenize(string(original), refs, tokenizer.NewDiscriminator())
	if err != nil {
		return nil, err
	}
	variables := types.NewVariableSet(mapping.Names...)
	result.References = mapping.Len()
	result.Variables = variables.Names()

	if err := fsutil.WriteFile(sourceFile, []byte(tokenized)); err != nil {
		return nil, err
	}
	defer func() {
		if restoreErr := w.restore(ctx, sourceFile, original); restoreErr != nil {
			err = stderrors.Join(err, restoreErr)
		}
	}()
	w.logger.Info(ctx, "Tokenized environment file",
		"file", sourceFile, "references", mapping.Len(), "variables", variables.Len(),
		"discriminator", mapping.Discriminator)

	w.runCommand(ctx, directory, opts.Command, result)
	return mapping, nil
}

func (w *Wrapper) restore(ctx context.Context, sourceFile string, original []byte) error {
	if err := fsutil.WriteFile(sourceFile, original); err != nil {
		w.logger.Error(ctx, err, "Failed to restore environment file; it still contains tokens", "file", sourceFile)
		return errors.Wrap(err, errors.ErrorTypeIO, errors.ErrCodeRestoreFailed,
			"failed to restore "+sourceFile)
	}
	w.logger.Debug(ctx, "Restored environment file", "file", sourceFile)
	return nil
}

// runCommand runs the build command and records its outcome. A panic in
// the spawn function is recorded as a command error.
func (w *Wrapper) runCommand(ctx context.Context, directory string, command []string, result *WrapResult) {
	defer func() {
		if r := recover(); r != nil {
			result.ExitCode = -1
			result.CommandErr = errors.NewBuildError(errors.ErrCodeBuildFailed,
				"build command panicked", fmt.Errorf("%v", r))
			w.logger.Error(ctx, result.CommandErr, "Build command failed", "command", command)
		}
	}()

	perf := logging.StartOperation(w.logger, "build")
	err := w.Spawn(ctx, directory, command)
	if err == nil {
		perf.End(ctx)
		return
	}

	result.CommandErr = err
	result.ExitCode = -1
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	}
	perf.EndWithError(ctx, err)
}

// detokenizeOutput rewrites the tokens of every artifact below distDir. A
// file with corrupt tokens is still rewritten for its valid tokens.
func (w *Wrapper) detokenizeOutput(ctx context.Context, distDir string, opts WrapOptions, mapping *tokenizer.Mapping) ([]string, []error, error) {
	if info, err := os.Stat(distDir); err != nil || !info.IsDir() {
		return nil, nil, errors.ErrFileNotFound(distDir)
	}

	patterns := opts.ArtifactPatterns
	if len(patterns) == 0 {
		patterns = DefaultArtifactPatterns
	}
	filter, err := fsutil.NewFilter(patterns...)
	if err != nil {
		return nil, nil, err
	}
	files, err := fsutil.Files(distDir, filter)
	if err != nil {
		return nil, nil, err
	}

	detokenizer := tokenizer.NewDetokenizer(opts.Variant, mapping)
	collector := errors.NewErrorCollector()
	var rewritten []string
	for _, file := range files {
		changed, err := w.detokenizeFile(detokenizer, file, collector)
		if err != nil {
			collector.Add(err)
			continue
		}
		if changed {
			rewritten = append(rewritten, file)
		}
	}

	if collector.HasErrors() {
		for _, err := range collector.Errors() {
			w.logger.Warn(ctx, err, "Detokenization problem")
		}
	}
	w.logger.Info(ctx, "Detokenized build output",
		"dist", distDir, "files", len(files), "rewritten", len(rewritten), "problems", collector.Len())
	return rewritten, collector.Errors(), nil
}

func (w *Wrapper) detokenizeFile(detokenizer *tokenizer.Detokenizer, file string, collector *errors.ErrorCollector) (bool, error) {
	content, err := fsutil.ReadFile(file)
	if err != nil {
		return false, err
	}
	updated, errs := detokenizer.Detokenize(file, string(content))
	collector.Add(errs...)
	if updated == string(content) {
		return false, nil
	}
	return true, fsutil.WriteFile(file, []byte(updated))
}

// SpawnCommand runs command in dir with the standard streams of the current
// process.
func SpawnCommand(ctx context.Context, dir string, command []string) error {
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.NewBuildError(errors.ErrCodeBuildFailed,
			fmt.Sprintf("build command %q failed", command[0]), err)
	}
	return nil
}
