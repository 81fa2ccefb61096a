// Package internal contains the core implementation packages for ngssc.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the ngssc CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - scanner: Locates environment references in a source file
//   - tokenizer: Replaces references with tokens and tokens with lookups
//   - build: Runs a build command with the environment file tokenized
//   - registry: Discovers the variables used by built artifacts
//   - injector: Inserts the runtime initializer into index documents
//   - services: Business logic behind the wrap-aot and insert commands
//   - watcher: File system monitoring with debouncing
//   - config: Configuration loading and validation
//   - errors: Structured errors and error collection
//   - logging: Structured logging on top of log/slog
//   - fsutil: Glob-filtered traversal and atomic file writes
//
// # Data Flow
//
// wrap-aot tokenizes the environment file, runs the build and restores the
// file whatever the outcome, then rewrites the tokens found in the output:
//
//	scanner -> tokenizer -> build command -> tokenizer (detokenize)
//
// insert discovers the variables used by the output and writes their
// current values into the entry documents:
//
//	registry -> injector
package internal
