// Package errors provides the structured error type shared by every ngssc
// component together with constructors for the failure modes of the
// tokenization pipeline and the injection engine.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeDependency ErrorType = "dependency"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeToken      ErrorType = "token"
	ErrorTypeInsertion  ErrorType = "insertion"
	ErrorTypeBuild      ErrorType = "build"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeNoCommand             = "ERR_NO_COMMAND"
	ErrCodeConflictingOptions    = "ERR_CONFLICTING_OPTIONS"
	ErrCodeInvalidVariant        = "ERR_INVALID_VARIANT"
	ErrCodeConfigInvalid         = "ERR_CONFIG_INVALID"
	ErrCodeInvalidPath           = "ERR_INVALID_PATH"
	ErrCodeFileNotFound          = "ERR_FILE_NOT_FOUND"
	ErrCodeFileRead              = "ERR_FILE_READ"
	ErrCodeFileWrite             = "ERR_FILE_WRITE"
	ErrCodeDependencyMissing     = "ERR_DEPENDENCY_MISSING"
	ErrCodeParseFailed           = "ERR_PARSE_FAILED"
	ErrCodeCorruptToken          = "ERR_CORRUPT_TOKEN"
	ErrCodeMissingInsertionPoint = "ERR_MISSING_INSERTION_POINT"
	ErrCodeBuildFailed           = "ERR_BUILD_FAILED"
	ErrCodeRestoreFailed         = "ERR_RESTORE_FAILED"
	ErrCodeInternalError         = "ERR_INTERNAL"
)

// NgsscError is a structured error type with context.
type NgsscError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	Context  map[string]interface{}
	FilePath string
	Line     int
	Column   int
}

// Error implements the error interface.
func (e *NgsscError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" && e.Line > 0 {
		location := fmt.Sprintf("%s:%d", e.FilePath, e.Line)
		if e.Column > 0 {
			location += fmt.Sprintf(":%d", e.Column)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *NgsscError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *NgsscError) Is(target error) bool {
	var t *NgsscError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *NgsscError) WithContext(key string, value interface{}) *NgsscError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *NgsscError) WithLocation(filePath string, line, column int) *NgsscError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *NgsscError {
	return &NgsscError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewBuildError creates a build error.
func NewBuildError(code, message string, cause error) *NgsscError {
	return &NgsscError{
		Type:    ErrorTypeBuild,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *NgsscError {
	return &NgsscError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrNoCommand is returned by wrap-aot when no build command was given.
func ErrNoCommand() *NgsscError {
	return NewConfigError(ErrCodeNoCommand, "no command given to ngssc wrap-aot")
}

// ErrConflictingOptions reports two mutually exclusive options set together.
func ErrConflictingOptions(a, b string) *NgsscError {
	return NewConfigError(ErrCodeConflictingOptions,
		fmt.Sprintf("options --%s and --%s are mutually exclusive", a, b)).
		WithContext("options", []string{a, b})
}

// ErrInvalidPath creates a path validation error.
func ErrInvalidPath(path, reason string) *NgsscError {
	return NewConfigError(ErrCodeInvalidPath, fmt.Sprintf("invalid path %q: %s", path, reason))
}

// ErrFileNotFound reports a missing file or directory.
func ErrFileNotFound(path string) *NgsscError {
	return &NgsscError{
		Type:     ErrorTypeIO,
		Code:     ErrCodeFileNotFound,
		Message:  "given file does not exist: " + path,
		FilePath: path,
	}
}

// ErrDependencyMissing reports an unavailable optional dependency.
func ErrDependencyMissing(dependency, hint string, cause error) *NgsscError {
	message := fmt.Sprintf("ngssc wrap-aot requires %s", dependency)
	if hint != "" {
		message += ". " + hint
	}
	return &NgsscError{
		Type:    ErrorTypeDependency,
		Code:    ErrCodeDependencyMissing,
		Message: message,
		Cause:   cause,
	}
}

// ErrParse reports a source file that could not be parsed.
func ErrParse(filePath string, line, column int, message string) *NgsscError {
	return (&NgsscError{
		Type:    ErrorTypeParse,
		Code:    ErrCodeParseFailed,
		Message: "failed to parse source: " + message,
	}).WithLocation(filePath, line, column)
}

// ErrCorruptToken reports a token that cannot be mapped back to a variable.
func ErrCorruptToken(filePath, token, reason string) *NgsscError {
	return &NgsscError{
		Type:     ErrorTypeToken,
		Code:     ErrCodeCorruptToken,
		Message:  fmt.Sprintf("%s: corrupt token %s: %s", filePath, token, reason),
		FilePath: filePath,
	}
}

// ErrMissingInsertionPoint reports a document without the insertion marker.
func ErrMissingInsertionPoint(filePath, marker string) *NgsscError {
	message := "document does not contain the insertion marker " + marker
	if filePath != "" {
		message = filePath + ": " + message
	}
	return &NgsscError{
		Type:     ErrorTypeInsertion,
		Code:     ErrCodeMissingInsertionPoint,
		Message:  message,
		FilePath: filePath,
	}
}

// hasType reports whether err, or any error of a batch, has errType.
func hasType(err error, errType ErrorType) bool {
	return anyNgsscError(err, func(ne *NgsscError) bool { return ne.Type == errType })
}

// hasCode reports whether err, or any error of a batch, has code.
func hasCode(err error, code string) bool {
	return anyNgsscError(err, func(ne *NgsscError) bool { return ne.Code == code })
}

func anyNgsscError(err error, match func(*NgsscError) bool) bool {
	for _, e := range Flatten(err) {
		var ne *NgsscError
		if errors.As(e, &ne) && match(ne) {
			return true
		}
	}
	return false
}

// IsConfigError checks if an error is a configuration error.
func IsConfigError(err error) bool { return hasType(err, ErrorTypeConfig) }

// IsNotFound checks if an error reports a missing file.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeFileNotFound) }

// IsDependencyMissing checks if an error reports a missing dependency.
func IsDependencyMissing(err error) bool { return hasType(err, ErrorTypeDependency) }

// IsParseError checks if an error is a parse failure.
func IsParseError(err error) bool { return hasType(err, ErrorTypeParse) }

// IsCorruptToken checks if an error reports an unmapped token.
func IsCorruptToken(err error) bool { return hasType(err, ErrorTypeToken) }

// IsMissingInsertionPoint checks if an error reports a missing marker.
func IsMissingInsertionPoint(err error) bool { return hasType(err, ErrorTypeInsertion) }
