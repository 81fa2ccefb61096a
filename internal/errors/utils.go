package errors

import (
	"errors"
	"io/fs"
)

// Wrap wraps an error with additional context, creating an NgsscError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *NgsscError {
	if err == nil {
		return nil
	}

	// Keep the location of a wrapped NgsscError so it stays visible in the message
	var ne *NgsscError
	if errors.As(err, &ne) {
		return &NgsscError{
			Type:     errType,
			Code:     code,
			Message:  message,
			Cause:    ne,
			Context:  ne.Context,
			FilePath: ne.FilePath,
		}
	}

	return &NgsscError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapIO wraps a filesystem error for path. A missing file becomes the
// dedicated not found error so callers can match it with IsNotFound.
func WrapIO(err error, code, path string) *NgsscError {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return ErrFileNotFound(path)
	}
	ne := Wrap(err, ErrorTypeIO, code, "file operation failed on "+path)
	ne.FilePath = path
	return ne
}
