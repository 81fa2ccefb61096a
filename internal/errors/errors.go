package errors

import (
	"sync"

	"github.com/hashicorp/go-multierror"
)

// ErrorCollector collects the per-file errors of a batch operation so that
// one failing file never aborts the remaining ones.
type ErrorCollector struct {
	errors []error
	mutex  sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]error, 0),
	}
}

// Add adds errors to the collector, ignoring nil values.
func (ec *ErrorCollector) Add(errs ...error) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	for _, err := range errs {
		if err != nil {
			ec.errors = append(ec.errors, err)
		}
	}
}

// Errors returns a copy of all collected errors.
func (ec *ErrorCollector) Errors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]error, len(ec.errors))
	copy(result, ec.errors)
	return result
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors) > 0
}

// Len returns the number of collected errors.
func (ec *ErrorCollector) Len() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors)
}

// ErrorOrNil returns the collected errors as a *multierror.Error, or nil when
// nothing was collected.
func (ec *ErrorCollector) ErrorOrNil() error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	if len(ec.errors) == 0 {
		return nil
	}
	var result *multierror.Error
	result = multierror.Append(result, ec.errors...)
	return result.ErrorOrNil()
}

// Flatten returns the individual errors contained in err. A *multierror.Error
// and an errors.Join result are expanded recursively, any other error is
// returned as a single element.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	var nested []error
	switch e := err.(type) {
	case *multierror.Error:
		nested = e.WrappedErrors()
	case interface{ Unwrap() []error }:
		nested = e.Unwrap()
	default:
		return []error{err}
	}
	var result []error
	for _, inner := range nested {
		result = append(result, Flatten(inner)...)
	}
	return result
}
