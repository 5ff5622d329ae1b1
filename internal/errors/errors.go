package errors

import (
	"fmt"
	"strings"
	"sync"
)

// EntryError reports a problem with one entry of a batch, such as one
// contact in a seed file.
type EntryError struct {
	Index   int
	Field   string
	Message string
}

// Error implements the error interface
func (ee *EntryError) Error() string {
	if ee.Field == "" {
		return fmt.Sprintf("entry %d: %s", ee.Index, ee.Message)
	}
	return fmt.Sprintf("entry %d: %s: %s", ee.Index, ee.Field, ee.Message)
}

// ErrorCollector collects entry errors and general errors
type ErrorCollector struct {
	entryErrors []EntryError
	errors      []error
	mutex       sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		entryErrors: make([]EntryError, 0),
		errors:      make([]error, 0),
	}
}

// Add adds an entry error to the collector
func (ec *ErrorCollector) Add(err EntryError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.entryErrors = append(ec.entryErrors, err)
}

// AddError adds a general error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// GetAllErrors returns all collected errors, entry errors first
func (ec *ErrorCollector) GetAllErrors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	allErrors := make([]error, 0, len(ec.entryErrors)+len(ec.errors))
	for i := range ec.entryErrors {
		allErrors = append(allErrors, &ec.entryErrors[i])
	}
	allErrors = append(allErrors, ec.errors...)

	return allErrors
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.entryErrors) > 0 || len(ec.errors) > 0
}

// AsValidationError folds the collected errors into a single AppError, or
// returns nil when nothing was collected.
func (ec *ErrorCollector) AsValidationError(code, message string) *AppError {
	all := ec.GetAllErrors()
	if len(all) == 0 {
		return nil
	}

	lines := make([]string, 0, len(all))
	for _, err := range all {
		lines = append(lines, err.Error())
	}

	return NewValidationError(code, message+": "+strings.Join(lines, "; ")).
		WithContext("count", len(all))
}
