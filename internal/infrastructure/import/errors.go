package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Row error codes
const (
	ErrCodeRequired         = "REQUIRED"
	ErrCodeInvalidDecimal   = "INVALID_DECIMAL"
	ErrCodeNegativeValue    = "NEGATIVE_VALUE"
	ErrCodeTooLong          = "TOO_LONG"
	ErrCodeDuplicateInBatch = "DUPLICATE_IN_BATCH"
)

// File-level errors. These abort parsing; row errors never do.
var (
	ErrEmptyFile         = errors.New("import file is empty")
	ErrInvalidEncoding   = errors.New("import file is not valid UTF-8 or Windows-1252 text")
	ErrMissingHeader     = errors.New("import file has no header row")
	ErrNoDataRows        = errors.New("import file contains no data rows")
	ErrFileTooLarge      = errors.New("import file exceeds the maximum allowed size")
	ErrUnsupportedFormat = errors.New("unsupported import file format, use .csv or .xlsx")
)

// MissingColumnsError reports required columns absent from the header
type MissingColumnsError struct {
	Columns []string
}

// Error implements the error interface
func (e *MissingColumnsError) Error() string {
	return "missing required column(s): " + strings.Join(e.Columns, ", ")
}

// RowError represents an error in a specific row
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewRowError creates a new RowError
func NewRowError(row int, column, code, message string) RowError {
	return RowError{
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
	}
}

// NewRowErrorWithValue creates a new RowError with the offending value
func NewRowErrorWithValue(row int, column, code, message, value string) RowError {
	return RowError{
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
		Value:   value,
	}
}

// ErrorCollection collects row errors up to a limit while still counting all of them
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a new ErrorCollection with a maximum error limit
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0),
		maxErrors: maxErrors,
	}
}

// Add adds an error to the collection
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRequiredError adds a required field error
func (ec *ErrorCollection) AddRequiredError(row int, column string) {
	ec.Add(NewRowError(row, column, ErrCodeRequired, fmt.Sprintf("field '%s' is required", column)))
}

// AddDecimalError adds an unparsable number error
func (ec *ErrorCollection) AddDecimalError(row int, column, value string) {
	ec.Add(NewRowErrorWithValue(row, column, ErrCodeInvalidDecimal,
		fmt.Sprintf("'%s' is not a valid number", value), value))
}

// AddDuplicateError adds a duplicate-in-batch error
func (ec *ErrorCollection) AddDuplicateError(row int, column, value string, firstRow int) {
	ec.Add(NewRowErrorWithValue(row, column, ErrCodeDuplicateInBatch,
		fmt.Sprintf("'%s' is already created by row %d", value, firstRow), value))
}

// Errors returns the collected errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount returns the total number of errors including those not collected
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated returns true if some errors were not collected due to the limit
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}

// ErrorSummary returns the number of collected errors per code
func (ec *ErrorCollection) ErrorSummary() map[string]int {
	summary := make(map[string]int)
	for _, err := range ec.errors {
		summary[err.Code]++
	}
	return summary
}
