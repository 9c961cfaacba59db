package workbook

import (
	"fmt"
	"strings"
)

// Sheet validation error codes
const (
	ErrCodeColumnCount   = "ERR_SHEET_COLUMN_COUNT"
	ErrCodeRequiredField = "ERR_SHEET_REQUIRED_FIELD"
	ErrCodeInvalidType   = "ERR_SHEET_INVALID_TYPE"
	ErrCodeUnknownSheet  = "ERR_SHEET_UNKNOWN"
	ErrCodeInvalidValue  = "ERR_SHEET_INVALID_VALUE"
)

// RowError represents a problem in a specific sheet row
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	var parts []string
	if e.Sheet != "" {
		parts = append(parts, fmt.Sprintf("sheet '%s'", e.Sheet))
	}
	if e.Row > 0 {
		parts = append(parts, fmt.Sprintf("row %d", e.Row))
	}
	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column '%s'", e.Column))
	}
	if len(parts) == 0 {
		return e.Message
	}
	return strings.Join(parts, ", ") + ": " + e.Message
}

// ErrorCollection gathers row problems across sheets without failing fast.
// Only the first maxErrors are kept, but every error is counted.
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
	byCode     map[string]int
	byColumn   map[string]map[string]int
}

// NewErrorCollection creates a new ErrorCollection with a maximum error limit
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0),
		maxErrors: maxErrors,
		byCode:    make(map[string]int),
		byColumn:  make(map[string]map[string]int),
	}
}

// Add adds an error to the collection
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	ec.byCode[err.Code]++
	key := err.Sheet + "\x00" + err.Code
	if ec.byColumn[key] == nil {
		ec.byColumn[key] = make(map[string]int)
	}
	ec.byColumn[key][err.Column]++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRequiredError adds a required field error
func (ec *ErrorCollection) AddRequiredError(sheet string, row int, column string) {
	ec.Add(RowError{
		Sheet: sheet, Row: row, Column: column, Code: ErrCodeRequiredField,
		Message: fmt.Sprintf("field '%s' is required", column),
	})
}

// AddTypeError adds a type validation error
func (ec *ErrorCollection) AddTypeError(sheet string, row int, column, expectedType, value string) {
	ec.Add(RowError{
		Sheet: sheet, Row: row, Column: column, Code: ErrCodeInvalidType,
		Message: fmt.Sprintf("expected %s", expectedType), Value: value,
	})
}

// AddSheetError adds an error concerning a whole sheet
func (ec *ErrorCollection) AddSheetError(sheet, code, message string) {
	ec.Add(RowError{Sheet: sheet, Code: code, Message: message})
}

// Errors returns the collected errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// Count returns the number of collected errors (up to maxErrors)
func (ec *ErrorCollection) Count() int {
	return len(ec.errors)
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

// ErrorSummary returns the number of errors per code, truncated ones included
func (ec *ErrorCollection) ErrorSummary() map[string]int {
	out := make(map[string]int, len(ec.byCode))
	for k, v := range ec.byCode {
		out[k] = v
	}
	return out
}

// ColumnCounts returns, for one sheet and code, the number of errors per column
func (ec *ErrorCollection) ColumnCounts(sheet, code string) map[string]int {
	out := make(map[string]int)
	for k, v := range ec.byColumn[sheet+"\x00"+code] {
		out[k] = v
	}
	return out
}

// String returns a string representation of all errors
func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s) found", ec.totalCount)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, " (showing first %d)", ec.maxErrors)
	}
	sb.WriteString(":\n")
	for _, err := range ec.errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// ValidationResult is the outcome of validating one sheet
type ValidationResult struct {
	Sheet       string     `json:"sheet"`
	TotalRows   int        `json:"total_rows"`
	ValidRows   int        `json:"valid_rows"`
	ErrorRows   int        `json:"error_rows"`
	Errors      []RowError `json:"errors,omitempty"`
	IsTruncated bool       `json:"is_truncated,omitempty"`
	TotalErrors int        `json:"total_errors,omitempty"`
}

// SetErrors sets the errors from an ErrorCollection
func (vr *ValidationResult) SetErrors(ec *ErrorCollection) {
	vr.Errors = ec.Errors()
	vr.IsTruncated = ec.IsTruncated()
	vr.TotalErrors = ec.TotalCount()
}

// IsValid returns true if there are no errors
func (vr *ValidationResult) IsValid() bool {
	return vr.ErrorRows == 0 && vr.TotalErrors == 0
}
