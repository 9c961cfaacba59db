package shared

import (
	"errors"
	"strconv"
	"strings"
)

// Error codes for failures the operator can fix by editing input files or configuration
const (
	ErrCodeConfig              = "ERR_CONFIG"
	ErrCodeFilesMissing        = "ERR_FILES_MISSING"
	ErrCodeSheetValidation     = "ERR_SHEET_VALIDATION"
	ErrCodeDuplicateClients    = "ERR_DUPLICATE_CLIENTS"
	ErrCodeDictionary          = "ERR_DICTIONARY"
	ErrCodeUnmappedDrugs       = "ERR_UNMAPPED_DRUGS"
	ErrCodeReferenceDuplicates = "ERR_REFERENCE_DUPLICATES"
	ErrCodeReferenceMissing    = "ERR_REFERENCE_MISSING"
	ErrCodeMappingFile         = "ERR_MAPPING_FILE"
	ErrCodeManualCorrection    = "ERR_MANUAL_CORRECTION"
	ErrCodeMissingTerritories  = "ERR_MISSING_TERRITORIES"
	ErrCodeDatabase            = "ERR_DATABASE"
	ErrCodeSourceLayout        = "ERR_SOURCE_LAYOUT"
)

const bannerRule = "=================================================="

// ExpectedError is a failure caused by input data or configuration.
// It carries instructions for the operator and is logged without a stack trace.
type ExpectedError struct {
	Code     string   `json:"code"`
	Title    string   `json:"title"`
	Details  []string `json:"details,omitempty"`
	HowToFix []string `json:"how_to_fix,omitempty"`
	Footer   string   `json:"footer,omitempty"`
}

// NewExpectedError creates an expected error with a banner title
func NewExpectedError(code, title string) *ExpectedError {
	return &ExpectedError{Code: code, Title: title}
}

// WithDetails appends detail lines
func (e *ExpectedError) WithDetails(lines ...string) *ExpectedError {
	e.Details = append(e.Details, lines...)
	return e
}

// WithFix appends HOW TO FIX steps
func (e *ExpectedError) WithFix(steps ...string) *ExpectedError {
	e.HowToFix = append(e.HowToFix, steps...)
	return e
}

// WithFooter sets the closing warning line
func (e *ExpectedError) WithFooter(footer string) *ExpectedError {
	e.Footer = footer
	return e
}

// Error renders the operator-facing message
func (e *ExpectedError) Error() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(bannerRule)
	b.WriteString("\n")
	b.WriteString(strings.ToUpper(e.Title))
	b.WriteString("\n")
	b.WriteString(bannerRule)
	b.WriteString("\n")

	for _, d := range e.Details {
		b.WriteString("\n")
		b.WriteString(d)
	}

	if len(e.HowToFix) > 0 {
		b.WriteString("\n\n🛠 HOW TO FIX:")
		for i, step := range e.HowToFix {
			b.WriteString("\n")
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteString(". ")
			b.WriteString(step)
		}
	}

	if e.Footer != "" {
		b.WriteString("\n\n⚠️ ")
		b.WriteString(e.Footer)
	}
	return b.String()
}

// Is matches any ExpectedError carrying the same code
func (e *ExpectedError) Is(target error) bool {
	t, ok := target.(*ExpectedError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// IsExpected reports whether err (or anything it wraps) is an ExpectedError
func IsExpected(err error) bool {
	var ee *ExpectedError
	return errors.As(err, &ee)
}

// AsExpected extracts the ExpectedError from an error chain
func AsExpected(err error) (*ExpectedError, bool) {
	var ee *ExpectedError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
