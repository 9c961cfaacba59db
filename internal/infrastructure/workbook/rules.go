package workbook

// FieldType represents the expected type of a cell
type FieldType string

const (
	TypeText    FieldType = "text"
	TypeDecimal FieldType = "number"
	TypeDate    FieldType = "date"
)

// FieldRule defines validation rules for a sheet column
type FieldRule struct {
	Column     int
	Name       string
	Type       FieldType
	Required   bool
	DateLayout string
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Column creates a rule builder for a 1-based column
func Column(col int, name string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: col, Name: name, Type: TypeText}}
}

// Required marks the column as mandatory
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Decimal expects a number or an empty cell
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// Date expects an Excel date or text in layout
func (b *FieldRuleBuilder) Date(layout string) *FieldRuleBuilder {
	b.rule.Type = TypeDate
	b.rule.DateLayout = layout
	return b
}

// Build returns the built field rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator checks rows against column rules
type FieldValidator struct {
	rules  []FieldRule
	errors *ErrorCollection
}

// NewFieldValidator creates a validator sharing the given collection
func NewFieldValidator(rules []FieldRule, errors *ErrorCollection) *FieldValidator {
	return &FieldValidator{rules: rules, errors: errors}
}

// ValidateRow checks every rule in order and reports whether the row is clean
func (v *FieldValidator) ValidateRow(sheet string, row Row) bool {
	ok := true
	for _, rule := range v.rules {
		raw := row.Cell(rule.Column)
		if IsMissing(raw) {
			if rule.Required {
				v.errors.AddRequiredError(sheet, row.Number, rule.Name)
				ok = false
			}
			continue
		}
		switch rule.Type {
		case TypeDecimal:
			if _, err := ParseDecimal(raw); err != nil {
				v.errors.AddTypeError(sheet, row.Number, rule.Name, string(rule.Type), raw)
				ok = false
			}
		case TypeDate:
			if ParseDate(raw, rule.DateLayout) == nil {
				v.errors.AddTypeError(sheet, row.Number, rule.Name, string(rule.Type), raw)
				ok = false
			}
		}
	}
	return ok
}

// Errors returns the error collection
func (v *FieldValidator) Errors() *ErrorCollection {
	return v.errors
}
