package csvimport

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldType represents the expected type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeDecimal FieldType = "decimal"
)

// RowValues is a row that can be validated column by column
type RowValues interface {
	Number() int
	Get(column string) string
}

// FieldRule defines validation rules for a field
type FieldRule struct {
	Column      string
	Type        FieldType
	Required    bool
	MaxLength   int
	NonNegative bool
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new field rule builder
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{
		rule: FieldRule{
			Column: column,
			Type:   TypeString,
		},
	}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Decimal sets the field type to decimal
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// MaxLength sets the maximum length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// NonNegative rejects decimals below zero
func (b *FieldRuleBuilder) NonNegative() *FieldRuleBuilder {
	b.rule.NonNegative = true
	return b
}

// Build returns the built field rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// InventoryRules are the rules every inventory import row must satisfy
func InventoryRules() []FieldRule {
	return []FieldRule{
		Field(ColumnName).Required().MaxLength(255).Build(),
		Field(ColumnUnit).MaxLength(20).Build(),
		Field(ColumnQuantity).Required().Decimal().NonNegative().Build(),
		Field(ColumnReorderPoint).Decimal().NonNegative().Build(),
		Field(ColumnCost).Decimal().NonNegative().Build(),
	}
}

// FieldValidator validates rows according to rules, in rule order
type FieldValidator struct {
	rules  []FieldRule
	errors *ErrorCollection
}

// NewFieldValidator creates a new field validator
func NewFieldValidator(rules []FieldRule, maxErrors int) *FieldValidator {
	return &FieldValidator{
		rules:  rules,
		errors: NewErrorCollection(maxErrors),
	}
}

// ValidateRow validates all fields in a row and reports whether it is clean
func (v *FieldValidator) ValidateRow(row RowValues) bool {
	ok := true
	for _, rule := range v.rules {
		value := row.Get(rule.Column)

		if value == "" {
			if rule.Required {
				v.errors.AddRequiredError(row.Number(), rule.Column)
				ok = false
			}
			continue
		}

		if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
			v.errors.Add(NewRowErrorWithValue(row.Number(), rule.Column, ErrCodeTooLong,
				fmt.Sprintf("length must be at most %d", rule.MaxLength), value))
			ok = false
			continue
		}

		if rule.Type == TypeDecimal {
			d, err := decimal.NewFromString(value)
			if err != nil {
				v.errors.AddDecimalError(row.Number(), rule.Column, value)
				ok = false
				continue
			}
			if rule.NonNegative && d.IsNegative() {
				v.errors.Add(NewRowErrorWithValue(row.Number(), rule.Column, ErrCodeNegativeValue,
					"value cannot be negative", value))
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

// ParseDecimal parses an optional decimal column, returning nil when blank.
// Call it on rows that already passed validation.
func ParseDecimal(value string) *decimal.Decimal {
	if value == "" {
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil
	}
	return &d
}
