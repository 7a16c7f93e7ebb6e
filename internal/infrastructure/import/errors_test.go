package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowError_Error(t *testing.T) {
	assert.Equal(t, "row 3, column 'quantity': bad", NewRowError(3, "quantity", ErrCodeInvalidDecimal, "bad").Error())
	assert.Equal(t, "row 3: bad", NewRowError(3, "", ErrCodeInvalidDecimal, "bad").Error())
}

func TestErrorCollection_Truncates(t *testing.T) {
	ec := NewErrorCollection(2)
	ec.AddRequiredError(2, ColumnName)
	ec.AddDecimalError(3, ColumnQuantity, "x")
	ec.AddDuplicateError(4, ColumnName, "Sal", 2)

	assert.True(t, ec.HasErrors())
	assert.True(t, ec.IsTruncated())
	assert.Equal(t, 3, ec.TotalCount())
	assert.Len(t, ec.Errors(), 2)
	assert.Equal(t, map[string]int{ErrCodeRequired: 1, ErrCodeInvalidDecimal: 1}, ec.ErrorSummary())
}

func TestMissingColumnsError(t *testing.T) {
	err := &MissingColumnsError{Columns: []string{"name", "quantity"}}
	assert.Equal(t, "missing required column(s): name, quantity", err.Error())
}
