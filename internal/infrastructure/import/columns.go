package csvimport

import (
	"strings"

	"github.com/StoneFind22/CineMan/internal/domain/shared"
)

// Canonical column names of an inventory import file
const (
	ColumnName         = "name"
	ColumnUnit         = "unit"
	ColumnQuantity     = "quantity"
	ColumnReorderPoint = "reorder_point"
	ColumnCost         = "cost"
)

// RequiredColumns must appear in the header
var RequiredColumns = []string{ColumnName, ColumnQuantity}

// columnAliases maps accepted header spellings to canonical names.
// The Spanish names are the ones the POS back office has always exported.
var columnAliases = map[string]string{
	"nombre":            ColumnName,
	"name":              ColumnName,
	"unidad_medida":     ColumnUnit,
	"unidad":            ColumnUnit,
	"unit":              ColumnUnit,
	"cantidad_a_añadir": ColumnQuantity,
	"cantidad":          ColumnQuantity,
	"quantity":          ColumnQuantity,
	"punto_reorden":     ColumnReorderPoint,
	"reorder_point":     ColumnReorderPoint,
	"costo_unitario":    ColumnCost,
	"cost_per_unit":     ColumnCost,
	"cost":              ColumnCost,
}

// CanonicalColumn maps a header cell to its canonical column name.
// Unknown headers are returned lower-cased and are ignored by the row mapping.
func CanonicalColumn(header string) string {
	key := strings.ToLower(shared.NormalizeName(header))
	key = strings.ReplaceAll(key, " ", "_")
	if c, ok := columnAliases[key]; ok {
		return c
	}
	return key
}

// ImportRow is one data row with raw string values, before validation
type ImportRow struct {
	RowNumber    int    `json:"row"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	Quantity     string `json:"quantity"`
	ReorderPoint string `json:"reorder_point"`
	Cost         string `json:"cost"`
}

// Number returns the 1-based file row number (the header is row 1)
func (r ImportRow) Number() int {
	return r.RowNumber
}

// Get returns the value of a canonical column
func (r ImportRow) Get(column string) string {
	switch column {
	case ColumnName:
		return r.Name
	case ColumnUnit:
		return r.Unit
	case ColumnQuantity:
		return r.Quantity
	case ColumnReorderPoint:
		return r.ReorderPoint
	case ColumnCost:
		return r.Cost
	}
	return ""
}

// IsEmpty returns true if every value is blank
func (r ImportRow) IsEmpty() bool {
	return strings.TrimSpace(r.Name+r.Unit+r.Quantity+r.ReorderPoint+r.Cost) == ""
}

// rowMapper turns positional records into ImportRows using the header
type rowMapper struct {
	index map[string]int
}

func newRowMapper(header []string) (*rowMapper, error) {
	m := &rowMapper{index: make(map[string]int, len(header))}
	for i, h := range header {
		c := CanonicalColumn(h)
		if _, seen := m.index[c]; !seen {
			m.index[c] = i
		}
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := m.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	return m, nil
}

func (m *rowMapper) row(number int, record []string) ImportRow {
	get := func(column string) string {
		i, ok := m.index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	return ImportRow{
		RowNumber:    number,
		Name:         get(ColumnName),
		Unit:         get(ColumnUnit),
		Quantity:     get(ColumnQuantity),
		ReorderPoint: get(ColumnReorderPoint),
		Cost:         get(ColumnCost),
	}
}
