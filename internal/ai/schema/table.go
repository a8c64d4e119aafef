package schema

import (
	"fmt"
	"strings"

	"github.com/agenty/agenty-backend/internal/ai/flowerr"
)

// TableSpec is a header row plus data rows whose length matches the header.
type TableSpec struct {
	Headers []string `json:"headers"`
	Rows    [][]Cell `json:"rows"`
}

// NewTableSpec rejects any row whose cell count differs from the header count.
func NewTableSpec(headers []string, rows [][]Cell) (TableSpec, error) {
	t := TableSpec{Headers: headers, Rows: rows}
	if err := t.Validate(); err != nil {
		return TableSpec{}, err
	}
	return t, nil
}

func (t *TableSpec) Validate() error {
	if t == nil {
		return nil
	}
	if len(t.Headers) == 0 {
		return &flowerr.ValidationError{Field: "table.headers", Reason: "at least one header is required"}
	}
	for i, h := range t.Headers {
		if strings.TrimSpace(h) == "" {
			return &flowerr.ValidationError{Field: fmt.Sprintf("table.headers[%d]", i), Reason: "empty header"}
		}
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return &flowerr.ValidationError{
				Field:  fmt.Sprintf("table.rows[%d]", i),
				Reason: fmt.Sprintf("has %d cells, want %d", len(row), len(t.Headers)),
			}
		}
	}
	return nil
}
