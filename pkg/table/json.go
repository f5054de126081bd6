package table

import (
	"encoding/json"
	"io"
	"math"
)

// jsonDocument is the on-wire shape of an exported table: column metadata
// followed by row-major data, with masked cells as JSON null.
type jsonDocument struct {
	Name    string       `json:"name,omitempty"`
	Columns []jsonColumn `json:"columns"`
	Rows    [][]any      `json:"rows"`
}

type jsonColumn struct {
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
	UCD  string `json:"ucd,omitempty"`
}

// WriteJSON writes the table as a JSON document with a columns array and
// row-major data. Masked cells and non-finite floats become null, since
// JSON has no encoding for either.
func (t *Table) WriteJSON(w io.Writer) error {
	cols := t.Columns()
	doc := jsonDocument{
		Name:    t.Name(),
		Columns: make([]jsonColumn, len(cols)),
		Rows:    make([][]any, 0, t.NumRows()),
	}
	for i, c := range cols {
		doc.Columns[i] = jsonColumn{Name: c.Name, Unit: c.Unit, UCD: c.UCD}
	}

	for r := 0; r < t.NumRows(); r++ {
		row := make([]any, len(cols))
		for c := range cols {
			if t.IsNull(r, c) {
				continue
			}
			v := t.Value(r, c)
			if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				continue
			}
			row[c] = v
		}
		doc.Rows = append(doc.Rows, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
