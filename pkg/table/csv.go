package table

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/tmarkert/skyquery/pkg/errors"
)

// ReadCSV parses CSV data with a header row into a Table. Column types are
// inferred from the cell values, narrowest first: integer, float, string.
// Empty cells become masked values.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.NewParseError("csv", nil, err)
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeParse, "csv data has no header row")
	}
	header := records[0]
	rows := records[1:]

	specs := make([]ColumnSpec, len(header))
	for i, h := range header {
		specs[i] = ColumnSpec{Name: strings.TrimSpace(h), Type: inferCSVType(rows, i)}
	}

	b := NewBuilder(NewSchema(specs))
	defer b.Release()
	for _, row := range rows {
		for i := range specs {
			var cell string
			if i < len(row) {
				cell = strings.TrimSpace(row[i])
			}
			if err := AppendParsed(b.Field(i), cell); err != nil {
				return nil, errors.NewParseError("csv", []byte(cell), err)
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	return FromRecord(rec, name), nil
}

// WriteCSV writes the table in CSV format with a header row. Masked values
// become empty cells.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	cols := t.Columns()
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(cols))
	for r := 0; r < t.NumRows(); r++ {
		for c := range cols {
			if t.IsNull(r, c) {
				rec[c] = ""
				continue
			}
			rec[c] = formatValue(t.Value(r, c))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// inferCSVType picks the narrowest Arrow type that fits every non-empty
// cell of a column. A column with no values at all stays a string column.
func inferCSVType(rows [][]string, col int) arrow.DataType {
	isInt, isFloat := true, true
	seen := false
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				isFloat = false
			}
		}
		if !isInt && !isFloat {
			break
		}
	}
	switch {
	case !seen:
		return arrow.BinaryTypes.String
	case isInt:
		return arrow.PrimitiveTypes.Int64
	case isFloat:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}
