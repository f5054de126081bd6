// Package table provides the columnar result type returned by archive queries.
//
// A [Table] wraps an Apache Arrow record batch, preserving the column
// metadata that astronomical services attach to their results: physical
// units, UCDs (unified content descriptors), and descriptions. Masked or
// missing values are represented by Arrow validity bitmaps, so "value
// absent" is distinct from zero or empty string.
//
// Tables are reference counted. Callers that are done with a Table must
// call [Table.Release].
package table

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/tmarkert/skyquery/pkg/errors"
)

// Metadata keys recognized on Arrow fields.
const (
	MetaUnit        = "unit"
	MetaUCD         = "ucd"
	MetaDescription = "description"
)

// Column is the metadata view of one table column.
type Column struct {
	Name        string
	Type        arrow.DataType
	Unit        string // physical unit, e.g. "deg" or "mag"
	UCD         string // unified content descriptor, e.g. "pos.eq.ra"
	Description string
}

// Table is a columnar query result.
type Table struct {
	name string
	rec  arrow.Record
}

// FromRecord wraps an Arrow record as a Table, retaining it.
func FromRecord(rec arrow.Record, name string) *Table {
	rec.Retain()
	return &Table{name: name, rec: rec}
}

// Name returns the table name reported by the service, if any.
func (t *Table) Name() string { return t.name }

// Schema returns the Arrow schema, including per-field unit and UCD metadata.
func (t *Table) Schema() *arrow.Schema { return t.rec.Schema() }

// Record returns the underlying Arrow record. The record stays owned by
// the Table; call Retain on it to keep it past the Table's lifetime.
func (t *Table) Record() arrow.Record { return t.rec }

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return int(t.rec.NumRows()) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return int(t.rec.NumCols()) }

// Column returns the metadata for column i.
func (t *Table) Column(i int) Column {
	f := t.rec.Schema().Field(i)
	return Column{
		Name:        f.Name,
		Type:        f.Type,
		Unit:        metaValue(f.Metadata, MetaUnit),
		UCD:         metaValue(f.Metadata, MetaUCD),
		Description: metaValue(f.Metadata, MetaDescription),
	}
}

// Columns returns the metadata for all columns in order.
func (t *Table) Columns() []Column {
	cols := make([]Column, t.NumCols())
	for i := range cols {
		cols[i] = t.Column(i)
	}
	return cols
}

// ColumnIndex returns the index of the named column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	for i, f := range t.rec.Schema().Fields() {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// IsNull reports whether the value at (row, col) is masked.
func (t *Table) IsNull(row, col int) bool {
	return t.rec.Column(col).IsNull(row)
}

// Value returns the value at (row, col) as a Go value, or nil when masked.
// Numeric columns yield their native width; unhandled Arrow types yield
// their string rendering.
func (t *Table) Value(row, col int) any {
	arr := t.rec.Column(col)
	if arr.IsNull(row) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(row)
	case *array.Uint8:
		return a.Value(row)
	case *array.Int16:
		return a.Value(row)
	case *array.Int32:
		return a.Value(row)
	case *array.Int64:
		return a.Value(row)
	case *array.Float32:
		return a.Value(row)
	case *array.Float64:
		return a.Value(row)
	case *array.String:
		return a.Value(row)
	default:
		return arr.ValueStr(row)
	}
}

// Strings returns the named column rendered as strings, with "" for
// masked values.
func (t *Table) Strings(name string) ([]string, error) {
	col := t.ColumnIndex(name)
	if col < 0 {
		return nil, errors.New(errors.ErrCodeTableNotFound, "no column named %q", name)
	}
	arr := t.rec.Column(col)
	out := make([]string, arr.Len())
	for i := range out {
		if arr.IsNull(i) {
			continue
		}
		out[i] = arr.ValueStr(i)
	}
	return out, nil
}

// Floats returns the named numeric column as float64 values, with NaN for
// masked entries. Integer columns are widened.
func (t *Table) Floats(name string) ([]float64, error) {
	col := t.ColumnIndex(name)
	if col < 0 {
		return nil, errors.New(errors.ErrCodeTableNotFound, "no column named %q", name)
	}

	arr := t.rec.Column(col)
	out := make([]float64, arr.Len())
	for i := range out {
		if arr.IsNull(i) {
			out[i] = math.NaN()
			continue
		}
		switch a := arr.(type) {
		case *array.Float64:
			out[i] = a.Value(i)
		case *array.Float32:
			out[i] = float64(a.Value(i))
		case *array.Int64:
			out[i] = float64(a.Value(i))
		case *array.Int32:
			out[i] = float64(a.Value(i))
		case *array.Int16:
			out[i] = float64(a.Value(i))
		case *array.Uint8:
			out[i] = float64(a.Value(i))
		default:
			return nil, errors.New(errors.ErrCodeUnsupported,
				"column %q has non-numeric type %s", name, arr.DataType())
		}
	}
	return out, nil
}

// Ints returns the named integer column as int64 values. Masked entries are
// zero; use [Table.IsNull] to distinguish them.
func (t *Table) Ints(name string) ([]int64, error) {
	col := t.ColumnIndex(name)
	if col < 0 {
		return nil, errors.New(errors.ErrCodeTableNotFound, "no column named %q", name)
	}

	arr := t.rec.Column(col)
	out := make([]int64, arr.Len())
	for i := range out {
		if arr.IsNull(i) {
			continue
		}
		switch a := arr.(type) {
		case *array.Int64:
			out[i] = a.Value(i)
		case *array.Int32:
			out[i] = int64(a.Value(i))
		case *array.Int16:
			out[i] = int64(a.Value(i))
		case *array.Uint8:
			out[i] = int64(a.Value(i))
		default:
			return nil, errors.New(errors.ErrCodeUnsupported,
				"column %q has non-integer type %s", name, arr.DataType())
		}
	}
	return out, nil
}

// Slice returns a zero-copy view of rows [offset, offset+length).
// The slice holds its own reference and must be released independently.
func (t *Table) Slice(offset, length int) *Table {
	rec := t.rec.NewSlice(int64(offset), int64(offset+length))
	return &Table{name: t.name, rec: rec}
}

// Retain increments the reference count.
func (t *Table) Retain() { t.rec.Retain() }

// Release decrements the reference count, freeing the backing memory when
// it reaches zero.
func (t *Table) Release() { t.rec.Release() }

func metaValue(md arrow.Metadata, key string) string {
	if i := md.FindKey(key); i >= 0 {
		return md.Values()[i]
	}
	return ""
}
