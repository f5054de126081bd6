package table

import (
	"bytes"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	fitsio "github.com/astrogo/fitsio"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/tmarkert/skyquery/pkg/errors"
)

// ReadFITS reads the first table extension from FITS data. Scalar columns
// are kept; vector, bit, complex, and variable-length columns are skipped.
// Integer sentinel values (TNULLn) and float NaNs become masked entries.
// When name is empty the extension name is used.
func ReadFITS(r io.Reader, name string) (*Table, error) {
	// fitsio needs random access; FITS product payloads are small enough
	// to buffer.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewParseError("fits", nil, err)
	}
	f, err := fitsio.Open(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewParseError("fits", nil, err)
	}
	defer f.Close()

	for _, hdu := range f.HDUs() {
		tbl, ok := hdu.(*fitsio.Table)
		if !ok {
			continue
		}
		return readFITSTable(tbl, name)
	}
	return nil, errors.New(errors.ErrCodeParse, "fits data has no table extension")
}

// ReadFITSFile reads the first table extension from the FITS file at path.
func ReadFITSFile(path, name string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "cannot open %s", path)
	}
	defer f.Close()
	return ReadFITS(f, name)
}

type fitsCol struct {
	idx  int
	spec ColumnSpec
	null *int64
}

func readFITSTable(tbl *fitsio.Table, name string) (*Table, error) {
	ascii := tbl.Type() == fitsio.ASCII_TBL
	cols := tbl.Cols()

	var keep []fitsCol
	for i, col := range cols {
		repeat, letter, ok := parseTFORM(col.Format)
		if !ok {
			continue
		}
		dt, ok := fitsToArrow(letter, repeat, ascii)
		if !ok {
			continue
		}
		kc := fitsCol{idx: i, spec: ColumnSpec{Name: col.Name, Type: dt, Unit: col.Unit}}
		switch letter {
		case 'B', 'I', 'J', 'K':
			if col.Null != "" {
				if n, perr := strconv.ParseInt(strings.TrimSpace(col.Null), 10, 64); perr == nil {
					kc.null = &n
				}
			}
		}
		keep = append(keep, kc)
	}
	if len(keep) == 0 {
		return nil, errors.New(errors.ErrCodeParse, "fits table %q has no supported columns", tbl.Name())
	}

	specs := make([]ColumnSpec, len(keep))
	for i, kc := range keep {
		specs[i] = kc.spec
	}
	b := NewBuilder(NewSchema(specs))
	defer b.Release()

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, errors.NewParseError("fits", nil, err)
	}
	defer rows.Close()

	for rows.Next() {
		m := make(map[string]any, len(cols))
		if err := rows.Scan(&m); err != nil {
			return nil, errors.NewParseError("fits", nil, err)
		}
		for i, kc := range keep {
			if err := appendFITS(b.Field(i), m[cols[kc.idx].Name], kc.null); err != nil {
				return nil, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewParseError("fits", nil, err)
	}

	if name == "" {
		name = tbl.Name()
	}
	rec := b.NewRecord()
	defer rec.Release()
	return FromRecord(rec, name), nil
}

// parseTFORM splits a TFORM code like "E", "10A", or "I10" into its repeat
// count and type letter. The repeat defaults to 1; trailing width and
// precision digits are ignored.
func parseTFORM(form string) (repeat int, letter byte, ok bool) {
	form = strings.TrimSpace(form)
	i := 0
	for i < len(form) && form[i] >= '0' && form[i] <= '9' {
		i++
	}
	if i >= len(form) {
		return 0, 0, false
	}
	repeat = 1
	if i > 0 {
		n, err := strconv.Atoi(form[:i])
		if err != nil {
			return 0, 0, false
		}
		repeat = n
	}
	c := form[i]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'Z' {
		return 0, 0, false
	}
	return repeat, c, true
}

// fitsToArrow maps a TFORM type letter to the Arrow type used for the
// column, if the column is representable. Binary tables use the FITS
// binary letter codes; ASCII tables use A, I, F, E, and D. A char column
// of any width is a single string.
func fitsToArrow(letter byte, repeat int, ascii bool) (arrow.DataType, bool) {
	if ascii {
		switch letter {
		case 'A':
			return arrow.BinaryTypes.String, true
		case 'I':
			return arrow.PrimitiveTypes.Int64, true
		case 'F', 'E', 'D':
			return arrow.PrimitiveTypes.Float64, true
		}
		return nil, false
	}
	if letter == 'A' {
		return arrow.BinaryTypes.String, true
	}
	if repeat != 1 {
		return nil, false
	}
	switch letter {
	case 'L':
		return arrow.FixedWidthTypes.Boolean, true
	case 'B':
		return arrow.PrimitiveTypes.Uint8, true
	case 'I':
		return arrow.PrimitiveTypes.Int16, true
	case 'J':
		return arrow.PrimitiveTypes.Int32, true
	case 'K':
		return arrow.PrimitiveTypes.Int64, true
	case 'E':
		return arrow.PrimitiveTypes.Float32, true
	case 'D':
		return arrow.PrimitiveTypes.Float64, true
	}
	return nil, false
}

func appendFITS(b array.Builder, v any, null *int64) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch fb := b.(type) {
	case *array.BooleanBuilder:
		x, ok := v.(bool)
		if !ok {
			return errFITSValue(v, b)
		}
		fb.Append(x)
	case *array.Uint8Builder:
		n, ok := fitsInt(v)
		if !ok {
			return errFITSValue(v, b)
		}
		if null != nil && n == *null {
			fb.AppendNull()
			return nil
		}
		fb.Append(uint8(n))
	case *array.Int16Builder:
		n, ok := fitsInt(v)
		if !ok {
			return errFITSValue(v, b)
		}
		if null != nil && n == *null {
			fb.AppendNull()
			return nil
		}
		fb.Append(int16(n))
	case *array.Int32Builder:
		n, ok := fitsInt(v)
		if !ok {
			return errFITSValue(v, b)
		}
		if null != nil && n == *null {
			fb.AppendNull()
			return nil
		}
		fb.Append(int32(n))
	case *array.Int64Builder:
		n, ok := fitsInt(v)
		if !ok {
			return errFITSValue(v, b)
		}
		if null != nil && n == *null {
			fb.AppendNull()
			return nil
		}
		fb.Append(n)
	case *array.Float32Builder:
		x, ok := fitsFloat(v)
		if !ok {
			return errFITSValue(v, b)
		}
		if math.IsNaN(x) {
			fb.AppendNull()
			return nil
		}
		fb.Append(float32(x))
	case *array.Float64Builder:
		x, ok := fitsFloat(v)
		if !ok {
			return errFITSValue(v, b)
		}
		if math.IsNaN(x) {
			fb.AppendNull()
			return nil
		}
		fb.Append(x)
	case *array.StringBuilder:
		x, ok := v.(string)
		if !ok {
			return errFITSValue(v, b)
		}
		fb.Append(strings.TrimRight(x, " \x00"))
	default:
		return errFITSValue(v, b)
	}
	return nil
}

func errFITSValue(v any, b array.Builder) error {
	return errors.New(errors.ErrCodeParse, "unexpected fits value %T for %T", v, b)
}

func fitsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	}
	return 0, false
}

func fitsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := fitsInt(v); ok {
		return float64(i), true
	}
	return 0, false
}
