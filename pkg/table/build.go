package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ColumnSpec declares a column when constructing a table.
type ColumnSpec struct {
	Name        string
	Type        arrow.DataType
	Unit        string
	UCD         string
	Description string
}

// NewSchema builds an Arrow schema from column specs, packing unit, UCD and
// description into field metadata. All columns are nullable, since any
// archive value can be masked.
func NewSchema(specs []ColumnSpec) *arrow.Schema {
	fields := make([]arrow.Field, len(specs))
	for i, spec := range specs {
		var keys, vals []string
		if spec.Unit != "" {
			keys, vals = append(keys, MetaUnit), append(vals, spec.Unit)
		}
		if spec.UCD != "" {
			keys, vals = append(keys, MetaUCD), append(vals, spec.UCD)
		}
		if spec.Description != "" {
			keys, vals = append(keys, MetaDescription), append(vals, spec.Description)
		}
		fields[i] = arrow.Field{
			Name:     spec.Name,
			Type:     spec.Type,
			Nullable: true,
			Metadata: arrow.NewMetadata(keys, vals),
		}
	}
	return arrow.NewSchema(fields, nil)
}

// NewBuilder creates a record builder for the given schema using the
// default allocator.
func NewBuilder(schema *arrow.Schema) *array.RecordBuilder {
	return array.NewRecordBuilder(memory.DefaultAllocator, schema)
}

// AppendParsed parses the string representation of a value and appends it
// to the column builder. Empty strings and the literal "NaN" on float
// columns append a null.
func AppendParsed(b array.Builder, s string) error {
	if s == "" {
		b.AppendNull()
		return nil
	}

	switch bldr := b.(type) {
	case *array.BooleanBuilder:
		v, err := parseVOBool(s)
		if err != nil {
			return err
		}
		bldr.Append(v)
	case *array.Uint8Builder:
		v, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return fmt.Errorf("parsing %q as unsignedByte: %w", s, err)
		}
		bldr.Append(uint8(v))
	case *array.Int16Builder:
		v, err := strconv.ParseInt(s, 10, 16)
		if err != nil {
			return fmt.Errorf("parsing %q as short: %w", s, err)
		}
		bldr.Append(int16(v))
	case *array.Int32Builder:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return fmt.Errorf("parsing %q as int: %w", s, err)
		}
		bldr.Append(int32(v))
	case *array.Int64Builder:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing %q as long: %w", s, err)
		}
		bldr.Append(v)
	case *array.Float32Builder:
		if isNaNToken(s) {
			bldr.AppendNull()
			return nil
		}
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return fmt.Errorf("parsing %q as float: %w", s, err)
		}
		bldr.Append(float32(v))
	case *array.Float64Builder:
		if isNaNToken(s) {
			bldr.AppendNull()
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parsing %q as double: %w", s, err)
		}
		bldr.Append(v)
	case *array.StringBuilder:
		bldr.Append(s)
	default:
		return fmt.Errorf("unsupported column builder %T", b)
	}
	return nil
}

// AppendValue appends an already-typed Go value to the column builder.
// A nil value appends a null.
func AppendValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	switch bldr := b.(type) {
	case *array.BooleanBuilder:
		x, ok := v.(bool)
		if !ok {
			return fmt.Errorf("cannot append %T to boolean column", v)
		}
		bldr.Append(x)
	case *array.Uint8Builder:
		x, ok := v.(uint8)
		if !ok {
			return fmt.Errorf("cannot append %T to unsignedByte column", v)
		}
		bldr.Append(x)
	case *array.Int16Builder:
		x, ok := v.(int16)
		if !ok {
			return fmt.Errorf("cannot append %T to short column", v)
		}
		bldr.Append(x)
	case *array.Int32Builder:
		x, ok := v.(int32)
		if !ok {
			return fmt.Errorf("cannot append %T to int column", v)
		}
		bldr.Append(x)
	case *array.Int64Builder:
		x, ok := v.(int64)
		if !ok {
			return fmt.Errorf("cannot append %T to long column", v)
		}
		bldr.Append(x)
	case *array.Float32Builder:
		x, ok := v.(float32)
		if !ok {
			return fmt.Errorf("cannot append %T to float column", v)
		}
		bldr.Append(x)
	case *array.Float64Builder:
		x, ok := v.(float64)
		if !ok {
			return fmt.Errorf("cannot append %T to double column", v)
		}
		bldr.Append(x)
	case *array.StringBuilder:
		x, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot append %T to string column", v)
		}
		bldr.Append(x)
	default:
		return fmt.Errorf("unsupported column builder %T", b)
	}
	return nil
}

// parseVOBool reads the boolean notations used by VOTable and FITS:
// t/T/true/1 and f/F/false/0.
func parseVOBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "true", "1":
		return true, nil
	case "f", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("parsing %q as boolean", s)
}

func isNaNToken(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "nan")
}
