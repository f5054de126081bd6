package table

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
)

func TestParseTFORM(t *testing.T) {
	tests := []struct {
		form   string
		repeat int
		letter byte
		ok     bool
	}{
		{"E", 1, 'E', true},
		{"1J", 1, 'J', true},
		{"10A", 10, 'A', true},
		{"2E", 2, 'E', true},
		{"I10", 1, 'I', true},
		{"F8.3", 1, 'F', true},
		{"d20.10", 1, 'D', true},
		{"PE(100)", 1, 'P', true},
		{" K ", 1, 'K', true},
		{"", 0, 0, false},
		{"8.3", 0, 0, false},
		{"42", 0, 0, false},
	}
	for _, tt := range tests {
		repeat, letter, ok := parseTFORM(tt.form)
		if ok != tt.ok {
			t.Errorf("parseTFORM(%q) ok = %v, want %v", tt.form, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if repeat != tt.repeat || letter != tt.letter {
			t.Errorf("parseTFORM(%q) = (%d, %c), want (%d, %c)",
				tt.form, repeat, letter, tt.repeat, tt.letter)
		}
	}
}

func TestFITSToArrow(t *testing.T) {
	tests := []struct {
		letter byte
		repeat int
		ascii  bool
		want   arrow.Type
		ok     bool
	}{
		{'L', 1, false, arrow.BOOL, true},
		{'B', 1, false, arrow.UINT8, true},
		{'I', 1, false, arrow.INT16, true},
		{'J', 1, false, arrow.INT32, true},
		{'K', 1, false, arrow.INT64, true},
		{'E', 1, false, arrow.FLOAT32, true},
		{'D', 1, false, arrow.FLOAT64, true},
		{'A', 20, false, arrow.STRING, true},
		{'E', 3, false, 0, false},
		{'X', 1, false, 0, false},
		{'C', 1, false, 0, false},
		{'P', 1, false, 0, false},
		{'I', 1, true, arrow.INT64, true},
		{'F', 1, true, arrow.FLOAT64, true},
		{'E', 1, true, arrow.FLOAT64, true},
		{'D', 1, true, arrow.FLOAT64, true},
		{'A', 1, true, arrow.STRING, true},
		{'J', 1, true, 0, false},
		{'L', 1, true, 0, false},
	}
	for _, tt := range tests {
		dt, ok := fitsToArrow(tt.letter, tt.repeat, tt.ascii)
		if ok != tt.ok {
			t.Errorf("fitsToArrow(%c, %d, ascii=%v) ok = %v, want %v",
				tt.letter, tt.repeat, tt.ascii, ok, tt.ok)
			continue
		}
		if ok && dt.ID() != tt.want {
			t.Errorf("fitsToArrow(%c, %d, ascii=%v) = %s, want %s",
				tt.letter, tt.repeat, tt.ascii, dt.ID(), tt.want)
		}
	}
}

func TestAppendFITSMasksSentinels(t *testing.T) {
	specs := []ColumnSpec{
		{Name: "counts", Type: arrow.PrimitiveTypes.Int32},
		{Name: "rate", Type: arrow.PrimitiveTypes.Float64},
		{Name: "id", Type: arrow.BinaryTypes.String},
	}
	b := NewBuilder(NewSchema(specs))
	defer b.Release()

	sentinel := int64(-999)
	for _, v := range []any{int32(12), int32(-999), nil} {
		if err := appendFITS(b.Field(0), v, &sentinel); err != nil {
			t.Fatalf("append counts %v: %v", v, err)
		}
	}
	for _, v := range []any{1.5, math.NaN(), float32(2.5)} {
		if err := appendFITS(b.Field(1), v, nil); err != nil {
			t.Fatalf("append rate %v: %v", v, err)
		}
	}
	for _, v := range []any{"OBS-1  ", "OBS-2\x00\x00", "OBS-3"} {
		if err := appendFITS(b.Field(2), v, nil); err != nil {
			t.Fatalf("append id %q: %v", v, err)
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	tbl := FromRecord(rec, "")
	defer tbl.Release()

	if got := tbl.Value(0, 0); got != int32(12) {
		t.Errorf("counts[0] = %v, want 12", got)
	}
	if !tbl.IsNull(1, 0) {
		t.Error("sentinel count should be masked")
	}
	if !tbl.IsNull(2, 0) {
		t.Error("nil value should be masked")
	}
	if !tbl.IsNull(1, 1) {
		t.Error("NaN rate should be masked")
	}
	if got := tbl.Value(2, 1); got != 2.5 {
		t.Errorf("rate[2] = %v, want 2.5 (float32 widened)", got)
	}
	if got := tbl.Value(0, 2); got != "OBS-1" {
		t.Errorf("id[0] = %q, want trailing padding trimmed", got)
	}
	if got := tbl.Value(1, 2); got != "OBS-2" {
		t.Errorf("id[1] = %q, want trailing NULs trimmed", got)
	}

	if err := appendFITS(b.Field(0), "not a number", nil); err == nil {
		t.Error("expected type error for string into int column")
	}
}
