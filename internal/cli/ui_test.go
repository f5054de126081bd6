package cli

import (
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/tmarkert/skyquery/pkg/table"
)

// maskedTable builds a result with a masked cell for rendering tests.
func maskedTable(t *testing.T) *table.Table {
	t.Helper()

	schema := table.NewSchema([]table.ColumnSpec{
		{Name: "name", Type: arrow.BinaryTypes.String},
		{Name: "ra", Type: arrow.PrimitiveTypes.Float64, Unit: "deg"},
	})
	b := table.NewBuilder(schema)
	defer b.Release()

	for _, v := range []any{"M 31", "M 42"} {
		if err := table.AppendValue(b.Field(0), v); err != nil {
			t.Fatal(err)
		}
	}
	for _, v := range []any{10.684, nil} {
		if err := table.AppendValue(b.Field(1), v); err != nil {
			t.Fatal(err)
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	tab := table.FromRecord(rec, "results")
	t.Cleanup(tab.Release)
	return tab
}

func TestRenderTable(t *testing.T) {
	out := renderTable(maskedTable(t), previewRows)

	for _, want := range []string{"name", "ra", "[deg]", "M 31", "M 42", "--", "2 rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q\ngot:\n%s", want, out)
		}
	}
}

func TestRenderTableTruncates(t *testing.T) {
	out := renderTable(maskedTable(t), 1)

	if !strings.Contains(out, "1 of 2 rows") {
		t.Errorf("truncated table should report shown count, got:\n%s", out)
	}
	if strings.Contains(out, "M 42") {
		t.Errorf("truncated table should omit later rows, got:\n%s", out)
	}
}

func TestFormatCell(t *testing.T) {
	tab := maskedTable(t)

	if got := formatCell(tab, 0, 0); got != "M 31" {
		t.Errorf("formatCell(0,0) = %q, want %q", got, "M 31")
	}
	if got := formatCell(tab, 0, 1); got != "10.684" {
		t.Errorf("formatCell(0,1) = %q, want %q", got, "10.684")
	}
	if got := formatCell(tab, 1, 1); got != "--" {
		t.Errorf("formatCell(1,1) = %q, want %q for masked cell", got, "--")
	}
}
