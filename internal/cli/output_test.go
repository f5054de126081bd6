package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/tmarkert/skyquery/pkg/table"
)

// testTable builds a two-row result for output tests.
func testTable(t *testing.T) *table.Table {
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
	for _, v := range []any{10.684, 83.822} {
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

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name    string
		opts    outputOpts
		want    string
		wantErr bool
	}{
		{name: "explicit votable", opts: outputOpts{format: "votable"}, want: formatVOTable},
		{name: "explicit csv", opts: outputOpts{format: "csv"}, want: formatCSV},
		{name: "explicit json", opts: outputOpts{format: "json"}, want: formatJSON},
		{name: "explicit wins over path", opts: outputOpts{format: "csv", path: "out.json"}, want: formatCSV},
		{name: "unknown format", opts: outputOpts{format: "parquet"}, wantErr: true},
		{name: "inferred from path", opts: outputOpts{path: "out.csv"}, want: formatCSV},
		{name: "no format no path", opts: outputOpts{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.resolveFormat()
			if tt.wantErr {
				if err == nil {
					t.Fatal("resolveFormat() should error")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveFormat() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "out.csv", want: formatCSV},
		{path: "OUT.CSV", want: formatCSV},
		{path: "out.json", want: formatJSON},
		{path: "out.xml", want: formatVOTable},
		{path: "out.vot", want: formatVOTable},
		{path: "out", want: formatVOTable},
	}

	for _, tt := range tests {
		if got := formatForPath(tt.path); got != tt.want {
			t.Errorf("formatForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestWriteTableFormats(t *testing.T) {
	tab := testTable(t)

	tests := []struct {
		format string
		wants  []string
	}{
		{format: formatVOTable, wants: []string{"<VOTABLE", "M 31"}},
		{format: formatCSV, wants: []string{"name,ra", "M 31,10.684"}},
		{format: formatJSON, wants: []string{`"name": "results"`, `"M 31"`}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeTable(&buf, tab, tt.format); err != nil {
				t.Fatalf("writeTable(%s) error: %v", tt.format, err)
			}
			for _, want := range tt.wants {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("%s output missing %q\ngot:\n%s", tt.format, want, buf.String())
				}
			}
		})
	}
}

func TestWriteTableUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTable(&buf, testTable(t), "parquet"); err == nil {
		t.Error("unknown format should error")
	}
}

func TestOpenOutputCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "out.csv")

	f, err := openOutput(path)
	if err != nil {
		t.Fatalf("openOutput() error: %v", err)
	}
	if _, err := f.Write([]byte("data\n")); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("output file not created: %v", err)
	}
}

func TestOpenOutputStdout(t *testing.T) {
	f, err := openOutput("")
	if err != nil {
		t.Fatalf("openOutput(\"\") error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("stdout wrapper Close() error: %v", err)
	}
}

func TestEmitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	out := outputOpts{path: path}

	if err := out.emit(testTable(t)); err != nil {
		t.Fatalf("emit() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "M 42,83.822") {
		t.Errorf("emitted CSV missing data row:\n%s", data)
	}
}
