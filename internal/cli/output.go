package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/table"
	"github.com/tmarkert/skyquery/pkg/votable"
)

// Export formats for result tables.
const (
	formatVOTable = "votable"
	formatCSV     = "csv"
	formatJSON    = "json"
)

// outputOpts holds the --output/--format flag pair shared by commands that
// produce result tables.
type outputOpts struct {
	path   string
	format string
}

// resolveFormat picks the export format from the flag or, when unset, the
// output file extension. An empty result means "no export requested".
func (o *outputOpts) resolveFormat() (string, error) {
	if o.format != "" {
		switch o.format {
		case formatVOTable, formatCSV, formatJSON:
			return o.format, nil
		default:
			return "", errors.New(errors.ErrCodeInvalidFormat,
				"unknown format %q (votable, csv, json)", o.format)
		}
	}
	if o.path == "" {
		return "", nil
	}
	return formatForPath(o.path), nil
}

// formatForPath infers an export format from a file extension, defaulting
// to VOTable.
func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return formatCSV
	case ".json":
		return formatJSON
	default:
		return formatVOTable
	}
}

// emit writes the table per the output options. Without --output and
// --format it prints a terminal preview; with a format but no path it
// writes to stdout.
func (o *outputOpts) emit(t *table.Table) error {
	format, err := o.resolveFormat()
	if err != nil {
		return err
	}
	if format == "" {
		previewTable(t)
		return nil
	}
	if o.path != "" {
		if err := errors.ValidateOutputPath(o.path); err != nil {
			return err
		}
	}

	out, err := openOutput(o.path)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := writeTable(out, t, format); err != nil {
		return err
	}
	if o.path != "" {
		printFile(o.path)
	}
	return nil
}

// writeTable serializes the table to w in the given format.
func writeTable(w io.Writer, t *table.Table, format string) error {
	switch format {
	case formatVOTable:
		return votable.Write(w, t)
	case formatCSV:
		return t.WriteCSV(w)
	case formatJSON:
		return t.WriteJSON(w)
	default:
		return errors.New(errors.ErrCodeInvalidFormat,
			"unknown format %q (votable, csv, json)", format)
	}
}

// nopCloser makes os.Stdout usable as an io.WriteCloser.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens path for writing, or wraps stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}
