package table

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Render writes a plain-text view of the table to w. Column names are
// followed by a unit row (when any column carries one) and a separator.
// At most maxRows data rows are printed; maxRows <= 0 prints everything.
// Masked values render as "--".
func (t *Table) Render(w io.Writer, maxRows int) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)

	cols := t.Columns()
	names := make([]string, len(cols))
	units := make([]string, len(cols))
	dashes := make([]string, len(cols))
	hasUnits := false
	for i, c := range cols {
		names[i] = c.Name
		units[i] = c.Unit
		dashes[i] = strings.Repeat("-", len(c.Name))
		if c.Unit != "" {
			hasUnits = true
		}
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	if hasUnits {
		fmt.Fprintln(tw, strings.Join(units, "\t"))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	rows := t.NumRows()
	shown := rows
	if maxRows > 0 && maxRows < rows {
		shown = maxRows
	}
	vals := make([]string, len(cols))
	for r := 0; r < shown; r++ {
		for c := range cols {
			vals[c] = formatValue(t.Value(r, c))
		}
		fmt.Fprintln(tw, strings.Join(vals, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if shown < rows {
		_, err := fmt.Fprintf(w, "... %d of %d rows shown\n", shown, rows)
		return err
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "--"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
