package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tmarkert/skyquery/pkg/tap"
)

// descWidth caps description columns in schema listings.
const descWidth = 60

// schemaCommand creates the TAP schema exploration command.
func (c *CLI) schemaCommand() *cobra.Command {
	var (
		service   string
		graphPath string
		maxTables int
		counts    bool
	)

	cmd := &cobra.Command{
		Use:   "schema [table]",
		Short: "Explore the tables of a TAP service",
		Long: `List the tables a TAP service exposes, or the columns of one table.
With --graph the full schema is rendered as a relationship diagram,
written as SVG or, for .dot/.gv paths, as raw Graphviz DOT.

Examples:
  skyquery schema --service gaia
  skyquery schema basic --service simbad
  skyquery schema --service simbad --graph schema.svg
  skyquery schema --service gaia --graph gaia.dot --max-tables 40`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ca, err := c.newCache(cmd, false)
			if err != nil {
				return err
			}
			defer ca.Close()

			client, err := c.tapClient(service, ca)
			if err != nil {
				return err
			}

			if graphPath != "" {
				return c.runSchemaGraph(cmd, client, service, graphPath, maxTables, counts)
			}
			if len(args) == 1 {
				return c.runColumns(cmd, client, service, args[0])
			}
			return c.runTables(cmd, client, service)
		},
	}

	cmd.Flags().StringVarP(&service, "service", "s", "simbad", "TAP service to inspect")
	cmd.Flags().StringVar(&graphPath, "graph", "", "write a schema diagram to this path (.svg, .dot, .gv)")
	cmd.Flags().IntVar(&maxTables, "max-tables", 0, "cap the number of tables in the diagram")
	cmd.Flags().BoolVar(&counts, "columns", false, "include column counts in diagram nodes")

	return cmd
}

// runTables lists the service's tables.
func (c *CLI) runTables(cmd *cobra.Command, client *tap.Client, service string) error {
	spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Fetching %s tables...", service))
	spinner.Start()
	tables, err := client.Tables(cmd.Context())
	spinner.Stop()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(tables))
	for _, t := range tables {
		rows = append(rows, []string{t.QualifiedName(), truncate(firstLine(t.Description), descWidth)})
	}

	fmt.Println(schemaTable([]string{"Table", "Description"}, rows))
	printNewline()
	printDetail("%d tables", len(tables))
	printNextStep("Inspect one", fmt.Sprintf("skyquery schema <table> --service %s", service))
	return nil
}

// runColumns lists the columns of one table.
func (c *CLI) runColumns(cmd *cobra.Command, client *tap.Client, service, tableName string) error {
	spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Fetching columns of %s...", tableName))
	spinner.Start()
	cols, err := client.Columns(cmd.Context(), tableName)
	spinner.Stop()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(cols))
	for _, col := range cols {
		flags := ""
		if col.Principal {
			flags = "principal"
		}
		if col.Indexed {
			if flags != "" {
				flags += ", "
			}
			flags += "indexed"
		}
		rows = append(rows, []string{
			col.Name,
			col.Datatype,
			col.Unit,
			flags,
			truncate(firstLine(col.Description), descWidth),
		})
	}

	fmt.Println(schemaTable([]string{"Column", "Type", "Unit", "Flags", "Description"}, rows))
	printNewline()
	printDetail("%d columns in %s", len(cols), tableName)
	return nil
}

// runSchemaGraph writes the schema relationship diagram to a file.
func (c *CLI) runSchemaGraph(cmd *cobra.Command, client *tap.Client, service, path string, maxTables int, counts bool) error {
	spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Fetching %s schema...", service))
	spinner.Start()
	schema, err := client.Schema(cmd.Context())
	spinner.Stop()
	if err != nil {
		return err
	}

	dot := tap.SchemaGraph(schema, tap.GraphOptions{MaxTables: maxTables, Columns: counts})

	var data []byte
	switch {
	case strings.HasSuffix(path, ".dot"), strings.HasSuffix(path, ".gv"):
		data = []byte(dot)
	default:
		prog := newProgress(loggerFromContext(cmd.Context()))
		data, err = tap.RenderSVG(dot)
		if err != nil {
			return err
		}
		prog.done("Rendered schema diagram")
	}

	f, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	printSuccess("Schema diagram for %s (%d tables, %d keys)", service, len(schema.Tables), len(schema.Keys))
	printFile(path)
	return nil
}

// schemaTable renders metadata rows as a bordered table.
func schemaTable(headers []string, rows [][]string) string {
	return lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			s := lipgloss.NewStyle().Padding(0, 1)
			if col == 0 {
				return s.Foreground(colorCyan)
			}
			return s
		}).
		Render()
}

// firstLine strips everything after the first newline.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// truncate shortens a string to max runes with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
