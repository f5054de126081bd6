package tap

import (
	"context"
	stderrors "errors"

	"github.com/tmarkert/skyquery/pkg/adql"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/table"
)

// Schema is the relational structure of a TAP service as recorded in its
// TAP_SCHEMA tables.
type Schema struct {
	Tables []TableMeta
	Keys   []Key
}

// Key is a foreign-key relationship between two TAP tables.
type Key struct {
	ID          string
	FromTable   string
	TargetTable string
	Description string
}

const schemaColumnsQuery = "SELECT table_name, column_name, description, unit, ucd, datatype, principal, indexed FROM TAP_SCHEMA.columns"

// Schema queries the service's TAP_SCHEMA tables and assembles the full
// relational description: every table with its columns, plus the foreign
// keys connecting them. Responses are cached like any other query.
func (c *Client) Schema(ctx context.Context) (*Schema, error) {
	tables, err := c.schemaTables(ctx)
	if err != nil {
		return nil, err
	}

	res, err := c.Query(ctx, schemaColumnsQuery)
	if err != nil {
		return nil, err
	}
	cols := groupColumns(res.Table)
	for i := range tables {
		if tc, ok := cols[tables[i].Name]; ok {
			tables[i].Columns = tc
		} else {
			tables[i].Columns = cols[tables[i].QualifiedName()]
		}
	}

	keys, err := c.schemaKeys(ctx)
	if err != nil {
		return nil, err
	}
	return &Schema{Tables: tables, Keys: keys}, nil
}

// Columns fetches column metadata for a single table from TAP_SCHEMA.
func (c *Client) Columns(ctx context.Context, tableName string) ([]ColumnMeta, error) {
	q := schemaColumnsQuery + " WHERE table_name = " + adql.QuoteString(tableName)
	res, err := c.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	grouped := groupColumns(res.Table)
	cols := grouped[tableName]
	if len(cols) == 0 && len(grouped) == 1 {
		// The service reports the table under its qualified name.
		for _, v := range grouped {
			cols = v
		}
	}
	if len(cols) == 0 {
		return nil, errors.New(errors.ErrCodeTableNotFound, "table %q not found in TAP_SCHEMA", tableName)
	}
	return cols, nil
}

func (c *Client) schemaTables(ctx context.Context) ([]TableMeta, error) {
	res, err := c.Query(ctx, "SELECT schema_name, table_name, description FROM TAP_SCHEMA.tables")
	if err != nil {
		return nil, err
	}

	t := res.Table
	schemas, _ := t.Strings("schema_name")
	names, _ := t.Strings("table_name")
	descs, _ := t.Strings("description")

	tables := make([]TableMeta, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		tables = append(tables, TableMeta{
			Schema:      cell(schemas, i),
			Name:        cell(names, i),
			Description: cell(descs, i),
		})
	}
	return tables, nil
}

func (c *Client) schemaKeys(ctx context.Context) ([]Key, error) {
	res, err := c.Query(ctx, "SELECT key_id, from_table, target_table, description FROM TAP_SCHEMA.keys")
	if err != nil {
		// Not every service populates TAP_SCHEMA.keys; a query-level error
		// means an empty relationship set rather than a failed schema fetch.
		var svc *errors.ServiceError
		if stderrors.As(err, &svc) {
			return nil, nil
		}
		return nil, err
	}

	t := res.Table
	ids, _ := t.Strings("key_id")
	from, _ := t.Strings("from_table")
	target, _ := t.Strings("target_table")
	descs, _ := t.Strings("description")

	keys := make([]Key, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		keys = append(keys, Key{
			ID:          cell(ids, i),
			FromTable:   cell(from, i),
			TargetTable: cell(target, i),
			Description: cell(descs, i),
		})
	}
	return keys, nil
}

// groupColumns turns a TAP_SCHEMA.columns result into per-table column
// lists, keyed by table_name exactly as the service reports it.
func groupColumns(t *table.Table) map[string][]ColumnMeta {
	tables, _ := t.Strings("table_name")
	names, _ := t.Strings("column_name")
	descs, _ := t.Strings("description")
	units, _ := t.Strings("unit")
	ucds, _ := t.Strings("ucd")
	types, _ := t.Strings("datatype")
	principal, _ := t.Ints("principal")
	indexed, _ := t.Ints("indexed")

	cols := make(map[string][]ColumnMeta)
	for i := 0; i < t.NumRows(); i++ {
		name := cell(tables, i)
		cols[name] = append(cols[name], ColumnMeta{
			Name:        cell(names, i),
			Description: cell(descs, i),
			Unit:        cell(units, i),
			UCD:         cell(ucds, i),
			Datatype:    cell(types, i),
			Principal:   flagSet(principal, i),
			Indexed:     flagSet(indexed, i),
		})
	}
	return cols
}

// cell indexes into a column slice that may be absent from the response.
func cell(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func flagSet(s []int64, i int) bool {
	return i < len(s) && s[i] != 0
}
