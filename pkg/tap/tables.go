package tap

import (
	"context"
	"encoding/xml"
	"slices"
	"strings"

	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/voclient"
)

// TableMeta describes one table exposed by a TAP service.
type TableMeta struct {
	Schema      string
	Name        string
	Description string
	Columns     []ColumnMeta
}

// QualifiedName returns the schema-qualified table name. Names the service
// already reports qualified are returned unchanged.
func (t TableMeta) QualifiedName() string {
	if t.Schema == "" || strings.Contains(t.Name, ".") {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// ColumnMeta describes one column of a TAP table.
type ColumnMeta struct {
	Name        string
	Description string
	Unit        string
	UCD         string
	Datatype    string
	Principal   bool
	Indexed     bool
}

// VODataService tableset document served from the VOSI tables endpoint.
// Namespace prefixes vary between services; only local names are matched.
type xmlTableSet struct {
	XMLName xml.Name    `xml:"tableset"`
	Schemas []xmlSchema `xml:"schema"`
}

type xmlSchema struct {
	Name        string     `xml:"name"`
	Description string     `xml:"description"`
	Tables      []xmlTable `xml:"table"`
}

type xmlTable struct {
	Name        string      `xml:"name"`
	Description string      `xml:"description"`
	Columns     []xmlColumn `xml:"column"`
}

type xmlColumn struct {
	Name        string   `xml:"name"`
	Description string   `xml:"description"`
	Unit        string   `xml:"unit"`
	UCD         string   `xml:"ucd"`
	DataType    string   `xml:"dataType"`
	Flags       []string `xml:"flag"`
}

// Tables fetches the service's table listing from the VOSI tables endpoint.
// Depending on the service, the listing may or may not include column
// metadata; [Client.Columns] always does.
func (c *Client) Tables(ctx context.Context) ([]TableMeta, error) {
	tablesURL := c.baseURL + "/tables"
	key := c.vo.Keyer().HTTPKey(c.vo.Service(), tablesURL)
	data, err := c.vo.Cached(ctx, key, voclient.DefaultCacheTTL, false, func() ([]byte, error) {
		return c.vo.GetBytes(ctx, tablesURL, nil)
	})
	if err != nil {
		return nil, err
	}
	return parseTableSet(data)
}

func parseTableSet(data []byte) ([]TableMeta, error) {
	var ts xmlTableSet
	if err := xml.Unmarshal(data, &ts); err != nil {
		return nil, errors.NewParseError("tableset", data, err)
	}

	var tables []TableMeta
	for _, s := range ts.Schemas {
		for _, t := range s.Tables {
			meta := TableMeta{
				Schema:      s.Name,
				Name:        t.Name,
				Description: strings.TrimSpace(t.Description),
			}
			for _, col := range t.Columns {
				meta.Columns = append(meta.Columns, ColumnMeta{
					Name:        col.Name,
					Description: strings.TrimSpace(col.Description),
					Unit:        col.Unit,
					UCD:         col.UCD,
					Datatype:    col.DataType,
					Principal:   slices.Contains(col.Flags, "principal"),
					Indexed:     slices.Contains(col.Flags, "indexed"),
				})
			}
			tables = append(tables, meta)
		}
	}
	return tables, nil
}
