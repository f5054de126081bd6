package votable

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/tmarkert/skyquery/pkg/table"
)

const xmlnsVOTable = "http://www.ivoa.net/xml/VOTable/v1.4"

// Write renders t as a VOTable 1.4 document using the TABLEDATA
// serialization, with QUERY_STATUS=OK.
func Write(w io.Writer, t *table.Table) error {
	return write(w, t, "OK")
}

// WriteOverflow is like [Write] but marks the result as truncated with
// QUERY_STATUS=OVERFLOW.
func WriteOverflow(w io.Writer, t *table.Table) error {
	return write(w, t, "OVERFLOW")
}

// WriteError renders an error document carrying msg as the
// QUERY_STATUS=ERROR message, the way TAP services report query failures.
func WriteError(w io.Writer, msg string) error {
	doc := xmlVOTable{
		Version: "1.4",
		Xmlns:   xmlnsVOTable,
		Resources: []xmlResource{{
			Type:  "results",
			Infos: []xmlInfo{{Name: "QUERY_STATUS", Value: "ERROR", Text: msg}},
		}},
	}
	return encode(w, &doc)
}

func write(w io.Writer, t *table.Table, status string) error {
	cols := t.Columns()
	fields := make([]xmlField, len(cols))
	for i, c := range cols {
		datatype, arraysize := votableType(c.Type)
		fields[i] = xmlField{
			Name:        c.Name,
			Datatype:    datatype,
			Arraysize:   arraysize,
			Unit:        c.Unit,
			UCD:         c.UCD,
			Description: c.Description,
		}
	}

	rows := make([]xmlTR, t.NumRows())
	for r := range rows {
		cells := make([]xmlTD, len(cols))
		for c := range cells {
			if !t.IsNull(r, c) {
				cells[c].Text = formatVOValue(t.Value(r, c))
			}
		}
		rows[r].Cells = cells
	}

	doc := xmlVOTable{
		Version: "1.4",
		Xmlns:   xmlnsVOTable,
		Resources: []xmlResource{{
			Type:  "results",
			Infos: []xmlInfo{{Name: "QUERY_STATUS", Value: status}},
			Tables: []xmlTable{{
				Name:   t.Name(),
				Fields: fields,
				Data:   &xmlData{TableData: &xmlTableData{Rows: rows}},
			}},
		}},
	}
	return encode(w, &doc)
}

func encode(w io.Writer, doc *xmlVOTable) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// votableType maps an Arrow column type back to a VOTable datatype and
// arraysize. String columns need arraysize="*": a bare char is one
// character.
func votableType(dt arrow.DataType) (datatype, arraysize string) {
	switch dt.ID() {
	case arrow.BOOL:
		return "boolean", ""
	case arrow.UINT8:
		return "unsignedByte", ""
	case arrow.INT16:
		return "short", ""
	case arrow.INT32:
		return "int", ""
	case arrow.INT64:
		return "long", ""
	case arrow.FLOAT32:
		return "float", ""
	case arrow.FLOAT64:
		return "double", ""
	default:
		return "char", "*"
	}
}

func formatVOValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		if x {
			return "T"
		}
		return "F"
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
