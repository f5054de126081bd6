// Package votable parses and writes the IVOA VOTable XML format, the
// standard result encoding of virtual observatory services.
//
// Supported serializations are TABLEDATA (cell values inline as XML) and
// BINARY2 (a base64 stream with a per-row null mask). The legacy BINARY
// and embedded-FITS serializations are rejected with an unsupported error.
//
// A service-side failure reported through INFO QUERY_STATUS=ERROR surfaces
// as a [errors.ServiceError]; QUERY_STATUS=OVERFLOW marks the result as
// truncated without failing the parse.
package votable

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/table"
)

// Result is a decoded VOTable document.
type Result struct {
	Table *table.Table
	// Overflow reports that the service truncated the result at its row
	// limit (QUERY_STATUS=OVERFLOW).
	Overflow bool
}

type xmlVOTable struct {
	XMLName   xml.Name      `xml:"VOTABLE"`
	Version   string        `xml:"version,attr,omitempty"`
	Xmlns     string        `xml:"xmlns,attr,omitempty"`
	Infos     []xmlInfo     `xml:"INFO,omitempty"`
	Resources []xmlResource `xml:"RESOURCE"`
}

type xmlResource struct {
	Type      string        `xml:"type,attr,omitempty"`
	Infos     []xmlInfo     `xml:"INFO,omitempty"`
	Tables    []xmlTable    `xml:"TABLE"`
	Resources []xmlResource `xml:"RESOURCE,omitempty"`
}

type xmlInfo struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

type xmlTable struct {
	Name   string     `xml:"name,attr,omitempty"`
	Fields []xmlField `xml:"FIELD"`
	Data   *xmlData   `xml:"DATA,omitempty"`
}

type xmlField struct {
	Name        string     `xml:"name,attr,omitempty"`
	ID          string     `xml:"ID,attr,omitempty"`
	Datatype    string     `xml:"datatype,attr"`
	Arraysize   string     `xml:"arraysize,attr,omitempty"`
	Unit        string     `xml:"unit,attr,omitempty"`
	UCD         string     `xml:"ucd,attr,omitempty"`
	Description string     `xml:"DESCRIPTION,omitempty"`
	Values      *xmlValues `xml:"VALUES,omitempty"`
}

type xmlValues struct {
	Null string `xml:"null,attr,omitempty"`
}

type xmlData struct {
	TableData *xmlTableData `xml:"TABLEDATA,omitempty"`
	Binary2   *xmlBinary    `xml:"BINARY2,omitempty"`
	Binary    *xmlBinary    `xml:"BINARY,omitempty"`
	FITS      *struct{}     `xml:"FITS,omitempty"`
}

type xmlTableData struct {
	Rows []xmlTR `xml:"TR"`
}

type xmlTR struct {
	Cells []xmlTD `xml:"TD"`
}

type xmlTD struct {
	Text string `xml:",chardata"`
}

type xmlBinary struct {
	Stream xmlStream `xml:"STREAM"`
}

type xmlStream struct {
	Encoding string `xml:"encoding,attr,omitempty"`
	Href     string `xml:"href,attr,omitempty"`
	Text     string `xml:",chardata"`
}

// Parse decodes a VOTable document from r.
func Parse(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data)
}

// ParseBytes decodes a VOTable document. The returned table holds a
// reference the caller must release.
func ParseBytes(data []byte) (*Result, error) {
	var doc xmlVOTable
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewParseError("votable", data, err)
	}

	status, msg := queryStatus(&doc)
	if status == "ERROR" {
		if msg == "" {
			msg = "service reported an error without a message"
		}
		return nil, &errors.ServiceError{Message: msg}
	}

	xt := firstTable(&doc)
	if xt == nil {
		// Cone search services report errors as an INFO named "Error"
		// instead of a QUERY_STATUS, and such documents carry no table.
		if msg := errorInfo(&doc); msg != "" {
			return nil, &errors.ServiceError{Message: msg}
		}
		return nil, errors.NewParseError("votable", data, fmt.Errorf("no TABLE element"))
	}

	tbl, err := buildTable(xt)
	if err != nil {
		return nil, err
	}
	return &Result{Table: tbl, Overflow: status == "OVERFLOW"}, nil
}

// collectInfos gathers INFO elements from the document root and every
// resource, in document order.
func collectInfos(doc *xmlVOTable) []xmlInfo {
	infos := append([]xmlInfo{}, doc.Infos...)
	var walk func(rs []xmlResource)
	walk = func(rs []xmlResource) {
		for _, r := range rs {
			infos = append(infos, r.Infos...)
			walk(r.Resources)
		}
	}
	walk(doc.Resources)
	return infos
}

// queryStatus scans every INFO element for QUERY_STATUS. TAP services may
// report OVERFLOW in a trailing INFO after the table, so OVERFLOW wins
// over an earlier OK.
func queryStatus(doc *xmlVOTable) (status, message string) {
	for _, in := range collectInfos(doc) {
		if !strings.EqualFold(in.Name, "QUERY_STATUS") {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(in.Value)) {
		case "ERROR":
			return "ERROR", strings.TrimSpace(in.Text)
		case "OVERFLOW":
			status = "OVERFLOW"
		case "OK":
			if status == "" {
				status = "OK"
			}
		}
	}
	return status, ""
}

// errorInfo returns the message of an INFO named "Error", the error
// convention of the cone search protocol. The message lives in the value
// attribute, with element text as a fallback.
func errorInfo(doc *xmlVOTable) string {
	for _, in := range collectInfos(doc) {
		if !strings.EqualFold(in.Name, "Error") {
			continue
		}
		if msg := strings.TrimSpace(in.Value); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(in.Text); msg != "" {
			return msg
		}
		return "service reported an error without a message"
	}
	return ""
}

// firstTable picks the table of the results resource, falling back to the
// first table anywhere in the document.
func firstTable(doc *xmlVOTable) *xmlTable {
	var fallback *xmlTable
	var walk func(rs []xmlResource) *xmlTable
	walk = func(rs []xmlResource) *xmlTable {
		for i := range rs {
			r := &rs[i]
			for j := range r.Tables {
				if r.Type == "results" {
					return &r.Tables[j]
				}
				if fallback == nil {
					fallback = &r.Tables[j]
				}
			}
			if t := walk(r.Resources); t != nil {
				return t
			}
		}
		return nil
	}
	if t := walk(doc.Resources); t != nil {
		return t
	}
	return fallback
}

func buildTable(xt *xmlTable) (*table.Table, error) {
	defs, err := fieldDefs(xt.Fields)
	if err != nil {
		return nil, err
	}

	specs := make([]table.ColumnSpec, len(defs))
	for i, d := range defs {
		specs[i] = d.spec
	}
	b := table.NewBuilder(table.NewSchema(specs))
	defer b.Release()

	switch {
	case xt.Data == nil:
		// metadata-only table
	case xt.Data.TableData != nil:
		err = decodeTableData(b, defs, xt.Data.TableData)
	case xt.Data.Binary2 != nil:
		err = decodeBinary2(b, defs, xt.Data.Binary2)
	case xt.Data.Binary != nil:
		err = errors.New(errors.ErrCodeUnsupported,
			"BINARY serialization is not supported; request TABLEDATA or BINARY2")
	case xt.Data.FITS != nil:
		err = errors.New(errors.ErrCodeUnsupported,
			"FITS serialization inside VOTable is not supported")
	}
	if err != nil {
		return nil, err
	}

	rec := b.NewRecord()
	defer rec.Release()
	return table.FromRecord(rec, xt.Name), nil
}

// fieldDef carries everything the decoders need about one FIELD: the Arrow
// column it produces, the VOTable datatype, the element count, and the
// declared null sentinel.
type fieldDef struct {
	spec     table.ColumnSpec
	datatype string
	count    int  // fixed element count
	variable bool // length prefixed in binary streams
	native   bool // scalar appended as its Arrow type, not as text
	null     string
	nullInt  *int64
}

func fieldDefs(fields []xmlField) ([]fieldDef, error) {
	if len(fields) == 0 {
		return nil, errors.New(errors.ErrCodeParse, "votable TABLE has no FIELD definitions")
	}
	defs := make([]fieldDef, len(fields))
	for i, f := range fields {
		count, variable, err := parseArraysize(f.Arraysize)
		if err != nil {
			return nil, err
		}
		name := f.Name
		if name == "" {
			name = f.ID
		}
		if name == "" {
			name = fmt.Sprintf("col%d", i+1)
		}
		d := fieldDef{
			datatype: f.Datatype,
			count:    count,
			variable: variable,
			spec: table.ColumnSpec{
				Name:        name,
				Unit:        f.Unit,
				UCD:         f.UCD,
				Description: strings.TrimSpace(f.Description),
			},
		}
		if st := scalarType(f.Datatype); st != nil && count == 1 && !variable {
			d.native = true
			d.spec.Type = st
		} else {
			// character data, vectors, and exotic types become text columns
			d.spec.Type = arrow.BinaryTypes.String
		}
		if f.Values != nil && f.Values.Null != "" {
			d.null = strings.TrimSpace(f.Values.Null)
			switch f.Datatype {
			case "unsignedByte", "short", "int", "long":
				if n, perr := strconv.ParseInt(d.null, 10, 64); perr == nil {
					d.nullInt = &n
				}
			}
		}
		defs[i] = d
	}
	return defs, nil
}

// scalarType maps a VOTable datatype to the Arrow type used for scalar
// columns. Character types are handled separately and map to strings.
func scalarType(datatype string) arrow.DataType {
	switch datatype {
	case "boolean":
		return arrow.FixedWidthTypes.Boolean
	case "unsignedByte":
		return arrow.PrimitiveTypes.Uint8
	case "short":
		return arrow.PrimitiveTypes.Int16
	case "int":
		return arrow.PrimitiveTypes.Int32
	case "long":
		return arrow.PrimitiveTypes.Int64
	case "float":
		return arrow.PrimitiveTypes.Float32
	case "double":
		return arrow.PrimitiveTypes.Float64
	}
	return nil
}

// parseArraysize interprets the FIELD arraysize attribute: "" is a scalar,
// "*" and "8*" are variable length, "8" is fixed, and "3x4" is the product
// of its dimensions (variable when the last is starred).
func parseArraysize(s string) (count int, variable bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, false, nil
	}
	count = 1
	dims := strings.Split(s, "x")
	for i, dim := range dims {
		dim = strings.TrimSpace(dim)
		last := i == len(dims)-1
		if dim == "*" && last {
			return count, true, nil
		}
		if strings.HasSuffix(dim, "*") && last {
			dim = strings.TrimSuffix(dim, "*")
			variable = true
		}
		n, perr := strconv.Atoi(dim)
		if perr != nil || n < 0 {
			return 0, false, errors.New(errors.ErrCodeParse, "invalid arraysize %q", s)
		}
		count *= n
	}
	return count, variable, nil
}

func decodeTableData(b *array.RecordBuilder, defs []fieldDef, td *xmlTableData) error {
	for row, tr := range td.Rows {
		for i, d := range defs {
			var cell string
			if i < len(tr.Cells) {
				cell = tr.Cells[i].Text
			}
			cell = strings.TrimSpace(cell)
			if d.null != "" && cell == d.null {
				b.Field(i).AppendNull()
				continue
			}
			if err := table.AppendParsed(b.Field(i), cell); err != nil {
				return errors.Wrap(errors.ErrCodeParse, err,
					"row %d column %q", row+1, d.spec.Name)
			}
		}
	}
	return nil
}
