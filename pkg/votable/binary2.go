package votable

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/tmarkert/skyquery/pkg/errors"
)

// decodeBinary2 appends the rows of a BINARY2 stream. Each row starts with
// a null mask of ceil(nfields/8) bytes, most significant bit first. Masked
// fields still occupy their full width in the stream and must be consumed.
func decodeBinary2(b *array.RecordBuilder, defs []fieldDef, bin *xmlBinary) error {
	if enc := strings.ToLower(strings.TrimSpace(bin.Stream.Encoding)); enc != "base64" {
		return errors.New(errors.ErrCodeUnsupported,
			"unsupported BINARY2 stream encoding %q", bin.Stream.Encoding)
	}
	if strings.TrimSpace(bin.Stream.Href) != "" {
		return errors.New(errors.ErrCodeUnsupported, "external BINARY2 streams are not supported")
	}
	for _, d := range defs {
		if elemSize(d.datatype) < 0 {
			return errors.New(errors.ErrCodeUnsupported,
				"datatype %q is not supported in BINARY2 streams", d.datatype)
		}
	}

	data, err := base64.StdEncoding.DecodeString(stripSpace(bin.Stream.Text))
	if err != nil {
		return errors.NewParseError("votable", nil, fmt.Errorf("binary2 stream: %w", err))
	}

	r := &binReader{data: data}
	nmask := (len(defs) + 7) / 8
	for r.off < len(r.data) {
		mask, err := r.take(nmask)
		if err != nil {
			return err
		}
		for i, d := range defs {
			masked := mask[i/8]&(1<<(7-uint(i%8))) != 0
			if err := decodeBinaryField(b.Field(i), d, r, masked); err != nil {
				return err
			}
		}
	}
	return nil
}

type binReader struct {
	data []byte
	off  int
}

func (r *binReader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, errors.NewParseError("votable", nil,
			fmt.Errorf("truncated binary2 stream at byte %d", r.off))
	}
	p := r.data[r.off : r.off+n]
	r.off += n
	return p, nil
}

// elemSize returns the per-element width of a datatype in a BINARY2
// stream, or -1 when the datatype cannot be decoded.
func elemSize(datatype string) int {
	switch datatype {
	case "boolean", "unsignedByte", "char":
		return 1
	case "short", "unicodeChar":
		return 2
	case "int", "float":
		return 4
	case "long", "double":
		return 8
	}
	return -1
}

func decodeBinaryField(fb array.Builder, d fieldDef, r *binReader, masked bool) error {
	count := d.count
	if d.variable {
		p, err := r.take(4)
		if err != nil {
			return err
		}
		n := int32(binary.BigEndian.Uint32(p))
		if n < 0 {
			return errors.NewParseError("votable", nil,
				fmt.Errorf("negative length %d in binary2 stream", n))
		}
		count = int(n)
	}
	p, err := r.take(count * elemSize(d.datatype))
	if err != nil {
		return err
	}
	if masked {
		fb.AppendNull()
		return nil
	}

	switch d.datatype {
	case "char":
		appendText(fb, strings.TrimRight(string(p), " \x00"))
	case "unicodeChar":
		u := make([]uint16, count)
		for i := range u {
			u[i] = binary.BigEndian.Uint16(p[2*i:])
		}
		appendText(fb, strings.TrimRight(string(utf16.Decode(u)), " \x00"))
	default:
		if d.native {
			appendBinaryScalar(fb, d, p)
			return nil
		}
		// vector values keep their text rendering
		sz := elemSize(d.datatype)
		elems := make([]string, count)
		for i := range elems {
			elems[i] = formatBinaryElem(d.datatype, p[i*sz:(i+1)*sz])
		}
		appendText(fb, strings.Join(elems, " "))
	}
	return nil
}

func appendText(fb array.Builder, s string) {
	if s == "" {
		fb.AppendNull()
		return
	}
	fb.(*array.StringBuilder).Append(s)
}

func appendBinaryScalar(fb array.Builder, d fieldDef, p []byte) {
	switch d.datatype {
	case "boolean":
		switch p[0] {
		case 'T', 't', '1':
			fb.(*array.BooleanBuilder).Append(true)
		case 'F', 'f', '0':
			fb.(*array.BooleanBuilder).Append(false)
		default:
			fb.AppendNull()
		}
	case "unsignedByte":
		if d.nullInt != nil && int64(p[0]) == *d.nullInt {
			fb.AppendNull()
			return
		}
		fb.(*array.Uint8Builder).Append(p[0])
	case "short":
		n := int16(binary.BigEndian.Uint16(p))
		if d.nullInt != nil && int64(n) == *d.nullInt {
			fb.AppendNull()
			return
		}
		fb.(*array.Int16Builder).Append(n)
	case "int":
		n := int32(binary.BigEndian.Uint32(p))
		if d.nullInt != nil && int64(n) == *d.nullInt {
			fb.AppendNull()
			return
		}
		fb.(*array.Int32Builder).Append(n)
	case "long":
		n := int64(binary.BigEndian.Uint64(p))
		if d.nullInt != nil && n == *d.nullInt {
			fb.AppendNull()
			return
		}
		fb.(*array.Int64Builder).Append(n)
	case "float":
		x := math.Float32frombits(binary.BigEndian.Uint32(p))
		if math.IsNaN(float64(x)) {
			fb.AppendNull()
			return
		}
		fb.(*array.Float32Builder).Append(x)
	case "double":
		x := math.Float64frombits(binary.BigEndian.Uint64(p))
		if math.IsNaN(x) {
			fb.AppendNull()
			return
		}
		fb.(*array.Float64Builder).Append(x)
	}
}

func formatBinaryElem(datatype string, p []byte) string {
	switch datatype {
	case "boolean":
		return string(p[0])
	case "unsignedByte":
		return strconv.Itoa(int(p[0]))
	case "short":
		return strconv.Itoa(int(int16(binary.BigEndian.Uint16(p))))
	case "int":
		return strconv.Itoa(int(int32(binary.BigEndian.Uint32(p))))
	case "long":
		return strconv.FormatInt(int64(binary.BigEndian.Uint64(p)), 10)
	case "float":
		return strconv.FormatFloat(float64(math.Float32frombits(binary.BigEndian.Uint32(p))), 'g', -1, 32)
	case "double":
		return strconv.FormatFloat(math.Float64frombits(binary.BigEndian.Uint64(p)), 'g', -1, 64)
	}
	return ""
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
