// Package adql composes fragments of ADQL, the SQL dialect used by IVOA
// TAP services. It is parameter marshaling only: literal escaping,
// identifier quoting, row-limit injection, and the standard cone-search
// predicate. There is no parser and no dialect model.
package adql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tmarkert/skyquery/pkg/coords"
)

// QuoteString returns s as an ADQL string literal with embedded single
// quotes doubled.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdentifier returns name as a delimited identifier for use where a
// bare name would clash with a reserved word or contain special characters
// (VizieR table names often do).
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ColumnList joins column names for a SELECT clause. An empty list selects
// everything.
func ColumnList(cols []string) string {
	if len(cols) == 0 {
		return "*"
	}
	return strings.Join(cols, ", ")
}

// WithTop injects "TOP n" into the select clause, after a DISTINCT or ALL
// quantifier when one is present. Queries that already carry TOP, queries
// that do not start with SELECT, and n <= 0 are returned unchanged.
func WithTop(query string, n int) string {
	if n <= 0 {
		return query
	}
	i := skipSpace(query, 0)
	j := i + len("SELECT")
	if j > len(query) || !strings.EqualFold(query[i:j], "SELECT") {
		return query
	}
	if j < len(query) && isWordByte(query[j]) {
		return query
	}
	insertAt := j
	if w, e := nextWord(query, j); strings.EqualFold(w, "ALL") || strings.EqualFold(w, "DISTINCT") {
		insertAt = e
	}
	if w, _ := nextWord(query, insertAt); strings.EqualFold(w, "TOP") {
		return query
	}
	return query[:insertAt] + " TOP " + strconv.Itoa(n) + query[insertAt:]
}

// ConePredicate returns the point-in-circle predicate selecting rows whose
// (raCol, decCol) position lies within radius of center:
//
//	CONTAINS(POINT('ICRS', ra, dec), CIRCLE('ICRS', 10.68, 41.27, 0.1))=1
func ConePredicate(raCol, decCol string, center coords.EquatorialCoord, radius coords.Angle) string {
	return fmt.Sprintf("CONTAINS(POINT('ICRS', %s, %s), CIRCLE('ICRS', %s, %s, %s))=1",
		raCol, decCol,
		coords.FormatDegrees(center.RA.Degrees()),
		coords.FormatDegrees(center.Dec.Degrees()),
		coords.FormatDegrees(radius.Degrees()))
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// nextWord returns the run of word bytes after any leading whitespace and
// the offset just past it.
func nextWord(s string, i int) (string, int) {
	i = skipSpace(s, i)
	j := i
	for j < len(s) && isWordByte(s[j]) {
		j++
	}
	return s[i:j], j
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
