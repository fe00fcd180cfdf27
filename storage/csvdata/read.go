// Package csvdata loads the maintenance exports (AMDEC, GMAO integrator, workload) the dashboard is built from.
package csvdata

import (
	"bytes"
	"encoding/csv"
	"io"
	"io/ioutil"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// DefaultDelimiter is the field separator of the exports.
const DefaultDelimiter = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a parsed CSV file: the trimmed headers, in file order, and one map per data row.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// ReadCSV parses a delimited export whose first line is the header.
// Input that is not valid UTF-8 is decoded as Windows-1252, the charset of spreadsheet exports.
// Short rows get empty values for the missing columns; extra fields are ignored.
func ReadCSV(r io.Reader, delimiter rune) (Table, error) {
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return Table{}, errors.Wrap(err, "reading csv")
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		if raw, err = charmap.Windows1252.NewDecoder().Bytes(raw); err != nil {
			return Table{}, errors.Wrap(err, "decoding windows-1252")
		}
	}

	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, errors.Wrap(err, "parsing csv")
	}
	if len(records) == 0 {
		return Table{Headers: []string{}, Rows: []map[string]string{}}, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return Table{Headers: headers, Rows: rows}, nil
}

func isBlank(rec []string) bool {
	return len(rec) == 1 && strings.TrimSpace(rec[0]) == ""
}
