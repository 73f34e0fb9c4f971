package remax

import (
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Reader reads the ';' separated ISO-8859-1 export.
type Reader struct {
	csv    *csv.Reader
	header []string
}

func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	for i, h := range header {
		header[i] = trimBOM(h)
	}
	return &Reader{csv: cr, header: header}, nil
}

func trimBOM(s string) string {
	for _, bom := range []string{"\ufeff", "\u00ef\u00bb\u00bf"} {
		if len(s) >= len(bom) && s[:len(bom)] == bom {
			return s[len(bom):]
		}
	}
	return s
}

// Next returns the next row, or io.EOF.
func (r *Reader) Next() (Row, error) {
	rec, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	row := make(Row, len(r.header))
	for i, h := range r.header {
		if i < len(rec) {
			row[h] = rec[i]
		}
	}
	return row, nil
}
