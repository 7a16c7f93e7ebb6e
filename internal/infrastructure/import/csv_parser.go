package csvimport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// CSVParser reads inventory rows from a CSV file
type CSVParser struct {
	delimiter rune
	autoDelim bool
	maxRows   int
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter forces the field delimiter instead of detecting it
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
		p.autoDelim = false
	}
}

// WithMaxRows limits the number of data rows accepted
func WithMaxRows(n int) ParserOption {
	return func(p *CSVParser) {
		p.maxRows = n
	}
}

// NewCSVParser creates a new CSV parser
func NewCSVParser(opts ...ParserOption) *CSVParser {
	p := &CSVParser{delimiter: ',', autoDelim: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads every non-empty data row. The UTF-8 BOM is stripped and files
// that are not valid UTF-8 are decoded as Windows-1252, the usual encoding of
// spreadsheets saved as CSV on Spanish-locale machines.
func (p *CSVParser) Parse(r io.Reader) ([]ImportRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	data, err = toUTF8(data)
	if err != nil {
		return nil, err
	}

	delimiter := p.delimiter
	if p.autoDelim {
		delimiter = detectDelimiter(data)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	mapper, err := newRowMapper(header)
	if err != nil {
		return nil, err
	}

	var rows []ImportRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", line, err)
		}
		row := mapper.row(line, record)
		if row.IsEmpty() {
			continue
		}
		if p.maxRows > 0 && len(rows) >= p.maxRows {
			return nil, fmt.Errorf("%w: more than %d rows", ErrFileTooLarge, p.maxRows)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

func toUTF8(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	return decoded, nil
}

// detectDelimiter picks the most frequent candidate separator in the header line
func detectDelimiter(data []byte) rune {
	header := string(data)
	if i := strings.IndexByte(header, '\n'); i >= 0 {
		header = header[:i]
	}
	best, bestCount := ',', strings.Count(header, ",")
	for _, d := range []rune{';', '\t', '|'} {
		if n := strings.Count(header, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
