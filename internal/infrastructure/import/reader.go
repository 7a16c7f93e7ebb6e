package csvimport

import (
	"io"
	"path/filepath"
	"strings"
)

// Format is the file format of an upload
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat derives the format from the file name
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", ErrUnsupportedFormat
}

// FileReader turns uploaded files into ImportRows
type FileReader struct {
	MaxSize int64
	MaxRows int
}

// NewFileReader creates a FileReader with the given limits. Zero means unlimited.
func NewFileReader(maxSize int64, maxRows int) *FileReader {
	return &FileReader{MaxSize: maxSize, MaxRows: maxRows}
}

// Read parses the file according to its extension
func (fr *FileReader) Read(filename string, r io.Reader) ([]ImportRow, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	if fr.MaxSize > 0 {
		r = &limitedReader{r: io.LimitReader(r, fr.MaxSize+1), max: fr.MaxSize}
	}
	switch format {
	case FormatXLSX:
		return ParseXLSX(r, fr.MaxRows)
	default:
		return NewCSVParser(WithMaxRows(fr.MaxRows)).Parse(r)
	}
}

// limitedReader fails with ErrFileTooLarge instead of silently truncating
type limitedReader struct {
	r   io.Reader
	n   int64
	max int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.n > l.max {
		return n, ErrFileTooLarge
	}
	return n, err
}
