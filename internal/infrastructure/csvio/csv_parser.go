// Package csvio reads uploaded CSV files into raw tables. It handles
// UTF-8 BOMs and ragged rows; header interpretation is left entirely to
// the caller.
package csvio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
)

// Table is a raw parsed CSV file: the header row and the data rows, in
// source order. Rows may have fewer or more fields than the header.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ParserOption is a functional option for parser configuration
type ParserOption func(*parserConfig)

type parserConfig struct {
	delimiter  rune
	lazyQuotes bool
}

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(c *parserConfig) {
		c.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ParserOption {
	return func(c *parserConfig) {
		c.lazyQuotes = lazy
	}
}

// Parse reads an entire CSV stream into a raw table. The first record is
// the header row; all remaining records become data rows.
func Parse(r io.Reader, opts ...ParserOption) (Table, error) {
	cfg := parserConfig{
		delimiter:  ',',
		lazyQuotes: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	bufReader := bufio.NewReader(r)

	// Detect and strip UTF-8 BOM (0xEF, 0xBB, 0xBF)
	head, err := bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return Table{}, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = bufReader.Discard(3)
	}

	reader := csv.NewReader(bufReader)
	reader.Comma = cfg.delimiter
	reader.LazyQuotes = cfg.lazyQuotes
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // allow variable number of fields

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}

	return Table{
		Columns: records[0],
		Rows:    records[1:],
	}, nil
}
