// Package csvio reads and writes catalog CSV files.
//
// Readers strip a leading UTF-8 BOM, replace invalid UTF-8 with U+FFFD and
// checksum the raw bytes as they stream past, so a file is read exactly once.
// Writers emit a BOM so spreadsheet tools pick the right encoding.
package csvio

import (
	"encoding/csv"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Delimiters used by the catalog formats.
const (
	Semicolon = ';'
	Comma     = ','
)

// Reader yields CSV records from a byte stream.
type Reader struct {
	csv    *csv.Reader
	digest *xxhash.Digest
	bytes  *countingReader
}

// NewReader wraps r. Records may have differing field counts and stray
// quotes are tolerated; short rows are the caller's decision.
func NewReader(r io.Reader, comma rune) *Reader {
	digest := xxhash.New()
	counter := &countingReader{r: io.TeeReader(r, digest)}
	decoded := transform.NewReader(counter, unicode.UTF8BOM.NewDecoder())

	cr := csv.NewReader(decoded)
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	return &Reader{csv: cr, digest: digest, bytes: counter}
}

// Read returns the next record, or io.EOF after the last one.
func (r *Reader) Read() ([]string, error) {
	return r.csv.Read()
}

// ReadHeader reads the first record and cleans every cell. An input with no
// records at all returns io.EOF.
func (r *Reader) ReadHeader() ([]string, error) {
	rec, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	header := make([]string, len(rec))
	for i, cell := range rec {
		header[i] = CleanCell(cell)
	}
	return header, nil
}

// Line reports the input line of the most recently read record.
func (r *Reader) Line() int {
	line, _ := r.csv.FieldPos(0)
	return line
}

// Checksum returns the xxhash64 of the raw bytes consumed so far, hex
// encoded. After io.EOF it is the checksum of the whole input.
func (r *Reader) Checksum() string {
	return hex.EncodeToString(r.digest.Sum(nil))
}

// BytesRead reports how many raw bytes were consumed.
func (r *Reader) BytesRead() int64 {
	return r.bytes.n
}

// IsParseError reports whether err came from malformed CSV rather than I/O.
func IsParseError(err error) bool {
	var pe *csv.ParseError
	return errors.As(err, &pe)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// CleanCell trims whitespace and unwraps spreadsheet text formulas such as
// ="P-100" that Excel writes to preserve leading zeros.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
