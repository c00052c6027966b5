package csvio

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Writer writes BOM-prefixed CSV. Close must be called to flush.
type Writer struct {
	csv *csv.Writer
	enc io.WriteCloser
}

// NewWriter returns a Writer emitting records separated by comma.
func NewWriter(w io.Writer, comma rune) *Writer {
	enc := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(enc)
	cw.Comma = comma
	return &Writer{csv: cw, enc: enc}
}

// Write writes one record.
func (w *Writer) Write(record []string) error {
	return w.csv.Write(record)
}

// Flush pushes buffered records through to the underlying writer's encoder.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes pending records and the encoder.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	return w.enc.Close()
}
