package csvio

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bom = "\xEF\xBB\xBF"

func readAll(t *testing.T, r *Reader) [][]string {
	t.Helper()
	var out [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
}

func TestReader_StripsBOM(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"with BOM", bom + "manufacturer;part_number\nBosch;0 986\n"},
		{"without BOM", "manufacturer;part_number\nBosch;0 986\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input), Semicolon)
			header, err := r.ReadHeader()
			require.NoError(t, err)
			assert.Equal(t, []string{"manufacturer", "part_number"}, header)
			assert.Equal(t, [][]string{{"Bosch", "0 986"}}, readAll(t, r))
		})
	}
}

func TestReader_EmptyInput(t *testing.T) {
	for _, input := range []string{"", bom} {
		r := NewReader(strings.NewReader(input), Comma)
		_, err := r.ReadHeader()
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestReader_RaggedRowsAndLazyQuotes(t *testing.T) {
	input := "brand,model,year_from,year_to\nToyota,Camry\nBMW,3 \"Series\",1990,\n"
	r := NewReader(strings.NewReader(input), Comma)
	_, err := r.ReadHeader()
	require.NoError(t, err)

	rows := readAll(t, r)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 2)
	assert.Equal(t, `3 "Series"`, rows[1][1])
}

func TestReader_SanitizesInvalidUTF8(t *testing.T) {
	input := []byte("name\nok\xffok\n")
	r := NewReader(bytes.NewReader(input), Comma)
	_, err := r.ReadHeader()
	require.NoError(t, err)

	rows := readAll(t, r)
	require.Len(t, rows, 1)
	assert.True(t, utf8.ValidString(rows[0][0]))
	assert.True(t, strings.HasPrefix(rows[0][0], "ok"))
}

func TestReader_ChecksumCoversRawBytes(t *testing.T) {
	input := bom + "a;b\n1;2\n"
	r := NewReader(strings.NewReader(input), Semicolon)
	_, err := r.ReadHeader()
	require.NoError(t, err)
	readAll(t, r)

	assert.Equal(t, fmt.Sprintf("%016x", xxhash.Sum64String(input)), r.Checksum())
	assert.Equal(t, int64(len(input)), r.BytesRead())

	other := NewReader(strings.NewReader(input+"3;4\n"), Semicolon)
	_, _ = other.ReadHeader()
	readAll(t, other)
	assert.NotEqual(t, r.Checksum(), other.Checksum())
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Part Number ", "Part Number"},
		{`="00123"`, "00123"},
		{"plain", "plain"},
		{`=""`, ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanCell(tt.in))
		})
	}
}

func TestWriter_PrefixesBOM(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Semicolon)
	require.NoError(t, w.Write([]string{"part_number", "name"}))
	require.NoError(t, w.Write([]string{"P-1", "Filter; oil"}))
	require.NoError(t, w.Close())

	assert.Equal(t, bom+"part_number;name\nP-1;\"Filter; oil\"\n", buf.String())
}

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Semicolon)
	require.NoError(t, w.Write([]string{"manufacturer", "name"}))
	require.NoError(t, w.Write([]string{"Škoda", "Kühler \"A\""}))
	require.NoError(t, w.Close())

	r := NewReader(&buf, Semicolon)
	header, err := r.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, []string{"manufacturer", "name"}, header)
	assert.Equal(t, [][]string{{"Škoda", "Kühler \"A\""}}, readAll(t, r))
}
