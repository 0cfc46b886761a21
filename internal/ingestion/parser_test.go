package ingestion

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, p *CSVParser) ([]Record, error) {
	t.Helper()
	var out []Record
	for {
		rec, err := p.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

func TestCSVParserYieldsStringRecords(t *testing.T) {
	p := NewCSVParser(strings.NewReader("name,age\nann,31\n\"bo, jr\",\"4\"\n"))
	recs, err := readAll(t, p)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age"}, p.Columns())
	require.Len(t, recs, 2)
	assert.Equal(t, Record{"name": "ann", "age": "31"}, recs[0])
	assert.Equal(t, Record{"name": "bo, jr", "age": "4"}, recs[1])
	assert.Equal(t, int64(2), p.Rows())
}

func TestCSVParserEmptyStream(t *testing.T) {
	p := NewCSVParser(strings.NewReader(""))
	recs, err := readAll(t, p)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, []string{}, p.Columns())
}

func TestCSVParserHeaderOnly(t *testing.T) {
	p := NewCSVParser(strings.NewReader("a,b\n"))
	recs, err := readAll(t, p)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, []string{"a", "b"}, p.Columns())
}

func TestCSVParserCleansHeader(t *testing.T) {
	p := NewCSVParser(strings.NewReader("\ufeffid, name ,,name,name\n1,2,3,4,5\n"))
	recs, err := readAll(t, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "column_3", "name_2", "name_3"}, p.Columns())
	require.Len(t, recs, 1)
	assert.Equal(t, "1", recs[0]["id"])
	assert.Equal(t, "5", recs[0]["name_3"])
}

func TestCSVParserBOMBeforeQuotedHeader(t *testing.T) {
	p := NewCSVParser(strings.NewReader("\ufeff\"name\",\"age\"\n\"X\",\"5\"\n"))
	recs, err := readAll(t, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, p.Columns())
	require.Len(t, recs, 1)
	assert.Equal(t, Record{"name": "X", "age": "5"}, recs[0])

	p = NewCSVParser(strings.NewReader("\ufeff"))
	recs, err = readAll(t, p)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, []string{}, p.Columns())
}

func TestCSVParserRejectsRaggedRows(t *testing.T) {
	p := NewCSVParser(strings.NewReader("a,b\n1,2\n3\n"))
	recs, err := readAll(t, p)
	require.Error(t, err)
	var pe *csv.ParseError
	assert.True(t, errors.As(err, &pe))
	assert.Len(t, recs, 1)
}

func TestCSVParserRejectsBadQuoting(t *testing.T) {
	p := NewCSVParser(strings.NewReader("a,b\n\"1,2\n"))
	_, err := readAll(t, p)
	var pe *csv.ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestCSVParserRecordsAreIndependent(t *testing.T) {
	p := NewCSVParser(strings.NewReader("a\nx\ny\n"))
	recs, err := readAll(t, p)
	require.NoError(t, err)
	assert.Equal(t, "x", recs[0]["a"])
	assert.Equal(t, "y", recs[1]["a"])
}
