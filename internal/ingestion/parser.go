package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

// Record maps column name to the raw string cell.
type Record map[string]any

// CSVParser yields one Record per data line. The first line is the header.
type CSVParser struct {
	r          *csv.Reader
	columns    []string
	headerRead bool
	rows       int64
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func NewCSVParser(r io.Reader) *CSVParser {
	cr := csv.NewReader(skipBOM(r))
	// FieldsPerRecord 0 pins every record to the header width.
	cr.FieldsPerRecord = 0
	cr.ReuseRecord = true
	return &CSVParser{r: cr}
}

// Columns returns the cleaned header. Empty until the first Next call.
func (p *CSVParser) Columns() []string {
	if p.columns == nil {
		return []string{}
	}
	out := make([]string, len(p.columns))
	copy(out, p.columns)
	return out
}

// Rows is the number of records returned so far.
func (p *CSVParser) Rows() int64 { return p.rows }

// Next returns io.EOF once the stream is exhausted.
func (p *CSVParser) Next() (Record, error) {
	if !p.headerRead {
		p.headerRead = true
		header, err := p.r.Read()
		if err != nil {
			if err == io.EOF {
				p.columns = []string{}
			}
			return nil, err
		}
		p.columns = cleanHeader(header)
	}

	fields, err := p.r.Read()
	if err != nil {
		return nil, err
	}
	rec := make(Record, len(p.columns))
	for i, col := range p.columns {
		rec[col] = fields[i]
	}
	p.rows++
	return rec, nil
}

// skipBOM drops a leading UTF-8 byte order mark so a quoted first header
// field still starts the record.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

func cleanHeader(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, name := range raw {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		base := name
		for seen[name] > 0 {
			seen[base]++
			name = base + "_" + strconv.Itoa(seen[base])
		}
		seen[name]++
		out[i] = name
	}
	return out
}
