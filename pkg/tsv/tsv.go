package tsv

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a single row addressed by lower-cased header field names.
type Record struct {
	fields []string
	values []string
	index  map[string]int
}

// Fields returns the header field names in column order.
func (r Record) Fields() []string {
	return r.fields
}

// Values returns the raw field values in column order.
func (r Record) Values() []string {
	return r.values
}

// Get returns the value of the named field.
func (r Record) Get(name string) (string, bool) {
	i, ok := r.index[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return r.values[i], true
}

// Int returns the value of the named field parsed as an integer.
func (r Record) Int(name string) (int, error) {
	v, ok := r.Get(name)
	if !ok {
		return 0, fmt.Errorf("tsv: no field %q", name)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("tsv: field %q is not an integer: %w", name, err)
	}
	return n, nil
}

// Records splits text into one Record per data line. Field names are
// lower-cased; a line whose field count differs from the header is a hard
// decode failure.
func Records(text string) ([]Record, error) {
	header, lines, err := split(text)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	records := make([]Record, 0, len(lines))
	for n, line := range lines {
		values := strings.Split(line, "\t")
		if len(values) != len(header) {
			return nil, fmt.Errorf("tsv: line %d has %d fields, header has %d", n+2, len(values), len(header))
		}
		records = append(records, Record{fields: header, values: values, index: index})
	}
	return records, nil
}

// Frame is a rectangular tab-separated table.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Column returns all values of the named column.
func (f *Frame) Column(name string) ([]string, bool) {
	name = strings.ToLower(name)
	for i, col := range f.Columns {
		if col == name {
			values := make([]string, len(f.Rows))
			for j, row := range f.Rows {
				values[j] = row[i]
			}
			return values, true
		}
	}
	return nil, false
}

// Parse decodes text into a Frame. The same rectangularity rule as for
// Records applies.
func Parse(text string) (*Frame, error) {
	header, lines, err := split(text)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(lines))
	for n, line := range lines {
		values := strings.Split(line, "\t")
		if len(values) != len(header) {
			return nil, fmt.Errorf("tsv: line %d has %d fields, header has %d", n+2, len(values), len(header))
		}
		rows = append(rows, values)
	}
	return &Frame{Columns: header, Rows: rows}, nil
}

// split separates the lower-cased header from the data lines, dropping
// empty lines.
func split(text string) ([]string, []string, error) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, nil, fmt.Errorf("tsv: missing header line")
	}

	header := strings.Fields(strings.ToLower(lines[0]))
	data := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		data = append(data, strings.TrimRight(line, "\r"))
	}
	return header, data, nil
}
