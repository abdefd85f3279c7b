package core

import "strings"

// Record is one data row zipped with the header row.
type Record struct {
	Line   int
	values map[string]string // keyed by header as written
	index  map[string]string // lower-cased header -> header as written
}

// NewRecord builds a record from header names and parsed field values.
// Missing trailing values default to the empty string; extra values are ignored.
func NewRecord(line int, headers, fields []string) Record {
	r := Record{
		Line:   line,
		values: make(map[string]string, len(headers)),
		index:  make(map[string]string, len(headers)),
	}
	for i, h := range headers {
		v := ""
		if i < len(fields) {
			v = fields[i]
		}
		r.values[h] = v
		r.index[strings.ToLower(h)] = h
	}
	return r
}

// Get returns the trimmed value of a column, matched case-insensitively.
// Unknown columns yield "".
func (r Record) Get(name string) string {
	h, ok := r.index[strings.ToLower(name)]
	if !ok {
		return ""
	}
	return strings.TrimSpace(r.values[h])
}

// Has reports whether the column is present in the header row.
func (r Record) Has(name string) bool {
	_, ok := r.index[strings.ToLower(name)]
	return ok
}

// Raw returns a copy of the field values keyed by header name.
func (r Record) Raw() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
