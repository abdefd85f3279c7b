package core

import (
	"strings"
)

// ParsedRow is one data line after field splitting.
// Err is set when the line itself could not be split.
type ParsedRow struct {
	Line   int
	Text   string
	Fields []string
	Err    error
}

// ParsedFile is the header row plus every data row in file order.
type ParsedFile struct {
	Headers []string
	Rows    []ParsedRow
}

// SplitLines splits text on \n or \r\n and drops blank lines.
func SplitLines(content string) []string {
	raw := strings.Split(content, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// ParseRow splits one comma-delimited line into trimmed fields.
//
// A double quote toggles quoted state and is dropped from the output, so a
// comma between quotes is kept as data. A line ending inside quotes returns
// ErrUnterminatedQuote.
func ParseRow(line string) ([]string, error) {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuotes {
		return nil, ErrUnterminatedQuote
	}

	return append(fields, strings.TrimSpace(cur.String())), nil
}

// ParseContent splits decoded text into a header and data rows.
//
// The first non-blank line is the header. Row numbers count non-blank lines
// from 1, so the first data row is 2. An empty file returns ErrEmptyFile and
// a header that cannot be split or has no named column returns
// ErrUnreadableFile.
func ParseContent(content string) (ParsedFile, error) {
	lines := SplitLines(content)
	if len(lines) == 0 {
		return ParsedFile{}, ErrEmptyFile
	}

	headers, err := ParseRow(lines[0])
	if err != nil {
		return ParsedFile{}, ErrUnreadableFile
	}
	named := false
	for _, h := range headers {
		if h != "" {
			named = true
			break
		}
	}
	if !named {
		return ParsedFile{}, ErrUnreadableFile
	}

	rows := make([]ParsedRow, 0, len(lines)-1)
	for i, line := range lines[1:] {
		fields, err := ParseRow(line)
		rows = append(rows, ParsedRow{Line: i + 2, Text: line, Fields: fields, Err: err})
	}

	return ParsedFile{Headers: headers, Rows: rows}, nil
}
