package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Template renders the CSV template of a kind: the header row in column
// order followed by one example row.
func Template(kind ImportKind) ([]byte, error) {
	def, ok := Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(def.Info.Columns); err != nil {
		return nil, fmt.Errorf("write template header: %w", err)
	}
	if len(def.Info.Example) > 0 {
		if err := w.Write(def.Info.Example); err != nil {
			return nil, fmt.Errorf("write template example: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush template: %w", err)
	}
	return buf.Bytes(), nil
}

// TemplateFileName is the download name of a kind's template.
func TemplateFileName(kind ImportKind) string {
	return "plantilla_" + string(kind) + ".csv"
}
