package output

import (
	"fmt"
	"io"
	"strings"
)

// FieldFormatter outputs a single field per record, one per line.
// Useful for piping to other commands.
type FieldFormatter struct {
	field string
}

// NewFieldFormatter creates a formatter printing field.
func NewFieldFormatter(field string) *FieldFormatter {
	return &FieldFormatter{field: field}
}

// Format writes the field of each record on its own line.
func (f *FieldFormatter) Format(w io.Writer, records []Record) error {
	for i := range records {
		if _, err := fmt.Fprintln(w, FormatField(&records[i], f.field)); err != nil {
			return err
		}
	}
	return nil
}

// FormatField outputs a specific field from a record.
func FormatField(r *Record, field string) string {
	switch strings.ToLower(field) {
	case "id":
		return r.ID
	case "event":
		return r.Event
	case "kind":
		return r.Kind
	case "align":
		return r.Align
	case "title":
		return r.Title
	case "content":
		return r.Content
	case "all", "full":
		return fmt.Sprintf("%s\n%s", r.Title, r.Content)
	default:
		return r.Content
	}
}
