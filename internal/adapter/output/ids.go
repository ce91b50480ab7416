package output

import (
	"fmt"
	"io"

	"github.com/archcrafter/loom/internal/model"
)

// FieldFormatter outputs a single field per item, one per line.
// Useful for piping names or paths to other commands.
type FieldFormatter struct {
	field string
}

// NewFieldFormatter creates a formatter for one field (see FormatField).
func NewFieldFormatter(field string) *FieldFormatter {
	return &FieldFormatter{field: field}
}

// Format writes the field of each item. Items with an empty value are skipped.
func (f *FieldFormatter) Format(w io.Writer, items []model.Item) error {
	for i := range items {
		value := FormatField(&items[i], f.field)
		if value == "" {
			continue
		}
		if _, err := fmt.Fprintln(w, value); err != nil {
			return err
		}
	}
	return nil
}
