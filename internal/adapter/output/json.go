package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/archcrafter/loom/internal/model"
)

// JSONFormatter formats items as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes items as a JSON array. A nil slice is written as [].
func (f *JSONFormatter) Format(w io.Writer, items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}
	return WriteJSON(w, items)
}

// WriteJSON writes any value as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// YAMLFormatter formats items as a YAML sequence.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes items as YAML.
func (f *YAMLFormatter) Format(w io.Writer, items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}
	return WriteYAML(w, items)
}

// WriteYAML writes any value as YAML with two-space indentation.
func WriteYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
