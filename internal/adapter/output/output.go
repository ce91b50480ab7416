// Package output provides output formatters for listing rows.
package output

import (
	"io"

	"github.com/archcrafter/loom/internal/model"
)

// Formatter formats items for output.
type Formatter interface {
	// Format writes formatted items to the writer.
	Format(w io.Writer, items []model.Item) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatDmenu FormatType = "dmenu"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatPlain FormatType = "plain"
	FormatNames FormatType = "names"
	FormatPaths FormatType = "paths"
)

// FormatTypes lists the accepted --format values.
var FormatTypes = []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatDmenu, FormatNames, FormatPaths}

// NewFormatter creates a formatter for the specified format type.
// A Template in opts takes over plain and dmenu line rendering.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter()
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatNames:
		return NewFieldFormatter("name")
	case FormatPaths:
		return NewFieldFormatter("path")
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template    string // Custom per-item template for dmenu/plain format
	ShowIndex   bool   // Show 1-based index prefix
	ShowColors  bool   // Show palette swatches when present
	ShowDetails bool   // Show size, age or comment column
	MaxWidth    int    // Maximum title length (0 = unlimited)
	Separator   string // Field separator for dmenu format
	NoHeader    bool   // Omit the plain table header
}

// DefaultFormatterOptions returns sensible defaults for terminal output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:   false,
		ShowColors:  true,
		ShowDetails: true,
		MaxWidth:    60,
		Separator:   " | ",
	}
}
