package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"

	"github.com/archcrafter/loom/internal/model"
)

// DmenuFormatter formats items for dmenu/rofi/fuzzel.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	f := &DmenuFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("dmenu").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes items in dmenu format (one per line).
func (f *DmenuFormatter) Format(w io.Writer, items []model.Item) error {
	for i := range items {
		line := f.formatLine(i+1, &items[i])
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single item line.
func (f *DmenuFormatter) formatLine(index int, item *model.Item) string {
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, newTemplateData(index, item)); err == nil {
			return buf.String()
		}
	}

	// Default format: [index] [*] title [| name]
	var parts []string
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", index))
	}

	title := truncate(singleLine(item.Title()), f.opts.MaxWidth)
	if item.Current {
		title = "* " + title
	}
	parts = append(parts, title)

	if item.Display != "" && item.Display != item.Name {
		parts = append(parts, item.Name)
	}

	return strings.Join(parts, sep)
}

// templateData provides data for custom templates.
type templateData struct {
	Index        int
	Item         *model.Item
	RelativeTime string
	Size         string
}

func newTemplateData(index int, item *model.Item) templateData {
	data := templateData{
		Index:        index,
		Item:         item,
		RelativeTime: relativeTime(item.ModTime),
	}
	if item.Size > 0 {
		data.Size = humanize.Bytes(uint64(item.Size))
	}
	return data
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"reltime":  relativeTime,
		"bytes": func(n int64) string {
			if n <= 0 {
				return ""
			}
			return humanize.Bytes(uint64(n))
		},
		"join": strings.Join,
		"mark": func(current bool) string {
			if current {
				return "*"
			}
			return " "
		},
	}
}

// relativeTime returns a human-readable age such as "3 days ago".
func relativeTime(unix int64) string {
	if unix == 0 {
		return "unknown"
	}
	return humanize.Time(timeFromUnix(unix))
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// singleLine replaces newlines and collapses runs of spaces.
func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.Join(strings.Fields(s), " ")
}
