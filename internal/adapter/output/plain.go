package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/archcrafter/loom/internal/model"
)

// PlainFormatter formats items as an aligned table.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes items as plain text.
func (f *PlainFormatter) Format(w io.Writer, items []model.Item) error {
	if f.template != nil {
		for i := range items {
			if err := f.template.Execute(w, newTemplateData(i+1, &items[i])); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !f.opts.NoHeader {
		fmt.Fprintln(tw, strings.Join(f.columns(), "\t"))
	}
	for i := range items {
		fmt.Fprintln(tw, strings.Join(f.row(i+1, &items[i]), "\t"))
	}
	return tw.Flush()
}

func (f *PlainFormatter) columns() []string {
	var cols []string
	if f.opts.ShowIndex {
		cols = append(cols, "#")
	}
	cols = append(cols, "", "NAME", "TITLE")
	if f.opts.ShowDetails {
		cols = append(cols, "DETAILS")
	}
	if f.opts.ShowColors {
		cols = append(cols, "COLORS")
	}
	return cols
}

func (f *PlainFormatter) row(index int, item *model.Item) []string {
	var cells []string
	if f.opts.ShowIndex {
		cells = append(cells, fmt.Sprintf("%d", index))
	}
	mark := ""
	if item.Current {
		mark = "*"
	}
	cells = append(cells, mark, item.Name, truncate(singleLine(item.Title()), f.opts.MaxWidth))
	if f.opts.ShowDetails {
		cells = append(cells, details(item))
	}
	if f.opts.ShowColors {
		cells = append(cells, strings.Join(item.Colors, " "))
	}
	return cells
}

// details summarizes the item: size and age for files, otherwise the comment.
func details(item *model.Item) string {
	var parts []string
	if item.Size > 0 {
		parts = append(parts, humanize.Bytes(uint64(item.Size)))
	}
	if item.ModTime > 0 {
		parts = append(parts, relativeTime(item.ModTime))
	}
	if item.Comment != "" {
		parts = append(parts, singleLine(item.Comment))
	}
	if item.Dark {
		parts = append(parts, "dark")
	}
	if item.Colorized {
		parts = append(parts, "colorized")
	}
	return strings.Join(parts, ", ")
}

func timeFromUnix(unix int64) time.Time {
	return time.Unix(unix, 0)
}

// FormatField outputs a specific field from an item.
func FormatField(item *model.Item, field string) string {
	switch strings.ToLower(field) {
	case "name", "id":
		return item.Name
	case "title", "display":
		return item.Title()
	case "path":
		return item.Path
	case "kind", "type":
		return item.Kind
	case "comment":
		return item.Comment
	case "colors", "palette":
		return strings.Join(item.Colors, " ")
	case "current":
		return fmt.Sprintf("%t", item.Current)
	case "size":
		if item.Size <= 0 {
			return ""
		}
		return humanize.Bytes(uint64(item.Size))
	default:
		return item.Name
	}
}
