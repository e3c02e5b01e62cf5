package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
)

// PlainFormatter formats records as one line each.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
	index    int
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(f.templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes records as plain text. The index keeps counting across
// calls so a stream of batches is numbered continuously.
func (f *PlainFormatter) Format(w io.Writer, records []Record) error {
	for i := range records {
		f.index++
		if _, err := fmt.Fprintln(w, f.formatLine(f.index, &records[i])); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single record line.
func (f *PlainFormatter) formatLine(index int, r *Record) string {
	// Use custom template if available
	if f.template != nil {
		var buf strings.Builder
		data := templateData{
			Index:        index,
			Record:       r,
			RelativeTime: f.relativeTime(r.At),
		}
		if err := f.template.Execute(&buf, data); err == nil {
			return buf.String()
		}
	}

	// Default format: index | time | event kind@align | title: content
	var parts []string
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", index))
	}

	if f.opts.ShowTime {
		parts = append(parts, f.relativeTime(r.At))
	}

	parts = append(parts, fmt.Sprintf("%s %s@%s", r.Event, r.Kind, r.Align))

	content := sanitizeContent(r.Content, f.opts.ContentMaxLen, f.opts.IncludeNewline)
	if r.Title != "" {
		content = r.Title + ": " + content
	}
	parts = append(parts, content)

	return strings.Join(parts, sep)
}

// templateData provides data for custom templates.
type templateData struct {
	Index        int
	Record       *Record
	RelativeTime string
}

// templateFuncs returns template helper functions.
func (f *PlainFormatter) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			if maxLen <= 0 || len(s) <= maxLen {
				return s
			}
			if maxLen <= 3 {
				return s[:maxLen]
			}
			return s[:maxLen-3] + "..."
		},
		"reltime": f.relativeTime,
		"stateIcon": func(open bool) string {
			if open {
				return "o"
			}
			return "x"
		},
	}
}

// relativeTime describes t relative to opts.Since, or to the wall clock
// when Since is unset.
func (f *PlainFormatter) relativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	if f.opts.Since.IsZero() {
		return humanize.Time(t)
	}
	if t.Equal(f.opts.Since) {
		return "start"
	}
	return humanize.RelTime(f.opts.Since, t, "after start", "before start")
}

// sanitizeContent cleans up content text for single-line display.
func sanitizeContent(content string, maxLen int, includeNewline bool) string {
	// Replace newlines with spaces unless explicitly included
	if !includeNewline {
		content = strings.ReplaceAll(content, "\n", " ")
		content = strings.ReplaceAll(content, "\r", "")
	}

	// Collapse multiple spaces
	for strings.Contains(content, "  ") {
		content = strings.ReplaceAll(content, "  ", " ")
	}

	content = strings.TrimSpace(content)

	// Truncate if needed
	if maxLen > 0 && len(content) > maxLen {
		if maxLen <= 3 {
			return content[:maxLen]
		}
		return content[:maxLen-3] + "..."
	}

	return content
}
