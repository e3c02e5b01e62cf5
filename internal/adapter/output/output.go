// Package output provides output formatters for notification records.
package output

import (
	"io"
	"time"

	"github.com/jmylchreest/noticeboard/internal/container"
	"github.com/jmylchreest/noticeboard/internal/model"
)

// Formatter formats records for output.
type Formatter interface {
	// Format writes formatted records to the writer.
	Format(w io.Writer, records []Record) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatJSON  FormatType = "json"
	FormatPlain FormatType = "plain"
	FormatYAML  FormatType = "yaml"
	FormatIDs   FormatType = "ids"
)

// Formats returns every supported format type.
func Formats() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatIDs}
}

// Valid reports whether f is a supported format type.
func (f FormatType) Valid() bool {
	for _, known := range Formats() {
		if f == known {
			return true
		}
	}
	return false
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatIDs:
		return NewFieldFormatter("id")
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template       string    // Custom template for plain format
	ShowIndex      bool      // Show 1-based index prefix
	ShowTime       bool      // Show relative time
	ContentMaxLen  int       // Maximum content length (0 = unlimited)
	Separator      string    // Field separator for plain format
	IncludeNewline bool      // Include newlines in content (default: replace with space)
	Since          time.Time // Times are shown relative to this instant when set
}

// DefaultFormatterOptions returns sensible defaults for plain output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:      true,
		ShowTime:       true,
		ContentMaxLen:  80,
		Separator:      " | ",
		IncludeNewline: false,
	}
}

// Event names used in records.
const (
	EventAdd      = "add"
	EventDismiss  = "dismiss"
	EventSnapshot = "snapshot"
)

// Record is a plain snapshot of a notification at one moment.
type Record struct {
	ID         string    `json:"id" yaml:"id"`
	Event      string    `json:"event" yaml:"event"`
	Kind       string    `json:"kind" yaml:"kind"`
	Align      string    `json:"align" yaml:"align"`
	Title      string    `json:"title,omitempty" yaml:"title,omitempty"`
	Content    string    `json:"content" yaml:"content"`
	Open       bool      `json:"open" yaml:"open"`
	Modal      bool      `json:"modal" yaml:"modal"`
	TimespanMS int64     `json:"timespan_ms" yaml:"timespan_ms"`
	At         time.Time `json:"at" yaml:"at"`
}

// FromNotification snapshots n as of at.
func FromNotification(n *model.Notification, at time.Time) Record {
	return Record{
		ID:         n.ID(),
		Event:      EventSnapshot,
		Kind:       n.Kind().String(),
		Align:      n.Align().String(),
		Title:      n.Title().String(),
		Content:    n.Content().String(),
		Open:       n.IsOpen(),
		Modal:      n.IsModal() || n.Overlay(),
		TimespanMS: n.Timespan().Milliseconds(),
		At:         at,
	}
}

// FromEvent snapshots the notification an event refers to. Open follows
// the event rather than the notice's current state.
func FromEvent(e container.Event) Record {
	r := FromNotification(e.Notification, e.At)
	r.Event = EventAdd
	r.Open = true
	if e.Dismissed {
		r.Event = EventDismiss
		r.Open = false
	}
	return r
}

// FromEvents converts an event batch, keeping its order.
func FromEvents(events []container.Event) []Record {
	records := make([]Record, 0, len(events))
	for _, e := range events {
		if e.Notification == nil {
			continue
		}
		records = append(records, FromEvent(e))
	}
	return records
}

// FromNotifications snapshots a list of notifications as of at.
func FromNotifications(notifications []*model.Notification, at time.Time) []Record {
	records := make([]Record, 0, len(notifications))
	for _, n := range notifications {
		records = append(records, FromNotification(n, at))
	}
	return records
}
