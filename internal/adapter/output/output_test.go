package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/noticeboard/internal/container"
	"github.com/jmylchreest/noticeboard/internal/model"
	"github.com/jmylchreest/noticeboard/internal/timer"
)

var testStart = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testRecords() []Record {
	return []Record{
		{
			ID:         "01HX0000000000000000000001",
			Event:      EventAdd,
			Kind:       "info",
			Align:      "top-right",
			Title:      "CI",
			Content:    "Build finished",
			Open:       true,
			TimespanMS: 5000,
			At:         testStart,
		},
		{
			ID:      "01HX0000000000000000000002",
			Event:   EventDismiss,
			Kind:    "confirm",
			Align:   "unknown",
			Content: "Deploy now?",
			Modal:   true,
			At:      testStart.Add(3 * time.Second),
		},
	}
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.Since = testStart
	formatter := NewPlainFormatter(opts)
	require.NoError(t, formatter.Format(&buf, testRecords()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1 | start | add info@top-right | CI: Build finished", lines[0])
	assert.Equal(t, "2 | 3 seconds after start | dismiss confirm@unknown | Deploy now?", lines[1])
}

func TestPlainFormatter_IndexContinuesAcrossBatches(t *testing.T) {
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.ShowTime = false
	formatter := NewPlainFormatter(opts)
	records := testRecords()
	require.NoError(t, formatter.Format(&buf, records[:1]))
	require.NoError(t, formatter.Format(&buf, records[1:]))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "2 | "))
}

func TestPlainFormatter_NoIndex(t *testing.T) {
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.ShowIndex = false
	formatter := NewPlainFormatter(opts)
	require.NoError(t, formatter.Format(&buf, testRecords()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// Should not start with a number when index is disabled
	assert.False(t, strings.HasPrefix(lines[0], "1"))
}

func TestPlainFormatter_CustomTemplate(t *testing.T) {
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.Template = "{{.Index}}: {{stateIcon .Record.Open}} {{.Record.Kind}} - {{.Record.Content}}"
	formatter := NewPlainFormatter(opts)
	require.NoError(t, formatter.Format(&buf, testRecords()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "1: o info - Build finished", lines[0])
	assert.Equal(t, "2: x confirm - Deploy now?", lines[1])
}

func TestPlainFormatter_TruncateContent(t *testing.T) {
	records := []Record{
		{
			Event:   EventAdd,
			Kind:    "default",
			Align:   "top-left",
			Content: "This is a very long body that should be truncated when the max length is set",
			At:      time.Now(),
		},
	}
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.ContentMaxLen = 20
	formatter := NewPlainFormatter(opts)
	require.NoError(t, formatter.Format(&buf, records))

	out := buf.String()
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "now")
	assert.NotContains(t, out, "truncated when the max length is set")
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	formatter := NewJSONFormatter(DefaultFormatterOptions())
	require.NoError(t, formatter.Format(&buf, testRecords()))

	// One JSON object per line
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "Build finished", first.Content)
	assert.Equal(t, int64(5000), first.TimespanMS)
	assert.True(t, first.At.Equal(testStart))

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "dismiss", second["event"])
	assert.NotContains(t, second, "title")
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	formatter := NewYAMLFormatter(DefaultFormatterOptions())
	records := testRecords()
	require.NoError(t, formatter.Format(&buf, records[:1]))
	require.NoError(t, formatter.Format(&buf, records[1:]))
	require.NoError(t, formatter.Format(&buf, nil))

	dec := yaml.NewDecoder(&buf)
	var docs [][]Record
	for {
		var batch []Record
		if err := dec.Decode(&batch); err != nil {
			break
		}
		docs = append(docs, batch)
	}
	require.Len(t, docs, 2)
	assert.Equal(t, "CI", docs[0][0].Title)
	assert.Equal(t, "confirm", docs[1][0].Kind)
}

func TestFieldFormatter(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewFormatter(FormatIDs, DefaultFormatterOptions()).Format(&buf, testRecords()))
	assert.Equal(t, "01HX0000000000000000000001\n01HX0000000000000000000002\n", buf.String())
}

func TestFormatField(t *testing.T) {
	r := &testRecords()[0]

	tests := []struct {
		field    string
		expected string
	}{
		{"id", "01HX0000000000000000000001"},
		{"event", "add"},
		{"kind", "info"},
		{"align", "top-right"},
		{"title", "CI"},
		{"content", "Build finished"},
		{"all", "CI\nBuild finished"},
		{"unknown", "Build finished"}, // defaults to content
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatField(r, tt.field))
		})
	}
}

func TestNewFormatter(t *testing.T) {
	opts := DefaultFormatterOptions()

	t.Run("plain", func(t *testing.T) {
		_, ok := NewFormatter(FormatPlain, opts).(*PlainFormatter)
		assert.True(t, ok)
	})

	t.Run("json", func(t *testing.T) {
		_, ok := NewFormatter(FormatJSON, opts).(*JSONFormatter)
		assert.True(t, ok)
	})

	t.Run("yaml", func(t *testing.T) {
		_, ok := NewFormatter(FormatYAML, opts).(*YAMLFormatter)
		assert.True(t, ok)
	})

	t.Run("ids", func(t *testing.T) {
		_, ok := NewFormatter(FormatIDs, opts).(*FieldFormatter)
		assert.True(t, ok)
	})

	t.Run("default", func(t *testing.T) {
		_, ok := NewFormatter("unknown", opts).(*PlainFormatter)
		assert.True(t, ok) // defaults to plain
	})
}

func TestFormatType_Valid(t *testing.T) {
	for _, f := range Formats() {
		assert.True(t, f.Valid(), string(f))
	}
	assert.False(t, FormatType("dmenu").Valid())
}

func TestSanitizeContent(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		maxLen         int
		includeNewline bool
		expected       string
	}{
		{"simple", "hello world", 0, false, "hello world"},
		{"with newlines", "hello\nworld", 0, false, "hello world"},
		{"preserve newlines", "hello\nworld", 0, true, "hello\nworld"},
		{"truncate", "hello world", 8, false, "hello..."},
		{"multiple spaces", "hello   world", 0, false, "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeContent(tt.content, tt.maxLen, tt.includeNewline))
		})
	}
}

func TestFromEvents(t *testing.T) {
	clock := timer.NewFake(testStart)
	var batches [][]container.Event
	c := container.New(func(events []container.Event) {
		batches = append(batches, events)
	}, container.WithScheduler(clock))

	n, err := c.Message(model.KindWarning, model.Text("Low disk"),
		container.WithTitle(model.Text("Storage")), container.WithTimespan(2*time.Second))
	require.NoError(t, err)
	clock.Advance(2 * time.Second)

	require.Len(t, batches, 2)
	added := FromEvents(batches[0])
	require.Len(t, added, 1)
	assert.Equal(t, Record{
		ID:         n.ID(),
		Event:      EventAdd,
		Kind:       "warning",
		Align:      "top-left",
		Title:      "Storage",
		Content:    "Low disk",
		Open:       true,
		TimespanMS: 2000,
		At:         testStart,
	}, added[0])

	dismissed := FromEvents(batches[1])
	require.Len(t, dismissed, 1)
	assert.Equal(t, EventDismiss, dismissed[0].Event)
	assert.False(t, dismissed[0].Open)
	assert.Equal(t, testStart.Add(2*time.Second), dismissed[0].At)

	snap := FromNotifications(c.Notifications(model.AlignTopLeft), clock.Now())
	require.Len(t, snap, 1)
	assert.Equal(t, EventSnapshot, snap[0].Event)
	assert.False(t, snap[0].Open)
}
