// Package termui renders a notification container in the terminal with
// BubbleTea and lipgloss.
package termui

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/noticeboard/internal/model"
)

// RenderProps carries per-frame state the notification itself does not know.
type RenderProps struct {
	Now     time.Time // Reference time for countdowns
	Spinner string    // Current spinner frame for loading notices
	Input   string    // Rendered text input for an active prompt
	Error   string    // Validation message for an active prompt
}

// Renderer draws single notifications as lipgloss boxes.
type Renderer struct {
	width     int
	showIcons bool
}

// NewRenderer creates a renderer producing boxes width cells wide.
func NewRenderer(width int, showIcons bool) *Renderer {
	if width <= 0 {
		width = 48
	}
	return &Renderer{width: width, showIcons: showIcons}
}

// Width returns the box width.
func (r *Renderer) Width() int { return r.width }

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// kindColor returns the accent colour for a kind.
func kindColor(kind model.Kind) lipgloss.Color {
	switch kind {
	case model.KindError, model.KindDanger:
		return lipgloss.Color("9")
	case model.KindWarning:
		return lipgloss.Color("11")
	case model.KindSuccess:
		return lipgloss.Color("10")
	case model.KindInfo:
		return lipgloss.Color("12")
	case model.KindConfirm, model.KindPrompt:
		return lipgloss.Color("13")
	default:
		return lipgloss.Color("7")
	}
}

// Icon returns the glyph drawn in front of the title.
func Icon(kind model.Kind) string {
	switch kind {
	case model.KindLoading:
		return "…"
	case model.KindConfirm:
		return "?"
	case model.KindPrompt:
		return "›"
	case model.KindError:
		return "✗"
	case model.KindSuccess:
		return "✓"
	case model.KindWarning:
		return "!"
	case model.KindInfo:
		return "i"
	case model.KindDanger:
		return "‼"
	default:
		return "•"
	}
}

// Render draws n. Closed notifications render as an empty string.
func (r *Renderer) Render(n *model.Notification, props RenderProps) string {
	if n == nil || !n.IsOpen() {
		return ""
	}
	if props.Now.IsZero() {
		props.Now = time.Now()
	}

	var lines []string

	if header := r.header(n, props); header != "" {
		lines = append(lines, titleStyle.Foreground(kindColor(n.Kind())).Render(header))
	}
	if body := n.Content().String(); body != "" {
		lines = append(lines, body)
	}

	if setup := n.RenderSetup(); setup != nil {
		lines = append(lines, renderProperties(setup(map[string]any{"width": r.width}))...)
	}

	switch n.Kind() {
	case model.KindConfirm:
		if n.RenderSetup() == nil {
			lines = append(lines, dimStyle.Render("[y] yes  [n] no"))
		} else {
			lines = append(lines, dimStyle.Render("[enter] close"))
		}
	case model.KindPrompt:
		if props.Input != "" {
			lines = append(lines, props.Input)
		}
		if props.Error != "" {
			lines = append(lines, errorStyle.Render(props.Error))
		}
	}

	if countdown := Countdown(n, props.Now); countdown != "" {
		lines = append(lines, dimStyle.Render(countdown))
	}

	return r.boxStyle(n).Render(strings.Join(lines, "\n"))
}

// header joins the icon and the title. Without a title the kind name is used
// for modals so the box is never anonymous.
func (r *Renderer) header(n *model.Notification, props RenderProps) string {
	title := n.Title().String()
	if title == "" && n.IsModal() {
		title = strings.ToUpper(n.Kind().String()[:1]) + n.Kind().String()[1:]
	}

	if !r.showIcons || !n.ShowIcon() {
		return title
	}

	icon := Icon(n.Kind())
	if n.Kind() == model.KindLoading && props.Spinner != "" {
		icon = props.Spinner
	}
	if title == "" {
		return icon
	}
	return icon + " " + title
}

func (r *Renderer) boxStyle(n *model.Notification) lipgloss.Style {
	border := lipgloss.RoundedBorder()
	if n.IsModal() || n.Overlay() {
		border = lipgloss.DoubleBorder()
	}
	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(kindColor(n.Kind())).
		Padding(0, 1).
		Width(r.width)
}

// Countdown describes a pending delayed dismissal, such as
// "closes in 3 seconds". It is empty when nothing is armed.
func Countdown(n *model.Notification, now time.Time) string {
	due, pending := n.DismissPending()
	if !pending || due.IsZero() {
		return ""
	}
	rel := strings.TrimSpace(humanize.RelTime(now, due, "", ""))
	if rel == "now" || !due.After(now) {
		return "closing"
	}
	return "closes in " + rel
}

// renderProperties lists popup properties as sorted key: value lines.
func renderProperties(props map[string]any) []string {
	keys := slices.Sorted(maps.Keys(props))
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, props[k]))
	}
	return lines
}
