package termui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/noticeboard/internal/model"
)

// Source is the read side of a notification container.
type Source interface {
	Notifications(align model.Align) []*model.Notification
	ActiveModal() *model.Notification
}

// Layout arranges the alignment buckets on screen: a top row, the center
// column (with the open modal above any centered messages) and a bottom row.
type Layout struct {
	Width       int
	Height      int
	MaxPerAlign int // 0 shows every open notice
}

var rows = [][3]model.Align{
	{model.AlignTopLeft, model.AlignTopCenter, model.AlignTopRight},
	{model.AlignBottomLeft, model.AlignBottomCenter, model.AlignBottomRight},
}

// Render draws every open notification in src using render.
func (l Layout) Render(src Source, render func(*model.Notification) string) string {
	width := l.Width
	if width <= 0 {
		width = 120
	}
	colWidth := width / 3

	var sections []string

	if top := l.row(src, rows[0], colWidth, render); top != "" {
		sections = append(sections, top)
	}

	var middle []string
	if modal := src.ActiveModal(); modal != nil {
		middle = append(middle, render(modal))
	}
	middle = append(middle, l.column(src, model.AlignCenter, render)...)
	if len(middle) > 0 {
		block := lipgloss.JoinVertical(lipgloss.Center, middle...)
		sections = append(sections, lipgloss.PlaceHorizontal(width, lipgloss.Center, block))
	}

	if bottom := l.row(src, rows[1], colWidth, render); bottom != "" {
		sections = append(sections, bottom)
	}

	return strings.Join(sections, "\n")
}

// row renders three aligned columns side by side.
func (l Layout) row(src Source, aligns [3]model.Align, colWidth int, render func(*model.Notification) string) string {
	positions := [3]lipgloss.Position{lipgloss.Left, lipgloss.Center, lipgloss.Right}

	empty := true
	cols := make([]string, 3)
	for i, a := range aligns {
		items := l.column(src, a, render)
		if len(items) > 0 {
			empty = false
		}
		block := lipgloss.JoinVertical(positions[i], items...)
		cols[i] = lipgloss.PlaceHorizontal(colWidth, positions[i], block)
	}
	if empty {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// column renders the open notices of one bucket in bucket order,
// capped at MaxPerAlign with a trailing "+N more" line.
func (l Layout) column(src Source, align model.Align, render func(*model.Notification) string) []string {
	var open []*model.Notification
	for _, n := range src.Notifications(align) {
		if n.IsOpen() {
			open = append(open, n)
		}
	}

	shown := open
	if l.MaxPerAlign > 0 && len(open) > l.MaxPerAlign {
		shown = open[:l.MaxPerAlign]
	}

	out := make([]string, 0, len(shown)+1)
	for _, n := range shown {
		if s := render(n); s != "" {
			out = append(out, s)
		}
	}
	if hidden := len(open) - len(shown); hidden > 0 {
		out = append(out, dimStyle.Render(fmt.Sprintf("+%d more", hidden)))
	}
	return out
}
