package termui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/noticeboard/internal/container"
	"github.com/jmylchreest/noticeboard/internal/model"
)

func plainRender(n *model.Notification) string {
	return "[" + n.Content().String() + "]"
}

func TestLayout_Rows(t *testing.T) {
	c, _ := newTestContainer(t)

	add := func(text string, align model.Align) *model.Notification {
		n, err := c.Message(model.KindInfo, model.Text(text), container.WithAlign(align))
		require.NoError(t, err)
		return n
	}
	add("top-left", model.AlignTopLeft)
	add("top-right", model.AlignTopRight)
	add("center", model.AlignCenter)
	add("bottom-center", model.AlignBottomCenter)
	_, err := c.Confirm(model.Text("modal"))
	require.NoError(t, err)

	out := Layout{Width: 90}.Render(c, plainRender)

	positions := make([]int, 0, 5)
	for _, text := range []string{"[top-left]", "[top-right]", "[modal]", "[center]", "[bottom-center]"} {
		idx := strings.Index(out, text)
		require.NotEqual(t, -1, idx, "missing %s in\n%s", text, out)
		positions = append(positions, idx)
	}
	for i := 1; i < len(positions); i++ {
		assert.Less(t, positions[i-1], positions[i])
	}

	// top-left and top-right share a line.
	firstLine := strings.SplitN(out, "\n", 2)[0]
	assert.Contains(t, firstLine, "[top-left]")
	assert.Contains(t, firstLine, "[top-right]")
}

func TestLayout_SkipsClosedAndCaps(t *testing.T) {
	c, _ := newTestContainer(t)

	var first *model.Notification
	for i := 0; i < 5; i++ {
		n, err := c.Message(model.KindInfo, model.Text(strings.Repeat("x", i+1)))
		require.NoError(t, err)
		if first == nil {
			first = n
		}
	}
	first.Dismiss(0)

	out := Layout{Width: 90, MaxPerAlign: 2}.Render(c, plainRender)
	assert.NotContains(t, out, "[x]")
	assert.Contains(t, out, "[xx]")
	assert.Contains(t, out, "[xxx]")
	assert.NotContains(t, out, "[xxxx]")
	assert.Contains(t, out, "+2 more")
}

func TestLayout_Empty(t *testing.T) {
	c, _ := newTestContainer(t)
	assert.Empty(t, Layout{Width: 90}.Render(c, plainRender))

	_, err := c.Confirm(model.Text("only modal"))
	require.NoError(t, err)
	c.ActiveModal().Dismiss(0)
	assert.Empty(t, Layout{Width: 90}.Render(c, plainRender))
}
