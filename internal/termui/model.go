package termui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/noticeboard/internal/config"
	"github.com/jmylchreest/noticeboard/internal/container"
	"github.com/jmylchreest/noticeboard/internal/model"
	"github.com/jmylchreest/noticeboard/internal/timer"
)

// Model is the BubbleTea model hosting a notification container.
type Model struct {
	ctx       context.Context
	cfg       *config.Config
	container *container.Container
	sub       *Subscription

	// Components
	renderer *Renderer
	layout   Layout
	spinner  spinner.Model
	input    textinput.Model
	help     help.Model
	keys     KeyMap

	// Prompt bound to the text input, if any
	promptID  string
	promptErr string

	// State
	events   int
	seq      int
	showHelp bool
	width    int
	height   int
	ready    bool

	// Status message
	statusMsg string
	statusErr bool
}

// Messages posted to the program.
type (
	eventsMsg      []container.Event
	sweepMsg       time.Time
	configMsg      struct{ cfg *config.Config }
	clearStatusMsg struct{}
	copyResultMsg  struct{ err error }
	statusMsg      struct {
		text  string
		isErr bool
	}
)

// New creates a TUI model for c. sub must be registered as (one of) the
// container's observers.
func New(ctx context.Context, c *container.Container, sub *Subscription, cfg *config.Config) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	input := textinput.New()
	input.CharLimit = 120

	return Model{
		ctx:       ctx,
		cfg:       cfg,
		container: c,
		sub:       sub,
		renderer:  NewRenderer(cfg.UI.Width, cfg.UI.ShowIcons),
		layout:    Layout{MaxPerAlign: cfg.UI.MaxPerAlign},
		spinner:   sp,
		input:     input,
		help:      help.New(),
		keys:      DefaultKeyMap(),
	}
}

// Init starts the spinner, the event subscription and the sweep ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForEvents,
		m.scheduleSweep(),
	)
}

// waitForEvents blocks until the container reports events.
func (m Model) waitForEvents() tea.Msg {
	if m.sub == nil || !m.sub.Wait(m.ctx.Done()) {
		return nil
	}
	return eventsMsg(m.sub.Drain())
}

func (m Model) scheduleSweep() tea.Cmd {
	interval := m.cfg.Container.SweepInterval.Duration()
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return sweepMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	inputCmd := next.syncInput()
	return next, tea.Batch(cmd, inputCmd)
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout.Width = msg.Width
		m.layout.Height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case eventsMsg:
		m.events += len(msg)
		return m, m.waitForEvents

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sweepMsg:
		m.container.Clear()
		return m, m.scheduleSweep()

	case configMsg:
		m.applyConfig(msg.cfg)
		return m, setStatus("Configuration reloaded", false)

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, setStatus("Copy failed: "+msg.err.Error(), true)
		}
		return m, setStatus("Copied to clipboard", false)
	}

	if m.promptID != "" {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func setStatus(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// applyConfig pushes reloaded settings into the container and the view.
func (m *Model) applyConfig(cfg *config.Config) {
	m.cfg = cfg
	m.container.SetDebounce(cfg.Container.Debounce.Duration())
	m.container.SetMessageTimespan(cfg.Container.MessageTimespan.Duration())
	m.renderer = NewRenderer(cfg.UI.Width, cfg.UI.ShowIcons)
	m.layout.MaxPerAlign = cfg.UI.MaxPerAlign
}

// syncInput binds the text input to the active prompt, or releases it.
func (m *Model) syncInput() tea.Cmd {
	active := m.container.ActiveModal()
	if active != nil && active.Kind() == model.KindPrompt {
		if active.ID() == m.promptID {
			return nil
		}
		m.promptID = active.ID()
		m.promptErr = ""
		m.input.Reset()
		m.input.Placeholder = active.InputProps()["placeholder"]
		return m.input.Focus()
	}

	if m.promptID != "" {
		m.promptID = ""
		m.promptErr = ""
		m.input.Blur()
		m.input.Reset()
	}
	return nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// An active prompt owns the keyboard.
	if m.promptID != "" {
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	if active := m.container.ActiveModal(); active != nil {
		if handled, next, cmd := m.handleModalKey(active, msg); handled {
			return next, cmd
		}
	}

	return m.handleActionKey(msg)
}

// handleModalKey answers or closes the active modal.
func (m Model) handleModalKey(active *model.Notification, msg tea.KeyMsg) (bool, Model, tea.Cmd) {
	switch active.Kind() {
	case model.KindConfirm:
		popup := active.RenderSetup() != nil
		switch {
		case !popup && key.Matches(msg, m.keys.Yes):
			return true, m, m.answer(active, true)
		case !popup && key.Matches(msg, m.keys.No):
			return true, m, m.answer(active, false)
		case popup && key.Matches(msg, m.keys.Submit):
			active.Dismiss(0)
			return true, m, nil
		}
	case model.KindLoading:
		if key.Matches(msg, m.keys.Cancel) {
			m.container.HideLoading(true)
			return true, m, setStatus("Loading cancelled", false)
		}
	}

	if key.Matches(msg, m.keys.Cancel) {
		active.Dismiss(0)
		return true, m, nil
	}
	return false, m, nil
}

// answer hands value to a confirm and reports the outcome.
func (m Model) answer(n *model.Notification, value bool) tea.Cmd {
	if _, err := n.ReturnValue(m.ctx, value); err != nil {
		return setStatus("Answer failed: "+err.Error(), true)
	}
	if value {
		return setStatus("Confirmed", false)
	}
	return setStatus("Declined", false)
}

// handlePromptKey feeds the text input and submits or cancels the prompt.
func (m Model) handlePromptKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	active := m.container.GetByID(m.promptID)
	if active == nil || !active.IsOpen() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		value := m.input.Value()
		result, err := active.ReturnValue(m.ctx, value)
		if err != nil {
			return m, setStatus("Answer failed: "+err.Error(), true)
		}
		if result.Suppressed {
			m.promptErr = result.ErrorMessage
			return m, nil
		}
		return m, setStatus(fmt.Sprintf("Hello, %s", strings.TrimSpace(value)), false)

	case key.Matches(msg, m.keys.Cancel):
		active.Dismiss(0)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.promptErr = ""
	return m, cmd
}

// messageAligns lists the placements a demo message cycles through.
var messageAligns = []model.Align{
	model.AlignTopRight,
	model.AlignTopLeft,
	model.AlignTopCenter,
	model.AlignBottomRight,
	model.AlignBottomLeft,
	model.AlignBottomCenter,
	model.AlignCenter,
}

// handleActionKey raises demo notifications.
func (m Model) handleActionKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	c := m.container
	var err error

	switch {
	case key.Matches(msg, m.keys.Message):
		m.seq++
		align := messageAligns[(m.seq-1)%len(messageAligns)]
		_, err = c.Message(model.KindInfo, model.Text(fmt.Sprintf("Message #%d", m.seq)),
			container.WithAlign(align))

	case key.Matches(msg, m.keys.Warning):
		m.seq++
		_, err = c.Message(model.KindWarning, model.Text(fmt.Sprintf("Warning #%d", m.seq)),
			container.WithTitle(model.Text("Heads up")),
			container.WithAlign(model.AlignTopRight),
			container.WithTop(true))

	case key.Matches(msg, m.keys.Alert):
		_, err = c.Alert(model.Text("Something went wrong."), container.WithTitle(model.Text("Error")))

	case key.Matches(msg, m.keys.Confirm):
		_, err = c.Confirm(model.Text("Proceed with the deployment?"))

	case key.Matches(msg, m.keys.Prompt):
		_, err = c.Prompt(model.Text("What is your name?"), model.RequireText,
			container.WithInputProps(map[string]string{"placeholder": "your name"}))

	case key.Matches(msg, m.keys.Loading):
		err = c.ShowLoading(model.Text("Working..."))

	case key.Matches(msg, m.keys.HideLoading):
		c.HideLoading(false)

	case key.Matches(msg, m.keys.Succeed):
		_, err = c.Succeed(model.Text("All done."), container.WithTimespan(3*time.Second))

	case key.Matches(msg, m.keys.Popup):
		_, err = c.Popup(model.Text("Build summary"), map[string]any{
			"passed":  42,
			"failed":  0,
			"skipped": 3,
		})

	case key.Matches(msg, m.keys.Dismiss):
		if n := newestMessage(c); n != nil {
			n.Dismiss(0)
		}

	case key.Matches(msg, m.keys.Clear):
		removed := c.Clear()
		return m, setStatus(fmt.Sprintf("Cleared %d closed notifications", removed), false)

	case key.Matches(msg, m.keys.Copy):
		n := c.ActiveModal()
		if n == nil {
			n = newestMessage(c)
		}
		if n == nil {
			return m, nil
		}
		return m, m.copyToClipboard(n.Content().String())
	}

	if err != nil {
		return m, setStatus(err.Error(), true)
	}
	return m, nil
}

// newestMessage returns the most recently created open message.
func newestMessage(c *container.Container) *model.Notification {
	var newest *model.Notification
	for _, a := range model.Aligns() {
		if a == model.AlignUnknown {
			continue
		}
		for _, n := range c.Notifications(a) {
			if !n.IsOpen() {
				continue
			}
			if newest == nil || n.CreatedAt().After(newest.CreatedAt()) {
				newest = n
			}
		}
	}
	return newest
}

// copyToClipboard copies text to the system clipboard.
func (m Model) copyToClipboard(text string) tea.Cmd {
	command := m.cfg.UI.ClipboardCommand
	ctx := m.ctx
	return func() tea.Msg {
		return copyResultMsg{err: copyText(ctx, text, command)}
	}
}

// renderNotice renders one notification with the frame's props.
func (m Model) renderNotice(n *model.Notification) string {
	props := RenderProps{
		Now:     timer.Now(m.container.Scheduler()),
		Spinner: m.spinner.View(),
	}
	if n.ID() == m.promptID {
		props.Input = m.input.View()
		props.Error = m.promptErr
	}
	return m.renderer.Render(n, props)
}

var statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	body := m.layout.Render(m.container, m.renderNotice)
	if m.height > 2 {
		body = lipgloss.PlaceVertical(m.height-2, lipgloss.Top, body)
	}

	var status string
	switch {
	case m.statusMsg != "" && m.statusErr:
		status = errorStyle.Render(m.statusMsg)
	case m.statusMsg != "":
		status = m.statusMsg
	default:
		status = statusStyle.Render(fmt.Sprintf("%d notices  %d events  loading %d",
			m.container.Len(), m.events, m.container.LoadingCount()))
	}

	m.help.ShowAll = m.showHelp
	return body + "\n" + status + "\n" + m.help.View(m.keys)
}
