package termui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	// Raising notices
	Message     key.Binding
	Warning     key.Binding
	Alert       key.Binding
	Confirm     key.Binding
	Prompt      key.Binding
	Loading     key.Binding
	HideLoading key.Binding
	Succeed     key.Binding
	Popup       key.Binding

	// Answering the active modal
	Yes    key.Binding
	No     key.Binding
	Submit key.Binding
	Cancel key.Binding

	// Housekeeping
	Dismiss key.Binding
	Clear   key.Binding
	Copy    key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Message, k.Confirm, k.Prompt, k.Loading, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Message, k.Warning, k.Alert, k.Succeed},
		{k.Confirm, k.Prompt, k.Popup, k.Loading, k.HideLoading},
		{k.Yes, k.No, k.Submit, k.Cancel},
		{k.Dismiss, k.Clear, k.Copy, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Message: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "message"),
		),
		Warning: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "warning"),
		),
		Alert: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "alert"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "confirm"),
		),
		Prompt: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "prompt"),
		),
		Loading: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "show loading"),
		),
		HideLoading: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "hide loading"),
		),
		Succeed: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "succeed"),
		),
		Popup: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "popup"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		No: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dismiss newest"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear closed"),
		),
		Copy: key.NewBinding(
			key.WithKeys("Y"),
			key.WithHelp("Y", "copy newest"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
