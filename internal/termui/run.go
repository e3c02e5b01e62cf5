package termui

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/noticeboard/internal/config"
	"github.com/jmylchreest/noticeboard/internal/container"
)

// RunOptions configures the TUI.
type RunOptions struct {
	Config     *config.Config
	Logger     *slog.Logger
	Observers  []container.Observer // Extra observers, such as the desktop bridge
	ConfigPath string               // Config file to watch (empty = no watching)
}

// Run builds a container from the options and runs the TUI until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, opts RunOptions) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sub := NewSubscription()
	observers := append([]container.Observer{sub.Observe}, opts.Observers...)
	c := container.New(container.Tee(observers...),
		container.WithLogger(logger),
		container.WithDebounce(cfg.Container.Debounce.Duration()),
		container.WithMessageTimespan(cfg.Container.MessageTimespan.Duration()),
	)
	defer c.Dispose()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, c, sub, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if opts.ConfigPath != "" {
		watcher, err := config.NewWatcher(opts.ConfigPath, func(cfg *config.Config) {
			p.Send(configMsg{cfg: cfg})
		}, func(err error) {
			p.Send(statusMsg{text: "Config reload failed: " + err.Error(), isErr: true})
		}, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else if err := watcher.Start(); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
