package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/noticeboard/internal/config"
	"github.com/jmylchreest/noticeboard/internal/container"
	"github.com/jmylchreest/noticeboard/internal/desktop"
	"github.com/jmylchreest/noticeboard/internal/termui"
)

var demoOpts struct {
	watch   bool
	desktop bool
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Launch the interactive notification demo",
	Long: `Launch a terminal UI hosting a live notification container.

Key bindings:
  m / w       Raise a message / warning (cycles through alignments)
  a           Raise an alert
  c           Ask for confirmation (y/n to answer)
  p           Prompt for text (enter submits, esc cancels)
  o           Show a popup
  l / L       Show / hide loading (esc cancels all loading)
  s           Succeed
  d           Dismiss the newest message
  x           Clear closed notices
  Y           Copy the newest message to the clipboard
  ?           Show help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().BoolVar(&demoOpts.watch, "watch", false,
		"Reload the config file when it changes")
	demoCmd.Flags().BoolVar(&demoOpts.desktop, "desktop", false,
		"Mirror messages as desktop notifications (overrides desktop.enabled)")
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg := getConfig()

	var observers []container.Observer
	if cfg.Desktop.Enabled || demoOpts.desktop {
		bridge, err := desktop.Connect(cfg.Desktop, logger)
		if err != nil {
			logger.Warn("desktop bridge unavailable", "error", err)
		} else {
			defer func() { _ = bridge.Close() }()
			observers = append(observers, bridge.Observe)
		}
	}

	opts := termui.RunOptions{
		Config:    cfg,
		Logger:    logger,
		Observers: observers,
	}
	if demoOpts.watch {
		opts.ConfigPath = globalOpts.configPath
		if opts.ConfigPath == "" {
			opts.ConfigPath = config.ConfigPath()
		}
	}

	return termui.Run(cmd.Context(), opts)
}
