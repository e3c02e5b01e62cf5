package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/noticeboard/internal/adapter/output"
	"github.com/jmylchreest/noticeboard/internal/container"
	"github.com/jmylchreest/noticeboard/internal/desktop"
	"github.com/jmylchreest/noticeboard/internal/scenario"
)

var runOpts struct {
	realTime bool
	desktop  bool
	snapshot bool

	// Output options
	filter   string
	format   string
	field    string
	template string
}

var runCmd = &cobra.Command{
	Use:   "run <script.yaml>",
	Short: "Replay a notification scenario",
	Long: `Replay a YAML scenario against a fresh container and stream every
observer event to stdout. Use "-" to read the script from stdin.

By default time is simulated: waits and auto-dismiss timers complete
instantly. Use --real-time to play the script on the wall clock.

Examples:
  # Stream events as plain text
  noticeboard run demo.yaml

  # Stream events as JSON lines
  noticeboard run demo.yaml --format json

  # Print only the content of each event
  noticeboard run demo.yaml --field content

  # Only show warnings that were dismissed
  noticeboard run demo.yaml --filter "kind=warning,event=dismiss"

  # Play in real time and mirror messages on the desktop
  noticeboard run demo.yaml --real-time --desktop`,
	Args: cobra.ExactArgs(1),
	RunE: runScenario,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runOpts.realTime, "real-time", false,
		"Play the script on the wall clock")
	runCmd.Flags().BoolVar(&runOpts.desktop, "desktop", false,
		"Mirror messages as desktop notifications (real time only)")
	runCmd.Flags().BoolVar(&runOpts.snapshot, "snapshot", false,
		"Print the remaining notices when the script ends")

	runCmd.Flags().StringVar(&runOpts.filter, "filter", "",
		"Only output matching records (e.g. \"kind=warning,align~top\")")
	runCmd.Flags().StringVarP(&runOpts.format, "format", "f", string(output.FormatPlain),
		"Output format: plain, json, yaml, ids")
	runCmd.Flags().StringVar(&runOpts.field, "field", "",
		"Output a single field per event (id, event, kind, align, title, content)")
	runCmd.Flags().StringVar(&runOpts.template, "template", "",
		"Go template for plain output (fields: .Index, .Record, .RelativeTime)")
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg := getConfig()

	script, err := loadScript(cmd, args[0])
	if err != nil {
		return err
	}

	format := output.FormatType(runOpts.format)
	if !format.Valid() {
		return fmt.Errorf("unknown format %q", runOpts.format)
	}

	start := time.Now().UTC().Truncate(time.Second)
	fmtOpts := output.DefaultFormatterOptions()
	fmtOpts.Template = runOpts.template
	fmtOpts.Since = start

	formatter := output.NewFormatter(format, fmtOpts)
	if runOpts.field != "" {
		formatter = output.NewFieldFormatter(runOpts.field)
	}

	filter, err := output.ParseFilter(runOpts.filter)
	if err != nil {
		return err
	}

	stream := &eventStream{w: cmd.OutOrStdout(), formatter: formatter, filter: filter}
	opts := []scenario.Option{
		scenario.WithLogger(logger),
		scenario.WithRealTime(runOpts.realTime),
		scenario.WithStart(start),
		scenario.WithMessageTimespan(cfg.Container.MessageTimespan.Duration()),
		scenario.WithObserver(stream.observe),
	}

	if runOpts.desktop {
		if !runOpts.realTime {
			return fmt.Errorf("--desktop needs --real-time")
		}
		bridge, err := desktop.Connect(cfg.Desktop, logger)
		if err != nil {
			return err
		}
		defer func() { _ = bridge.Close() }()
		opts = append(opts, scenario.WithObserver(bridge.Observe))
	}

	report, runErr := scenario.NewRunner(opts...).Run(cmd.Context(), script)
	if err := stream.error(); err != nil {
		return err
	}

	if runOpts.snapshot && report != nil {
		records := output.FilterRecords(output.FromNotifications(report.Notifications, report.Finished), filter)
		if err := formatter.Format(cmd.OutOrStdout(), records); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	logger.Debug("scenario complete", "name", report.Name, "steps", report.Steps, "events", len(report.Events))
	return nil
}

// loadScript reads the script from path, or from stdin when path is "-".
func loadScript(cmd *cobra.Command, path string) (*scenario.Script, error) {
	if path != "-" {
		return scenario.Load(path)
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read script from stdin: %w", err)
	}
	script, err := scenario.Parse(data)
	if err != nil {
		return nil, err
	}
	if script.Name == "" {
		script.Name = "stdin"
	}
	return script, nil
}

// eventStream writes observer batches as they arrive. Timers fire on
// their own goroutines in real time, so writes are serialized.
type eventStream struct {
	mu        sync.Mutex
	w         io.Writer
	formatter output.Formatter
	filter    *output.FilterExpr
	err       error
}

func (s *eventStream) observe(events []container.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	records := output.FilterRecords(output.FromEvents(events), s.filter)
	if len(records) == 0 {
		return
	}
	s.err = s.formatter.Format(s.w, records)
}

func (s *eventStream) error() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
