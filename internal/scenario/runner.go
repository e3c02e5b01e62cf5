package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/noticeboard/internal/container"
	"github.com/jmylchreest/noticeboard/internal/model"
	"github.com/jmylchreest/noticeboard/internal/timer"
)

// Runner plays scripts.
type Runner struct {
	logger          *slog.Logger
	realTime        bool
	start           time.Time
	messageTimespan time.Duration
	observers       []container.Observer
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithRealTime makes waits sleep instead of advancing a simulated clock.
func WithRealTime(real bool) Option {
	return func(r *Runner) { r.realTime = real }
}

// WithStart sets the simulated clock's starting instant.
func WithStart(t time.Time) Option {
	return func(r *Runner) { r.start = t }
}

// WithMessageTimespan sets the default message auto-dismiss delay.
func WithMessageTimespan(d time.Duration) Option {
	return func(r *Runner) { r.messageTimespan = d }
}

// WithObserver adds an observer that sees every event batch.
func WithObserver(o container.Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger: slog.Default(),
		start:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report is what a run left behind.
type Report struct {
	Name          string
	Steps         int // Steps completed
	Events        []container.Event
	Notifications []*model.Notification
	Refs          map[string]*model.Notification
	Finished      time.Time
}

// run is the state of one script execution.
type run struct {
	ctx    context.Context
	logger *slog.Logger
	c      *container.Container
	clock  *timer.Fake // nil in real time
	refs   map[string]*model.Notification

	mu     sync.Mutex
	events []container.Event
}

func (x *run) observe(events []container.Event) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.events = append(x.events, events...)
}

func (x *run) eventCount() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.events)
}

// Run plays the script and stops at the first failing step. The report
// is returned in both cases.
func (r *Runner) Run(ctx context.Context, script *Script) (*Report, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}

	x := &run{
		ctx:    ctx,
		logger: r.logger.With("script", script.Name),
		refs:   make(map[string]*model.Notification),
	}

	var sched timer.Scheduler = timer.Real{}
	if !r.realTime {
		x.clock = timer.NewFake(r.start)
		sched = x.clock
	}

	observers := append([]container.Observer{x.observe}, r.observers...)
	x.c = container.New(container.Tee(observers...),
		container.WithLogger(r.logger),
		container.WithScheduler(sched),
		container.WithDebounce(script.Debounce),
		container.WithMessageTimespan(r.messageTimespan),
	)
	defer x.c.Dispose()

	report := &Report{Name: script.Name, Refs: x.refs}

	var runErr error
	for i, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		action := step.Action()
		x.logger.Debug("running step", "index", i+1, "action", action)
		if err := x.step(step); err != nil {
			runErr = &StepError{Index: i, Action: action, Err: err}
			break
		}
		report.Steps++
	}

	x.c.Flush()
	x.mu.Lock()
	report.Events = append([]container.Event(nil), x.events...)
	x.mu.Unlock()
	for _, a := range model.Aligns() {
		report.Notifications = append(report.Notifications, x.c.Notifications(a)...)
	}
	report.Finished = timer.Now(sched)

	if runErr != nil {
		x.logger.Warn("script failed", "steps", report.Steps, "error", runErr)
	} else {
		x.logger.Info("script finished", "steps", report.Steps, "events", len(report.Events))
	}
	return report, runErr
}

func (x *run) step(s Step) error {
	switch {
	case s.Message != nil:
		kind := model.KindDefault
		if s.Message.Kind != "" {
			k, err := model.ParseMessageKind(s.Message.Kind)
			if err != nil {
				return err
			}
			kind = k
		}
		n, err := x.c.Message(kind, model.Text(s.Message.Text), callOptions(s.Message)...)
		return x.remember(s.Message.Ref, n, err)

	case s.Alert != nil:
		opts := callOptions(s.Alert)
		if s.Alert.Kind != "" {
			k, err := model.ParseKind(s.Alert.Kind)
			if err != nil {
				return err
			}
			opts = append(opts, container.WithKind(k))
		}
		n, err := x.c.Alert(model.Text(s.Alert.Text), opts...)
		return x.remember(s.Alert.Ref, n, err)

	case s.Confirm != nil:
		n, err := x.c.Confirm(model.Text(s.Confirm.Text), callOptions(s.Confirm)...)
		return x.remember(s.Confirm.Ref, n, err)

	case s.Prompt != nil:
		var callback model.ReturnFunc
		if s.Prompt.Require {
			callback = model.RequireText
		}
		n, err := x.c.Prompt(model.Text(s.Prompt.Text), callback, callOptions(s.Prompt)...)
		return x.remember(s.Prompt.Ref, n, err)

	case s.Succeed != nil:
		n, err := x.c.Succeed(model.Text(s.Succeed.Text), callOptions(s.Succeed)...)
		return x.remember(s.Succeed.Ref, n, err)

	case s.Popup != nil:
		n, err := x.c.Popup(model.Text(s.Popup.Text), s.Popup.Properties)
		return x.remember(s.Popup.Ref, n, err)

	case s.ShowLoading != nil:
		if err := x.c.ShowLoading(model.Text(s.ShowLoading.Text)); err != nil {
			return err
		}
		if active := x.c.ActiveModal(); active != nil && active.Kind() == model.KindLoading {
			return x.remember(s.ShowLoading.Ref, active, nil)
		}
		return nil

	case s.HideLoading != nil:
		x.c.HideLoading(s.HideLoading.Force)
		return nil

	case s.Dismiss != nil:
		n, err := x.lookup(s.Dismiss.Ref)
		if err != nil {
			return err
		}
		n.Dismiss(s.Dismiss.Delay)
		return nil

	case s.Answer != nil:
		return x.answer(s.Answer)

	case s.Wait != nil:
		return x.wait(*s.Wait)

	case s.Clear:
		x.c.Clear()
		return nil

	case s.Flush:
		x.c.Flush()
		return nil

	case s.Expect != nil:
		return x.expect(s.Expect)
	}
	return ErrStepAction
}

func callOptions(s *NoticeStep) []container.CallOption {
	var opts []container.CallOption
	if s.Title != "" {
		opts = append(opts, container.WithTitle(model.Text(s.Title)))
	}
	if s.Align != nil {
		opts = append(opts, container.WithAlign(*s.Align))
	}
	if s.Timespan != nil {
		opts = append(opts, container.WithTimespan(*s.Timespan))
	}
	if s.Modal {
		opts = append(opts, container.WithModal(true))
	}
	if s.Top {
		opts = append(opts, container.WithTop(true))
	}
	if len(s.Input) > 0 {
		opts = append(opts, container.WithInputProps(s.Input))
	}
	return opts
}

func (x *run) remember(ref string, n *model.Notification, err error) error {
	if err != nil {
		return err
	}
	if ref != "" {
		x.refs[ref] = n
	}
	return nil
}

func (x *run) lookup(ref string) (*model.Notification, error) {
	n, ok := x.refs[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRef, ref)
	}
	return n, nil
}

func (x *run) answer(a *AnswerStep) error {
	n, err := x.lookup(a.Ref)
	if err != nil {
		return err
	}

	res, err := n.ReturnValue(x.ctx, a.Value)
	if err != nil {
		return err
	}

	if a.Rejected != "" {
		if !res.Suppressed {
			return fmt.Errorf("%w: answer to %s was accepted, want rejected with %q", ErrExpectation, a.Ref, a.Rejected)
		}
		if res.ErrorMessage != a.Rejected {
			return fmt.Errorf("%w: answer to %s rejected with %q, want %q", ErrExpectation, a.Ref, res.ErrorMessage, a.Rejected)
		}
		return nil
	}
	if res.Suppressed {
		return fmt.Errorf("%w: answer to %s rejected: %s", ErrExpectation, a.Ref, res.ErrorMessage)
	}
	return nil
}

func (x *run) wait(d time.Duration) error {
	if x.clock != nil {
		x.clock.Advance(d)
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-x.ctx.Done():
		return x.ctx.Err()
	}
}

func (x *run) expect(e *ExpectStep) error {
	var errs []error
	mismatch := func(what string, got, want any) {
		errs = append(errs, fmt.Errorf("%w: %s = %v, want %v", ErrExpectation, what, got, want))
	}

	align := model.AlignTopLeft
	if e.Align != nil {
		align = *e.Align
	}
	if e.AlignCount != nil {
		if got := x.c.AlignCount(align); got != *e.AlignCount {
			mismatch("align_count("+align.String()+")", got, *e.AlignCount)
		}
	}
	if e.AlignOpenCount != nil {
		if got := x.c.AlignOpenCount(align); got != *e.AlignOpenCount {
			mismatch("align_open_count("+align.String()+")", got, *e.AlignOpenCount)
		}
	}
	if e.Loading != nil {
		if got := x.c.IsLoading(); got != *e.Loading {
			mismatch("loading", got, *e.Loading)
		}
	}
	if e.LoadingCount != nil {
		if got := x.c.LoadingCount(); got != *e.LoadingCount {
			mismatch("loading_count", got, *e.LoadingCount)
		}
	}
	if e.Modeling != nil {
		if got := x.c.IsModeling(); got != *e.Modeling {
			mismatch("modeling", got, *e.Modeling)
		}
	}
	if e.Events != nil {
		if got := x.eventCount(); got != *e.Events {
			mismatch("events", got, *e.Events)
		}
	}
	for _, ref := range e.Open {
		n, err := x.lookup(ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !n.IsOpen() {
			mismatch(ref+" open", false, true)
		}
	}
	for _, ref := range e.Closed {
		n, err := x.lookup(ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if n.IsOpen() {
			mismatch(ref+" open", true, false)
		}
	}

	return errors.Join(errs...)
}
