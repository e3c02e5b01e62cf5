package model

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/noticeboard/internal/timer"
)

// Data is a raw notification definition, as assembled by the convenience
// calls before it is materialized. Nil pointers mean "use the default".
type Data struct {
	Kind        Kind
	Content     Content
	Title       Content
	Align       *Align
	Timespan    *time.Duration
	OnDismiss   func()
	OnReturn    ReturnFunc
	InputProps  map[string]string
	ShowIcon    *bool
	RenderSetup RenderSetup
}

// Factory materializes Data into notifications sharing one scheduler and a
// configurable default message timespan.
type Factory struct {
	mu              sync.RWMutex
	sched           timer.Scheduler
	logger          *slog.Logger
	messageTimespan time.Duration
}

// NewFactory creates a Factory. A nil scheduler uses real time, a nil
// logger uses slog.Default() and a non-positive messageTimespan uses
// DefaultMessageTimespan.
func NewFactory(sched timer.Scheduler, logger *slog.Logger, messageTimespan time.Duration) *Factory {
	if sched == nil {
		sched = timer.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if messageTimespan <= 0 {
		messageTimespan = DefaultMessageTimespan
	}
	return &Factory{sched: sched, logger: logger, messageTimespan: messageTimespan}
}

// MessageTimespan returns the default auto-dismiss delay for messages.
func (f *Factory) MessageTimespan() time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.messageTimespan
}

// SetMessageTimespan changes the default auto-dismiss delay for messages
// materialized from now on.
func (f *Factory) SetMessageTimespan(d time.Duration) {
	if d <= 0 {
		d = DefaultMessageTimespan
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messageTimespan = d
}

// Materialize builds a notification from data. modal asks the UI layer to
// present a message like a modal; modal kinds are modal regardless.
func (f *Factory) Materialize(data Data, modal bool) (*Notification, error) {
	opts := []Option{
		WithScheduler(f.sched),
		WithLogger(f.logger),
		WithTitle(data.Title),
		WithOnDismiss(data.OnDismiss),
		WithOnReturn(data.OnReturn),
		WithInputProps(data.InputProps),
		WithRenderSetup(data.RenderSetup),
		WithOverlay(modal && IsMessage(data.Kind)),
	}
	if data.Align != nil {
		opts = append(opts, WithAlign(*data.Align))
	}
	if data.ShowIcon != nil {
		opts = append(opts, WithShowIcon(*data.ShowIcon))
	}

	switch {
	case data.Timespan != nil:
		opts = append(opts, WithTimespan(*data.Timespan))
	case IsMessage(data.Kind):
		opts = append(opts, WithTimespan(f.MessageTimespan()))
	}

	return New(data.Kind, data.Content, opts...)
}
