// Package model defines the notification entity and its lifecycle.
package model

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/noticeboard/internal/timer"
)

// DefaultMessageTimespan is how long message kinds stay open unless told
// otherwise.
const DefaultMessageTimespan = 5 * time.Second

// Validation errors.
var (
	ErrNilKind          = errors.New("notification kind is required")
	ErrUnknownKind      = errors.New("unknown notification kind")
	ErrUnknownAlign     = errors.New("unknown align")
	ErrReservedAlign    = errors.New("align unknown is reserved for modal notifications")
	ErrNegativeTimespan = errors.New("timespan must not be negative")
)

// RenderSetup lets a caller hand extra properties to the render hook.
type RenderSetup func(options map[string]any) map[string]any

// Notification is a single notice. It starts open and closes exactly once.
type Notification struct {
	mu sync.Mutex

	id        string
	kind      Kind
	align     Align
	content   Content
	title     Content
	timespan  time.Duration
	createdAt time.Time

	open       bool
	dismissing bool

	onDismiss   func()
	onReturn    ReturnFunc
	inputProps  map[string]string
	showIcon    bool
	overlay     bool
	renderSetup RenderSetup

	dismissErr error
	logger     *slog.Logger

	sched     timer.Scheduler
	pending   timer.Timer
	timerGen  uint64
	dismissAt time.Time
}

type options struct {
	title       Content
	align       *Align
	timespan    *time.Duration
	onDismiss   func()
	onReturn    ReturnFunc
	inputProps  map[string]string
	showIcon    bool
	overlay     bool
	renderSetup RenderSetup
	sched       timer.Scheduler
	logger      *slog.Logger
}

// Option configures a notification at construction.
type Option func(*options)

// WithTitle sets the title.
func WithTitle(title Content) Option {
	return func(o *options) { o.title = title }
}

// WithAlign requests a placement. Modal kinds ignore it.
func WithAlign(a Align) Option {
	return func(o *options) { o.align = &a }
}

// WithTimespan sets the auto-dismiss delay. Zero means never.
func WithTimespan(d time.Duration) Option {
	return func(o *options) { o.timespan = &d }
}

// WithOnDismiss sets the hook called once the notification closes.
func WithOnDismiss(f func()) Option {
	return func(o *options) { o.onDismiss = f }
}

// WithOnReturn sets the answer callback.
func WithOnReturn(f ReturnFunc) Option {
	return func(o *options) { o.onReturn = f }
}

// WithInputProps attaches input control properties for the UI layer.
func WithInputProps(props map[string]string) Option {
	return func(o *options) { o.inputProps = maps.Clone(props) }
}

// WithShowIcon toggles the kind icon.
func WithShowIcon(show bool) Option {
	return func(o *options) { o.showIcon = show }
}

// WithOverlay asks the UI layer to present a message kind like a modal.
// It does not change the kind, placement or exclusivity.
func WithOverlay(overlay bool) Option {
	return func(o *options) { o.overlay = overlay }
}

// WithRenderSetup sets the render setup callback.
func WithRenderSetup(f RenderSetup) Option {
	return func(o *options) { o.renderSetup = f }
}

// WithScheduler sets the timer facility used for delayed dismissal.
func WithScheduler(s timer.Scheduler) Option {
	return func(o *options) { o.sched = s }
}

// WithLogger sets the logger used for failures that have no caller to
// return to, such as a return callback failing during a timed dismissal.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates an open notification with a generated ULID.
func New(kind Kind, content Content, opts ...Option) (*Notification, error) {
	if kind == nil {
		return nil, ErrNilKind
	}

	var o options
	o.showIcon = true
	for _, opt := range opts {
		opt(&o)
	}

	if o.timespan != nil && *o.timespan < 0 {
		return nil, ErrNegativeTimespan
	}

	sched := o.sched
	if sched == nil {
		sched = timer.Default()
	}
	now := timer.Now(sched)
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}

	n := &Notification{
		id:          id.String(),
		kind:        kind,
		content:     content,
		title:       o.title,
		createdAt:   now,
		open:        true,
		onDismiss:   o.onDismiss,
		onReturn:    o.onReturn,
		inputProps:  o.inputProps,
		showIcon:    o.showIcon,
		overlay:     o.overlay,
		renderSetup: o.renderSetup,
		sched:       sched,
		logger:      logger,
	}

	switch kind.(type) {
	case ModalKind:
		n.align = AlignUnknown
	case MessageKind:
		n.align = AlignTopLeft
		if o.align != nil {
			if *o.align == AlignUnknown {
				return nil, ErrReservedAlign
			}
			if !o.align.Valid() {
				return nil, fmt.Errorf("%w: %d", ErrUnknownAlign, int(*o.align))
			}
			n.align = *o.align
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}

	switch {
	case o.timespan != nil:
		n.timespan = *o.timespan
	case IsMessage(kind):
		n.timespan = DefaultMessageTimespan
	}

	return n, nil
}

// ID returns the unique id.
func (n *Notification) ID() string { return n.id }

// Kind returns the kind.
func (n *Notification) Kind() Kind { return n.kind }

// Align returns the placement.
func (n *Notification) Align() Align { return n.align }

// Content returns the body content.
func (n *Notification) Content() Content { return n.content }

// Title returns the title content, which may be zero.
func (n *Notification) Title() Content { return n.title }

// CreatedAt returns the construction time.
func (n *Notification) CreatedAt() time.Time { return n.createdAt }

// IsModal reports whether the kind is a modal kind.
func (n *Notification) IsModal() bool { return IsModal(n.kind) }

// ShowIcon reports whether the UI layer should draw the kind icon.
func (n *Notification) ShowIcon() bool { return n.showIcon }

// Overlay reports whether a message asked to be presented like a modal.
func (n *Notification) Overlay() bool { return n.overlay }

// RenderSetup returns the render setup callback, if any.
func (n *Notification) RenderSetup() RenderSetup { return n.renderSetup }

// InputProps returns a copy of the input control properties.
func (n *Notification) InputProps() map[string]string {
	return maps.Clone(n.inputProps)
}

// Timespan returns the auto-dismiss delay.
func (n *Notification) Timespan() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.timespan
}

// SetTimespan changes the auto-dismiss delay used when the notification is
// added to a container. Negative values are treated as zero.
func (n *Notification) SetTimespan(d time.Duration) {
	if d < 0 {
		d = 0
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.timespan = d
}

// IsOpen reports whether the notification has not been dismissed yet.
func (n *Notification) IsOpen() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.open
}

// DismissPending reports whether a delayed dismissal is armed and when it
// is due.
func (n *Notification) DismissPending() (time.Time, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dismissAt, n.pending != nil
}

// OnDismiss returns the current dismiss hook.
func (n *Notification) OnDismiss() func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.onDismiss
}

// SetOnDismiss replaces the dismiss hook.
func (n *Notification) SetOnDismiss(f func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onDismiss = f
}

// SetOnReturn replaces the answer callback.
func (n *Notification) SetOnReturn(f ReturnFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onReturn = f
}

// Dismiss closes the notification. With a positive delay it only arms a
// timer (replacing any earlier one) and returns true. Otherwise it closes
// immediately and returns false. Closed notifications ignore the call.
func (n *Notification) Dismiss(delay time.Duration) bool {
	n.mu.Lock()
	if !n.open || n.dismissing {
		n.mu.Unlock()
		return false
	}

	if delay > 0 {
		n.stopLocked()
		gen := n.timerGen
		n.pending = n.sched.AfterFunc(delay, func() { n.expire(gen) })
		n.dismissAt = timer.Now(n.sched).Add(delay)
		n.mu.Unlock()
		return true
	}

	n.dismissing = true
	onReturn := n.onReturn
	message := IsMessage(n.kind)
	n.mu.Unlock()

	// Messages report "closed without an answer"; only a failure matters.
	var returnErr error
	if message && onReturn != nil {
		if _, err := onReturn(context.Background(), nil); err != nil {
			returnErr = err
			n.logger.Warn("return callback failed on dismiss", "id", n.id, "kind", n.kind.String(), "error", err)
		}
	}

	n.mu.Lock()
	n.open = false
	n.dismissing = false
	n.dismissErr = returnErr
	onDismiss := n.onDismiss
	n.mu.Unlock()

	if onDismiss != nil {
		onDismiss()
	}

	n.Dispose()
	return false
}

// expire runs when a delayed dismissal fires. Timers replaced or disposed
// in the meantime carry a stale generation and are ignored.
func (n *Notification) expire(gen uint64) {
	n.mu.Lock()
	if gen != n.timerGen || n.pending == nil {
		n.mu.Unlock()
		return
	}
	n.pending = nil
	n.dismissAt = time.Time{}
	n.mu.Unlock()

	n.Dismiss(0)
}

// DismissErr returns the error the return callback reported when the
// notification closed without an answer, if any.
func (n *Notification) DismissErr() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dismissErr
}

// Dispose cancels any pending delayed dismissal. It is idempotent and does
// not close the notification.
func (n *Notification) Dispose() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
}

// stopLocked cancels the pending timer. Caller must hold the lock.
func (n *Notification) stopLocked() {
	n.timerGen++
	if n.pending != nil {
		n.pending.Stop()
		n.pending = nil
	}
	n.dismissAt = time.Time{}
}

// ReturnValue hands an answer to the return callback. A suppressed result
// keeps the notification open; otherwise it is dismissed.
// Callback errors are returned as is and leave the notification open.
func (n *Notification) ReturnValue(ctx context.Context, value any) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	n.mu.Lock()
	onReturn := n.onReturn
	n.mu.Unlock()

	result := Proceed()
	if onReturn != nil {
		r, err := onReturn(ctx, value)
		if err != nil {
			return r, err
		}
		result = r
	}

	if result.Suppressed {
		return result, nil
	}

	n.Dismiss(0)
	return result, nil
}

// String returns a short description for logs.
func (n *Notification) String() string {
	return fmt.Sprintf("%s[%s@%s]", n.id, n.kind, n.align)
}
