// Package container aggregates notifications into alignment buckets,
// keeps at most one modal open, and relays lifecycle events to an observer.
//
// Dismissed notifications stay in their bucket, closed, until Clear sweeps
// them. Operations that would emit an event fail with ErrNoObserver while no
// observer is registered; read-only accessors, Clear, Dispose and Flush
// never fail.
package container

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/noticeboard/internal/model"
	"github.com/jmylchreest/noticeboard/internal/timer"
)

// Errors
var (
	ErrNoObserver      = containerError("no observer registered")
	ErrNilNotification = containerError("notification is nil")
	ErrAlreadyAdded    = containerError("notification already added")
	ErrClosed          = containerError("notification is already closed")
)

type containerError string

func (e containerError) Error() string {
	return string(e)
}

// Materializer turns raw notification data into a notification. It is the
// seam the UI-binding layer uses to attach its own behaviour.
type Materializer interface {
	Materialize(data model.Data, modal bool) (*model.Notification, error)
}

// MaterializerFunc adapts a function to Materializer.
type MaterializerFunc func(data model.Data, modal bool) (*model.Notification, error)

// Materialize calls f.
func (f MaterializerFunc) Materialize(data model.Data, modal bool) (*model.Notification, error) {
	return f(data, modal)
}

type settings struct {
	logger          *slog.Logger
	sched           timer.Scheduler
	debounce        time.Duration
	materializer    Materializer
	messageTimespan time.Duration
}

// Option configures a Container.
type Option func(*settings)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithScheduler sets the timer facility shared by the container and the
// notifications its factory materializes.
func WithScheduler(sched timer.Scheduler) Option {
	return func(s *settings) { s.sched = sched }
}

// WithDebounce batches observer events, delivering them after d of quiet.
// Zero delivers every event immediately.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) { s.debounce = d }
}

// WithMaterializer replaces the default factory used by the convenience
// calls.
func WithMaterializer(m Materializer) Option {
	return func(s *settings) { s.materializer = m }
}

// WithMessageTimespan sets the default auto-dismiss delay for messages
// built by the default factory.
func WithMessageTimespan(d time.Duration) Option {
	return func(s *settings) { s.messageTimespan = d }
}

// Container owns notifications grouped by alignment.
type Container struct {
	mu      sync.RWMutex
	buckets map[model.Align][]*model.Notification

	logger       *slog.Logger
	sched        timer.Scheduler
	factory      *model.Factory
	materializer Materializer
	dispatch     *dispatcher

	loadingMu    sync.Mutex
	lastLoading  *model.Notification
	loadingCount int
}

// New creates a Container. observer may be nil and registered later.
func New(observer Observer, opts ...Option) *Container {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.sched == nil {
		s.sched = timer.Default()
	}

	c := &Container{
		buckets:  newBuckets(),
		logger:   s.logger,
		sched:    s.sched,
		factory:  model.NewFactory(s.sched, s.logger, s.messageTimespan),
		dispatch: newDispatcher(observer, s.sched, s.debounce),
	}
	c.materializer = s.materializer
	if c.materializer == nil {
		c.materializer = c.factory
	}
	return c
}

func newBuckets() map[model.Align][]*model.Notification {
	buckets := make(map[model.Align][]*model.Notification, len(model.Aligns()))
	for _, a := range model.Aligns() {
		buckets[a] = nil
	}
	return buckets
}

// Register sets the observer. A nil observer unregisters.
func (c *Container) Register(observer Observer) {
	c.dispatch.setObserver(observer)
}

// Registered reports whether an observer is set.
func (c *Container) Registered() bool {
	return c.dispatch.registered()
}

// Scheduler returns the timer facility in use.
func (c *Container) Scheduler() timer.Scheduler {
	return c.sched
}

// SetDebounce changes the observer batching delay. Switching to zero
// delivers anything queued right away.
func (c *Container) SetDebounce(d time.Duration) {
	c.dispatch.setDelay(d)
}

// SetMessageTimespan changes the default auto-dismiss delay for messages
// built by the default factory.
func (c *Container) SetMessageTimespan(d time.Duration) {
	c.factory.SetMessageTimespan(d)
}

// Flush delivers queued observer events immediately and returns how many
// were delivered.
func (c *Container) Flush() int {
	return c.dispatch.flush()
}

// Queued returns the number of events waiting for the debounce timer.
func (c *Container) Queued() int {
	return c.dispatch.queued()
}

// Add inserts n into the bucket for its alignment, at the head when top is
// set. An open modal is dismissed first. A positive timespan arms the
// auto-dismiss timer.
func (c *Container) Add(n *model.Notification, top bool) error {
	if n == nil {
		return ErrNilNotification
	}
	if !c.dispatch.registered() {
		return ErrNoObserver
	}
	if !n.IsOpen() {
		return ErrClosed
	}

	align := n.Align()
	for {
		c.mu.Lock()
		if c.findLocked(n.ID()) != nil {
			c.mu.Unlock()
			return ErrAlreadyAdded
		}

		if align == model.AlignUnknown {
			if active := c.openModalLocked(); active != nil {
				c.mu.Unlock()
				c.logger.Debug("replacing open modal",
					"id", active.ID(),
					"kind", active.Kind().String(),
					"replacement_id", n.ID(),
				)
				active.Dismiss(0)
				continue
			}
		}

		prev := n.OnDismiss()
		n.SetOnDismiss(func() {
			c.handleDismiss(n)
			if prev != nil {
				prev()
			}
		})

		if top {
			c.buckets[align] = append([]*model.Notification{n}, c.buckets[align]...)
		} else {
			c.buckets[align] = append(c.buckets[align], n)
		}
		c.mu.Unlock()
		break
	}

	c.logger.Debug("notification added",
		"id", n.ID(),
		"kind", n.Kind().String(),
		"align", align.String(),
		"top", top,
	)
	c.dispatch.push(Event{Notification: n})

	if span := n.Timespan(); span > 0 {
		n.Dismiss(span)
	}
	return nil
}

// handleDismiss is chained in front of the caller's dismiss hook. Notices
// no longer held (after Dispose) produce no event.
func (c *Container) handleDismiss(n *model.Notification) {
	c.mu.RLock()
	held := c.findLocked(n.ID()) != nil
	c.mu.RUnlock()

	if !held {
		return
	}

	c.logger.Debug("notification dismissed",
		"id", n.ID(),
		"kind", n.Kind().String(),
		"align", n.Align().String(),
	)
	c.dispatch.push(Event{Notification: n, Dismissed: true})
}

// AlignCount returns how many notifications the bucket holds, open or not.
func (c *Container) AlignCount(align model.Align) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buckets[align])
}

// AlignOpenCount returns how many notifications in the bucket are open.
func (c *Container) AlignOpenCount(align model.Align) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, n := range c.buckets[align] {
		if n.IsOpen() {
			count++
		}
	}
	return count
}

// IsLoading reports whether an open loading modal is showing.
func (c *Container) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, n := range c.buckets[model.AlignUnknown] {
		if n.IsOpen() && n.Kind() == model.KindLoading {
			return true
		}
	}
	return false
}

// IsModeling reports whether any modal is open.
func (c *Container) IsModeling() bool {
	return c.AlignOpenCount(model.AlignUnknown) > 0
}

// ActiveModal returns the open modal, or nil.
func (c *Container) ActiveModal() *model.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.openModalLocked()
}

// Clear disposes and removes every closed notification. Open ones are
// untouched. It returns how many were removed.
func (c *Container) Clear() int {
	c.mu.Lock()
	var removed []*model.Notification
	for align, items := range c.buckets {
		kept := items[:0]
		for _, n := range items {
			if n.IsOpen() {
				kept = append(kept, n)
			} else {
				removed = append(removed, n)
			}
		}
		clear(items[len(kept):])
		c.buckets[align] = kept
	}
	c.mu.Unlock()

	for _, n := range removed {
		n.Dispose()
	}

	if len(removed) > 0 {
		c.logger.Debug("cleared closed notifications", "count", len(removed))
	}
	return len(removed)
}

// Dispose cancels every timer, empties every bucket, forgets the loading
// state and drops queued observer events.
func (c *Container) Dispose() {
	c.mu.Lock()
	var all []*model.Notification
	for _, items := range c.buckets {
		all = append(all, items...)
	}
	c.buckets = newBuckets()
	c.mu.Unlock()

	for _, n := range all {
		n.Dispose()
	}

	c.loadingMu.Lock()
	c.lastLoading = nil
	c.loadingCount = 0
	c.loadingMu.Unlock()

	dropped := c.dispatch.reset()
	c.logger.Debug("container disposed", "notifications", len(all), "dropped_events", dropped)
}

// Get returns the notification with id in the given bucket, or nil.
func (c *Container) Get(align model.Align, id string) *model.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, n := range c.buckets[align] {
		if n.ID() == id {
			return n
		}
	}
	return nil
}

// GetByID searches every bucket for id and returns nil when absent.
func (c *Container) GetByID(id string) *model.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.findLocked(id)
}

// Notifications returns a snapshot of the bucket in display order.
func (c *Container) Notifications(align model.Align) []*model.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := c.buckets[align]
	out := make([]*model.Notification, len(items))
	copy(out, items)
	return out
}

// Len returns the number of notifications across all buckets.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, items := range c.buckets {
		total += len(items)
	}
	return total
}

// findLocked scans every bucket. Caller must hold the lock.
func (c *Container) findLocked(id string) *model.Notification {
	for _, a := range model.Aligns() {
		for _, n := range c.buckets[a] {
			if n.ID() == id {
				return n
			}
		}
	}
	return nil
}

// openModalLocked returns the open modal. Caller must hold the lock.
func (c *Container) openModalLocked() *model.Notification {
	for _, n := range c.buckets[model.AlignUnknown] {
		if n.IsOpen() {
			return n
		}
	}
	return nil
}
