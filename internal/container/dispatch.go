package container

import (
	"sync"
	"time"

	"github.com/jmylchreest/noticeboard/internal/model"
	"github.com/jmylchreest/noticeboard/internal/timer"
)

// Event is one lifecycle change: an add (Dismissed=false) or a dismissal.
type Event struct {
	Notification *model.Notification
	Dismissed    bool
	At           time.Time
}

// Observer receives lifecycle events. Batches keep the order in which the
// events happened.
type Observer func(events []Event)

// Tee fans each batch out to every non-nil observer in order.
func Tee(observers ...Observer) Observer {
	return func(events []Event) {
		for _, o := range observers {
			if o != nil {
				o(events)
			}
		}
	}
}

// dispatcher queues events and hands them to the observer. With a zero
// delay every event is delivered on the spot; otherwise a debounce timer is
// re-armed on each event and the batch goes out after a quiet period.
type dispatcher struct {
	mu       sync.Mutex
	observer Observer
	sched    timer.Scheduler
	delay    time.Duration
	pending  []Event
	timer    timer.Timer
	gen      uint64
}

func newDispatcher(observer Observer, sched timer.Scheduler, delay time.Duration) *dispatcher {
	return &dispatcher{
		observer: observer,
		sched:    sched,
		delay:    delay,
	}
}

func (d *dispatcher) registered() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.observer != nil
}

func (d *dispatcher) setObserver(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observer = o
}

func (d *dispatcher) setDelay(delay time.Duration) {
	d.mu.Lock()
	d.delay = delay
	flushNow := delay <= 0 && len(d.pending) > 0
	d.mu.Unlock()

	if flushNow {
		d.flush()
	}
}

func (d *dispatcher) push(e Event) {
	d.mu.Lock()
	if e.At.IsZero() {
		e.At = timer.Now(d.sched)
	}
	d.pending = append(d.pending, e)

	if d.delay <= 0 {
		d.mu.Unlock()
		d.flush()
		return
	}

	d.stopLocked()
	gen := d.gen
	d.timer = d.sched.AfterFunc(d.delay, func() { d.fire(gen) })
	d.mu.Unlock()
}

func (d *dispatcher) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.flush()
}

// flush delivers everything queued so far and returns the batch size.
func (d *dispatcher) flush() int {
	d.mu.Lock()
	events := d.pending
	d.pending = nil
	d.stopLocked()
	observer := d.observer
	d.mu.Unlock()

	if len(events) == 0 || observer == nil {
		return 0
	}
	observer(events)
	return len(events)
}

// reset drops queued events and cancels the debounce timer.
func (d *dispatcher) reset() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	dropped := len(d.pending)
	d.pending = nil
	d.stopLocked()
	return dropped
}

func (d *dispatcher) queued() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// stopLocked cancels the debounce timer. Caller must hold the lock.
func (d *dispatcher) stopLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
