package container

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/noticeboard/internal/model"
	"github.com/jmylchreest/noticeboard/internal/timer"
)

// recorder collects observer batches.
type recorder struct {
	mu      sync.Mutex
	batches [][]Event
}

func (r *recorder) observe(events []Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, events)
}

func (r *recorder) events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

func (r *recorder) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func newTestContainer(t *testing.T, opts ...Option) (*Container, *recorder, *timer.Fake) {
	t.Helper()
	clock := timer.NewFake(time.Time{})
	rec := &recorder{}
	opts = append([]Option{WithScheduler(clock)}, opts...)
	return New(rec.observe, opts...), rec, clock
}

func newNotice(t *testing.T, c *Container, kind model.Kind, opts ...model.Option) *model.Notification {
	t.Helper()
	opts = append(opts, model.WithScheduler(c.Scheduler()))
	n, err := model.New(kind, model.Text(kind.String()), opts...)
	require.NoError(t, err)
	return n
}

func TestAdd_ModalReplacesOpenModal(t *testing.T) {
	c, rec, _ := newTestContainer(t)

	a := newNotice(t, c, model.KindConfirm)
	b := newNotice(t, c, model.KindPrompt)

	require.NoError(t, c.Add(a, false))
	require.NoError(t, c.Add(b, false))

	assert.False(t, a.IsOpen())
	assert.True(t, b.IsOpen())
	assert.Equal(t, 2, c.AlignCount(model.AlignUnknown))
	assert.Equal(t, 1, c.AlignOpenCount(model.AlignUnknown))
	assert.Same(t, b, c.ActiveModal())

	events := rec.events()
	require.Len(t, events, 3)
	assert.Same(t, a, events[0].Notification)
	assert.False(t, events[0].Dismissed)
	assert.Same(t, a, events[1].Notification)
	assert.True(t, events[1].Dismissed)
	assert.Same(t, b, events[2].Notification)
	assert.False(t, events[2].Dismissed)

	b.Dismiss(0)
	assert.Equal(t, 2, c.AlignCount(model.AlignUnknown))
	assert.Equal(t, 0, c.AlignOpenCount(model.AlignUnknown))
	assert.False(t, c.IsModeling())
}

func TestAdd_MessagesDoNotReplace(t *testing.T) {
	c, _, _ := newTestContainer(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Add(newNotice(t, c, model.KindInfo), false))
	}
	require.NoError(t, c.Add(newNotice(t, c, model.KindWarning, model.WithAlign(model.AlignBottomRight)), false))

	assert.Equal(t, 3, c.AlignOpenCount(model.AlignTopLeft))
	assert.Equal(t, 1, c.AlignOpenCount(model.AlignBottomRight))
	assert.Equal(t, 4, c.Len())
	assert.False(t, c.IsModeling())
}

func TestAdd_TopInsertsAtHead(t *testing.T) {
	c, _, _ := newTestContainer(t)

	first := newNotice(t, c, model.KindInfo)
	second := newNotice(t, c, model.KindInfo)
	third := newNotice(t, c, model.KindInfo)

	require.NoError(t, c.Add(first, false))
	require.NoError(t, c.Add(second, false))
	require.NoError(t, c.Add(third, true))

	got := c.Notifications(model.AlignTopLeft)
	require.Len(t, got, 3)
	assert.Same(t, third, got[0])
	assert.Same(t, first, got[1])
	assert.Same(t, second, got[2])
}

func TestAdd_Errors(t *testing.T) {
	t.Run("no observer", func(t *testing.T) {
		c := New(nil, WithScheduler(timer.NewFake(time.Time{})))
		n := newNotice(t, c, model.KindInfo)
		assert.ErrorIs(t, c.Add(n, false), ErrNoObserver)
		assert.Equal(t, 0, c.Len())

		_, err := c.Confirm(model.Text("sure?"))
		assert.ErrorIs(t, err, ErrNoObserver)
		assert.ErrorIs(t, c.ShowLoading(model.Text("wait")), ErrNoObserver)
		assert.Equal(t, 0, c.LoadingCount())
	})

	t.Run("nil notification", func(t *testing.T) {
		c, _, _ := newTestContainer(t)
		assert.ErrorIs(t, c.Add(nil, false), ErrNilNotification)
	})

	t.Run("already added", func(t *testing.T) {
		c, _, _ := newTestContainer(t)
		n := newNotice(t, c, model.KindInfo)
		require.NoError(t, c.Add(n, false))
		assert.ErrorIs(t, c.Add(n, true), ErrAlreadyAdded)
		assert.Equal(t, 1, c.AlignCount(model.AlignTopLeft))
	})

	t.Run("closed", func(t *testing.T) {
		c, _, _ := newTestContainer(t)
		n := newNotice(t, c, model.KindInfo)
		n.Dismiss(0)
		assert.ErrorIs(t, c.Add(n, false), ErrClosed)
	})
}

func TestAdd_TimespanAutoDismisses(t *testing.T) {
	c, rec, clock := newTestContainer(t)

	n := newNotice(t, c, model.KindInfo, model.WithTimespan(2*time.Second))
	require.NoError(t, c.Add(n, false))

	clock.Advance(1999 * time.Millisecond)
	assert.True(t, n.IsOpen())

	clock.Advance(time.Millisecond)
	assert.False(t, n.IsOpen())

	events := rec.events()
	require.Len(t, events, 2)
	assert.True(t, events[1].Dismissed)
	assert.Equal(t, time.Unix(2, 0).UTC(), events[1].At)
}

func TestAdd_ZeroTimespanStaysOpen(t *testing.T) {
	c, _, clock := newTestContainer(t)

	n := newNotice(t, c, model.KindInfo, model.WithTimespan(0))
	require.NoError(t, c.Add(n, false))
	assert.Equal(t, 0, clock.Pending())

	clock.Advance(time.Hour)
	assert.True(t, n.IsOpen())
}

func TestAdd_DismissHookChainsCallerHook(t *testing.T) {
	c, rec, _ := newTestContainer(t)

	var seenEvents int
	var n *model.Notification
	n = newNotice(t, c, model.KindError, model.WithOnDismiss(func() {
		// The container hook runs first, so the dismissal is already observed.
		seenEvents = len(rec.events())
	}))
	require.NoError(t, c.Add(n, false))

	n.Dismiss(0)
	assert.Equal(t, 2, seenEvents)
}

func TestAdd_LoadingDismissOpensPrompt(t *testing.T) {
	c, rec, clock := newTestContainer(t)

	var prompt *model.Notification
	loading := newNotice(t, c, model.KindLoading,
		model.WithTimespan(3*time.Second),
		model.WithOnDismiss(func() {
			var err error
			prompt, err = c.Prompt(model.Text("Your name?"), func(ctx context.Context, value any) (model.Result, error) {
				if value == "" {
					return model.Suppress("a name is required"), nil
				}
				return model.Proceed(), nil
			})
			assert.NoError(t, err)
		}),
	)
	require.NoError(t, c.Add(loading, false))
	assert.True(t, c.IsLoading())

	clock.Advance(3 * time.Second)
	require.NotNil(t, prompt)
	assert.False(t, loading.IsOpen())
	assert.False(t, c.IsLoading())
	assert.Same(t, prompt, c.ActiveModal())

	result, err := prompt.ReturnValue(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, result.Suppressed)
	assert.True(t, prompt.IsOpen())

	_, err = prompt.ReturnValue(context.Background(), "Ada")
	require.NoError(t, err)
	assert.False(t, prompt.IsOpen())

	events := rec.events()
	require.Len(t, events, 4)
	assert.Same(t, loading, events[0].Notification)
	assert.Same(t, loading, events[1].Notification)
	assert.True(t, events[1].Dismissed)
	assert.Same(t, prompt, events[2].Notification)
	assert.False(t, events[2].Dismissed)
	assert.True(t, events[3].Dismissed)
}

func TestClear_RemovesOnlyClosed(t *testing.T) {
	c, _, _ := newTestContainer(t)

	open := newNotice(t, c, model.KindInfo, model.WithTimespan(0))
	closed := newNotice(t, c, model.KindInfo, model.WithTimespan(0))
	modal := newNotice(t, c, model.KindConfirm)
	require.NoError(t, c.Add(open, false))
	require.NoError(t, c.Add(closed, false))
	require.NoError(t, c.Add(modal, false))

	closed.Dismiss(0)
	modal.Dismiss(0)

	assert.Equal(t, 2, c.Clear())
	assert.Equal(t, 1, c.AlignCount(model.AlignTopLeft))
	assert.Equal(t, 0, c.AlignCount(model.AlignUnknown))
	assert.Same(t, open, c.GetByID(open.ID()))
	assert.Nil(t, c.GetByID(closed.ID()))

	assert.Equal(t, 0, c.Clear())
}

func TestDispose_CancelsTimersAndEmpties(t *testing.T) {
	c, rec, clock := newTestContainer(t, WithDebounce(time.Second))

	n := newNotice(t, c, model.KindInfo, model.WithTimespan(2*time.Second))
	require.NoError(t, c.Add(n, false))
	require.NoError(t, c.ShowLoading(model.Text("busy")))
	assert.Equal(t, 2, c.Queued())

	c.Dispose()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.Queued())
	assert.Equal(t, 0, c.LoadingCount())

	clock.Advance(time.Minute)
	assert.True(t, n.IsOpen())
	assert.Equal(t, 0, rec.batchCount())
	assert.Equal(t, 0, clock.Pending())

	// Dismissing a notice the container no longer holds is silent.
	n.Dismiss(0)
	c.Flush()
	assert.Equal(t, 0, rec.batchCount())
}

func TestGet(t *testing.T) {
	c, _, _ := newTestContainer(t)

	n := newNotice(t, c, model.KindSuccess, model.WithAlign(model.AlignBottomCenter))
	require.NoError(t, c.Add(n, false))

	assert.Same(t, n, c.Get(model.AlignBottomCenter, n.ID()))
	assert.Nil(t, c.Get(model.AlignTopLeft, n.ID()))
	assert.Same(t, n, c.GetByID(n.ID()))
	assert.Nil(t, c.GetByID("missing"))
}

func TestDebounce_CoalescesBatches(t *testing.T) {
	c, rec, clock := newTestContainer(t, WithDebounce(100*time.Millisecond))

	first := newNotice(t, c, model.KindInfo, model.WithTimespan(0))
	second := newNotice(t, c, model.KindInfo, model.WithTimespan(0))
	require.NoError(t, c.Add(first, false))
	clock.Advance(50 * time.Millisecond)
	require.NoError(t, c.Add(second, false))
	clock.Advance(50 * time.Millisecond)
	first.Dismiss(0)

	assert.Equal(t, 0, rec.batchCount())
	assert.Equal(t, 3, c.Queued())

	clock.Advance(100 * time.Millisecond)
	require.Equal(t, 1, rec.batchCount())

	events := rec.events()
	require.Len(t, events, 3)
	assert.Same(t, first, events[0].Notification)
	assert.Same(t, second, events[1].Notification)
	assert.True(t, events[2].Dismissed)
	assert.Equal(t, time.Unix(0, 0).UTC(), events[0].At)
	assert.Equal(t, time.Unix(0, int64(50*time.Millisecond)).UTC(), events[1].At)
}

func TestFlush(t *testing.T) {
	c, rec, clock := newTestContainer(t, WithDebounce(time.Second))

	require.NoError(t, c.Add(newNotice(t, c, model.KindInfo, model.WithTimespan(0)), false))
	assert.Equal(t, 1, c.Flush())
	assert.Equal(t, 1, rec.batchCount())
	assert.Equal(t, 0, c.Flush())

	// The debounce timer was cancelled by the flush.
	clock.Advance(time.Minute)
	assert.Equal(t, 1, rec.batchCount())
}

func TestSetDebounce_ZeroFlushesQueued(t *testing.T) {
	c, rec, _ := newTestContainer(t, WithDebounce(time.Second))

	require.NoError(t, c.Add(newNotice(t, c, model.KindInfo, model.WithTimespan(0)), false))
	assert.Equal(t, 0, rec.batchCount())

	c.SetDebounce(0)
	assert.Equal(t, 1, rec.batchCount())

	require.NoError(t, c.Add(newNotice(t, c, model.KindInfo, model.WithTimespan(0)), false))
	assert.Equal(t, 2, rec.batchCount())
}

func TestRegister(t *testing.T) {
	c := New(nil, WithScheduler(timer.NewFake(time.Time{})))
	assert.False(t, c.Registered())

	rec := &recorder{}
	c.Register(rec.observe)
	assert.True(t, c.Registered())

	_, err := c.Message(model.KindInfo, model.Text("hello"))
	require.NoError(t, err)
	assert.Equal(t, 1, rec.batchCount())

	c.Register(nil)
	_, err = c.Message(model.KindInfo, model.Text("again"))
	assert.ErrorIs(t, err, ErrNoObserver)
}

func TestTee(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	c := New(Tee(a.observe, nil, b.observe), WithScheduler(timer.NewFake(time.Time{})))

	_, err := c.Message(model.KindDefault, model.Text("both"))
	require.NoError(t, err)
	assert.Len(t, a.events(), 1)
	assert.Len(t, b.events(), 1)
}
