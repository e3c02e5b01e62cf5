package desktop

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/noticeboard/internal/config"
	"github.com/jmylchreest/noticeboard/internal/container"
	"github.com/jmylchreest/noticeboard/internal/model"
	"github.com/jmylchreest/noticeboard/internal/timer"
)

type recordedCall struct {
	method string
	args   []interface{}
}

// fakeBus answers Notify with increasing server ids.
type fakeBus struct {
	mu     sync.Mutex
	calls  []recordedCall
	nextID uint32
	err    error
}

func (f *fakeBus) Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, recordedCall{method: method, args: args})
	if f.err != nil {
		return &dbus.Call{Err: f.err}
	}
	if method == Interface+".Notify" {
		f.nextID++
		return &dbus.Call{Body: []interface{}{f.nextID}}
	}
	return &dbus.Call{}
}

func (f *fakeBus) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.method
	}
	return out
}

func testConfig() config.DesktopConfig {
	cfg := config.DefaultConfig().Desktop
	cfg.Rate = 0
	return cfg
}

func newBridgedContainer(t *testing.T, bus *fakeBus, cfg config.DesktopConfig) (*container.Container, *Bridge) {
	t.Helper()
	b := NewBridge(bus, cfg, nil)
	c := container.New(b.Observe, container.WithScheduler(timer.NewFake(time.Time{})))
	return c, b
}

func TestBridge_MirrorsMessages(t *testing.T) {
	bus := &fakeBus{}
	c, b := newBridgedContainer(t, bus, testConfig())

	n, err := c.Message(model.KindDanger, model.Text("disk almost full"), container.WithTitle(model.Text("Storage")))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Mirrored())

	require.Len(t, bus.calls, 1)
	args := bus.calls[0].args
	require.Len(t, args, 8)
	assert.Equal(t, "noticeboard", args[0])
	assert.Equal(t, uint32(0), args[1])
	assert.Equal(t, "dialog-error", args[2])
	assert.Equal(t, "Storage", args[3])
	assert.Equal(t, "disk almost full", args[4])
	hints := args[6].(map[string]dbus.Variant)
	assert.Equal(t, UrgencyCritical, hints["urgency"].Value())
	assert.Equal(t, int32(-1), args[7])

	n.Dismiss(0)
	assert.Equal(t, 0, b.Mirrored())
	assert.Equal(t, []string{Interface + ".Notify", Interface + ".CloseNotification"}, bus.methods())
	assert.Equal(t, uint32(1), bus.calls[1].args[0])
}

func TestBridge_SkipsModals(t *testing.T) {
	bus := &fakeBus{}
	c, b := newBridgedContainer(t, bus, testConfig())

	n, err := c.Confirm(model.Text("sure?"))
	require.NoError(t, err)
	n.Dismiss(0)

	assert.Empty(t, bus.methods())
	assert.Equal(t, 0, b.Mirrored())
}

func TestBridge_SummaryFallsBackToContent(t *testing.T) {
	bus := &fakeBus{}
	c, _ := newBridgedContainer(t, bus, testConfig())

	_, err := c.Message(model.KindInfo, model.Text("build finished"))
	require.NoError(t, err)

	args := bus.calls[0].args
	assert.Equal(t, "build finished", args[3])
	assert.Equal(t, "", args[4])
}

func TestBridge_Throttles(t *testing.T) {
	bus := &fakeBus{}
	cfg := testConfig()
	cfg.Rate = 0.001
	cfg.Burst = 2
	c, b := newBridgedContainer(t, bus, cfg)

	for i := 0; i < 5; i++ {
		_, err := c.Message(model.KindInfo, model.Text("spam"))
		require.NoError(t, err)
	}
	assert.Len(t, bus.methods(), 2)
	assert.Equal(t, 2, b.Mirrored())
}

func TestBridge_CallErrorIsNotFatal(t *testing.T) {
	bus := &fakeBus{err: errors.New("no notification daemon")}
	c, b := newBridgedContainer(t, bus, testConfig())

	n, err := c.Message(model.KindWarning, model.Text("careful"))
	require.NoError(t, err)
	assert.True(t, n.IsOpen())
	assert.Equal(t, 0, b.Mirrored())
}

func TestBridge_ExpireTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.ExpireTimeout = config.Duration(4 * time.Second)
	b := NewBridge(&fakeBus{}, cfg, nil)
	assert.Equal(t, int32(4000), b.expireTimeout())
}

func TestBridge_UserDismissalClosesNotice(t *testing.T) {
	bus := &fakeBus{}
	c, b := newBridgedContainer(t, bus, testConfig())

	n, err := c.Message(model.KindInfo, model.Text("click me"), container.WithTimespan(0))
	require.NoError(t, err)

	b.handleSignal(&dbus.Signal{
		Name: Interface + ".NotificationClosed",
		Body: []interface{}{uint32(1), uint32(CloseReasonDismissed)},
	})

	assert.False(t, n.IsOpen())
	assert.Equal(t, 0, b.Mirrored())
	// The desktop copy is already gone, so no CloseNotification is sent.
	assert.Equal(t, []string{Interface + ".Notify"}, bus.methods())
}

func TestBridge_ExpiredSignalKeepsNotice(t *testing.T) {
	bus := &fakeBus{}
	c, b := newBridgedContainer(t, bus, testConfig())

	n, err := c.Message(model.KindInfo, model.Text("still here"), container.WithTimespan(0))
	require.NoError(t, err)

	b.handleSignal(&dbus.Signal{
		Name: Interface + ".NotificationClosed",
		Body: []interface{}{uint32(1), uint32(CloseReasonExpired)},
	})
	assert.True(t, n.IsOpen())
	assert.Equal(t, 0, b.Mirrored())

	// Unknown ids and malformed signals are ignored.
	b.handleSignal(&dbus.Signal{Name: Interface + ".NotificationClosed", Body: []interface{}{uint32(99), uint32(2)}})
	b.handleSignal(&dbus.Signal{Name: Interface + ".ActionInvoked", Body: []interface{}{uint32(1), "default"}})
	b.handleSignal(nil)
}

func TestCloseReasonString(t *testing.T) {
	tests := []struct {
		reason   CloseReason
		expected string
	}{
		{CloseReasonExpired, "expired"},
		{CloseReasonDismissed, "dismissed"},
		{CloseReasonClosed, "closed"},
		{CloseReasonUndefined, "undefined"},
		{CloseReason(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.reason.String())
		})
	}
}

func TestUrgencyFor(t *testing.T) {
	assert.Equal(t, UrgencyCritical, UrgencyFor(model.KindDanger))
	assert.Equal(t, UrgencyNormal, UrgencyFor(model.KindWarning))
	assert.Equal(t, UrgencyNormal, UrgencyFor(model.KindDefault))
	assert.Equal(t, UrgencyLow, UrgencyFor(model.KindSuccess))
	assert.Equal(t, UrgencyLow, UrgencyFor(model.KindInfo))
}
