package desktop

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"golang.org/x/time/rate"

	"github.com/jmylchreest/noticeboard/internal/config"
	"github.com/jmylchreest/noticeboard/internal/container"
	"github.com/jmylchreest/noticeboard/internal/model"
)

// Caller is the part of dbus.BusObject the bridge needs.
type Caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Bridge is a container observer that shows every message on the desktop
// and closes it again when the message is dismissed. Modal kinds are never
// mirrored.
type Bridge struct {
	obj     Caller
	cfg     config.DesktopConfig
	limiter *rate.Limiter
	logger  *slog.Logger

	mu       sync.Mutex
	serverID map[string]uint32              // notification id -> server id
	notices  map[uint32]*model.Notification // server id -> notification

	conn    *dbus.Conn
	signals chan *dbus.Signal
	done    chan struct{}
}

// NewBridge creates a bridge that calls obj. A non-positive rate disables
// throttling.
func NewBridge(obj Caller, cfg config.DesktopConfig, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AppName == "" {
		cfg.AppName = config.DefaultAppName
	}

	limit := rate.Limit(cfg.Rate)
	if cfg.Rate <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Bridge{
		obj:      obj,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger,
		serverID: make(map[string]uint32),
		notices:  make(map[uint32]*model.Notification),
	}
}

// Connect opens the session bus, creates a bridge for the notification
// service and starts listening for NotificationClosed signals.
func Connect(cfg config.DesktopConfig, logger *slog.Logger) (*Bridge, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	b := NewBridge(conn.Object(BusName, Path), cfg, logger)
	b.conn = conn

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchMember("NotificationClosed"),
	); err != nil {
		return nil, fmt.Errorf("failed to subscribe to NotificationClosed: %w", err)
	}

	b.signals = make(chan *dbus.Signal, 16)
	b.done = make(chan struct{})
	conn.Signal(b.signals)
	go b.processSignals()

	b.logger.Info("desktop bridge connected", "app_name", b.cfg.AppName)
	return b, nil
}

// Close stops listening for signals. The shared session bus stays open.
func (b *Bridge) Close() error {
	if b.conn == nil {
		return nil
	}
	b.conn.RemoveSignal(b.signals)
	close(b.done)
	b.conn = nil
	return nil
}

// Observe is the container.Observer for the bridge.
func (b *Bridge) Observe(events []container.Event) {
	for _, e := range events {
		n := e.Notification
		if n == nil || !model.IsMessage(n.Kind()) {
			continue
		}
		if e.Dismissed {
			b.close(n)
		} else {
			b.notify(n)
		}
	}
}

// Mirrored returns how many notifications are currently shown on the desktop.
func (b *Bridge) Mirrored() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.notices)
}

func (b *Bridge) notify(n *model.Notification) {
	if !b.limiter.Allow() {
		b.logger.Warn("desktop notification throttled", "id", n.ID(), "kind", n.Kind().String())
		return
	}

	kind := n.Kind().(model.MessageKind)
	summary, body := n.Title().String(), n.Content().String()
	if summary == "" {
		summary, body = body, ""
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(UrgencyFor(kind)),
	}

	call := b.obj.Call(Interface+".Notify", 0,
		b.cfg.AppName,
		uint32(0),
		IconFor(kind),
		summary,
		body,
		[]string{},
		hints,
		b.expireTimeout(),
	)
	if call.Err != nil {
		b.logger.Warn("failed to send desktop notification", "id", n.ID(), "error", call.Err)
		return
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		b.logger.Warn("unexpected Notify reply", "id", n.ID(), "error", err)
		return
	}

	b.mu.Lock()
	b.serverID[n.ID()] = id
	b.notices[id] = n
	b.mu.Unlock()

	b.logger.Debug("desktop notification sent", "id", n.ID(), "server_id", id)
}

func (b *Bridge) close(n *model.Notification) {
	b.mu.Lock()
	id, ok := b.serverID[n.ID()]
	if ok {
		delete(b.serverID, n.ID())
		delete(b.notices, id)
	}
	b.mu.Unlock()

	if !ok {
		return
	}

	if call := b.obj.Call(Interface+".CloseNotification", 0, id); call.Err != nil {
		b.logger.Warn("failed to close desktop notification", "server_id", id, "error", call.Err)
	}
}

// expireTimeout converts the configured timeout to milliseconds, -1 meaning
// the server default.
func (b *Bridge) expireTimeout() int32 {
	d := b.cfg.ExpireTimeout.Duration()
	if d < 0 {
		return -1
	}
	return int32(d.Milliseconds())
}

func (b *Bridge) processSignals() {
	for {
		select {
		case sig, ok := <-b.signals:
			if !ok {
				return
			}
			b.handleSignal(sig)
		case <-b.done:
			return
		}
	}
}

// handleSignal dismisses the local notice when the user closes its desktop
// copy.
func (b *Bridge) handleSignal(sig *dbus.Signal) {
	if sig == nil || sig.Name != Interface+".NotificationClosed" || len(sig.Body) < 2 {
		return
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return
	}
	reason, ok := sig.Body[1].(uint32)
	if !ok {
		return
	}

	b.mu.Lock()
	n, known := b.notices[id]
	if known {
		delete(b.notices, id)
		delete(b.serverID, n.ID())
	}
	b.mu.Unlock()

	if !known {
		return
	}

	b.logger.Debug("desktop notification closed", "server_id", id, "reason", CloseReason(reason).String())
	if CloseReason(reason) == CloseReasonDismissed {
		n.Dismiss(0)
	}
}
