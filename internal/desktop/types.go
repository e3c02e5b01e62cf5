// Package desktop mirrors container messages onto the freedesktop.org
// notification service over D-Bus.
package desktop

import (
	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/noticeboard/internal/model"
)

// D-Bus constants for the org.freedesktop.Notifications interface.
const (
	BusName   = "org.freedesktop.Notifications"
	Interface = "org.freedesktop.Notifications"
	Path      = dbus.ObjectPath("/org/freedesktop/Notifications")
)

// Urgency levels carried in the "urgency" hint.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved/undefined per the specification.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// UrgencyFor maps a message kind to a freedesktop urgency.
func UrgencyFor(kind model.MessageKind) byte {
	switch kind {
	case model.KindDanger:
		return UrgencyCritical
	case model.KindSuccess, model.KindInfo:
		return UrgencyLow
	default:
		return UrgencyNormal
	}
}

// IconFor returns the themed icon name shown for a message kind.
func IconFor(kind model.MessageKind) string {
	switch kind {
	case model.KindSuccess:
		return "emblem-default"
	case model.KindWarning:
		return "dialog-warning"
	case model.KindInfo:
		return "dialog-information"
	case model.KindDanger:
		return "dialog-error"
	default:
		return ""
	}
}
