package model

import (
	"fmt"
	"strings"
)

// Kind is either a ModalKind or a MessageKind. The split is fixed when a
// notification is constructed and decides its placement and timing rules.
type Kind interface {
	String() string
	isKind()
}

// ModalKind notifications live in AlignUnknown and persist until dismissed.
type ModalKind int

const (
	KindLoading ModalKind = iota
	KindConfirm
	KindPrompt
	KindError
)

// MessageKind notifications are toasts that auto-dismiss by default.
type MessageKind int

const (
	KindDefault MessageKind = iota + 10
	KindSuccess
	KindWarning
	KindInfo
	KindDanger
)

func (ModalKind) isKind()   {}
func (MessageKind) isKind() {}

// String returns the string representation of ModalKind.
func (k ModalKind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindConfirm:
		return "confirm"
	case KindPrompt:
		return "prompt"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("modal(%d)", int(k))
	}
}

// String returns the string representation of MessageKind.
func (k MessageKind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindSuccess:
		return "success"
	case KindWarning:
		return "warning"
	case KindInfo:
		return "info"
	case KindDanger:
		return "danger"
	default:
		return fmt.Sprintf("message(%d)", int(k))
	}
}

// IsModal reports whether k is a modal kind.
func IsModal(k Kind) bool {
	_, ok := k.(ModalKind)
	return ok
}

// IsMessage reports whether k is a message kind.
func IsMessage(k Kind) bool {
	_, ok := k.(MessageKind)
	return ok
}

// ModalKinds returns every modal kind.
func ModalKinds() []ModalKind {
	return []ModalKind{KindLoading, KindConfirm, KindPrompt, KindError}
}

// MessageKinds returns every message kind.
func MessageKinds() []MessageKind {
	return []MessageKind{KindDefault, KindSuccess, KindWarning, KindInfo, KindDanger}
}

// ParseKind parses a kind name such as "confirm" or "success".
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range ModalKinds() {
		if k.String() == name {
			return k, nil
		}
	}
	if mk, err := ParseMessageKind(name); err == nil {
		return mk, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ParseMessageKind parses a message kind name such as "warning".
func ParseMessageKind(s string) (MessageKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range MessageKinds() {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
