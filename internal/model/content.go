package model

import (
	"context"
	"strings"
)

// Content is either literal text or a producer evaluated each time the
// content is read.
type Content struct {
	text     string
	producer func() string
}

// Text returns literal content.
func Text(s string) Content {
	return Content{text: s}
}

// Lazy returns content produced on demand.
func Lazy(f func() string) Content {
	return Content{producer: f}
}

// String evaluates the content.
func (c Content) String() string {
	if c.producer != nil {
		return c.producer()
	}
	return c.text
}

// IsZero reports whether the content is empty literal text with no producer.
func (c Content) IsZero() bool {
	return c.producer == nil && c.text == ""
}

// IsLazy reports whether the content comes from a producer.
func (c Content) IsLazy() bool {
	return c.producer != nil
}

// Result is what a return callback decides about the pending dismissal.
// The zero value lets the dismissal run; Suppressed keeps the notification
// open. ErrorMessage is for the UI layer to show next to the input.
type Result struct {
	Suppressed   bool
	ErrorMessage string
}

// Proceed lets the default dismissal run.
func Proceed() Result {
	return Result{}
}

// Suppress keeps the notification open, optionally with a message to show.
func Suppress(msg string) Result {
	return Result{Suppressed: true, ErrorMessage: msg}
}

// ReturnFunc receives the value a user answered with. For message kinds it
// is called with a nil value when the notice closes without an answer.
type ReturnFunc func(ctx context.Context, value any) (Result, error)

// RequireText is a prompt callback that keeps the prompt open until the
// answer is non-blank text.
func RequireText(_ context.Context, value any) (Result, error) {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return Suppress("An answer is required."), nil
	}
	return Proceed(), nil
}
