package container

import (
	"fmt"
	"time"

	"github.com/jmylchreest/noticeboard/internal/model"
)

type callOptions struct {
	title      model.Content
	callback   model.ReturnFunc
	kind       model.Kind
	inputProps map[string]string
	align      *model.Align
	timespan   *time.Duration
	modal      bool
	top        bool
}

// CallOption tunes a convenience call.
type CallOption func(*callOptions)

// WithTitle sets the title.
func WithTitle(title model.Content) CallOption {
	return func(o *callOptions) { o.title = title }
}

// WithCallback sets the answer callback.
func WithCallback(f model.ReturnFunc) CallOption {
	return func(o *callOptions) { o.callback = f }
}

// WithKind overrides the kind used by Alert.
func WithKind(k model.Kind) CallOption {
	return func(o *callOptions) { o.kind = k }
}

// WithInputProps passes input control properties to the UI layer.
func WithInputProps(props map[string]string) CallOption {
	return func(o *callOptions) { o.inputProps = props }
}

// WithAlign places a message.
func WithAlign(a model.Align) CallOption {
	return func(o *callOptions) { o.align = &a }
}

// WithTimespan sets the auto-dismiss delay; zero keeps the notice open.
func WithTimespan(d time.Duration) CallOption {
	return func(o *callOptions) { o.timespan = &d }
}

// WithModal asks the UI layer to present a message like a modal.
func WithModal(modal bool) CallOption {
	return func(o *callOptions) { o.modal = modal }
}

// WithTop inserts the notice at the head of its bucket.
func WithTop(top bool) CallOption {
	return func(o *callOptions) { o.top = top }
}

func buildCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o callOptions) data(kind model.Kind, content model.Content) model.Data {
	return model.Data{
		Kind:       kind,
		Content:    content,
		Title:      o.title,
		Align:      o.align,
		Timespan:   o.timespan,
		OnReturn:   o.callback,
		InputProps: o.inputProps,
	}
}

// raise materializes data and adds the result.
func (c *Container) raise(data model.Data, modal, top bool) (*model.Notification, error) {
	if !c.dispatch.registered() {
		return nil, ErrNoObserver
	}

	n, err := c.materializer.Materialize(data, modal)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize %s notification: %w", data.Kind, err)
	}

	if err := c.Add(n, top); err != nil {
		return nil, err
	}
	return n, nil
}

// Alert reports an error (or, with WithKind, any other kind) as a modal
// presentation.
func (c *Container) Alert(message model.Content, opts ...CallOption) (*model.Notification, error) {
	o := buildCallOptions(opts)
	kind := o.kind
	if kind == nil {
		kind = model.KindError
	}
	return c.raise(o.data(kind, message), true, o.top)
}

// Confirm asks a yes/no question. The callback receives a bool.
func (c *Container) Confirm(message model.Content, opts ...CallOption) (*model.Notification, error) {
	o := buildCallOptions(opts)
	return c.raise(o.data(model.KindConfirm, message), o.modal, o.top)
}

// Prompt asks for text. The callback receives the answer and may return
// model.Suppress to keep the prompt open.
func (c *Container) Prompt(message model.Content, callback model.ReturnFunc, opts ...CallOption) (*model.Notification, error) {
	o := buildCallOptions(opts)
	o.callback = callback
	return c.raise(o.data(model.KindPrompt, message), o.modal, o.top)
}

// Message shows a toast of the given message kind.
func (c *Container) Message(kind model.MessageKind, message model.Content, opts ...CallOption) (*model.Notification, error) {
	o := buildCallOptions(opts)
	return c.raise(o.data(kind, message), o.modal, o.top)
}

// Succeed shows a centered success message that stays open unless a
// timespan is given.
func (c *Container) Succeed(message model.Content, opts ...CallOption) (*model.Notification, error) {
	defaults := []CallOption{
		WithAlign(model.AlignCenter),
		WithModal(true),
		WithTimespan(0),
	}
	return c.Message(model.KindSuccess, message, append(defaults, opts...)...)
}

// Popup shows arbitrary content as a modal; properties reach the render
// hook through the notification's render setup.
func (c *Container) Popup(component model.Content, properties map[string]any) (*model.Notification, error) {
	data := model.Data{
		Kind:    model.KindConfirm,
		Content: component,
		RenderSetup: func(map[string]any) map[string]any {
			return properties
		},
	}
	return c.raise(data, true, false)
}

// ShowLoading counts one more loading request and shows a loading modal if
// none is tracked yet.
func (c *Container) ShowLoading(title model.Content) error {
	c.loadingMu.Lock()
	c.loadingCount++
	if c.lastLoading != nil && !c.lastLoading.IsOpen() {
		c.lastLoading = nil
	}
	need := c.lastLoading == nil
	c.loadingMu.Unlock()

	if !need {
		return nil
	}

	n, err := c.raise(model.Data{Kind: model.KindLoading, Content: title}, false, false)
	if err != nil {
		c.loadingMu.Lock()
		if c.loadingCount > 0 {
			c.loadingCount--
		}
		c.loadingMu.Unlock()
		return err
	}

	c.loadingMu.Lock()
	var extra *model.Notification
	if c.lastLoading == nil {
		c.lastLoading = n
	} else {
		extra = n
	}
	c.loadingMu.Unlock()

	if extra != nil {
		extra.Dismiss(0)
	}
	return nil
}

// HideLoading counts one loading request as done. The loading modal is
// dismissed once the count reaches zero, or immediately when force is set.
func (c *Container) HideLoading(force bool) {
	c.loadingMu.Lock()
	c.loadingCount--
	if force || c.loadingCount < 0 {
		c.loadingCount = 0
	}

	var target *model.Notification
	if c.loadingCount == 0 {
		target = c.lastLoading
		c.lastLoading = nil
	}
	c.loadingMu.Unlock()

	if target != nil {
		target.Dismiss(0)
	}
}

// LoadingCount returns the number of outstanding loading requests.
func (c *Container) LoadingCount() int {
	c.loadingMu.Lock()
	defer c.loadingMu.Unlock()
	return c.loadingCount
}
