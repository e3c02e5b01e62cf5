// Package scenario plays scripted notification sequences against a
// container, on a simulated or a real clock.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/noticeboard/internal/model"
)

// Errors
var (
	ErrEmptyScript    = errors.New("script has no steps")
	ErrStepAction     = errors.New("step must have exactly one action")
	ErrDuplicateRef   = errors.New("ref is already used")
	ErrUnknownRef     = errors.New("unknown ref")
	ErrExpectation    = errors.New("expectation failed")
	ErrNegativeWait   = errors.New("wait must not be negative")
	ErrMissingAnswer  = errors.New("answer needs a ref")
	ErrMissingDismiss = errors.New("dismiss needs a ref")
)

// Script is a named list of steps.
type Script struct {
	Name     string        `yaml:"name"`
	Debounce time.Duration `yaml:"debounce,omitempty"`
	Steps    []Step        `yaml:"steps"`
}

// Step holds exactly one action.
type Step struct {
	Message     *NoticeStep    `yaml:"message,omitempty"`
	Alert       *NoticeStep    `yaml:"alert,omitempty"`
	Confirm     *NoticeStep    `yaml:"confirm,omitempty"`
	Prompt      *NoticeStep    `yaml:"prompt,omitempty"`
	Succeed     *NoticeStep    `yaml:"succeed,omitempty"`
	Popup       *PopupStep     `yaml:"popup,omitempty"`
	ShowLoading *NoticeStep    `yaml:"show_loading,omitempty"`
	HideLoading *HideStep      `yaml:"hide_loading,omitempty"`
	Dismiss     *DismissStep   `yaml:"dismiss,omitempty"`
	Answer      *AnswerStep    `yaml:"answer,omitempty"`
	Wait        *time.Duration `yaml:"wait,omitempty"`
	Clear       bool           `yaml:"clear,omitempty"`
	Flush       bool           `yaml:"flush,omitempty"`
	Expect      *ExpectStep    `yaml:"expect,omitempty"`
}

// NoticeStep raises a notice through one of the container's convenience
// calls.
type NoticeStep struct {
	Ref      string            `yaml:"ref,omitempty"`
	Kind     string            `yaml:"kind,omitempty"` // Message kind, or the kind override for alert
	Text     string            `yaml:"text"`
	Title    string            `yaml:"title,omitempty"`
	Align    *model.Align      `yaml:"align,omitempty"`
	Timespan *time.Duration    `yaml:"timespan,omitempty"`
	Modal    bool              `yaml:"modal,omitempty"`
	Top      bool              `yaml:"top,omitempty"`
	Require  bool              `yaml:"require,omitempty"` // Prompt rejects empty answers
	Input    map[string]string `yaml:"input,omitempty"`
}

// PopupStep raises a popup.
type PopupStep struct {
	Ref        string         `yaml:"ref,omitempty"`
	Text       string         `yaml:"text"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// HideStep hides the loading modal.
type HideStep struct {
	Force bool `yaml:"force,omitempty"`
}

// DismissStep dismisses a named notice, optionally after a delay.
type DismissStep struct {
	Ref   string        `yaml:"ref"`
	Delay time.Duration `yaml:"delay,omitempty"`
}

// AnswerStep hands a value to a named notice.
type AnswerStep struct {
	Ref   string `yaml:"ref"`
	Value any    `yaml:"value"`
	// Rejected expects the answer to be refused with this message.
	Rejected string `yaml:"rejected,omitempty"`
}

// ExpectStep checks container state. Unset fields are not checked.
type ExpectStep struct {
	Align          *model.Align `yaml:"align,omitempty"`
	AlignCount     *int         `yaml:"align_count,omitempty"`
	AlignOpenCount *int         `yaml:"align_open_count,omitempty"`
	Loading        *bool        `yaml:"loading,omitempty"`
	LoadingCount   *int         `yaml:"loading_count,omitempty"`
	Modeling       *bool        `yaml:"modeling,omitempty"`
	Events         *int         `yaml:"events,omitempty"`
	Open           []string     `yaml:"open,omitempty"`
	Closed         []string     `yaml:"closed,omitempty"`
}

// Action returns the name of the step's action, or "" when the step has
// none or several.
func (s Step) Action() string {
	var names []string
	add := func(set bool, name string) {
		if set {
			names = append(names, name)
		}
	}
	add(s.Message != nil, "message")
	add(s.Alert != nil, "alert")
	add(s.Confirm != nil, "confirm")
	add(s.Prompt != nil, "prompt")
	add(s.Succeed != nil, "succeed")
	add(s.Popup != nil, "popup")
	add(s.ShowLoading != nil, "show_loading")
	add(s.HideLoading != nil, "hide_loading")
	add(s.Dismiss != nil, "dismiss")
	add(s.Answer != nil, "answer")
	add(s.Wait != nil, "wait")
	add(s.Clear, "clear")
	add(s.Flush, "flush")
	add(s.Expect != nil, "expect")

	if len(names) != 1 {
		return ""
	}
	return names[0]
}

// ref returns the name a raising step gives its notice.
func (s Step) ref() string {
	switch {
	case s.Message != nil:
		return s.Message.Ref
	case s.Alert != nil:
		return s.Alert.Ref
	case s.Confirm != nil:
		return s.Confirm.Ref
	case s.Prompt != nil:
		return s.Prompt.Ref
	case s.Succeed != nil:
		return s.Succeed.Ref
	case s.Popup != nil:
		return s.Popup.Ref
	case s.ShowLoading != nil:
		return s.ShowLoading.Ref
	}
	return ""
}

// StepError reports which step failed.
type StepError struct {
	Index  int
	Action string
	Err    error
}

func (e *StepError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("step %d: %v", e.Index+1, e.Err)
	}
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Action, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Validate checks the structure of the script without running it.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return ErrEmptyScript
	}

	refs := make(map[string]bool)
	for i, step := range s.Steps {
		action := step.Action()
		fail := func(err error) error {
			return &StepError{Index: i, Action: action, Err: err}
		}

		if action == "" {
			return fail(ErrStepAction)
		}

		if ref := step.ref(); ref != "" {
			if refs[ref] {
				return fail(fmt.Errorf("%w: %s", ErrDuplicateRef, ref))
			}
			refs[ref] = true
		}

		switch action {
		case "message":
			if step.Message.Kind != "" {
				if _, err := model.ParseMessageKind(step.Message.Kind); err != nil {
					return fail(err)
				}
			}
		case "alert":
			if step.Alert.Kind != "" {
				if _, err := model.ParseKind(step.Alert.Kind); err != nil {
					return fail(err)
				}
			}
		case "wait":
			if *step.Wait < 0 {
				return fail(ErrNegativeWait)
			}
		case "dismiss":
			if step.Dismiss.Ref == "" {
				return fail(ErrMissingDismiss)
			}
			if !refs[step.Dismiss.Ref] {
				return fail(fmt.Errorf("%w: %s", ErrUnknownRef, step.Dismiss.Ref))
			}
		case "answer":
			if step.Answer.Ref == "" {
				return fail(ErrMissingAnswer)
			}
			if !refs[step.Answer.Ref] {
				return fail(fmt.Errorf("%w: %s", ErrUnknownRef, step.Answer.Ref))
			}
		case "expect":
			for _, ref := range append(append([]string{}, step.Expect.Open...), step.Expect.Closed...) {
				if !refs[ref] {
					return fail(fmt.Errorf("%w: %s", ErrUnknownRef, ref))
				}
			}
		}
	}
	return nil
}

// Parse decodes and validates a YAML script.
func Parse(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}
