package scenario

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/noticeboard/internal/container"
	"github.com/jmylchreest/noticeboard/internal/model"
)

func TestLoad_Basics(t *testing.T) {
	s, err := Load("testdata/basics.yaml")
	require.NoError(t, err)
	assert.Equal(t, "basics", s.Name)
	require.NotEmpty(t, s.Steps)

	first := s.Steps[0]
	assert.Equal(t, "message", first.Action())
	require.NotNil(t, first.Message.Align)
	assert.Equal(t, model.AlignTopRight, *first.Message.Align)
	require.NotNil(t, first.Message.Timespan)
	assert.Equal(t, 2*time.Second, *first.Message.Timespan)

	ask := s.Steps[4]
	require.Equal(t, "confirm", ask.Action())
	assert.Equal(t, "Continue?", ask.Confirm.Text)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestRunner_Basics(t *testing.T) {
	s, err := Load("testdata/basics.yaml")
	require.NoError(t, err)

	report, err := NewRunner().Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, len(s.Steps), report.Steps)
	assert.Contains(t, report.Refs, "hello")
	assert.Contains(t, report.Refs, "spin")

	// Everything closed was cleared at the end.
	assert.Empty(t, report.Notifications)
	assert.NotEmpty(t, report.Events)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "no steps",
			input:   "name: empty\n",
			wantErr: ErrEmptyScript,
		},
		{
			name:    "two actions in one step",
			input:   "steps:\n  - clear: true\n    flush: true\n",
			wantErr: ErrStepAction,
		},
		{
			name:    "empty step",
			input:   "steps:\n  - {}\n",
			wantErr: ErrStepAction,
		},
		{
			name:    "duplicate ref",
			input:   "steps:\n  - message: {ref: a, text: x}\n  - confirm: {ref: a, text: y}\n",
			wantErr: ErrDuplicateRef,
		},
		{
			name:    "unknown dismiss ref",
			input:   "steps:\n  - dismiss: {ref: ghost}\n",
			wantErr: ErrUnknownRef,
		},
		{
			name:    "answer before raise",
			input:   "steps:\n  - answer: {ref: q, value: 1}\n  - confirm: {ref: q, text: y}\n",
			wantErr: ErrUnknownRef,
		},
		{
			name:    "expect unknown ref",
			input:   "steps:\n  - expect: {open: [ghost]}\n",
			wantErr: ErrUnknownRef,
		},
		{
			name:    "bad message kind",
			input:   "steps:\n  - message: {kind: confirm, text: x}\n",
			wantErr: model.ErrUnknownKind,
		},
		{
			name:    "negative wait",
			input:   "steps:\n  - wait: -1s\n",
			wantErr: ErrNegativeWait,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("steps:\n  - message: {text: x, colour: red}\n"))
	assert.Error(t, err)
}

func TestParse_BadAlign(t *testing.T) {
	_, err := Parse([]byte("steps:\n  - message: {text: x, align: middle}\n"))
	assert.Error(t, err)
}

func TestStepError(t *testing.T) {
	_, err := Parse([]byte("steps:\n  - clear: true\n  - dismiss: {ref: ghost}\n"))
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 1, stepErr.Index)
	assert.Equal(t, "dismiss", stepErr.Action)
	assert.Contains(t, err.Error(), "step 2 (dismiss)")
}

func TestRunner_ExpectationFailure(t *testing.T) {
	s, err := Parse([]byte(`
steps:
  - message: {ref: a, text: one}
  - expect: {align_count: 2, loading: true}
  - clear: true
`))
	require.NoError(t, err)

	report, err := NewRunner().Run(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExpectation)
	assert.Contains(t, err.Error(), "align_count(top-left) = 1, want 2")
	assert.Contains(t, err.Error(), "loading = false, want true")

	require.NotNil(t, report)
	assert.Equal(t, 1, report.Steps)
	assert.Len(t, report.Notifications, 1)
}

func TestRunner_RejectedAnswerMismatch(t *testing.T) {
	s, err := Parse([]byte(`
steps:
  - prompt: {ref: q, text: "Name?", require: true}
  - answer: {ref: q, value: Ada, rejected: An answer is required.}
`))
	require.NoError(t, err)

	_, err = NewRunner().Run(context.Background(), s)
	assert.ErrorIs(t, err, ErrExpectation)
}

func TestRunner_AddError(t *testing.T) {
	s, err := Parse([]byte(`
steps:
  - message: {text: x, align: unknown}
`))
	require.NoError(t, err)

	_, err = NewRunner().Run(context.Background(), s)
	assert.ErrorIs(t, err, model.ErrReservedAlign)
}

func TestRunner_Debounce(t *testing.T) {
	s, err := Parse([]byte(`
debounce: 100ms
steps:
  - message: {text: one}
  - message: {text: two}
  - expect: {events: 0}
  - wait: 100ms
  - expect: {events: 2}
`))
	require.NoError(t, err)

	var batches [][]container.Event
	_, err = NewRunner(WithObserver(func(events []container.Event) {
		batches = append(batches, events)
	})).Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 2)
}

func TestRunner_SimulatedClock(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s, err := Parse([]byte(`
steps:
  - message: {ref: a, text: x}
  - wait: 1m
`))
	require.NoError(t, err)

	report, err := NewRunner(WithStart(start), WithMessageTimespan(30*time.Second)).Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Minute), report.Finished)
	assert.Equal(t, start, report.Refs["a"].CreatedAt())

	require.Len(t, report.Events, 2)
	assert.True(t, report.Events[1].Dismissed)
	assert.Equal(t, start.Add(30*time.Second), report.Events[1].At)
}

func TestRunner_Cancelled(t *testing.T) {
	s, err := Parse([]byte("steps:\n  - message: {text: x}\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewRunner().Run(ctx, s)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, report.Steps)
}

func TestRunner_RealTimeWaitHonoursContext(t *testing.T) {
	s, err := Parse([]byte("steps:\n  - wait: 1h\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = NewRunner(WithRealTime(true)).Run(ctx, s)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
