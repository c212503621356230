package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldmark/framebot/internal/bot"
	"github.com/fieldmark/framebot/internal/journal"
)

// Context is the immutable per-frame input snapshot. It is built once per
// frame before the run and never mutated afterwards, which is what makes any
// future parallel step execution within a stage safe: concurrent readers of
// a Context never race. The frame's pixel buffer is shared, not copied.
type Context struct {
	Frame    *bot.EnrichedFrame
	ClientID uuid.UUID
	Start    time.Time
}

// NewContext snapshots a frame for one pipeline run.
func NewContext(frame *bot.EnrichedFrame) *Context {
	return &Context{
		Frame:    frame,
		ClientID: frame.Client,
		Start:    time.Now(),
	}
}

// Accumulator is the mutable per-frame result object. It is created fresh
// for every frame, threaded by exclusive mutable access through the strictly
// sequential step chain, and discarded at frame end. Exactly one step holds
// write access at any instant; steps communicate only through it.
//
// Optional fields are pointers: nil means the producing step has not run or
// chose not to produce a value.
type Accumulator struct {
	Situation      *bot.Situation
	Prediction     *bot.Prediction
	Decision       *bot.Decision
	SelectedAction *bot.ButtonMask
	Reward         *float32
	ImageChanged   bool

	// PendingEntry is the journal entry built by the learning phase, if its
	// preconditions held this frame. Ownership transfers to the journal
	// writer when the pipeline's caller emits it.
	PendingEntry *journal.Entry

	Metrics FrameMetrics
}

// NewAccumulator returns an empty accumulator for one frame.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Action returns the frame's selected action, or the neutral "no buttons"
// mask when no step selected one. A frame never yields an undefined action.
func (a *Accumulator) Action() bot.ButtonMask {
	if a.SelectedAction == nil {
		return bot.Neutral
	}
	return *a.SelectedAction
}

// Select records the chosen action for this frame.
func (a *Accumulator) Select(mask bot.ButtonMask) {
	a.SelectedAction = &mask
}
