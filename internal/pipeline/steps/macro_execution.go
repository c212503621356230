package steps

import (
	"sync"

	"github.com/google/uuid"

	"github.com/fieldmark/framebot/internal/bot"
	"github.com/fieldmark/framebot/internal/pipeline"
)

// dialogMashRepeats is how many extra frames the A press is held after a
// dialog advance is selected, so multi-page text boxes drain without
// waiting a full decision round-trip per page.
const dialogMashRepeats = 2

// MacroExecution expands selected actions into short queued button
// sequences. When a client has queued macro frames pending, they override
// the frame's fresh selection until the queue drains; a new macro is only
// armed from a fresh selection.
type MacroExecution struct {
	mu     sync.Mutex
	queues map[uuid.UUID][]bot.ButtonMask
}

// NewMacroExecution creates the step with empty per-client queues.
func NewMacroExecution() *MacroExecution {
	return &MacroExecution{queues: make(map[uuid.UUID][]bot.ButtonMask)}
}

func (m *MacroExecution) Name() string { return "MacroExecution" }

func (m *MacroExecution) Phase() pipeline.Phase { return pipeline.PhaseExecution }

// ShouldExecute is true once a decision exists; with nothing selected there
// is nothing to expand or override.
func (m *MacroExecution) ShouldExecute(acc *pipeline.Accumulator) bool {
	return acc.SelectedAction != nil
}

func (m *MacroExecution) Execute(fc *pipeline.Context, acc *pipeline.Accumulator, _ []string) pipeline.Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.queues[fc.ClientID]
	if len(queue) > 0 {
		// Drain the pending macro before honouring new selections.
		acc.Select(queue[0])
		m.queues[fc.ClientID] = queue[1:]
		return pipeline.Completed()
	}

	if acc.Decision != nil && acc.Situation != nil &&
		acc.Situation.InDialog && acc.Decision.Action == bot.SingleButton(bot.ButtonA) {
		repeats := make([]bot.ButtonMask, dialogMashRepeats)
		for i := range repeats {
			repeats[i] = acc.Decision.Action
		}
		m.queues[fc.ClientID] = repeats
	}
	return pipeline.Completed()
}

// PendingFor reports how many macro frames are queued for a client.
func (m *MacroExecution) PendingFor(client uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[client])
}

// Forget drops queued macros for a departed client.
func (m *MacroExecution) Forget(client uuid.UUID) {
	m.mu.Lock()
	delete(m.queues, client)
	m.mu.Unlock()
}
