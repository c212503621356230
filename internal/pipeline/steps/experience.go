package steps

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/fieldmark/framebot/internal/journal"
	"github.com/fieldmark/framebot/internal/pipeline"
)

// episodeMaxEntries bounds one episode before a fresh episode identifier is
// assigned, so downstream training can shard on episode.
const episodeMaxEntries = 512

// ErrNoReward is returned when experience collection runs before reward
// processing in the same composite.
var ErrNoReward = errors.New("steps: no reward computed for frame")

type episodeState struct {
	id      uuid.UUID
	entries int
}

// ExperienceCollection builds the frame's journal entry from the
// accumulator and leaves it in PendingEntry for the pipeline's caller to
// emit. It assumes the Learning composite's predicate already established
// that the image changed and an action was selected.
type ExperienceCollection struct {
	mu       sync.Mutex
	episodes map[uuid.UUID]*episodeState
}

// NewExperienceCollection creates the step with empty episode tracking.
func NewExperienceCollection() *ExperienceCollection {
	return &ExperienceCollection{episodes: make(map[uuid.UUID]*episodeState)}
}

func (e *ExperienceCollection) Name() string { return "ExperienceCollection" }

func (e *ExperienceCollection) Phase() pipeline.Phase { return pipeline.PhaseLearning }

func (e *ExperienceCollection) ShouldExecute(*pipeline.Accumulator) bool { return true }

func (e *ExperienceCollection) Execute(fc *pipeline.Context, acc *pipeline.Accumulator, _ []string) pipeline.Result {
	if acc.Reward == nil {
		return pipeline.Fail(ErrNoReward)
	}

	builder := journal.NewBuilder(fc.ClientID, fc.Frame.ID).
		Action(acc.Action()).
		Reward(*acc.Reward).
		Episode(e.episodeFor(fc.ClientID)).
		PhaseDurations(phaseSnapshot(&acc.Metrics))

	if acc.Prediction != nil {
		builder.Prediction(*acc.Prediction)
	}
	if acc.Decision != nil {
		builder.Meta("selection_method", acc.Decision.Method.String())
	}
	if acc.Situation != nil {
		builder.Meta("scene", acc.Situation.Scene.String())
	}

	acc.PendingEntry = builder.Build()
	return pipeline.Completed()
}

func (e *ExperienceCollection) episodeFor(client uuid.UUID) uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.episodes[client]
	if !ok || st.entries >= episodeMaxEntries {
		st = &episodeState{id: uuid.New()}
		e.episodes[client] = st
	}
	st.entries++
	return st.id
}

// Forget drops episode state for a departed client.
func (e *ExperienceCollection) Forget(client uuid.UUID) {
	e.mu.Lock()
	delete(e.episodes, client)
	e.mu.Unlock()
}

// phaseSnapshot converts the metrics recorded so far into the journal's
// phase-duration form. Entries for the Learning phase cover only the steps
// that ran before this one; that partial view is inherent to journaling
// from inside the run.
func phaseSnapshot(fm *pipeline.FrameMetrics) journal.PhaseDurations {
	byPhase := make(map[string]int64)
	var total int64
	for phase, d := range fm.PhaseDurations() {
		us := d.Microseconds()
		byPhase[phase.String()] = us
		total += us
	}
	return journal.PhaseDurations{ByPhase: byPhase, TotalMicros: total}
}
