package pipeline

import (
	"strings"
	"time"
)

// StepMetric is one recorded step visit. Entries are appended in execution
// order and never mutated once recorded. Identity is positional: identical
// step names can recur across composites within one frame, so the metrics
// list is a list, never a map keyed by name.
type StepMetric struct {
	// Path is the hierarchical location of the step: stage name, then each
	// enclosing composite's name, ending with the step's own name.
	Path     []string
	Phase    Phase
	Status   Status
	Duration time.Duration
}

// Name returns the final path element, the step's own name.
func (m StepMetric) Name() string {
	if len(m.Path) == 0 {
		return ""
	}
	return m.Path[len(m.Path)-1]
}

// PathString renders the path as "Stage/Composite/Step".
func (m StepMetric) PathString() string {
	return strings.Join(m.Path, "/")
}

// FrameMetrics collects the timing record of one frame's pipeline run. It is
// the sole artifact used for bottleneck analysis and for assertions about
// ordering and skip behaviour.
type FrameMetrics struct {
	Steps []StepMetric

	// Total is wall-clock duration of the whole run, set by Finalize.
	Total time.Duration

	// Incomplete marks a run that was abandoned mid-pipeline (superseded
	// frame or fail-fast abort). Incomplete metrics are never merged into a
	// later frame's state.
	Incomplete bool
}

func (fm *FrameMetrics) record(path []string, phase Phase, status Status, d time.Duration) {
	// Copy the path: callers reuse their slices while walking the tree.
	p := make([]string, len(path))
	copy(p, path)
	fm.Steps = append(fm.Steps, StepMetric{Path: p, Phase: phase, Status: status, Duration: d})
}

// RecordExecuted appends an executed (completed or failed) step entry.
func (fm *FrameMetrics) RecordExecuted(path []string, phase Phase, status Status, d time.Duration) {
	fm.record(path, phase, status, d)
}

// RecordSkipped appends a skip marker with zero duration. A skipped
// composite records exactly one marker at its own path; its children are
// not visited and record nothing.
func (fm *FrameMetrics) RecordSkipped(path []string, phase Phase) {
	fm.record(path, phase, StatusSkipped, 0)
}

// Finalize stamps the total wall-clock duration for the run.
func (fm *FrameMetrics) Finalize(start time.Time) {
	fm.Total = nowFunc().Sub(start)
}

// PhaseDurations sums executed step durations per phase. Skip markers
// contribute nothing. There is no separate stage-level overhead: a phase's
// duration is exactly the sum of its constituent steps.
func (fm *FrameMetrics) PhaseDurations() map[Phase]time.Duration {
	out := make(map[Phase]time.Duration, phaseCount)
	for _, m := range fm.Steps {
		if m.Status == StatusSkipped {
			continue
		}
		out[m.Phase] += m.Duration
	}
	return out
}

// Executed returns the entries for steps that actually ran.
func (fm *FrameMetrics) Executed() []StepMetric {
	var out []StepMetric
	for _, m := range fm.Steps {
		if m.Status != StatusSkipped {
			out = append(out, m)
		}
	}
	return out
}
