package pipeline

import (
	"testing"
	"time"
)

func TestFrameMetrics_RecordCopiesPath(t *testing.T) {
	fm := &FrameMetrics{}
	path := []string{"Stage", "step"}
	fm.RecordExecuted(path, PhaseAnalysis, StatusCompleted, time.Millisecond)

	path[1] = "mutated"
	if got := fm.Steps[0].PathString(); got != "Stage/step" {
		t.Errorf("recorded path aliased caller slice: %q", got)
	}
}

func TestFrameMetrics_PhaseDurations(t *testing.T) {
	fm := &FrameMetrics{}
	fm.RecordExecuted([]string{"A", "s1"}, PhaseAnalysis, StatusCompleted, 100*time.Microsecond)
	fm.RecordExecuted([]string{"A", "s2"}, PhaseAnalysis, StatusFailed, 50*time.Microsecond)
	fm.RecordSkipped([]string{"L", "gate"}, PhaseLearning)
	fm.RecordExecuted([]string{"S", "s3"}, PhaseSelection, StatusCompleted, 30*time.Microsecond)

	durations := fm.PhaseDurations()
	if got := durations[PhaseAnalysis]; got != 150*time.Microsecond {
		t.Errorf("analysis = %v, want 150µs", got)
	}
	if got := durations[PhaseSelection]; got != 30*time.Microsecond {
		t.Errorf("selection = %v, want 30µs", got)
	}
	// A skip marker contributes nothing, not even a zero entry.
	if _, ok := durations[PhaseLearning]; ok {
		t.Error("skipped phase present in durations")
	}
}

func TestFrameMetrics_Executed(t *testing.T) {
	fm := &FrameMetrics{}
	fm.RecordExecuted([]string{"A", "ran"}, PhaseAnalysis, StatusCompleted, time.Microsecond)
	fm.RecordSkipped([]string{"A", "skipped"}, PhaseAnalysis)

	executed := fm.Executed()
	if len(executed) != 1 || executed[0].Name() != "ran" {
		t.Errorf("Executed() = %v", executed)
	}
}

func TestFrameMetrics_FinalizeUsesClock(t *testing.T) {
	start := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return start.Add(42 * time.Millisecond) }
	defer func() { nowFunc = time.Now }()

	fm := &FrameMetrics{}
	fm.Finalize(start)
	if fm.Total != 42*time.Millisecond {
		t.Errorf("Total = %v, want 42ms", fm.Total)
	}
}

func TestStepMetric_Name(t *testing.T) {
	m := StepMetric{Path: []string{"Stage", "Composite", "step"}}
	if m.Name() != "step" {
		t.Errorf("Name() = %q", m.Name())
	}
	if m.PathString() != "Stage/Composite/step" {
		t.Errorf("PathString() = %q", m.PathString())
	}
	var empty StepMetric
	if empty.Name() != "" {
		t.Errorf("empty Name() = %q", empty.Name())
	}
}

func TestPhase_StringAndValid(t *testing.T) {
	order := []Phase{PhaseAnalysis, PhaseInference, PhaseDetection, PhaseSelection, PhaseExecution, PhaseLearning}
	if len(Phases()) != len(order) {
		t.Fatalf("Phases() has %d entries, want %d", len(Phases()), len(order))
	}
	for i, ph := range Phases() {
		if ph != order[i] {
			t.Errorf("Phases()[%d] = %s, want %s", i, ph, order[i])
		}
		if !ph.Valid() {
			t.Errorf("%s not valid", ph)
		}
	}
	if Phase(99).Valid() {
		t.Error("out-of-range phase reported valid")
	}
}
