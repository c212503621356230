package monitoring

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmark/framebot/internal/bot"
	"github.com/fieldmark/framebot/internal/pipeline"
)

func sampleMetrics(t *testing.T) *pipeline.FrameMetrics {
	t.Helper()
	fm := &pipeline.FrameMetrics{}
	fm.RecordExecuted([]string{"analysis", "scene_analysis"}, pipeline.PhaseAnalysis, pipeline.StatusCompleted, 120*time.Microsecond)
	fm.RecordExecuted([]string{"selection", "action_selection"}, pipeline.PhaseSelection, pipeline.StatusCompleted, 40*time.Microsecond)
	fm.Total = 200 * time.Microsecond
	return fm
}

func TestPerformanceMonitor_FrameAccounting(t *testing.T) {
	mon := NewPerformanceMonitor()
	client := uuid.New()

	for i := 0; i < 10; i++ {
		mon.OnFrameProcessed(client, sampleMetrics(t))
	}
	mon.OnActionSent(client, bot.SingleButton(bot.ButtonA))

	stats := mon.Snapshot()
	if stats.FramesProcessed != 10 {
		t.Errorf("FramesProcessed = %d, want 10", stats.FramesProcessed)
	}
	if stats.ActionsSent != 1 {
		t.Errorf("ActionsSent = %d, want 1", stats.ActionsSent)
	}
	if stats.AvgFrameMicros <= 0 {
		t.Errorf("AvgFrameMicros = %v, want > 0", stats.AvgFrameMicros)
	}

	st, ok := stats.Steps["scene_analysis"]
	if !ok {
		t.Fatal("missing scene_analysis step stat")
	}
	if st.Count != 10 {
		t.Errorf("scene_analysis count = %d, want 10", st.Count)
	}
	if st.MaxMicros != 120 {
		t.Errorf("scene_analysis max = %d, want 120", st.MaxMicros)
	}
}

func TestPerformanceMonitor_Percentiles(t *testing.T) {
	mon := NewPerformanceMonitor()
	client := uuid.New()

	// Identical frames: every percentile collapses to the same value.
	for i := 0; i < 50; i++ {
		mon.OnFrameProcessed(client, sampleMetrics(t))
	}
	stats := mon.Snapshot()
	if stats.FrameMicrosP50 != 200 {
		t.Errorf("p50 = %v, want 200", stats.FrameMicrosP50)
	}
	if stats.FrameMicrosP99 != 200 {
		t.Errorf("p99 = %v, want 200", stats.FrameMicrosP99)
	}
}

func TestPerformanceMonitor_IncompleteFrames(t *testing.T) {
	mon := NewPerformanceMonitor()
	client := uuid.New()

	fm := sampleMetrics(t)
	fm.Incomplete = true
	mon.OnFrameProcessed(client, fm)
	mon.OnFrameProcessed(client, sampleMetrics(t))

	stats := mon.Snapshot()
	if stats.IncompleteFrames != 1 {
		t.Errorf("IncompleteFrames = %d, want 1", stats.IncompleteFrames)
	}
}

func TestCollector_FanOut(t *testing.T) {
	a := NewPerformanceMonitor()
	b := NewPerformanceMonitor()
	col := NewCollector(a)
	col.AddObserver(b)

	client := uuid.New()
	col.NotifyFrameProcessed(client, sampleMetrics(t))
	col.NotifyActionSent(client, bot.Neutral)
	col.NotifyStep(client, "action_send", 15*time.Microsecond)

	for name, mon := range map[string]*PerformanceMonitor{"a": a, "b": b} {
		stats := mon.Snapshot()
		if stats.FramesProcessed != 1 {
			t.Errorf("%s: FramesProcessed = %d, want 1", name, stats.FramesProcessed)
		}
		if stats.ActionsSent != 1 {
			t.Errorf("%s: ActionsSent = %d, want 1", name, stats.ActionsSent)
		}
		if _, ok := stats.Steps["action_send"]; !ok {
			t.Errorf("%s: missing action_send step stat", name)
		}
	}
}
