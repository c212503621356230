package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/fieldmark/framebot/internal/bot"
	"github.com/fieldmark/framebot/internal/pipeline"
)

// ewmaAlpha is the smoothing factor for running step averages. A small
// alpha keeps the average stable across frame-to-frame jitter.
const ewmaAlpha = 0.1

// frameWindow is how many recent frame totals are retained for the
// percentile summary.
const frameWindow = 256

// Observer receives processing events as the pipeline handles frames.
// Implementations must be safe for concurrent use; the server invokes
// observers from every client connection goroutine.
type Observer interface {
	OnFrameProcessed(clientID uuid.UUID, metrics *pipeline.FrameMetrics)
	OnActionSent(clientID uuid.UUID, action bot.ButtonMask)
	OnStep(clientID uuid.UUID, step string, d time.Duration)
}

// Collector fans processing events out to a set of observers.
type Collector struct {
	observers []Observer
}

func NewCollector(obs ...Observer) *Collector {
	return &Collector{observers: obs}
}

// AddObserver registers another observer. Not safe to call concurrently
// with event notification; register everything before serving.
func (c *Collector) AddObserver(o Observer) {
	c.observers = append(c.observers, o)
}

func (c *Collector) NotifyFrameProcessed(clientID uuid.UUID, metrics *pipeline.FrameMetrics) {
	for _, o := range c.observers {
		o.OnFrameProcessed(clientID, metrics)
	}
}

func (c *Collector) NotifyActionSent(clientID uuid.UUID, action bot.ButtonMask) {
	for _, o := range c.observers {
		o.OnActionSent(clientID, action)
	}
}

func (c *Collector) NotifyStep(clientID uuid.UUID, step string, d time.Duration) {
	for _, o := range c.observers {
		o.OnStep(clientID, step, d)
	}
}

// StepStat holds the running timing summary for one named step.
type StepStat struct {
	AvgMicros float64 `json:"avg_us"`
	MaxMicros int64   `json:"max_us"`
	Count     int64   `json:"count"`
}

// Stats is a point-in-time snapshot of the performance monitor.
type Stats struct {
	FramesProcessed   int64               `json:"frames_processed"`
	ActionsSent       int64               `json:"actions_sent"`
	IncompleteFrames  int64               `json:"incomplete_frames"`
	AvgFrameMicros    float64             `json:"avg_frame_us"`
	FramesPerSecond   float64             `json:"frames_per_second"`
	FrameMicrosP50    float64             `json:"frame_us_p50"`
	FrameMicrosP95    float64             `json:"frame_us_p95"`
	FrameMicrosP99    float64             `json:"frame_us_p99"`
	Steps             map[string]StepStat `json:"steps"`
	ObservedSince     time.Time           `json:"observed_since"`
}

// PerformanceMonitor is an Observer that keeps EWMA and max timings per
// step, an FPS estimate, and a sliding window of frame totals for
// percentile reporting.
type PerformanceMonitor struct {
	mu sync.Mutex

	framesProcessed  int64
	actionsSent      int64
	incompleteFrames int64
	avgFrameMicros   float64

	fps          float64
	fpsFrames    int64
	lastFPSCalc  time.Time
	since        time.Time

	steps  map[string]*StepStat
	window []float64
	next   int
	filled bool
}

func NewPerformanceMonitor() *PerformanceMonitor {
	now := time.Now()
	return &PerformanceMonitor{
		lastFPSCalc: now,
		since:       now,
		steps:       make(map[string]*StepStat),
		window:      make([]float64, 0, frameWindow),
	}
}

func ewma(current, sample float64) float64 {
	return current*(1-ewmaAlpha) + sample*ewmaAlpha
}

func (m *PerformanceMonitor) OnFrameProcessed(_ uuid.UUID, metrics *pipeline.FrameMetrics) {
	totalMicros := float64(metrics.Total.Microseconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.framesProcessed++
	if metrics.Incomplete {
		m.incompleteFrames++
	}
	m.avgFrameMicros = ewma(m.avgFrameMicros, totalMicros)

	if len(m.window) < frameWindow {
		m.window = append(m.window, totalMicros)
	} else {
		m.window[m.next] = totalMicros
		m.next = (m.next + 1) % frameWindow
		m.filled = true
	}

	m.fpsFrames++
	now := time.Now()
	if elapsed := now.Sub(m.lastFPSCalc); elapsed >= time.Second {
		m.fps = float64(m.fpsFrames) / elapsed.Seconds()
		m.fpsFrames = 0
		m.lastFPSCalc = now
	}

	for _, sm := range metrics.Executed() {
		m.recordStepLocked(sm.Name(), sm.Duration)
	}
}

func (m *PerformanceMonitor) OnActionSent(_ uuid.UUID, _ bot.ButtonMask) {
	m.mu.Lock()
	m.actionsSent++
	m.mu.Unlock()
}

func (m *PerformanceMonitor) OnStep(_ uuid.UUID, step string, d time.Duration) {
	m.mu.Lock()
	m.recordStepLocked(step, d)
	m.mu.Unlock()
}

func (m *PerformanceMonitor) recordStepLocked(name string, d time.Duration) {
	st, ok := m.steps[name]
	if !ok {
		st = &StepStat{}
		m.steps[name] = st
	}
	micros := d.Microseconds()
	st.AvgMicros = ewma(st.AvgMicros, float64(micros))
	if micros > st.MaxMicros {
		st.MaxMicros = micros
	}
	st.Count++
}

// Snapshot returns a copy of the current stats. The percentiles cover
// the most recent frameWindow frames.
func (m *PerformanceMonitor) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := Stats{
		FramesProcessed:  m.framesProcessed,
		ActionsSent:      m.actionsSent,
		IncompleteFrames: m.incompleteFrames,
		AvgFrameMicros:   m.avgFrameMicros,
		FramesPerSecond:  m.fps,
		Steps:            make(map[string]StepStat, len(m.steps)),
		ObservedSince:    m.since,
	}
	for name, st := range m.steps {
		out.Steps[name] = *st
	}

	if len(m.window) > 0 {
		sorted := make([]float64, len(m.window))
		copy(sorted, m.window)
		sort.Float64s(sorted)
		out.FrameMicrosP50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
		out.FrameMicrosP95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
		out.FrameMicrosP99 = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	}
	return out
}

// LogObserver logs each processed frame through the package logger.
// Useful for headless runs where no HTTP stats endpoint is wired.
type LogObserver struct{}

func (LogObserver) OnFrameProcessed(clientID uuid.UUID, metrics *pipeline.FrameMetrics) {
	Logf("client %s: frame processed in %s (%d steps, incomplete=%v)",
		clientID, metrics.Total, len(metrics.Steps), metrics.Incomplete)
}

func (LogObserver) OnActionSent(clientID uuid.UUID, action bot.ButtonMask) {
	Logf("client %s: action sent %s", clientID, action)
}

func (LogObserver) OnStep(uuid.UUID, string, time.Duration) {}
