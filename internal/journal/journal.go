// Package journal builds and emits structured training records for the
// online-learning loop. One entry captures the (state, action, reward,
// prediction) tuple of a processed frame plus the frame's phase timing
// snapshot and free-form metadata.
//
// The emission contract to a Writer is ordered append per client with
// at-least-once delivery; there is no cross-client ordering guarantee.
package journal

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmark/framebot/internal/bot"
)

// PhaseDurations is the per-phase timing snapshot attached to an entry,
// keyed by phase name, in microseconds.
type PhaseDurations struct {
	ByPhase     map[string]int64 `json:"by_phase_us"`
	TotalMicros int64            `json:"total_us"`
}

// Entry is one training record. It is built at most once per frame, only
// when the learning preconditions held, and is immutable once built:
// ownership transfers to the Writer on Append.
type Entry struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	ClientID  uuid.UUID         `json:"client_id"`
	FrameID   uuid.UUID         `json:"frame_id"`
	Action    bot.ButtonMask    `json:"action"`
	Reward    float32           `json:"reward"`
	Predicted bot.Prediction    `json:"prediction"`
	EpisodeID uuid.UUID         `json:"episode_id"`
	Phases    PhaseDurations    `json:"phase_durations"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Writer is the journaling sink. Append takes ownership of the entry.
type Writer interface {
	Append(e *Entry) error
	Flush() error
	Close() error
}

// Builder assembles one Entry. Zero-value fields stay zero when a setter is
// not called, so a builder can be threaded through steps that each
// contribute the part they know.
type Builder struct {
	entry Entry
}

// NewBuilder starts an entry for one frame with a fresh identifier.
func NewBuilder(clientID, frameID uuid.UUID) *Builder {
	return &Builder{entry: Entry{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		ClientID:  clientID,
		FrameID:   frameID,
	}}
}

func (b *Builder) Action(a bot.ButtonMask) *Builder {
	b.entry.Action = a
	return b
}

func (b *Builder) Reward(r float32) *Builder {
	b.entry.Reward = r
	return b
}

func (b *Builder) Prediction(p bot.Prediction) *Builder {
	b.entry.Predicted = p
	return b
}

func (b *Builder) Episode(id uuid.UUID) *Builder {
	b.entry.EpisodeID = id
	return b
}

func (b *Builder) PhaseDurations(d PhaseDurations) *Builder {
	b.entry.Phases = d
	return b
}

func (b *Builder) Meta(key, value string) *Builder {
	if b.entry.Metadata == nil {
		b.entry.Metadata = make(map[string]string)
	}
	b.entry.Metadata[key] = value
	return b
}

// Build finalises the entry. The builder must not be reused afterwards.
func (b *Builder) Build() *Entry {
	e := b.entry
	return &e
}

// MemoryWriter keeps the most recent entries in memory. It backs tests and
// the recent-entries API endpoint.
type MemoryWriter struct {
	mu      sync.Mutex
	entries []*Entry
	max     int
}

// NewMemoryWriter creates a writer retaining at most max entries; older
// entries are dropped oldest-first. max <= 0 means unbounded.
func NewMemoryWriter(max int) *MemoryWriter {
	return &MemoryWriter{max: max}
}

func (w *MemoryWriter) Append(e *Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, e)
	if w.max > 0 && len(w.entries) > w.max {
		w.entries = w.entries[len(w.entries)-w.max:]
	}
	return nil
}

func (w *MemoryWriter) Flush() error { return nil }

func (w *MemoryWriter) Close() error { return nil }

// Entries returns a snapshot of the retained entries in append order.
func (w *MemoryWriter) Entries() []*Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Entry, len(w.entries))
	copy(out, w.entries)
	return out
}

// Recent returns up to n most recent entries, newest last.
func (w *MemoryWriter) Recent(n int) []*Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n <= 0 || n > len(w.entries) {
		n = len(w.entries)
	}
	out := make([]*Entry, n)
	copy(out, w.entries[len(w.entries)-n:])
	return out
}

// TeeWriter fans one entry out to several writers in order. Every writer
// sees every entry; the first error is returned after all writers were
// attempted, preserving the at-least-once contract for the others.
type TeeWriter struct {
	writers []Writer
}

func NewTeeWriter(writers ...Writer) *TeeWriter {
	return &TeeWriter{writers: writers}
}

func (t *TeeWriter) Append(e *Entry) error {
	var first error
	for _, w := range t.writers {
		if err := w.Append(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t *TeeWriter) Flush() error {
	var first error
	for _, w := range t.writers {
		if err := w.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t *TeeWriter) Close() error {
	var first error
	for _, w := range t.writers {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
