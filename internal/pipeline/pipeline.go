package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldmark/framebot/internal/bot"
)

// nowFunc is replaceable in tests that assert timing behaviour.
var nowFunc = time.Now

// ErrAborted marks a run that stopped before its last stage: a fail-fast
// step failure or a deadline hit. The frame still yields a neutral action;
// metrics and journal state recorded before the abort are preserved.
var ErrAborted = errors.New("pipeline: run aborted")

// Config carries the pipeline's own knobs. Everything else (ports, paths,
// model weights) belongs to the collaborators that host the pipeline.
type Config struct {
	// FrameTimeout bounds one frame's processing. Zero disables the
	// deadline. The deadline is checked between steps; a step is never
	// interrupted mid-execution.
	FrameTimeout time.Duration
}

// Pipeline is an ordered collection of stages. It is built once at startup,
// owned by the hosting server loop, and holds no per-frame state: all
// per-frame state lives in the Context/Accumulator pair, so separate
// clients may run separate pipelines concurrently. The caller enforces the
// one-in-flight-per-client contract; the pipeline itself is sequential.
type Pipeline struct {
	cfg     Config
	stages  []*Stage
	byPhase map[Phase][]*Stage
}

// New creates an empty pipeline.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		byPhase: make(map[Phase][]*Stage, phaseCount),
	}
}

// AddStage appends a stage. Stages execute in insertion order; it is the
// builder's responsibility to insert them in ascending phase order.
func (p *Pipeline) AddStage(s *Stage) *Pipeline {
	p.stages = append(p.stages, s)
	p.byPhase[s.Phase()] = append(p.byPhase[s.Phase()], s)
	return p
}

// Stages returns the stages in execution order.
func (p *Pipeline) Stages() []*Stage { return p.stages }

// StagesFor returns the stages registered under a phase.
func (p *Pipeline) StagesFor(phase Phase) []*Stage { return p.byPhase[phase] }

// Process runs one frame through all stages and returns the frame's Context
// and Accumulator. At most one decision is made per frame.
//
// On a step failure (fail-fast, the default at stage level) or a deadline
// hit, the remaining stages are abandoned and Process returns the
// accumulator as-is together with an error wrapping ErrAborted; the
// accumulator's Action() is still always a valid mask, falling back to
// neutral, so the real-time loop never stalls waiting for a decision.
func (p *Pipeline) Process(ctx context.Context, frame *bot.EnrichedFrame) (*Context, *Accumulator, error) {
	fc := NewContext(frame)
	acc := NewAccumulator()

	if p.cfg.FrameTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.FrameTimeout)
		defer cancel()
	}

	for _, stage := range p.stages {
		tracef("stage %q (%s): %d steps", stage.Name(), stage.Phase(), len(stage.Steps()))
		for _, step := range stage.Steps() {
			if err := ctx.Err(); err != nil {
				acc.Metrics.Incomplete = true
				acc.Metrics.Finalize(fc.Start)
				return fc, acc, fmt.Errorf("%w: stage %q: %v", ErrAborted, stage.Name(), err)
			}
			res := runStep(fc, acc, []string{stage.Name()}, step)
			if res.Status == StatusFailed {
				acc.Metrics.Incomplete = true
				acc.Metrics.Finalize(fc.Start)
				return fc, acc, fmt.Errorf("%w: %w", ErrAborted,
					&StepError{Path: []string{stage.Name(), step.Name()}, Err: res.Err})
			}
		}
	}

	acc.Metrics.Finalize(fc.Start)
	diagf("frame %s: %d steps in %s, action %s",
		frame.ID, len(acc.Metrics.Steps), acc.Metrics.Total, acc.Action())
	return fc, acc, nil
}
