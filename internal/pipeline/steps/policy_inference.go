package steps

import (
	"fmt"

	"github.com/fieldmark/framebot/internal/bot"
	"github.com/fieldmark/framebot/internal/pipeline"
)

// Policy is the input/output contract of the neural policy collaborator.
// The network itself lives outside this repository; the pipeline only cares
// that given a frame it can produce per-button probabilities and a value
// estimate.
type Policy interface {
	Predict(frame *bot.EnrichedFrame, situation *bot.Situation) (bot.Prediction, error)
	Name() string
}

// UniformPolicy is the bundled fallback: equal probability for every
// button and no value signal. It keeps the pipeline exercising the full
// inference path when no trained policy is attached.
type UniformPolicy struct{}

func (UniformPolicy) Name() string { return "uniform" }

func (UniformPolicy) Predict(*bot.EnrichedFrame, *bot.Situation) (bot.Prediction, error) {
	var p bot.Prediction
	for i := range p.Probabilities {
		p.Probabilities[i] = 1.0 / bot.ButtonCount
	}
	p.Confidence = 0.1
	return p, nil
}

// PolicyInference asks the configured policy for a prediction and stores it
// on the accumulator. A policy error fails the step: a frame without a
// prediction would silently degrade every later phase.
type PolicyInference struct {
	policy Policy
}

// NewPolicyInference wraps a policy; nil falls back to UniformPolicy.
func NewPolicyInference(p Policy) *PolicyInference {
	if p == nil {
		p = UniformPolicy{}
	}
	return &PolicyInference{policy: p}
}

func (s *PolicyInference) Name() string { return "PolicyInference" }

func (s *PolicyInference) Phase() pipeline.Phase { return pipeline.PhaseInference }

func (s *PolicyInference) ShouldExecute(*pipeline.Accumulator) bool { return true }

func (s *PolicyInference) Execute(fc *pipeline.Context, acc *pipeline.Accumulator, _ []string) pipeline.Result {
	pred, err := s.policy.Predict(fc.Frame, acc.Situation)
	if err != nil {
		return pipeline.Fail(fmt.Errorf("policy %q: %w", s.policy.Name(), err))
	}
	acc.Prediction = &pred
	return pipeline.Completed()
}
