package steps

import (
	"math/rand"

	"github.com/fieldmark/framebot/internal/bot"
	"github.com/fieldmark/framebot/internal/pipeline"
)

// ActionSelection turns the frame's prediction and situation into exactly
// one decision. With a usable prediction it samples a button weighted by
// the policy probabilities; otherwise it falls back to situation rules, and
// as a last resort a random direction. A frame always leaves this step with
// a selected action.
type ActionSelection struct {
	rng *rand.Rand
}

// NewActionSelection creates the selector. seed fixes the sampling sequence
// for reproducible runs; pass 0 for a time-seeded source.
func NewActionSelection(seed int64) *ActionSelection {
	if seed == 0 {
		return &ActionSelection{rng: rand.New(rand.NewSource(rand.Int63()))}
	}
	return &ActionSelection{rng: rand.New(rand.NewSource(seed))}
}

func (s *ActionSelection) Name() string { return "ActionSelection" }

func (s *ActionSelection) Phase() pipeline.Phase { return pipeline.PhaseSelection }

func (s *ActionSelection) ShouldExecute(*pipeline.Accumulator) bool { return true }

func (s *ActionSelection) Execute(fc *pipeline.Context, acc *pipeline.Accumulator, _ []string) pipeline.Result {
	decision := s.decide(acc)
	acc.Decision = &decision
	acc.Select(decision.Action)
	return pipeline.Completed()
}

func (s *ActionSelection) decide(acc *pipeline.Accumulator) bot.Decision {
	if acc.Prediction != nil {
		if b, ok := s.sample(acc.Prediction.Probabilities); ok {
			return bot.Decision{
				Action:     bot.SingleButton(b),
				Confidence: acc.Prediction.Probabilities[b],
				Method:     bot.SelectionPolicy,
				Reasoning:  "sampled from policy probabilities",
			}
		}
	}
	if acc.Situation != nil {
		if d, ok := ruleFor(*acc.Situation); ok {
			return d
		}
	}
	dirs := [...]bot.Button{bot.ButtonUp, bot.ButtonDown, bot.ButtonLeft, bot.ButtonRight}
	return bot.Decision{
		Action:     bot.SingleButton(dirs[s.rng.Intn(len(dirs))]),
		Confidence: 0.05,
		Method:     bot.SelectionFallback,
		Reasoning:  "no prediction or rule matched, random direction",
	}
}

// sample draws a button index weighted by probs. It reports false when the
// distribution is unusable (all zero, negative, or non-finite).
func (s *ActionSelection) sample(probs [bot.ButtonCount]float32) (bot.Button, bool) {
	var total float64
	for _, p := range probs {
		if p > 0 && p == p { // skip negatives and NaN
			total += float64(p)
		}
	}
	if total <= 0 {
		return 0, false
	}
	target := s.rng.Float64() * total
	var acc float64
	for i, p := range probs {
		if p <= 0 || p != p {
			continue
		}
		acc += float64(p)
		if target < acc {
			return bot.Button(i), true
		}
	}
	return bot.Button(bot.ButtonCount - 1), true
}

func ruleFor(sit bot.Situation) (bot.Decision, bool) {
	switch {
	case sit.InDialog:
		// Advance dialog.
		return bot.Decision{
			Action:     bot.SingleButton(bot.ButtonA),
			Confidence: 0.6,
			Method:     bot.SelectionRule,
			Reasoning:  "dialog open, advancing text",
		}, true
	case sit.HasMenu && sit.Scene != bot.SceneBattle:
		// Escape menus outside battle.
		return bot.Decision{
			Action:     bot.SingleButton(bot.ButtonB),
			Confidence: 0.5,
			Method:     bot.SelectionRule,
			Reasoning:  "non-battle menu open, backing out",
		}, true
	case sit.Scene == bot.SceneBattle:
		return bot.Decision{
			Action:     bot.SingleButton(bot.ButtonA),
			Confidence: 0.5,
			Method:     bot.SelectionRule,
			Reasoning:  "battle menu, confirming first option",
		}, true
	default:
		return bot.Decision{}, false
	}
}
