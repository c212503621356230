package pipeline

import (
	"testing"

	"github.com/fieldmark/framebot/internal/bot"
)

func TestPredicate_Eval(t *testing.T) {
	empty := NewAccumulator()

	withAction := NewAccumulator()
	withAction.Select(bot.SingleButton(bot.ButtonA))

	changed := NewAccumulator()
	changed.ImageChanged = true

	withSituation := NewAccumulator()
	withSituation.Situation = &bot.Situation{Scene: bot.SceneOverworld}

	cases := []struct {
		name string
		p    Predicate
		acc  *Accumulator
		want bool
	}{
		{"always", Always(), empty, true},
		{"image_changed false", ImageChanged(), empty, false},
		{"image_changed true", ImageChanged(), changed, true},
		{"has_selected_action false", HasSelectedAction(), empty, false},
		{"has_selected_action true", HasSelectedAction(), withAction, true},
		{"has_situation true", HasSituation(), withSituation, true},
		{"not", Not(Always()), empty, false},
		{"and empty", And(), empty, true},
		{"and mixed", And(Always(), ImageChanged()), empty, false},
		{"and both", And(ImageChanged(), Always()), changed, true},
		{"or empty", Or(), empty, false},
		{"or one holds", Or(ImageChanged(), Always()), empty, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.Eval(tc.acc); got != tc.want {
				t.Errorf("Eval() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPredicate_String(t *testing.T) {
	cases := []struct {
		p    Predicate
		want string
	}{
		{Always(), "always"},
		{ImageChanged(), "image_changed"},
		{Not(HasSelectedAction()), "not(has_selected_action)"},
		{And(ImageChanged(), HasSelectedAction()), "and(image_changed, has_selected_action)"},
		{Or(HasSituation(), Not(ImageChanged())), "or(has_situation, not(image_changed))"},
	}
	for _, tc := range cases {
		if got := tc.p.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestPredicate_EvalIsPure(t *testing.T) {
	acc := NewAccumulator()
	acc.ImageChanged = true

	And(ImageChanged(), HasSelectedAction(), Not(HasSituation())).Eval(acc)

	if !acc.ImageChanged || acc.SelectedAction != nil || acc.Situation != nil ||
		acc.Reward != nil || len(acc.Metrics.Steps) != 0 {
		t.Error("predicate evaluation mutated the accumulator")
	}
}
