package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/fieldmark/framebot/internal/bot"
	"github.com/fieldmark/framebot/internal/pipeline"
	"github.com/fieldmark/framebot/internal/testutil"
)

func run(t *testing.T, a *Assembled, frame *bot.EnrichedFrame) *pipeline.Accumulator {
	t.Helper()
	_, acc, err := a.Pipeline.Process(context.Background(), frame)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	return acc
}

func TestDefault_FirstFrameProducesNoEntry(t *testing.T) {
	a := Default(Options{SelectionSeed: 1})
	client := uuid.New()

	acc := run(t, a, testutil.DarkFrame(client))

	if acc.ImageChanged {
		t.Error("first frame must not count as changed")
	}
	if acc.PendingEntry != nil {
		t.Error("first frame journalled an entry")
	}
	if acc.SelectedAction == nil {
		t.Error("frame left selection without an action")
	}
	// The Learning composite records exactly one skip marker.
	var skips []string
	for _, m := range acc.Metrics.Steps {
		if m.Status == pipeline.StatusSkipped {
			skips = append(skips, m.PathString())
		}
	}
	if len(skips) != 1 || skips[0] != "Learning/Learning" {
		t.Errorf("skip markers = %v, want single Learning marker", skips)
	}
}

func TestDefault_ChangedFrameJournalsEntry(t *testing.T) {
	a := Default(Options{SelectionSeed: 1})
	client := uuid.New()

	run(t, a, testutil.DarkFrame(client))
	acc := run(t, a, testutil.BrightFrame(client))

	if !acc.ImageChanged {
		t.Fatal("second, different frame should register as changed")
	}
	if acc.Reward == nil {
		t.Fatal("learning ran without computing a reward")
	}
	entry := acc.PendingEntry
	if entry == nil {
		t.Fatal("no journal entry built")
	}
	if entry.ClientID != client {
		t.Errorf("entry client = %s, want %s", entry.ClientID, client)
	}
	if entry.Action != acc.Action() {
		t.Errorf("entry action = %s, accumulator action = %s", entry.Action, acc.Action())
	}
	if entry.Reward != *acc.Reward {
		t.Errorf("entry reward = %v, accumulator reward = %v", entry.Reward, *acc.Reward)
	}
	if entry.EpisodeID == uuid.Nil {
		t.Error("entry missing episode id")
	}
	if len(entry.Phases.ByPhase) == 0 {
		t.Error("entry missing phase durations")
	}
}

func TestDefault_UnchangedFrameSkipsLearning(t *testing.T) {
	a := Default(Options{SelectionSeed: 1})
	client := uuid.New()

	run(t, a, testutil.BrightFrame(client))
	acc := run(t, a, testutil.BrightFrame(client))

	if acc.ImageChanged {
		t.Error("identical frame flagged as changed")
	}
	if acc.PendingEntry != nil {
		t.Error("unchanged frame journalled an entry")
	}
}

func TestDefault_ClientsAreIndependent(t *testing.T) {
	a := Default(Options{SelectionSeed: 1})
	c1, c2 := uuid.New(), uuid.New()

	run(t, a, testutil.BrightFrame(c1))
	// c2's first frame is identical pixel data but a different client, so
	// it must still count as that client's baseline, not a change.
	acc := run(t, a, testutil.BrightFrame(c2))
	if acc.ImageChanged {
		t.Error("baseline frame of a second client flagged as changed")
	}
}

func TestAssembled_Forget(t *testing.T) {
	a := Default(Options{SelectionSeed: 1})
	client := uuid.New()

	run(t, a, testutil.DarkFrame(client))
	run(t, a, testutil.BrightFrame(client))

	a.Forget(client)

	// After forgetting, the next frame is a baseline again.
	acc := run(t, a, testutil.BrightFrame(client))
	if acc.ImageChanged {
		t.Error("state survived Forget")
	}
}

func TestSceneAnalysis(t *testing.T) {
	cases := []struct {
		name string
		img  *bot.Image
		want bot.Scene
	}{
		{"near black is intro", testutil.SolidImage(32, 48, 8, 8, 8), bot.SceneIntro},
		{"flat mid grey is overworld", testutil.SolidImage(32, 48, 0xd0, 0xd0, 0xd0), bot.SceneOverworld},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			step := NewSceneAnalysis()
			fc := pipeline.NewContext(testutil.Frame(uuid.New(), tc.img))
			acc := pipeline.NewAccumulator()

			res := step.Execute(fc, acc, nil)
			if res.Status != pipeline.StatusCompleted {
				t.Fatalf("status = %s", res.Status)
			}
			if acc.Situation == nil || acc.Situation.Scene != tc.want {
				t.Errorf("situation = %+v, want scene %s", acc.Situation, tc.want)
			}
		})
	}
}

func TestSceneAnalysis_NoImage(t *testing.T) {
	step := NewSceneAnalysis()
	fc := pipeline.NewContext(bot.NewEnrichedFrame(uuid.New(), 1, nil))

	res := step.Execute(fc, pipeline.NewAccumulator(), nil)
	if res.Status != pipeline.StatusFailed || !errors.Is(res.Err, ErrNoImage) {
		t.Errorf("result = %+v, want ErrNoImage failure", res)
	}
}

func TestImageChangeDetection_DimensionChangeRegisters(t *testing.T) {
	d := NewImageChangeDetection().WithStride(1)
	client := uuid.New()

	small := testutil.Frame(client, testutil.SolidImage(4, 4, 9, 9, 9))
	large := testutil.Frame(client, testutil.SolidImage(8, 8, 9, 9, 9))

	acc := pipeline.NewAccumulator()
	d.Execute(pipeline.NewContext(small), acc, nil)

	acc = pipeline.NewAccumulator()
	d.Execute(pipeline.NewContext(large), acc, nil)
	if !acc.ImageChanged {
		t.Error("resize with identical fill not detected")
	}
}

func TestPolicyInference_FailurePropagates(t *testing.T) {
	a := Default(Options{
		SelectionSeed: 1,
		Policy:        failingPolicy{},
	})

	_, acc, err := a.Pipeline.Process(context.Background(), testutil.DarkFrame(uuid.New()))
	if !errors.Is(err, pipeline.ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if !acc.Metrics.Incomplete {
		t.Error("aborted run not marked incomplete")
	}
	if got := acc.Action(); got != bot.Neutral {
		t.Errorf("Action() = %s, want Neutral", got)
	}
}

type failingPolicy struct{}

func (failingPolicy) Name() string { return "failing" }

func (failingPolicy) Predict(*bot.EnrichedFrame, *bot.Situation) (bot.Prediction, error) {
	return bot.Prediction{}, errors.New("model unavailable")
}

func TestUniformPolicy(t *testing.T) {
	pred, err := UniformPolicy{}.Predict(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	var total float32
	for _, p := range pred.Probabilities {
		total += p
	}
	if total < 0.99 || total > 1.01 {
		t.Errorf("probabilities sum to %v, want ~1", total)
	}
}
