package steps

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldmark/framebot/internal/pipeline"
)

// Options configures the default pipeline assembly.
type Options struct {
	// FrameTimeout bounds one frame's processing; zero disables it.
	FrameTimeout time.Duration

	// Policy supplies predictions; nil uses the uniform fallback.
	Policy Policy

	// SelectionSeed fixes action sampling for reproducible runs; zero
	// seeds from entropy.
	SelectionSeed int64
}

// Assembled bundles the built pipeline with the stateful steps the hosting
// server needs to reach for per-client cleanup.
type Assembled struct {
	Pipeline    *pipeline.Pipeline
	ImageChange *ImageChangeDetection
	Macros      *MacroExecution
	Rewards     *RewardProcessing
	Experience  *ExperienceCollection
}

// Forget drops all per-client step state for a departed client.
func (a *Assembled) Forget(client uuid.UUID) {
	a.ImageChange.Forget(client)
	a.Macros.Forget(client)
	a.Rewards.Forget(client)
	a.Experience.Forget(client)
}

// Default assembles the standard six-phase pipeline:
//
//	Analysis   SceneAnalysis
//	Inference  PolicyInference
//	Detection  ImageChangeDetection
//	Selection  ActionSelection
//	Execution  MacroExecution
//	Learning   Composite gated on image_changed AND has_selected_action,
//	           containing RewardProcessing then ExperienceCollection
//
// The Learning gate means an unchanged screen or an action-less frame
// produces no journal entry, which is expected rather than an error.
func Default(opts Options) *Assembled {
	imageChange := NewImageChangeDetection()
	macros := NewMacroExecution()
	rewards := NewRewardProcessing()
	experience := NewExperienceCollection()

	learning := pipeline.NewComposite("Learning", pipeline.PhaseLearning).
		When(pipeline.And(pipeline.ImageChanged(), pipeline.HasSelectedAction())).
		Add(rewards, experience)

	p := pipeline.New(pipeline.Config{FrameTimeout: opts.FrameTimeout}).
		AddStage(pipeline.NewStage("Analysis", pipeline.PhaseAnalysis).
			Add(NewSceneAnalysis())).
		AddStage(pipeline.NewStage("Inference", pipeline.PhaseInference).
			Add(NewPolicyInference(opts.Policy))).
		AddStage(pipeline.NewStage("Detection", pipeline.PhaseDetection).
			Add(imageChange)).
		AddStage(pipeline.NewStage("Selection", pipeline.PhaseSelection).
			Add(NewActionSelection(opts.SelectionSeed))).
		AddStage(pipeline.NewStage("Execution", pipeline.PhaseExecution).
			Add(macros)).
		AddStage(pipeline.NewStage("Learning", pipeline.PhaseLearning).
			Add(learning))

	return &Assembled{
		Pipeline:    p,
		ImageChange: imageChange,
		Macros:      macros,
		Rewards:     rewards,
		Experience:  experience,
	}
}
