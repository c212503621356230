package steps

import (
	"sync"

	"github.com/google/uuid"

	"github.com/fieldmark/framebot/internal/bot"
	"github.com/fieldmark/framebot/internal/pipeline"
)

// Reward shaping constants. The signs encourage leaving menus, moving
// through the overworld, and reaching new screens, and penalise lingering.
const (
	rewardSceneTransition  = 0.5
	rewardOverworldChange  = 0.2
	rewardMenuNavigation   = 0.02
	penaltyMenuLinger      = -0.1
	penaltyIdleBase        = -0.05
	penaltyIdleEscalation  = -0.02
	idleEscalationInterval = 10 // frames without change before escalating
)

type rewardState struct {
	prevScene  bot.Scene
	sceneKnown bool
	idleFrames int
}

// RewardProcessing computes the frame's scalar training reward from the
// situation and the image-changed flag, tracking minimal per-client state
// (previous scene, consecutive idle frames).
type RewardProcessing struct {
	mu    sync.Mutex
	state map[uuid.UUID]*rewardState
}

// NewRewardProcessing creates the step with empty per-client state.
func NewRewardProcessing() *RewardProcessing {
	return &RewardProcessing{state: make(map[uuid.UUID]*rewardState)}
}

func (r *RewardProcessing) Name() string { return "RewardProcessing" }

func (r *RewardProcessing) Phase() pipeline.Phase { return pipeline.PhaseLearning }

func (r *RewardProcessing) ShouldExecute(*pipeline.Accumulator) bool { return true }

func (r *RewardProcessing) Execute(fc *pipeline.Context, acc *pipeline.Accumulator, _ []string) pipeline.Result {
	r.mu.Lock()
	st, ok := r.state[fc.ClientID]
	if !ok {
		st = &rewardState{}
		r.state[fc.ClientID] = st
	}
	r.mu.Unlock()

	reward := r.score(st, acc)
	acc.Reward = &reward
	return pipeline.Completed()
}

func (r *RewardProcessing) score(st *rewardState, acc *pipeline.Accumulator) float32 {
	var reward float32

	var scene bot.Scene
	inMenu := false
	if acc.Situation != nil {
		scene = acc.Situation.Scene
		inMenu = acc.Situation.HasMenu
	}

	if !acc.ImageChanged {
		st.idleFrames++
		reward += penaltyIdleBase
		reward += penaltyIdleEscalation * float32(st.idleFrames/idleEscalationInterval)
		st.recordScene(scene)
		return reward
	}

	st.idleFrames = 0
	switch {
	case st.sceneKnown && scene != st.prevScene:
		reward += rewardSceneTransition
	case inMenu:
		// Moving within a menu is barely progress.
		reward += rewardMenuNavigation
		reward += penaltyMenuLinger
	case scene == bot.SceneOverworld:
		reward += rewardOverworldChange
	}
	st.recordScene(scene)
	return reward
}

func (st *rewardState) recordScene(scene bot.Scene) {
	st.prevScene = scene
	st.sceneKnown = true
}

// Forget drops reward state for a departed client.
func (r *RewardProcessing) Forget(client uuid.UUID) {
	r.mu.Lock()
	delete(r.state, client)
	r.mu.Unlock()
}
