package steps

import (
	"errors"

	"github.com/fieldmark/framebot/internal/bot"
	"github.com/fieldmark/framebot/internal/pipeline"
)

// ErrNoImage is returned when an analysis step receives a frame without
// pixel data.
var ErrNoImage = errors.New("steps: frame has no image")

// sampleStride controls how sparsely analysis steps sample the pixel
// buffer. Every 8th pixel in each direction keeps a 256x384 screen under
// two thousand samples.
const sampleStride = 8

// SceneAnalysis derives the per-frame Situation from cheap pixel
// statistics: mean brightness, contrast, and the brightness of the lower
// screen third where dialog text boxes render.
type SceneAnalysis struct{}

// NewSceneAnalysis creates the analysis step.
func NewSceneAnalysis() *SceneAnalysis { return &SceneAnalysis{} }

func (s *SceneAnalysis) Name() string { return "SceneAnalysis" }

func (s *SceneAnalysis) Phase() pipeline.Phase { return pipeline.PhaseAnalysis }

func (s *SceneAnalysis) ShouldExecute(*pipeline.Accumulator) bool { return true }

func (s *SceneAnalysis) Execute(fc *pipeline.Context, acc *pipeline.Accumulator, _ []string) pipeline.Result {
	img := fc.Frame.Image
	if img == nil || len(img.Pixels) == 0 {
		return pipeline.Fail(ErrNoImage)
	}

	stats := sampleStats(img)
	situation := classify(stats)
	acc.Situation = &situation
	return pipeline.Completed()
}

type imageStats struct {
	meanBrightness  float64 // 0..255 across the whole screen
	contrast        float64 // mean absolute deviation from the mean
	lowerBrightness float64 // mean brightness of the bottom third
}

func sampleStats(img *bot.Image) imageStats {
	var sum, count float64
	lowerStart := img.Height * 2 / 3
	var lowerSum, lowerCount float64

	luma := make([]float64, 0, (img.Width/sampleStride+1)*(img.Height/sampleStride+1))
	for y := 0; y < img.Height; y += sampleStride {
		for x := 0; x < img.Width; x += sampleStride {
			r, g, b := img.At(x, y)
			// Integer Rec.601 luma approximation.
			v := float64(299*int(r)+587*int(g)+114*int(b)) / 1000
			luma = append(luma, v)
			sum += v
			count++
			if y >= lowerStart {
				lowerSum += v
				lowerCount++
			}
		}
	}
	if count == 0 {
		return imageStats{}
	}

	mean := sum / count
	var dev float64
	for _, v := range luma {
		if v > mean {
			dev += v - mean
		} else {
			dev += mean - v
		}
	}

	st := imageStats{meanBrightness: mean, contrast: dev / count}
	if lowerCount > 0 {
		st.lowerBrightness = lowerSum / lowerCount
	}
	return st
}

// classify maps sampled statistics to a Situation. Thresholds were tuned
// against captured intro/menu/battle/overworld screens; they only need to
// be right often enough to steer the rule-based fallback selector.
func classify(st imageStats) bot.Situation {
	var out bot.Situation
	switch {
	case st.meanBrightness < 24:
		// Near-black screen: intro, fade, or load transition.
		out.Scene = bot.SceneIntro
		out.InDialog = true
		out.Urgency = bot.UrgencyLow
	case st.contrast > 70:
		// Hard light/dark split is characteristic of battle UI panels.
		out.Scene = bot.SceneBattle
		out.HasText = true
		out.HasMenu = true
		out.Urgency = bot.UrgencyHigh
	case st.lowerBrightness > 200 && st.lowerBrightness-st.meanBrightness > 40:
		// Bright lower third against a darker screen: a text box is open.
		out.Scene = bot.SceneMainMenu
		out.HasText = true
		out.HasMenu = true
		out.InDialog = true
		out.Urgency = bot.UrgencyMedium
	case st.meanBrightness > 230 && st.contrast < 12:
		// Flat white screen: menu background.
		out.Scene = bot.SceneMainMenu
		out.HasMenu = true
		out.Urgency = bot.UrgencyMedium
	default:
		out.Scene = bot.SceneOverworld
		out.Urgency = bot.UrgencyLow
	}
	return out
}
