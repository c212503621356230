package bot

import (
	"time"

	"github.com/google/uuid"
)

// Scene classifies the broad state of the game screen.
type Scene int

const (
	SceneUnknown Scene = iota
	SceneIntro
	SceneMainMenu
	SceneBattle
	SceneOverworld
)

var sceneNames = [...]string{"Unknown", "Intro", "MainMenu", "Battle", "Overworld"}

func (s Scene) String() string {
	if s < 0 || int(s) >= len(sceneNames) {
		return "Unknown"
	}
	return sceneNames[s]
}

// Urgency ranks how quickly the bot needs to act in the current situation.
type Urgency int

const (
	UrgencyLow    Urgency = iota // walking around, exploring
	UrgencyMedium                // navigating a menu
	UrgencyHigh                  // in battle
)

// Image is a raw RGB screen capture, rows of the upper screen followed by
// rows of the lower screen when two screens are combined. Pixels holds
// Width*Height*3 bytes.
type Image struct {
	Width  int
	Height int
	Pixels []byte
}

// At returns the RGB triple at (x, y). Out-of-range coordinates return zeros.
func (img *Image) At(x, y int) (r, g, b byte) {
	if x < 0 || y < 0 || x >= img.Width || y >= img.Height {
		return 0, 0, 0
	}
	i := (y*img.Width + x) * 3
	if i+2 >= len(img.Pixels) {
		return 0, 0, 0
	}
	return img.Pixels[i], img.Pixels[i+1], img.Pixels[i+2]
}

// EnrichedFrame is one captured emulator frame plus its identity. The image
// buffer is shared read-only between all steps of a frame's pipeline run, so
// EnrichedFrame values may be passed by pointer without copying pixels.
type EnrichedFrame struct {
	ID         uuid.UUID
	Client     uuid.UUID
	Program    uint16
	CapturedAt time.Time
	Image      *Image
}

// NewEnrichedFrame stamps a captured image with a fresh frame identity.
func NewEnrichedFrame(client uuid.UUID, program uint16, img *Image) *EnrichedFrame {
	return &EnrichedFrame{
		ID:         uuid.New(),
		Client:     client,
		Program:    program,
		CapturedAt: time.Now(),
		Image:      img,
	}
}

// Situation is the derived per-frame read of the screen produced by the
// analysis phase and consumed by selection and learning.
type Situation struct {
	Scene    Scene
	HasText  bool
	HasMenu  bool
	InDialog bool
	Urgency  Urgency
}

// Prediction is the output contract of the neural policy collaborator:
// a probability per button plus a value estimate for the current state.
type Prediction struct {
	Probabilities [ButtonCount]float32
	ValueEstimate float32
	Confidence    float32
}

// SelectionMethod records how an action was chosen, for journaling.
type SelectionMethod int

const (
	SelectionPolicy SelectionMethod = iota
	SelectionRule
	SelectionFallback
)

var selectionNames = [...]string{"policy", "rule", "fallback"}

func (s SelectionMethod) String() string {
	if s < 0 || int(s) >= len(selectionNames) {
		return "fallback"
	}
	return selectionNames[s]
}

// Decision is the action-selection outcome for one frame.
type Decision struct {
	Action     ButtonMask
	Confidence float32
	Method     SelectionMethod
	Reasoning  string
}
