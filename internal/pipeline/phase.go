package pipeline

// Phase names one part of the per-frame decision cycle. The declared order
// is significant: stages always execute in ascending phase order, and the
// order is fixed for the life of a pipeline.
type Phase int

const (
	PhaseAnalysis Phase = iota
	PhaseInference
	PhaseDetection
	PhaseSelection
	PhaseExecution
	PhaseLearning

	phaseCount
)

var phaseNames = [phaseCount]string{
	"Analysis", "Inference", "Detection", "Selection", "Execution", "Learning",
}

func (p Phase) String() string {
	if p < 0 || p >= phaseCount {
		return "Invalid"
	}
	return phaseNames[p]
}

// Valid reports whether p is one of the declared phases.
func (p Phase) Valid() bool {
	return p >= 0 && p < phaseCount
}

// Phases returns all phases in execution order.
func Phases() []Phase {
	out := make([]Phase, phaseCount)
	for i := range out {
		out[i] = Phase(i)
	}
	return out
}
