package pipeline

// Stage is a named, ordered group of steps under one phase. Steps execute
// strictly in insertion order.
//
// Parallel is reserved: it anticipates fan-out of independent leaf steps
// sharing the read-only Context, with results merged into the Accumulator in
// declared order after a join point. No merge strategy is implemented, so
// the flag is accepted but execution stays sequential.
type Stage struct {
	name     string
	phase    Phase
	steps    []Step
	parallel bool
}

// NewStage creates an empty stage.
func NewStage(name string, phase Phase) *Stage {
	return &Stage{name: name, phase: phase}
}

// Add appends steps in execution order.
func (s *Stage) Add(steps ...Step) *Stage {
	s.steps = append(s.steps, steps...)
	return s
}

// Parallel sets the reserved parallel-execution flag.
func (s *Stage) Parallel(v bool) *Stage {
	s.parallel = v
	return s
}

func (s *Stage) Name() string { return s.name }

func (s *Stage) Phase() Phase { return s.phase }

// Steps returns the stage's steps in execution order.
func (s *Stage) Steps() []Step { return s.steps }

// IsParallel reports the reserved parallel flag.
func (s *Stage) IsParallel() bool { return s.parallel }
