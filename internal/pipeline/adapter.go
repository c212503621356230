package pipeline

// LegacyStep is the older execute-only step contract that predates phases
// and conditional execution. Existing implementations keep working by being
// wrapped in an Adapter; nothing in the legacy contract changes.
type LegacyStep interface {
	Name() string
	Process(fc *Context, acc *Accumulator) error
}

// Adapter bridges a LegacyStep into the Step interface under a fixed phase
// assigned at construction. Adapted steps always execute: the legacy
// contract has no skip notion, so ShouldExecute is hard-coded true and a
// legacy error maps onto a Failed result.
type Adapter struct {
	step  LegacyStep
	phase Phase
}

// Adapt wraps a legacy step for use in a staged pipeline.
func Adapt(step LegacyStep, phase Phase) *Adapter {
	return &Adapter{step: step, phase: phase}
}

func (a *Adapter) Name() string { return a.step.Name() }

func (a *Adapter) Phase() Phase { return a.phase }

func (a *Adapter) ShouldExecute(*Accumulator) bool { return true }

func (a *Adapter) Execute(fc *Context, acc *Accumulator, path []string) Result {
	if err := a.step.Process(fc, acc); err != nil {
		return Fail(err)
	}
	return Completed()
}
