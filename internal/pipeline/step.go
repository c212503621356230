package pipeline

import (
	"errors"
	"fmt"
)

// Status is the outcome of one step invocation.
type Status int

const (
	StatusCompleted Status = iota
	StatusSkipped
	StatusFailed
)

var statusNames = [...]string{"completed", "skipped", "failed"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Result carries a step's status plus the failure cause when Status is
// StatusFailed.
type Result struct {
	Status Status
	Err    error
}

// Completed is the success result.
func Completed() Result { return Result{Status: StatusCompleted} }

// Skip is the expected-not-an-error result for a step whose precondition
// did not hold.
func Skip() Result { return Result{Status: StatusSkipped} }

// Fail wraps a step failure.
func Fail(err error) Result { return Result{Status: StatusFailed, Err: err} }

// Step is one polymorphic unit of per-frame work.
//
// ShouldExecute must be pure and side-effect free; the pipeline consults it
// before every invocation and records a skip marker when it returns false.
// Execute receives the frame's read-only Context, exclusive mutable access
// to the Accumulator, and the hierarchical path of its enclosing stage and
// composites (not including the step's own name).
type Step interface {
	Name() string
	Phase() Phase
	ShouldExecute(acc *Accumulator) bool
	Execute(fc *Context, acc *Accumulator, path []string) Result
}

// Container is implemented by steps that own an ordered list of child
// steps. An executed container is transparent in the metrics list: only its
// children record entries, carrying the container's name in their paths. A
// skipped container records exactly one skip marker at its own path.
type Container interface {
	Step
	Children() []Step
}

// StepError identifies the failing step when a pipeline run aborts.
type StepError struct {
	Path []string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %v failed: %v", e.Path, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Composite is an ordered sequence of child steps gated by a named
// predicate. When the predicate is false the composite skips as a whole and
// none of its children are visited. When a child fails, remaining children
// are abandoned unless the composite was built with ContinueOnError, in
// which case failures are collected and iteration continues.
type Composite struct {
	name            string
	phase           Phase
	predicate       Predicate
	children        []Step
	continueOnError bool
}

// NewComposite creates an empty composite gated by Always.
func NewComposite(name string, phase Phase) *Composite {
	return &Composite{name: name, phase: phase, predicate: Always()}
}

// When replaces the composite's gate predicate.
func (c *Composite) When(p Predicate) *Composite {
	c.predicate = p
	return c
}

// ContinueOnError makes the composite tolerate child failures: each failure
// is collected, iteration continues, and the composite's own result is
// Failed with the joined causes.
func (c *Composite) ContinueOnError() *Composite {
	c.continueOnError = true
	return c
}

// Add appends child steps in execution order.
func (c *Composite) Add(steps ...Step) *Composite {
	c.children = append(c.children, steps...)
	return c
}

func (c *Composite) Name() string { return c.name }

func (c *Composite) Phase() Phase { return c.phase }

// Predicate exposes the gate for inspection.
func (c *Composite) Predicate() Predicate { return c.predicate }

func (c *Composite) Children() []Step { return c.children }

func (c *Composite) ShouldExecute(acc *Accumulator) bool {
	return c.predicate.Eval(acc)
}

// Execute runs the children strictly in order. The predicate is re-checked
// so that direct invocation matches pipeline-driven invocation; a false
// predicate records the composite's single skip marker and returns Skip.
func (c *Composite) Execute(fc *Context, acc *Accumulator, path []string) Result {
	ownPath := append(path, c.name)
	if !c.predicate.Eval(acc) {
		acc.Metrics.RecordSkipped(ownPath, c.phase)
		return Skip()
	}

	var failures []error
	for _, child := range c.children {
		res := runStep(fc, acc, ownPath, child)
		if res.Status != StatusFailed {
			continue
		}
		if !c.continueOnError {
			return res
		}
		failures = append(failures, res.Err)
	}
	if len(failures) > 0 {
		return Fail(errors.Join(failures...))
	}
	return Completed()
}

// StepFunc adapts a plain function into a leaf step. Cond may be nil, which
// means always execute.
type StepFunc struct {
	StepName  string
	StepPhase Phase
	Cond      func(acc *Accumulator) bool
	Run       func(fc *Context, acc *Accumulator) Result
}

func (s *StepFunc) Name() string { return s.StepName }

func (s *StepFunc) Phase() Phase { return s.StepPhase }

func (s *StepFunc) ShouldExecute(acc *Accumulator) bool {
	if s.Cond == nil {
		return true
	}
	return s.Cond(acc)
}

func (s *StepFunc) Execute(fc *Context, acc *Accumulator, path []string) Result {
	return s.Run(fc, acc)
}

// runStep is the single place a step is consulted, invoked and measured.
// Both the stage walker and Composite children go through it, so skip
// markers, timing and path bookkeeping behave identically at every depth.
func runStep(fc *Context, acc *Accumulator, path []string, s Step) Result {
	ownPath := append(path, s.Name())

	if !s.ShouldExecute(acc) {
		acc.Metrics.RecordSkipped(ownPath, s.Phase())
		tracef("step %v skipped", ownPath)
		return Skip()
	}

	if _, isContainer := s.(Container); isContainer {
		// Containers record through their children; Composite handles its
		// own skip marker for the re-checked predicate.
		return s.Execute(fc, acc, path)
	}

	start := nowFunc()
	res := s.Execute(fc, acc, path)
	elapsed := nowFunc().Sub(start)

	switch res.Status {
	case StatusSkipped:
		acc.Metrics.RecordSkipped(ownPath, s.Phase())
	default:
		acc.Metrics.RecordExecuted(ownPath, s.Phase(), res.Status, elapsed)
	}
	if res.Status == StatusFailed {
		opsf("step %v failed: %v", ownPath, res.Err)
	}
	return res
}
