package pipeline

import (
	"fmt"
	"strings"
)

// PredicateKind tags the variants of Predicate.
type PredicateKind int

const (
	PredAlways PredicateKind = iota
	PredImageChanged
	PredHasSelectedAction
	PredHasSituation
	PredNot
	PredAnd
	PredOr
)

// Predicate is a small named condition over the Accumulator used to gate
// conditional step execution. It is a tagged value rather than an opaque
// closure so tests and tooling can enumerate and print the condition without
// running steps. Evaluation is pure: predicates never mutate the
// accumulator.
type Predicate struct {
	Kind PredicateKind
	Args []Predicate
}

// Always is the default predicate: every step runs.
func Always() Predicate { return Predicate{Kind: PredAlways} }

// ImageChanged holds when the detection phase flagged a screen change.
func ImageChanged() Predicate { return Predicate{Kind: PredImageChanged} }

// HasSelectedAction holds when some step has selected an action this frame.
func HasSelectedAction() Predicate { return Predicate{Kind: PredHasSelectedAction} }

// HasSituation holds when the analysis phase produced a situation.
func HasSituation() Predicate { return Predicate{Kind: PredHasSituation} }

// Not negates a predicate.
func Not(p Predicate) Predicate { return Predicate{Kind: PredNot, Args: []Predicate{p}} }

// And holds when all arguments hold. And() with no arguments is Always.
func And(ps ...Predicate) Predicate { return Predicate{Kind: PredAnd, Args: ps} }

// Or holds when any argument holds. Or() with no arguments never holds.
func Or(ps ...Predicate) Predicate { return Predicate{Kind: PredOr, Args: ps} }

// Eval evaluates the predicate against the accumulator.
func (p Predicate) Eval(acc *Accumulator) bool {
	switch p.Kind {
	case PredAlways:
		return true
	case PredImageChanged:
		return acc.ImageChanged
	case PredHasSelectedAction:
		return acc.SelectedAction != nil
	case PredHasSituation:
		return acc.Situation != nil
	case PredNot:
		if len(p.Args) != 1 {
			return false
		}
		return !p.Args[0].Eval(acc)
	case PredAnd:
		for _, a := range p.Args {
			if !a.Eval(acc) {
				return false
			}
		}
		return true
	case PredOr:
		for _, a := range p.Args {
			if a.Eval(acc) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (p Predicate) String() string {
	switch p.Kind {
	case PredAlways:
		return "always"
	case PredImageChanged:
		return "image_changed"
	case PredHasSelectedAction:
		return "has_selected_action"
	case PredHasSituation:
		return "has_situation"
	case PredNot:
		if len(p.Args) != 1 {
			return "not(?)"
		}
		return fmt.Sprintf("not(%s)", p.Args[0])
	case PredAnd:
		return joinPredicates("and", p.Args)
	case PredOr:
		return joinPredicates("or", p.Args)
	default:
		return "unknown"
	}
}

func joinPredicates(op string, args []Predicate) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", op, strings.Join(parts, ", "))
}
