// Package steps contains the concrete processing steps that make up the
// default frame-decision pipeline, plus the factory that assembles them
// into stages in phase order.
//
// Each step reads the frame through the immutable pipeline Context and
// communicates with later steps only through the Accumulator. Vision and
// policy heuristics here are deliberately cheap: they run inside a
// tens-of-milliseconds frame budget.
package steps
