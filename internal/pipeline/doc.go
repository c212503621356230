// Package pipeline provides the staged per-frame decision pipeline that
// turns one captured emulator frame into one controller action.
//
// This package is the composition root for frame processing: it owns the
// Step, Stage and Phase abstractions and the per-frame Context/Accumulator
// pair, but the concrete steps live in pipeline/steps and none of the leaf
// packages import pipeline/steps back.
//
// One frame is processed by exactly one Pipeline.Process call. Stages run in
// declared order, steps within a stage run in insertion order, and every
// visited step leaves exactly one entry in the frame's metrics list.
package pipeline
