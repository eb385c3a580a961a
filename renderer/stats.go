package renderer

import "fmt"

// FrameStats counts GPU-visible events during one Flush. Counters reset at
// the start of every flush; Renderer.Stats returns the completed frame's
// values so tests and overlays can observe the previous frame.
type FrameStats struct {
	// Submits is the number of command buffer submissions.
	Submits int

	// DrawCalls is the number of Draw/DrawIndexed invocations recorded.
	DrawCalls int

	// PipelineSwitches counts SetPipeline calls.
	PipelineSwitches int

	// StencilStateChanges counts pipeline binds whose stencil configuration
	// differs from the previously bound one within a call.
	StencilStateChanges int

	// DescriptorUpdates counts image descriptor slot (re)assignments.
	DescriptorUpdates int

	// DescriptorCacheHits counts image binds served from a live slot.
	DescriptorCacheHits int

	// BindSkips counts draws whose image binding was skipped because the
	// texture was missing or the slot table was exhausted.
	BindSkips int
}

func (s FrameStats) String() string {
	return fmt.Sprintf(
		"submits=%d draws=%d pipelines=%d stencil=%d descUpdates=%d descHits=%d skips=%d",
		s.Submits, s.DrawCalls, s.PipelineSwitches, s.StencilStateChanges,
		s.DescriptorUpdates, s.DescriptorCacheHits, s.BindSkips)
}
