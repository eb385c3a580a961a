package renderer

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/nvg"
)

// drawPhase names one fixed GPU state configuration used by the draw
// algorithms. All per-call state (stencil ops, culling, topology, color
// writes) is baked into pipelines, so switching state means switching
// pipelines.
type drawPhase uint8

const (
	// phaseFillStencil writes path winding numbers into the stencil buffer.
	// Color writes are off; front faces increment, back faces decrement.
	phaseFillStencil drawPhase = iota
	// phaseFillFringe draws anti-aliasing fringes where stencil is still 0.
	phaseFillFringe
	// phaseFillCover colors covered pixels and zeroes their stencil.
	phaseFillCover
	// phaseConvexFill draws convex interiors directly.
	phaseConvexFill
	// phaseConvexFringe draws convex AA fringes directly.
	phaseConvexFringe
	// phaseStrokeBase draws stroke strips once per pixel, marking stencil.
	phaseStrokeBase
	// phaseStrokeAA draws stroke fringes on still-unmarked pixels.
	phaseStrokeAA
	// phaseStrokeClear resets stroke stencil marks, color writes off.
	phaseStrokeClear
	// phaseStrokeDirect draws stroke strips without stencil involvement.
	phaseStrokeDirect
	// phaseTriangles draws a raw triangle list.
	phaseTriangles

	phaseCount
)

// stencilMode classifies a phase's stencil configuration. Consecutive
// phases with the same mode do not count as a stencil state change.
type stencilMode uint8

const (
	stencilNone stencilMode = iota
	stencilWinding
	stencilEqualKeep
	stencilCoverZero
	stencilEqualIncr
	stencilAlwaysZero
)

func (p drawPhase) stencilMode() stencilMode {
	switch p {
	case phaseFillStencil:
		return stencilWinding
	case phaseFillFringe, phaseStrokeAA:
		return stencilEqualKeep
	case phaseFillCover:
		return stencilCoverZero
	case phaseStrokeBase:
		return stencilEqualIncr
	case phaseStrokeClear:
		return stencilAlwaysZero
	default:
		return stencilNone
	}
}

// writesColor reports whether the phase's color writes are enabled.
func (p drawPhase) writesColor() bool {
	return p != phaseFillStencil && p != phaseStrokeClear
}

func (p drawPhase) topology() gputypes.PrimitiveTopology {
	switch p {
	case phaseFillStencil, phaseConvexFill, phaseTriangles:
		return gputypes.PrimitiveTopologyTriangleList
	default:
		return gputypes.PrimitiveTopologyTriangleStrip
	}
}

func (p drawPhase) cullMode() gputypes.CullMode {
	// The winding pass needs both faces to count front and back windings.
	if p == phaseFillStencil {
		return gputypes.CullModeNone
	}
	return gputypes.CullModeBack
}

func (p drawPhase) label() string {
	switch p {
	case phaseFillStencil:
		return "fill_stencil"
	case phaseFillFringe:
		return "fill_fringe"
	case phaseFillCover:
		return "fill_cover"
	case phaseConvexFill:
		return "convex_fill"
	case phaseConvexFringe:
		return "convex_fringe"
	case phaseStrokeBase:
		return "stroke_base"
	case phaseStrokeAA:
		return "stroke_aa"
	case phaseStrokeClear:
		return "stroke_clear"
	case phaseStrokeDirect:
		return "stroke_direct"
	case phaseTriangles:
		return "triangles"
	default:
		return "unknown"
	}
}

// depthStencilState builds the phase's baked stencil configuration. The
// depth channel of the combined attachment is unused: compare Always,
// writes off. All stencil tests compare against the default reference 0.
func (p drawPhase) depthStencilState() *hal.DepthStencilState {
	ds := &hal.DepthStencilState{
		Format:            gputypes.TextureFormatDepth24PlusStencil8,
		DepthWriteEnabled: false,
		DepthCompare:      gputypes.CompareFunctionAlways,
		StencilReadMask:   0xFF,
		StencilWriteMask:  0xFF,
	}
	keep := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}

	switch p.stencilMode() {
	case stencilWinding:
		ds.StencilFront = hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationIncrementWrap,
		}
		ds.StencilBack = hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationDecrementWrap,
		}
	case stencilEqualKeep:
		eq := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionEqual,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		ds.StencilFront, ds.StencilBack = eq, eq
	case stencilCoverZero:
		zero := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionNotEqual,
			FailOp:      hal.StencilOperationZero,
			DepthFailOp: hal.StencilOperationZero,
			PassOp:      hal.StencilOperationZero,
		}
		ds.StencilFront, ds.StencilBack = zero, zero
	case stencilEqualIncr:
		incr := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionEqual,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationIncrementClamp,
		}
		ds.StencilFront, ds.StencilBack = incr, incr
	case stencilAlwaysZero:
		zero := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationZero,
			DepthFailOp: hal.StencilOperationZero,
			PassOp:      hal.StencilOperationZero,
		}
		ds.StencilFront, ds.StencilBack = zero, zero
	default:
		ds.StencilFront, ds.StencilBack = keep, keep
		ds.StencilWriteMask = 0x00
	}
	return ds
}

// pipelineKey identifies one cached pipeline. Phases that do not write
// color normalize their blend to the zero value so equivalent pipelines
// share a cache entry.
type pipelineKey struct {
	phase drawPhase
	blend nvg.Blend
}

// pipelineCache lazily builds and caches one render pipeline per
// (phase, blend) combination actually used.
type pipelineCache struct {
	device hal.Device
	layout hal.PipelineLayout
	shader hal.ShaderModule
	format gputypes.TextureFormat

	pipelines map[pipelineKey]hal.RenderPipeline
}

func newPipelineCache(device hal.Device, layout hal.PipelineLayout, shader hal.ShaderModule, format gputypes.TextureFormat) *pipelineCache {
	return &pipelineCache{
		device:    device,
		layout:    layout,
		shader:    shader,
		format:    format,
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
	}
}

func blendState(b nvg.Blend) gputypes.BlendState {
	return gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: b.SrcRGB,
			DstFactor: b.DstRGB,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: b.SrcAlpha,
			DstFactor: b.DstAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

// vertexLayout matches the shader's VertexInput: position and tex coord,
// both vec2<f32>.
func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: nvg.VertexSize,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
			},
		},
	}
}

// get returns the pipeline for the phase and blend, creating it on first
// use. created reports a cache miss.
func (pc *pipelineCache) get(phase drawPhase, blend nvg.Blend) (hal.RenderPipeline, bool, error) {
	key := pipelineKey{phase: phase}
	if phase.writesColor() {
		key.blend = blend
	}
	if p, ok := pc.pipelines[key]; ok {
		return p, false, nil
	}

	target := gputypes.ColorTargetState{
		Format:    pc.format,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if phase.writesColor() {
		bs := blendState(blend)
		target.Blend = &bs
	} else {
		target.WriteMask = gputypes.ColorWriteMaskNone
	}

	pipeline, err := pc.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "nvg_" + phase.label(),
		Layout: pc.layout,
		Vertex: hal.VertexState{
			Module:     pc.shader,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     pc.shader,
			EntryPoint: "fs_main",
			Targets:    []gputypes.ColorTargetState{target},
		},
		DepthStencil: phase.depthStencilState(),
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: phase.topology(),
			CullMode: phase.cullMode(),
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("create %s pipeline: %w", phase.label(), err)
	}
	pc.pipelines[key] = pipeline
	nvg.Logger().Debug("nvg: pipeline created", "phase", phase.label())
	return pipeline, true, nil
}

// size reports the number of cached pipelines.
func (pc *pipelineCache) size() int { return len(pc.pipelines) }

// destroy releases every cached pipeline.
func (pc *pipelineCache) destroy() {
	for key, p := range pc.pipelines {
		pc.device.DestroyRenderPipeline(p)
		delete(pc.pipelines, key)
	}
}
