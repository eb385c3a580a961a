package renderer

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/nvg"
)

func TestPhaseStateTable(t *testing.T) {
	cases := []struct {
		phase    drawPhase
		mode     stencilMode
		color    bool
		topology gputypes.PrimitiveTopology
		cull     gputypes.CullMode
	}{
		{phaseFillStencil, stencilWinding, false, gputypes.PrimitiveTopologyTriangleList, gputypes.CullModeNone},
		{phaseFillFringe, stencilEqualKeep, true, gputypes.PrimitiveTopologyTriangleStrip, gputypes.CullModeBack},
		{phaseFillCover, stencilCoverZero, true, gputypes.PrimitiveTopologyTriangleStrip, gputypes.CullModeBack},
		{phaseConvexFill, stencilNone, true, gputypes.PrimitiveTopologyTriangleList, gputypes.CullModeBack},
		{phaseConvexFringe, stencilNone, true, gputypes.PrimitiveTopologyTriangleStrip, gputypes.CullModeBack},
		{phaseStrokeBase, stencilEqualIncr, true, gputypes.PrimitiveTopologyTriangleStrip, gputypes.CullModeBack},
		{phaseStrokeAA, stencilEqualKeep, true, gputypes.PrimitiveTopologyTriangleStrip, gputypes.CullModeBack},
		{phaseStrokeClear, stencilAlwaysZero, false, gputypes.PrimitiveTopologyTriangleStrip, gputypes.CullModeBack},
		{phaseStrokeDirect, stencilNone, true, gputypes.PrimitiveTopologyTriangleStrip, gputypes.CullModeBack},
		{phaseTriangles, stencilNone, true, gputypes.PrimitiveTopologyTriangleList, gputypes.CullModeBack},
	}
	for _, tc := range cases {
		if got := tc.phase.stencilMode(); got != tc.mode {
			t.Errorf("%s stencil mode = %d, want %d", tc.phase.label(), got, tc.mode)
		}
		if got := tc.phase.writesColor(); got != tc.color {
			t.Errorf("%s writesColor = %v, want %v", tc.phase.label(), got, tc.color)
		}
		if got := tc.phase.topology(); got != tc.topology {
			t.Errorf("%s topology = %v, want %v", tc.phase.label(), got, tc.topology)
		}
		if got := tc.phase.cullMode(); got != tc.cull {
			t.Errorf("%s cull = %v, want %v", tc.phase.label(), got, tc.cull)
		}
	}
}

func TestDefaultPhaseStencilWriteMaskZero(t *testing.T) {
	for _, phase := range []drawPhase{phaseConvexFill, phaseConvexFringe, phaseStrokeDirect, phaseTriangles} {
		ds := phase.depthStencilState()
		if ds.StencilWriteMask != 0 {
			t.Errorf("%s stencil write mask = %#x, want 0", phase.label(), ds.StencilWriteMask)
		}
		if ds.StencilFront.Compare != gputypes.CompareFunctionAlways {
			t.Errorf("%s stencil compare = %v, want Always", phase.label(), ds.StencilFront.Compare)
		}
	}
}

func TestPipelineCacheReuse(t *testing.T) {
	r, _, cleanup := createTestRenderer(t, nvg.AntiAlias)
	defer cleanup()

	blend := testBlend()
	_, created, err := r.pipelines.get(phaseTriangles, blend)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !created {
		t.Error("first get must create the pipeline")
	}
	_, created, err = r.pipelines.get(phaseTriangles, blend)
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if created {
		t.Error("second get must reuse the cached pipeline")
	}
	if r.pipelines.size() != 1 {
		t.Errorf("cache size = %d, want 1", r.pipelines.size())
	}

	// A different blend is a different pipeline.
	other := blend
	other.DstRGB = gputypes.BlendFactorOne
	if _, created, _ = r.pipelines.get(phaseTriangles, other); !created {
		t.Error("different blend must create a new pipeline")
	}
}

func TestPipelineCacheBlendNormalizedWhenColorMasked(t *testing.T) {
	r, _, cleanup := createTestRenderer(t, nvg.AntiAlias)
	defer cleanup()

	a := testBlend()
	b := a
	b.DstRGB = gputypes.BlendFactorOne

	if _, created, err := r.pipelines.get(phaseFillStencil, a); err != nil || !created {
		t.Fatalf("first get: created=%v err=%v", created, err)
	}
	// The winding pass writes no color, so blend must not split the cache.
	if _, created, err := r.pipelines.get(phaseFillStencil, b); err != nil || created {
		t.Fatalf("second get: created=%v err=%v, want cached", created, err)
	}
}

func TestBlendStateMapping(t *testing.T) {
	// The alpha destination factor is taken from the call's DstAlpha, not
	// copied from DstRGB.
	b := nvg.Blend{
		SrcRGB:   gputypes.BlendFactorSrcAlpha,
		DstRGB:   gputypes.BlendFactorOneMinusSrcAlpha,
		SrcAlpha: gputypes.BlendFactorOne,
		DstAlpha: gputypes.BlendFactorOne,
	}
	bs := blendState(b)
	if bs.Color.SrcFactor != gputypes.BlendFactorSrcAlpha ||
		bs.Color.DstFactor != gputypes.BlendFactorOneMinusSrcAlpha {
		t.Errorf("color component = %+v", bs.Color)
	}
	if bs.Alpha.DstFactor != gputypes.BlendFactorOne {
		t.Errorf("alpha dst factor = %v, want One", bs.Alpha.DstFactor)
	}
	if bs.Color.Operation != gputypes.BlendOperationAdd || bs.Alpha.Operation != gputypes.BlendOperationAdd {
		t.Error("blend operations must be Add")
	}
}
