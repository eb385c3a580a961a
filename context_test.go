package nvg

import "testing"

func TestContextAlloc(t *testing.T) {
	ctx := NewContext()

	if off := ctx.AllocVerts(4); off != 0 {
		t.Errorf("first vertex offset = %d, want 0", off)
	}
	if off := ctx.AllocVerts(2); off != 4 {
		t.Errorf("second vertex offset = %d, want 4", off)
	}
	if len(ctx.Verts) != 6 {
		t.Errorf("vertex count = %d, want 6", len(ctx.Verts))
	}

	if off := ctx.AllocPaths(3); off != 0 {
		t.Errorf("path offset = %d, want 0", off)
	}

	call := ctx.AllocCall()
	call.Type = CallFill
	if len(ctx.Calls) != 1 || ctx.Calls[0].Type != CallFill {
		t.Errorf("call not recorded: %+v", ctx.Calls)
	}
}

func TestContextUniforms(t *testing.T) {
	ctx := NewContext()

	off0 := ctx.AllocFragUniforms(2)
	if off0 != 0 {
		t.Fatalf("first uniform offset = %d, want 0", off0)
	}
	if ctx.UniformCount() != 2 {
		t.Fatalf("uniform count = %d, want 2", ctx.UniformCount())
	}

	u := FragUniforms{Radius: 9, Type: ShaderSimple}
	ctx.SetFragUniforms(off0+ctx.FragSize, &u)

	// Second block starts at FragSize; radius lives 152 bytes in.
	if got := ctx.Uniforms[ctx.FragSize+152]; got == 0 {
		t.Error("second uniform block not written")
	}
	// First block stays zeroed.
	for _, b := range ctx.Uniforms[:ctx.FragSize] {
		if b != 0 {
			t.Fatal("first uniform block clobbered")
		}
	}
}

func TestContextResetRetainsCapacity(t *testing.T) {
	ctx := NewContext()
	ctx.AllocVerts(100)
	ctx.AllocPaths(10)
	ctx.AllocFragUniforms(5)
	ctx.AllocCall()

	capVerts, capPaths := cap(ctx.Verts), cap(ctx.Paths)
	capUniforms, capCalls := cap(ctx.Uniforms), cap(ctx.Calls)

	ctx.Reset()

	if len(ctx.Verts) != 0 || len(ctx.Paths) != 0 || len(ctx.Uniforms) != 0 || len(ctx.Calls) != 0 {
		t.Fatal("reset did not truncate frame arrays")
	}
	if cap(ctx.Verts) != capVerts || cap(ctx.Paths) != capPaths ||
		cap(ctx.Uniforms) != capUniforms || cap(ctx.Calls) != capCalls {
		t.Error("reset should retain capacity")
	}
}

func TestContextAllocZeroesReusedMemory(t *testing.T) {
	ctx := NewContext()
	off := ctx.AllocVerts(3)
	ctx.Verts[off+2] = Vertex{X: 42}

	ctx.Reset()

	off = ctx.AllocVerts(3)
	if ctx.Verts[off+2].X != 0 {
		t.Error("reused vertex memory not zeroed")
	}
}
