// Package renderer executes nvg frame command streams on a hal.Device.
//
// The renderer owns every device object involved: the texture registry,
// the image descriptor slot table, the pipeline cache, the depth/stencil
// attachment and a two-slot ring of per-frame transient buffers. Callers
// hand in only the color target view.
//
// Execution is deliberately synchronous: every draw call is recorded into
// its own render pass, submitted, and waited on before the next call is
// recorded. That keeps texture updates, buffer uploads and draws strictly
// ordered without any cross-call hazard tracking.
package renderer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/nvg"
)

// targetFormat is the color format of the render target view passed to
// Flush.
const targetFormat = gputypes.TextureFormatBGRA8Unorm

// uniformBlockStride is the GPU-side distance between fragment uniform
// blocks. Uniform buffer binding offsets must be 256-byte aligned, so the
// packed blocks are spread out to this stride at upload time.
const uniformBlockStride = 256

// Renderer executes nvg.Context command streams on a GPU.
// Not safe for concurrent use; one renderer per render thread.
type Renderer struct {
	device hal.Device
	queue  hal.Queue
	flags  nvg.CreateFlags

	shader     hal.ShaderModule
	viewLayout hal.BindGroupLayout
	fragLayout hal.BindGroupLayout
	texLayout  hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	pipelines *pipelineCache
	samplers  [samplerCount]hal.Sampler
	textures  *textureRegistry
	slots     *slotTable
	ring      *frameRing

	viewBuf  hal.Buffer
	viewBind hal.BindGroup

	// Fallback 1x1 white texture, bound whenever a draw has no image or
	// its image bind is skipped. Lives outside the registry so it never
	// consumes a public texture id.
	whiteTex  hal.Texture
	whiteView hal.TextureView
	whiteBind hal.BindGroup

	stencilTex  hal.Texture
	stencilView hal.TextureView
	stencilW    uint32
	stencilH    uint32

	stats     FrameStats
	lastStats FrameStats
}

// New creates a renderer on the given device and queue.
func New(device hal.Device, queue hal.Queue, flags nvg.CreateFlags) (*Renderer, error) {
	r := &Renderer{
		device: device,
		queue:  queue,
		flags:  flags,
	}
	if err := r.create(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) create() error {
	source := fillShaderSource
	if r.flags&nvg.AntiAlias != 0 {
		source = fillEdgeAAShaderSource
	}
	shader, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "nvg_fill_shader",
		Source: hal.ShaderSource{WGSL: source},
	})
	if err != nil {
		return fmt.Errorf("compile fill shader: %w", err)
	}
	r.shader = shader

	viewLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "nvg_view_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create view layout: %w", err)
	}
	r.viewLayout = viewLayout

	fragLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "nvg_frag_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create frag layout: %w", err)
	}
	r.fragLayout = fragLayout

	texLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "nvg_texture_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create texture layout: %w", err)
	}
	r.texLayout = texLayout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "nvg_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.viewLayout, r.fragLayout, r.texLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	r.pipelines = newPipelineCache(r.device, r.pipeLayout, r.shader, targetFormat)

	samplers, err := createSamplers(r.device)
	if err != nil {
		return err
	}
	r.samplers = samplers

	r.textures = newTextureRegistry(r.device, r.queue)
	r.slots = newSlotTable(r.device, r.texLayout, MaxImageDescriptors)
	r.ring = newFrameRing(r.device, r.queue)

	viewBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "nvg_view_uniform",
		Size:  viewUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create view uniform buffer: %w", err)
	}
	r.viewBuf = viewBuf

	viewBind, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "nvg_view_bind",
		Layout: r.viewLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: r.viewBuf.NativeHandle(), Offset: 0, Size: viewUniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create view bind group: %w", err)
	}
	r.viewBind = viewBind

	if err := r.createWhiteTexture(); err != nil {
		return err
	}

	nvg.Logger().Debug("nvg: renderer created",
		"antialias", r.flags&nvg.AntiAlias != 0,
		"stencilStrokes", r.flags&nvg.StencilStrokes != 0)
	return nil
}

func (r *Renderer) createWhiteTexture() error {
	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "nvg_white",
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create white texture: %w", err)
	}
	r.whiteTex = tex

	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "nvg_white_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("create white texture view: %w", err)
	}
	r.whiteView = view

	r.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		[]byte{0xFF, 0xFF, 0xFF, 0xFF},
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: 4, RowsPerImage: 1},
		&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)

	bind, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "nvg_white_bind",
		Layout: r.texLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{
				TextureView: view.NativeHandle(),
			}},
			{Binding: 1, Resource: gputypes.SamplerBinding{
				Sampler: r.samplers[0].NativeHandle(),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create white bind group: %w", err)
	}
	r.whiteBind = bind
	return nil
}

// Close drains in-flight work and releases every device object. Safe to
// call on a partially constructed renderer.
func (r *Renderer) Close() {
	if r.device == nil {
		return
	}
	if r.ring != nil {
		r.ring.destroy()
		r.ring = nil
	}
	if r.slots != nil {
		r.slots.destroy()
		r.slots = nil
	}
	if r.textures != nil {
		r.textures.destroy()
		r.textures = nil
	}
	if r.whiteBind != nil {
		r.device.DestroyBindGroup(r.whiteBind)
		r.whiteBind = nil
	}
	if r.whiteView != nil {
		r.device.DestroyTextureView(r.whiteView)
		r.whiteView = nil
	}
	if r.whiteTex != nil {
		r.device.DestroyTexture(r.whiteTex)
		r.whiteTex = nil
	}
	if r.viewBind != nil {
		r.device.DestroyBindGroup(r.viewBind)
		r.viewBind = nil
	}
	if r.viewBuf != nil {
		r.device.DestroyBuffer(r.viewBuf)
		r.viewBuf = nil
	}
	r.destroyStencilTarget()
	for i := range r.samplers {
		if r.samplers[i] != nil {
			r.device.DestroySampler(r.samplers[i])
			r.samplers[i] = nil
		}
	}
	if r.pipelines != nil {
		r.pipelines.destroy()
		r.pipelines = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.texLayout != nil {
		r.device.DestroyBindGroupLayout(r.texLayout)
		r.texLayout = nil
	}
	if r.fragLayout != nil {
		r.device.DestroyBindGroupLayout(r.fragLayout)
		r.fragLayout = nil
	}
	if r.viewLayout != nil {
		r.device.DestroyBindGroupLayout(r.viewLayout)
		r.viewLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}

// CreateTexture registers a texture and returns its id. Ids start at 1 and
// are never reused. data may be nil for a deferred upload.
func (r *Renderer) CreateTexture(typ nvg.TextureType, w, h int, flags nvg.ImageFlags, data []byte) (int, error) {
	t, err := r.textures.create(typ, w, h, flags, data)
	if err != nil {
		return 0, err
	}
	return t.ID, nil
}

// UpdateTexture replaces a region of the texture from data, which must be
// the full image backing the texture. Updates are row-granular: x and w
// are ignored and rows y..y+h are replaced at full width.
func (r *Renderer) UpdateTexture(id, x, y, w, h int, data []byte) error {
	_, _ = x, w
	return r.textures.update(id, y, h, data)
}

// DeleteTexture destroys the texture and releases any descriptor slots
// describing it. The caller guarantees no in-flight frame still uses it.
func (r *Renderer) DeleteTexture(id int) error {
	r.slots.release(id)
	return r.textures.delete(id)
}

// GetTextureSize returns the dimensions of a registered texture.
func (r *Renderer) GetTextureSize(id int) (w, h int, err error) {
	t := r.textures.find(id)
	if t == nil {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	return t.Width, t.Height, nil
}

// FindTexture returns the registry entry for id, or nil.
func (r *Renderer) FindTexture(id int) *Texture {
	return r.textures.find(id)
}

// Stats returns the counters of the last completed Flush.
func (r *Renderer) Stats() FrameStats {
	return r.lastStats
}

// frameState carries per-flush data between Flush and the call recorders.
type frameState struct {
	slot      *frameSlot
	target    hal.TextureView
	firstPass bool
	fanRanges []fanRange
	fragSize  int
}

// fanRange is a path's index range inside the frame fan index buffer.
type fanRange struct {
	offset uint32
	count  uint32
}

// Flush executes every queued call of the context against the target view
// and resets the context. The target must be width x height and in the
// BGRA8 format; its existing contents are preserved (color load op is
// always Load). With no queued calls nothing is submitted.
func (r *Renderer) Flush(ctx *nvg.Context, target hal.TextureView, width, height uint32) error {
	defer ctx.Reset()
	r.stats = FrameStats{}
	defer r.finishStats()

	if len(ctx.Calls) == 0 {
		return nil
	}

	if err := r.ensureStencilTarget(width, height); err != nil {
		return err
	}
	slot, err := r.ring.begin()
	if err != nil {
		return err
	}

	r.queue.WriteBuffer(r.viewBuf, 0, packViewUniform(width, height))

	if vertexData := nvg.PackVertices(ctx.Verts); len(vertexData) > 0 {
		slot.vertexBuf, err = r.createFrameBuffer("nvg_frame_verts", vertexData,
			gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
		if err != nil {
			return err
		}
	}

	indexData, fanRanges := buildFanIndices(ctx.Paths)
	if len(indexData) > 0 {
		slot.indexBuf, err = r.createFrameBuffer("nvg_frame_indices", indexData,
			gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
		if err != nil {
			return err
		}
	}

	if blocks := ctx.UniformCount(); blocks > 0 {
		spread := make([]byte, blocks*uniformBlockStride)
		for i := 0; i < blocks; i++ {
			copy(spread[i*uniformBlockStride:], ctx.Uniforms[i*ctx.FragSize:(i+1)*ctx.FragSize])
		}
		slot.uniformBuf, err = r.createFrameBuffer("nvg_frame_uniforms", spread,
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
		if err != nil {
			return err
		}
	}
	slot.uniformBinds = make(map[int]hal.BindGroup)

	frame := &frameState{
		slot:      slot,
		target:    target,
		firstPass: true,
		fanRanges: fanRanges,
		fragSize:  ctx.FragSize,
	}

	for i := range ctx.Calls {
		call := &ctx.Calls[i]
		switch call.Type {
		case nvg.CallFill:
			err = r.fill(frame, ctx, call)
		case nvg.CallConvexFill:
			err = r.convexFill(frame, ctx, call)
		case nvg.CallStroke:
			err = r.stroke(frame, ctx, call)
		case nvg.CallTriangles:
			err = r.triangles(frame, call)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("call %d: %w", i, err)
		}
	}
	return nil
}

func (r *Renderer) finishStats() {
	hits, updates := r.slots.drainCounters()
	r.stats.DescriptorCacheHits = hits
	r.stats.DescriptorUpdates = updates
	r.lastStats = r.stats
	if r.flags&nvg.Debug != 0 {
		nvg.Logger().Debug("nvg: frame complete", "stats", r.lastStats.String())
	}
}

// fill renders a possibly self-intersecting path set: winding pass into
// the stencil buffer, anti-aliasing fringes, then a bounding quad cover
// pass that colors the interior and zeroes the stencil again.
func (r *Renderer) fill(frame *frameState, ctx *nvg.Context, call *nvg.Call) error {
	paths := ctx.Paths[call.PathOffset : call.PathOffset+call.PathCount]
	return r.recordCall(frame, func(ps *passState) error {
		if err := ps.setPipeline(phaseFillStencil, call.Blend); err != nil {
			return err
		}
		if err := ps.bindUniform(call.UniformOffset); err != nil {
			return err
		}
		ps.bindImage(0)
		for i := range paths {
			fan := frame.fanRanges[call.PathOffset+i]
			if fan.count == 0 {
				continue
			}
			ps.rp.DrawIndexed(fan.count, 1, fan.offset, 0, 0)
			r.stats.DrawCalls++
		}

		if err := ps.bindUniform(call.UniformOffset + frame.fragSize); err != nil {
			return err
		}
		ps.bindImage(call.Image)

		if r.flags&nvg.AntiAlias != 0 {
			if err := ps.setPipeline(phaseFillFringe, call.Blend); err != nil {
				return err
			}
			for i := range paths {
				if paths[i].StrokeCount == 0 {
					continue
				}
				ps.rp.Draw(uint32(paths[i].StrokeCount), 1, uint32(paths[i].StrokeOffset), 0)
				r.stats.DrawCalls++
			}
		}

		if err := ps.setPipeline(phaseFillCover, call.Blend); err != nil {
			return err
		}
		ps.rp.Draw(uint32(call.TriangleCount), 1, uint32(call.TriangleOffset), 0)
		r.stats.DrawCalls++
		return nil
	})
}

// convexFill renders convex paths directly: interiors as fan triangles,
// fringes as strips. The stencil buffer is untouched.
func (r *Renderer) convexFill(frame *frameState, ctx *nvg.Context, call *nvg.Call) error {
	paths := ctx.Paths[call.PathOffset : call.PathOffset+call.PathCount]
	return r.recordCall(frame, func(ps *passState) error {
		if err := ps.setPipeline(phaseConvexFill, call.Blend); err != nil {
			return err
		}
		if err := ps.bindUniform(call.UniformOffset); err != nil {
			return err
		}
		ps.bindImage(call.Image)
		for i := range paths {
			fan := frame.fanRanges[call.PathOffset+i]
			if fan.count == 0 {
				continue
			}
			ps.rp.DrawIndexed(fan.count, 1, fan.offset, 0, 0)
			r.stats.DrawCalls++
		}

		fringes := false
		for i := range paths {
			if paths[i].StrokeCount > 0 {
				fringes = true
				break
			}
		}
		if !fringes {
			return nil
		}
		if err := ps.setPipeline(phaseConvexFringe, call.Blend); err != nil {
			return err
		}
		for i := range paths {
			if paths[i].StrokeCount == 0 {
				continue
			}
			ps.rp.Draw(uint32(paths[i].StrokeCount), 1, uint32(paths[i].StrokeOffset), 0)
			r.stats.DrawCalls++
		}
		return nil
	})
}

// stroke renders stroke strips. With StencilStrokes each pixel is drawn
// exactly once: a base pass marks touched pixels, an AA pass refines the
// edges of still-unmarked pixels, and a clear pass resets the marks.
func (r *Renderer) stroke(frame *frameState, ctx *nvg.Context, call *nvg.Call) error {
	paths := ctx.Paths[call.PathOffset : call.PathOffset+call.PathCount]

	drawStrips := func(ps *passState) {
		for i := range paths {
			if paths[i].StrokeCount == 0 {
				continue
			}
			ps.rp.Draw(uint32(paths[i].StrokeCount), 1, uint32(paths[i].StrokeOffset), 0)
			r.stats.DrawCalls++
		}
	}

	if r.flags&nvg.StencilStrokes == 0 {
		return r.recordCall(frame, func(ps *passState) error {
			if err := ps.setPipeline(phaseStrokeDirect, call.Blend); err != nil {
				return err
			}
			if err := ps.bindUniform(call.UniformOffset); err != nil {
				return err
			}
			ps.bindImage(call.Image)
			drawStrips(ps)
			return nil
		})
	}

	return r.recordCall(frame, func(ps *passState) error {
		if err := ps.setPipeline(phaseStrokeBase, call.Blend); err != nil {
			return err
		}
		if err := ps.bindUniform(call.UniformOffset + frame.fragSize); err != nil {
			return err
		}
		ps.bindImage(call.Image)
		drawStrips(ps)

		if err := ps.setPipeline(phaseStrokeAA, call.Blend); err != nil {
			return err
		}
		if err := ps.bindUniform(call.UniformOffset); err != nil {
			return err
		}
		drawStrips(ps)

		if err := ps.setPipeline(phaseStrokeClear, call.Blend); err != nil {
			return err
		}
		drawStrips(ps)
		return nil
	})
}

// triangles renders a raw triangle list (text quads, images).
func (r *Renderer) triangles(frame *frameState, call *nvg.Call) error {
	return r.recordCall(frame, func(ps *passState) error {
		if err := ps.setPipeline(phaseTriangles, call.Blend); err != nil {
			return err
		}
		if err := ps.bindUniform(call.UniformOffset); err != nil {
			return err
		}
		ps.bindImage(call.Image)
		ps.rp.Draw(uint32(call.TriangleCount), 1, uint32(call.TriangleOffset), 0)
		r.stats.DrawCalls++
		return nil
	})
}

// recordCall wraps one draw call in its own encoder, render pass and
// fenced submit. The first pass of a frame clears the stencil attachment;
// later passes load it so winding state set up within a pass never leaks
// across calls (every stencil algorithm leaves the buffer zeroed).
func (r *Renderer) recordCall(frame *frameState, record func(*passState) error) error {
	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "nvg_call_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("nvg_call"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	stencilLoad := gputypes.LoadOpLoad
	if frame.firstPass {
		stencilLoad = gputypes.LoadOpClear
	}
	frame.firstPass = false

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "nvg_call_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    frame.target,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              r.stencilView,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     stencilLoad,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: 0,
		},
	})

	ps := &passState{r: r, rp: rp, frame: frame, stencil: stencilNone}
	ps.bindFrame()
	if err := record(ps); err != nil {
		rp.End()
		encoder.DiscardEncoding()
		return err
	}
	rp.End()

	cb, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	r.stats.Submits++
	return r.ring.submit(frame.slot, cb)
}

// passState tracks the mutable bind state of one render pass.
type passState struct {
	r       *Renderer
	rp      hal.RenderPassEncoder
	frame   *frameState
	stencil stencilMode
}

// bindFrame sets the per-frame bindings shared by every phase.
func (ps *passState) bindFrame() {
	if ps.frame.slot.vertexBuf != nil {
		ps.rp.SetVertexBuffer(0, ps.frame.slot.vertexBuf, 0)
	}
	if ps.frame.slot.indexBuf != nil {
		ps.rp.SetIndexBuffer(ps.frame.slot.indexBuf, gputypes.IndexFormatUint32, 0)
	}
	ps.rp.SetBindGroup(0, ps.r.viewBind, nil)
}

func (ps *passState) setPipeline(phase drawPhase, blend nvg.Blend) error {
	p, _, err := ps.r.pipelines.get(phase, blend)
	if err != nil {
		return err
	}
	ps.rp.SetPipeline(p)
	ps.r.stats.PipelineSwitches++
	if m := phase.stencilMode(); m != ps.stencil {
		ps.r.stats.StencilStateChanges++
		ps.stencil = m
	}
	return nil
}

// bindUniform binds the fragment uniform block at the given frame byte
// offset, creating and caching its bind group on first use.
func (ps *passState) bindUniform(offset int) error {
	block := offset / ps.frame.fragSize
	bg, ok := ps.frame.slot.uniformBinds[block]
	if !ok {
		var err error
		bg, err = ps.r.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "nvg_frag_bind",
			Layout: ps.r.fragLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: ps.frame.slot.uniformBuf.NativeHandle(),
					Offset: uint64(block * uniformBlockStride),
					Size:   nvg.FragUniformsSize,
				}},
			},
		})
		if err != nil {
			return fmt.Errorf("create frag bind group: %w", err)
		}
		ps.frame.slot.uniformBinds[block] = bg
	}
	ps.rp.SetBindGroup(1, bg, nil)
	return nil
}

// bindImage binds the texture's descriptor slot, or the white fallback
// when image is 0, unknown, or the slot table is exhausted. Misses are
// soft: the draw proceeds with the fallback and the skip is counted.
func (ps *passState) bindImage(image int) {
	if image == 0 {
		ps.rp.SetBindGroup(2, ps.r.whiteBind, nil)
		return
	}
	t := ps.r.textures.find(image)
	if t == nil {
		ps.r.stats.BindSkips++
		nvg.Logger().Warn("nvg: draw references unknown texture", "id", image)
		ps.rp.SetBindGroup(2, ps.r.whiteBind, nil)
		return
	}
	bind, _, err := ps.r.slots.acquire(t, ps.r.samplers[samplerIndex(t.Flags)])
	if err != nil {
		ps.r.stats.BindSkips++
		nvg.Logger().Warn("nvg: image bind skipped", "id", image, "err", err)
		ps.rp.SetBindGroup(2, ps.r.whiteBind, nil)
		return
	}
	ps.rp.SetBindGroup(2, bind, nil)
}

// ensureStencilTarget lazily creates the depth/stencil attachment, and
// recreates it when the target size changes.
func (r *Renderer) ensureStencilTarget(w, h uint32) error {
	if r.stencilTex != nil && r.stencilW == w && r.stencilH == h {
		return nil
	}
	r.destroyStencilTarget()

	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "nvg_stencil",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatDepth24PlusStencil8,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create stencil texture: %w", err)
	}
	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "nvg_stencil_view",
		Format:        gputypes.TextureFormatDepth24PlusStencil8,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.device.DestroyTexture(tex)
		return fmt.Errorf("create stencil view: %w", err)
	}
	r.stencilTex = tex
	r.stencilView = view
	r.stencilW = w
	r.stencilH = h
	return nil
}

func (r *Renderer) destroyStencilTarget() {
	if r.stencilView != nil {
		r.device.DestroyTextureView(r.stencilView)
		r.stencilView = nil
	}
	if r.stencilTex != nil {
		r.device.DestroyTexture(r.stencilTex)
		r.stencilTex = nil
	}
	r.stencilW, r.stencilH = 0, 0
}

// createFrameBuffer creates a GPU buffer and uploads data.
func (r *Renderer) createFrameBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	r.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// packViewUniform serializes the 16-byte view uniform block.
func packViewUniform(w, h uint32) []byte {
	buf := make([]byte, viewUniformSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(w)))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(h)))
	return buf
}

// buildFanIndices converts every path's fill fan into triangle list
// indices: triangle i of a fan rooted at base is (base, base+i+1,
// base+i+2). Returns the packed uint32 index bytes and a per-path range
// table aligned with paths.
func buildFanIndices(paths []nvg.Path) ([]byte, []fanRange) {
	total := 0
	for i := range paths {
		if paths[i].FillCount >= 3 {
			total += (paths[i].FillCount - 2) * 3
		}
	}
	ranges := make([]fanRange, len(paths))
	if total == 0 {
		return nil, ranges
	}

	data := make([]byte, total*4)
	idx := 0
	for i := range paths {
		p := &paths[i]
		if p.FillCount < 3 {
			continue
		}
		ranges[i] = fanRange{
			offset: uint32(idx),
			count:  uint32((p.FillCount - 2) * 3),
		}
		base := uint32(p.FillOffset)
		for tri := 0; tri < p.FillCount-2; tri++ {
			binary.LittleEndian.PutUint32(data[idx*4:], base)
			binary.LittleEndian.PutUint32(data[idx*4+4:], base+uint32(tri)+1)
			binary.LittleEndian.PutUint32(data[idx*4+8:], base+uint32(tri)+2)
			idx += 3
		}
	}
	return data, ranges
}
