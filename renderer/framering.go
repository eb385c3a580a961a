package renderer

import (
	"fmt"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/nvg"
)

// frameRingDepth is the number of in-flight frame slots. Two slots let the
// producer build frame N+1 while frame N's resources are still referenced
// by the GPU.
const frameRingDepth = 2

// fenceTimeout bounds every GPU wait.
const fenceTimeout = 5 * time.Second

// frameSlot holds the transient GPU resources of one frame: the vertex,
// index and uniform buffers plus the uniform bind groups created for it.
// They stay alive until the slot comes around again and its fence proves
// the GPU is done with them.
type frameSlot struct {
	fence     hal.Fence
	submitted uint64
	waited    uint64

	vertexBuf  hal.Buffer
	indexBuf   hal.Buffer
	uniformBuf hal.Buffer

	// uniformBinds caches one bind group per uniform block offset used
	// this frame.
	uniformBinds map[int]hal.BindGroup
}

// frameRing cycles through frameRingDepth slots, gating reuse of each
// slot's resources on its fence.
type frameRing struct {
	device hal.Device
	queue  hal.Queue
	slots  [frameRingDepth]frameSlot
	index  int
}

func newFrameRing(device hal.Device, queue hal.Queue) *frameRing {
	return &frameRing{device: device, queue: queue}
}

// begin claims the next slot: waits out any pending GPU work, destroys the
// slot's previous frame resources and returns it empty.
func (r *frameRing) begin() (*frameSlot, error) {
	slot := &r.slots[r.index]
	r.index = (r.index + 1) % frameRingDepth

	if err := r.waitIdle(slot); err != nil {
		return nil, err
	}
	r.recycle(slot)
	return slot, nil
}

// waitIdle blocks until all of the slot's submissions have signaled.
func (r *frameRing) waitIdle(slot *frameSlot) error {
	if slot.fence == nil || slot.waited >= slot.submitted {
		return nil
	}
	ok, err := r.device.Wait(slot.fence, slot.submitted, fenceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("nvg: frame fence wait: ok=%v err=%w", ok, err)
	}
	slot.waited = slot.submitted
	return nil
}

// recycle destroys the slot's buffers and bind groups. Must only run after
// waitIdle.
func (r *frameRing) recycle(slot *frameSlot) {
	for off, bg := range slot.uniformBinds {
		r.device.DestroyBindGroup(bg)
		delete(slot.uniformBinds, off)
	}
	if slot.uniformBuf != nil {
		r.device.DestroyBuffer(slot.uniformBuf)
		slot.uniformBuf = nil
	}
	if slot.indexBuf != nil {
		r.device.DestroyBuffer(slot.indexBuf)
		slot.indexBuf = nil
	}
	if slot.vertexBuf != nil {
		r.device.DestroyBuffer(slot.vertexBuf)
		slot.vertexBuf = nil
	}
}

// submit sends one command buffer on the slot's fence and waits for it,
// keeping execution strictly serialized with CPU-side recording.
func (r *frameRing) submit(slot *frameSlot, cb hal.CommandBuffer) error {
	defer r.device.FreeCommandBuffer(cb)

	if slot.fence == nil {
		fence, err := r.device.CreateFence()
		if err != nil {
			return fmt.Errorf("create frame fence: %w", err)
		}
		slot.fence = fence
	}

	slot.submitted++
	if err := r.queue.Submit([]hal.CommandBuffer{cb}, slot.fence, slot.submitted); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := r.device.Wait(slot.fence, slot.submitted, fenceTimeout)
	if err != nil || !ok {
		nvg.Logger().Warn("nvg: submit fence wait failed", "ok", ok, "err", err)
		return fmt.Errorf("nvg: submit fence wait: ok=%v err=%w", ok, err)
	}
	slot.waited = slot.submitted
	return nil
}

// destroy drains every slot and releases all ring resources.
func (r *frameRing) destroy() {
	for i := range r.slots {
		slot := &r.slots[i]
		if err := r.waitIdle(slot); err != nil {
			nvg.Logger().Warn("nvg: frame ring drain", "err", err)
		}
		r.recycle(slot)
		if slot.fence != nil {
			r.device.DestroyFence(slot.fence)
			slot.fence = nil
		}
	}
}
