package renderer

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func TestFrameRingCyclesSlots(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	ring := newFrameRing(device, queue)
	defer ring.destroy()

	first, err := ring.begin()
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	second, err := ring.begin()
	if err != nil {
		t.Fatalf("second begin failed: %v", err)
	}
	if first == second {
		t.Fatal("consecutive frames must use different slots")
	}
	third, err := ring.begin()
	if err != nil {
		t.Fatalf("third begin failed: %v", err)
	}
	if third != first {
		t.Errorf("ring of depth %d must wrap to the first slot", frameRingDepth)
	}
}

func TestFrameRingRecyclesResources(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	ring := newFrameRing(device, queue)
	defer ring.destroy()

	slot, err := ring.begin()
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "test_frame_buf",
		Size:  64,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		t.Fatalf("create buffer: %v", err)
	}
	slot.vertexBuf = buf
	slot.uniformBinds = map[int]hal.BindGroup{}

	// Cycle the ring back to the slot; its previous frame resources must
	// be gone.
	ring.begin()
	reused, err := ring.begin()
	if err != nil {
		t.Fatalf("reuse begin failed: %v", err)
	}
	if reused != slot {
		t.Fatal("expected the original slot back")
	}
	if reused.vertexBuf != nil {
		t.Error("recycled slot still holds a vertex buffer")
	}
	if len(reused.uniformBinds) != 0 {
		t.Error("recycled slot still holds uniform bind groups")
	}
}

func TestFrameRingDestroyIdempotent(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	ring := newFrameRing(device, queue)
	ring.begin()
	ring.destroy()
	ring.destroy()
}
