package renderer

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// MaxImageDescriptors is the default capacity of the image descriptor slot
// table.
const MaxImageDescriptors = 0x1000

// ErrDescriptorsExhausted is returned when every slot up to capacity is
// occupied by a live texture.
var ErrDescriptorsExhausted = errors.New("nvg: image descriptor slots exhausted")

// descriptorSlot is one entry of the slot table: the texture id it
// describes (0 when free) and the cached texture+sampler bind group.
type descriptorSlot struct {
	image int
	bind  hal.BindGroup
}

// slotTable is a bounded cache of texture+sampler bind groups, indexed by
// slot. A texture keeps its slot until released, so repeated binds of the
// same image reuse the cached bind group instead of building a new one.
//
// highWater is the highest slot ever assigned; scans never look past it.
// It only moves upward, so every live mapping stays inside the scanned
// range even after low slots are freed and reused.
type slotTable struct {
	device    hal.Device
	layout    hal.BindGroupLayout
	slots     []descriptorSlot
	highWater int

	// Per-frame counters, drained into FrameStats by the renderer.
	hits          int
	updates       int
	invalidations int
}

func newSlotTable(device hal.Device, layout hal.BindGroupLayout, capacity int) *slotTable {
	return &slotTable{
		device:    device,
		layout:    layout,
		slots:     make([]descriptorSlot, capacity),
		highWater: -1,
	}
}

// acquire returns the bind group slot for the texture, assigning and
// populating a slot on a cache miss. hit reports whether an existing slot
// was reused.
func (st *slotTable) acquire(t *Texture, sampler hal.Sampler) (hal.BindGroup, bool, error) {
	free := -1
	for i := 0; i <= st.highWater; i++ {
		if st.slots[i].image == t.ID {
			st.hits++
			return st.slots[i].bind, true, nil
		}
		if st.slots[i].image == 0 && free < 0 {
			free = i
		}
	}

	slot := free
	if slot < 0 {
		slot = st.highWater + 1
	}
	if slot >= len(st.slots) {
		return nil, false, ErrDescriptorsExhausted
	}

	// A freed slot may still hold the previous texture's bind group; it
	// must be destroyed before the slot describes a new image.
	if st.slots[slot].bind != nil {
		st.device.DestroyBindGroup(st.slots[slot].bind)
		st.slots[slot].bind = nil
		st.invalidations++
	}

	bind, err := st.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  fmt.Sprintf("nvg_image_slot_%d", slot),
		Layout: st.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{
				TextureView: t.view.NativeHandle(),
			}},
			{Binding: 1, Resource: gputypes.SamplerBinding{
				Sampler: sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("create image bind group: %w", err)
	}

	st.slots[slot] = descriptorSlot{image: t.ID, bind: bind}
	if slot > st.highWater {
		st.highWater = slot
	}
	st.updates++
	return bind, false, nil
}

// release frees every slot describing the texture id.
func (st *slotTable) release(id int) {
	if id == 0 {
		return
	}
	for i := 0; i <= st.highWater; i++ {
		if st.slots[i].image != id {
			continue
		}
		if st.slots[i].bind != nil {
			st.device.DestroyBindGroup(st.slots[i].bind)
		}
		st.slots[i] = descriptorSlot{}
	}
}

// liveCount reports how many slots currently describe a texture.
func (st *slotTable) liveCount() int {
	n := 0
	for i := 0; i <= st.highWater; i++ {
		if st.slots[i].image != 0 {
			n++
		}
	}
	return n
}

// drainCounters returns and clears the per-frame counters.
func (st *slotTable) drainCounters() (hits, updates int) {
	hits, updates = st.hits, st.updates
	st.hits, st.updates, st.invalidations = 0, 0, 0
	return hits, updates
}

// destroy releases every cached bind group.
func (st *slotTable) destroy() {
	for i := range st.slots {
		if st.slots[i].bind != nil {
			st.device.DestroyBindGroup(st.slots[i].bind)
		}
		st.slots[i] = descriptorSlot{}
	}
	st.highWater = -1
}
