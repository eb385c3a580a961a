package renderer

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/nvg"
)

// samplerCount is the number of preset samplers: one per combination of
// the four sampling-related image flag bits.
const samplerCount = 16

// Sampler preset index bits, matching the low image flag bits.
const (
	samplerMip     = 1 << 0
	samplerNearest = 1 << 1
	samplerRepeatX = 1 << 2
	samplerRepeatY = 1 << 3
)

// samplerIndex maps a texture's image flags to its preset sampler.
func samplerIndex(flags nvg.ImageFlags) int {
	idx := 0
	if flags&nvg.ImageGenerateMipmaps != 0 {
		idx |= samplerMip
	}
	if flags&nvg.ImageNearest != 0 {
		idx |= samplerNearest
	}
	if flags&nvg.ImageRepeatX != 0 {
		idx |= samplerRepeatX
	}
	if flags&nvg.ImageRepeatY != 0 {
		idx |= samplerRepeatY
	}
	return idx
}

// createSamplers builds all preset samplers up front so image binds never
// allocate device objects.
func createSamplers(device hal.Device) ([samplerCount]hal.Sampler, error) {
	var samplers [samplerCount]hal.Sampler
	for i := range samplers {
		filter := gputypes.FilterModeLinear
		if i&samplerNearest != 0 {
			filter = gputypes.FilterModeNearest
		}
		mipFilter := gputypes.FilterModeNearest
		if i&samplerMip != 0 {
			mipFilter = gputypes.FilterModeLinear
		}
		addrU := gputypes.AddressModeClampToEdge
		if i&samplerRepeatX != 0 {
			addrU = gputypes.AddressModeRepeat
		}
		addrV := gputypes.AddressModeClampToEdge
		if i&samplerRepeatY != 0 {
			addrV = gputypes.AddressModeRepeat
		}

		s, err := device.CreateSampler(&hal.SamplerDescriptor{
			Label:        fmt.Sprintf("nvg_sampler_%02d", i),
			AddressModeU: addrU,
			AddressModeV: addrV,
			AddressModeW: gputypes.AddressModeClampToEdge,
			MagFilter:    filter,
			MinFilter:    filter,
			MipmapFilter: mipFilter,
		})
		if err != nil {
			for j := 0; j < i; j++ {
				device.DestroySampler(samplers[j])
			}
			return samplers, fmt.Errorf("create sampler %d: %w", i, err)
		}
		samplers[i] = s
	}
	return samplers, nil
}
