package renderer

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/nvg"
)

// Texture registry errors.
var (
	// ErrUnknownTexture is returned when an operation references an id the
	// registry does not hold.
	ErrUnknownTexture = errors.New("nvg: unknown texture id")

	// ErrInvalidTextureSize is returned for zero or negative dimensions.
	ErrInvalidTextureSize = errors.New("nvg: invalid texture size")
)

// Texture is one registered image: the device objects plus the metadata
// needed to pick samplers and shader paths.
type Texture struct {
	ID     int
	Type   nvg.TextureType
	Flags  nvg.ImageFlags
	Width  int
	Height int

	tex  hal.Texture
	view hal.TextureView
}

// textureRegistry owns all registered textures. Ids are handed out
// monotonically starting at 1 and never reused, so a stale id held by a
// caller can never alias a newer texture.
type textureRegistry struct {
	device hal.Device
	queue  hal.Queue

	next int
	byID map[int]*Texture
}

func newTextureRegistry(device hal.Device, queue hal.Queue) *textureRegistry {
	return &textureRegistry{
		device: device,
		queue:  queue,
		next:   1,
		byID:   make(map[int]*Texture),
	}
}

func textureFormat(typ nvg.TextureType) (gputypes.TextureFormat, int) {
	if typ == nvg.TextureAlpha {
		return gputypes.TextureFormatR8Unorm, 1
	}
	return gputypes.TextureFormatRGBA8Unorm, 4
}

// create registers a new texture and uploads data when non-nil. data must
// hold at least w*h pixels in the type's layout.
func (r *textureRegistry) create(typ nvg.TextureType, w, h int, flags nvg.ImageFlags, data []byte) (*Texture, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidTextureSize, w, h)
	}
	format, _ := textureFormat(typ)

	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label: fmt.Sprintf("nvg_texture_%d", r.next),
		Size: hal.Extent3D{
			Width:              uint32(w),
			Height:             uint32(h),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}

	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         fmt.Sprintf("nvg_texture_%d_view", r.next),
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view: %w", err)
	}

	t := &Texture{
		ID:     r.next,
		Type:   typ,
		Flags:  flags,
		Width:  w,
		Height: h,
		tex:    tex,
		view:   view,
	}
	r.next++
	r.byID[t.ID] = t

	if data != nil {
		r.upload(t, 0, h, data)
	}

	nvg.Logger().Debug("nvg: texture created",
		"id", t.ID, "size", fmt.Sprintf("%dx%d", w, h), "alpha", typ == nvg.TextureAlpha)
	return t, nil
}

// updateRegion clamps an update rectangle to full-width rows. Partial-row
// updates are widened, matching the row-granular upload contract: the
// returned byte offset and length select whole rows y..y+h from an image
// laid out at the texture's natural stride.
func updateRegion(y, h, texWidth, bpp int) (offset, length int) {
	stride := texWidth * bpp
	return y * stride, h * stride
}

// update replaces rows y..y+h of the texture. data is the full image
// backing the texture; only the affected rows are read from it. The x and
// w of the caller's dirty rectangle are intentionally ignored.
func (r *textureRegistry) update(id, y, h int, data []byte) error {
	t, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	r.upload(t, y, h, data)
	return nil
}

func (r *textureRegistry) upload(t *Texture, y, h int, data []byte) {
	_, bpp := textureFormat(t.Type)
	off, length := updateRegion(y, h, t.Width, bpp)
	r.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: uint32(y), Z: 0},
		},
		data[off:off+length],
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(t.Width * bpp),
			RowsPerImage: uint32(h),
		},
		&hal.Extent3D{
			Width:              uint32(t.Width),
			Height:             uint32(h),
			DepthOrArrayLayers: 1,
		},
	)
}

// delete destroys the texture's device objects and forgets the id.
// The caller guarantees no in-flight work still samples it.
func (r *textureRegistry) delete(id int) error {
	t, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	r.device.DestroyTextureView(t.view)
	r.device.DestroyTexture(t.tex)
	delete(r.byID, id)
	return nil
}

// find returns the texture for id, or nil.
func (r *textureRegistry) find(id int) *Texture {
	return r.byID[id]
}

// destroy releases every registered texture.
func (r *textureRegistry) destroy() {
	for id, t := range r.byID {
		r.device.DestroyTextureView(t.view)
		r.device.DestroyTexture(t.tex)
		delete(r.byID, id)
	}
}
