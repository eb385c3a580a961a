package renderer

import (
	"errors"
	"testing"

	"github.com/gogpu/nvg"
)

func TestTextureIDsMonotonic(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	reg := newTextureRegistry(device, queue)
	defer reg.destroy()

	a, err := reg.create(nvg.TextureRGBA, 4, 4, 0, nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	b, err := reg.create(nvg.TextureAlpha, 8, 8, 0, nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if a.ID != 1 || b.ID != 2 {
		t.Errorf("ids = %d, %d; want 1, 2", a.ID, b.ID)
	}

	if err := reg.delete(a.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	c, err := reg.create(nvg.TextureRGBA, 2, 2, 0, nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if c.ID != 3 {
		t.Errorf("deleted id reused: got %d, want 3", c.ID)
	}
	if reg.find(a.ID) != nil {
		t.Error("deleted texture still findable")
	}
}

func TestTextureInvalidSize(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	reg := newTextureRegistry(device, queue)
	defer reg.destroy()

	if _, err := reg.create(nvg.TextureRGBA, 0, 4, 0, nil); !errors.Is(err, ErrInvalidTextureSize) {
		t.Errorf("zero width: err = %v, want ErrInvalidTextureSize", err)
	}
	if _, err := reg.create(nvg.TextureRGBA, 4, -1, 0, nil); !errors.Is(err, ErrInvalidTextureSize) {
		t.Errorf("negative height: err = %v, want ErrInvalidTextureSize", err)
	}
}

func TestTextureUnknownID(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	reg := newTextureRegistry(device, queue)
	defer reg.destroy()

	if err := reg.delete(7); !errors.Is(err, ErrUnknownTexture) {
		t.Errorf("delete: err = %v, want ErrUnknownTexture", err)
	}
	if err := reg.update(7, 0, 1, make([]byte, 4)); !errors.Is(err, ErrUnknownTexture) {
		t.Errorf("update: err = %v, want ErrUnknownTexture", err)
	}
}

func TestUpdateRegionFullRows(t *testing.T) {
	// Updates widen to full rows: the region for rows y..y+h of a w-pixel
	// wide texture starts at y*stride regardless of the caller's x.
	cases := []struct {
		name             string
		y, h, width, bpp int
		wantOff, wantLen int
	}{
		{"rgba top rows", 0, 2, 16, 4, 0, 128},
		{"rgba interior", 3, 5, 16, 4, 192, 320},
		{"alpha single row", 7, 1, 32, 1, 224, 32},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			off, length := updateRegion(tc.y, tc.h, tc.width, tc.bpp)
			if off != tc.wantOff || length != tc.wantLen {
				t.Errorf("updateRegion(%d,%d,%d,%d) = (%d,%d), want (%d,%d)",
					tc.y, tc.h, tc.width, tc.bpp, off, length, tc.wantOff, tc.wantLen)
			}
		})
	}
}

func TestRendererTextureAPI(t *testing.T) {
	r, _, cleanup := createTestRenderer(t, 0)
	defer cleanup()

	id, err := r.CreateTexture(nvg.TextureAlpha, 64, 32, nvg.ImageNearest, make([]byte, 64*32))
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	w, h, err := r.GetTextureSize(id)
	if err != nil || w != 64 || h != 32 {
		t.Errorf("GetTextureSize = (%d,%d,%v), want (64,32,nil)", w, h, err)
	}

	// x and w of the dirty rect are ignored; rows update at full width.
	if err := r.UpdateTexture(id, 10, 4, 20, 8, make([]byte, 64*32)); err != nil {
		t.Errorf("UpdateTexture failed: %v", err)
	}

	if err := r.DeleteTexture(id); err != nil {
		t.Errorf("DeleteTexture failed: %v", err)
	}
	if _, _, err := r.GetTextureSize(id); !errors.Is(err, ErrUnknownTexture) {
		t.Errorf("deleted texture size: err = %v, want ErrUnknownTexture", err)
	}
}
