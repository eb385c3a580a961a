package nvg

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// VertexSize is the byte stride of one Vertex on the GPU:
// position (vec2<f32>) + tex coord (vec2<f32>) = 16 bytes.
const VertexSize = 16

// Vertex is a single tessellated vertex: position in framebuffer pixels and
// a texture coordinate. For anti-aliased fringes the V coordinate carries
// the edge coverage ramp.
type Vertex struct {
	X, Y float32
	U, V float32
}

// Path describes one sub-path's vertex ranges inside the frame vertex array.
// Fill vertices form a triangle fan, stroke vertices a triangle strip.
// A count of zero means the range is absent.
type Path struct {
	FillOffset   int
	FillCount    int
	StrokeOffset int
	StrokeCount  int
}

// CallType selects the draw algorithm for a Call.
type CallType uint8

const (
	CallNone CallType = iota
	// CallFill renders arbitrary (possibly self-intersecting) paths with a
	// stencil winding pass followed by fringe and cover passes.
	CallFill
	// CallConvexFill renders convex paths directly, no stencil involved.
	CallConvexFill
	// CallStroke renders stroke strips, optionally stencil-deduplicated.
	CallStroke
	// CallTriangles renders a raw triangle list (text quads, images).
	CallTriangles
)

// Blend holds the per-call blend factors for color and alpha channels.
// The zero value is not a valid blend; producers fill all four factors.
type Blend struct {
	SrcRGB   gputypes.BlendFactor
	DstRGB   gputypes.BlendFactor
	SrcAlpha gputypes.BlendFactor
	DstAlpha gputypes.BlendFactor
}

// Call is one draw call in a frame's command stream. Offsets index into the
// Context arrays; UniformOffset is a byte offset into the uniform array.
type Call struct {
	Type           CallType
	Image          int
	PathOffset     int
	PathCount      int
	TriangleOffset int
	TriangleCount  int
	UniformOffset  int
	Blend          Blend
}

// TextureType selects the pixel layout of a texture.
type TextureType uint8

const (
	// TextureAlpha is a single-channel coverage texture (glyph atlases).
	TextureAlpha TextureType = iota
	// TextureRGBA is a four-channel color texture.
	TextureRGBA
)

// ImageFlags control sampling and mipmapping of a texture. The low four
// bits select one of the renderer's preset samplers.
type ImageFlags uint32

const (
	ImageGenerateMipmaps ImageFlags = 1 << 0
	ImageNearest         ImageFlags = 1 << 1
	ImageRepeatX         ImageFlags = 1 << 2
	ImageRepeatY         ImageFlags = 1 << 3
	ImagePremultiplied   ImageFlags = 1 << 4
)

// CreateFlags configure a renderer at creation time.
type CreateFlags uint32

const (
	// AntiAlias enables fringe-based edge anti-aliasing. The producer must
	// tessellate fringe strips for it to have any effect.
	AntiAlias CreateFlags = 1 << 0
	// StencilStrokes renders strokes through the stencil buffer so that
	// overlapping stroke geometry is drawn exactly once.
	StencilStrokes CreateFlags = 1 << 1
	// Debug enables extra validation logging.
	Debug CreateFlags = 1 << 2
)

// Shader selectors written into FragUniforms.Type.
const (
	ShaderFillGradient int32 = iota
	ShaderFillImage
	ShaderSimple
	ShaderImage
)

// Texture type selectors written into FragUniforms.TexType.
const (
	TexTypeNone  int32 = 0
	TexTypeRGBA  int32 = 1
	TexTypeAlpha int32 = 2
)

// FragUniformsSize is the packed byte size of one FragUniforms block.
const FragUniformsSize = 176

// FragUniforms is the per-draw fragment shader parameter block. The field
// order matches the WGSL uniform struct; Pack serializes it byte-exactly.
//
// The matrices are 3x3 affine transforms stored as three columns of four
// floats (the fourth float of each column is padding), which is the WGSL
// mat3x3<f32> memory layout.
type FragUniforms struct {
	ScissorMat   [12]float32
	PaintMat     [12]float32
	InnerCol     [4]float32
	OuterCol     [4]float32
	ScissorExt   [2]float32
	ScissorScale [2]float32
	Extent       [2]float32
	Radius       float32
	Feather      float32
	StrokeMult   float32
	StrokeThr    float32
	TexType      int32
	Type         int32
}

// Pack writes the block into buf, which must be at least FragUniformsSize
// bytes long.
func (u *FragUniforms) Pack(buf []byte) {
	off := 0
	for _, v := range u.ScissorMat {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	for _, v := range u.PaintMat {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	for _, v := range u.InnerCol {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	for _, v := range u.OuterCol {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	two := [3][2]float32{u.ScissorExt, u.ScissorScale, u.Extent}
	for _, pair := range two {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(pair[0]))
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(pair[1]))
		off += 4
	}
	for _, v := range [4]float32{u.Radius, u.Feather, u.StrokeMult, u.StrokeThr} {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:], uint32(u.TexType))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(u.Type))
}

// XFormToMat3x4 expands a 2x3 affine transform [a b c d e f] into the
// column-padded 3x4 layout FragUniforms matrices use.
func XFormToMat3x4(t [6]float32) [12]float32 {
	return [12]float32{
		t[0], t[1], 0, 0,
		t[2], t[3], 0, 0,
		t[4], t[5], 1, 0,
	}
}

// PackVertices serializes vertices into raw bytes for GPU upload.
func PackVertices(verts []Vertex) []byte {
	if len(verts) == 0 {
		return nil
	}
	data := make([]byte, len(verts)*VertexSize)
	off := 0
	for i := range verts {
		binary.LittleEndian.PutUint32(data[off:], math.Float32bits(verts[i].X))
		binary.LittleEndian.PutUint32(data[off+4:], math.Float32bits(verts[i].Y))
		binary.LittleEndian.PutUint32(data[off+8:], math.Float32bits(verts[i].U))
		binary.LittleEndian.PutUint32(data[off+12:], math.Float32bits(verts[i].V))
		off += VertexSize
	}
	return data
}
