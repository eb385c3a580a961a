package nvg

// Context accumulates one frame's worth of draw data: vertices, sub-path
// ranges, draw calls and fragment uniform blocks. The producer fills it
// between frames; the renderer consumes it in Flush and resets it.
//
// All Alloc methods append zeroed elements and return the offset of the
// first new element, so producers index rather than hold pointers (the
// backing arrays may move as they grow).
//
// Context is not safe for concurrent use. One context per render thread.
type Context struct {
	Calls    []Call
	Paths    []Path
	Verts    []Vertex
	Uniforms []byte

	// FragSize is the byte stride between uniform blocks in Uniforms.
	FragSize int
}

// NewContext returns an empty frame context.
func NewContext() *Context {
	return &Context{FragSize: FragUniformsSize}
}

// AllocCall appends a zeroed call and returns a pointer to it. The pointer
// is valid until the next AllocCall.
func (c *Context) AllocCall() *Call {
	c.Calls = append(c.Calls, Call{})
	return &c.Calls[len(c.Calls)-1]
}

// AllocPaths appends n zeroed paths and returns the offset of the first.
func (c *Context) AllocPaths(n int) int {
	off := len(c.Paths)
	c.Paths = grow(c.Paths, n)
	return off
}

// AllocVerts appends n zeroed vertices and returns the offset of the first.
func (c *Context) AllocVerts(n int) int {
	off := len(c.Verts)
	c.Verts = grow(c.Verts, n)
	return off
}

// AllocFragUniforms appends n zeroed uniform blocks and returns the byte
// offset of the first.
func (c *Context) AllocFragUniforms(n int) int {
	off := len(c.Uniforms)
	c.Uniforms = grow(c.Uniforms, n*c.FragSize)
	return off
}

// SetFragUniforms packs u into the uniform array at the given byte offset,
// which must come from AllocFragUniforms.
func (c *Context) SetFragUniforms(offset int, u *FragUniforms) {
	u.Pack(c.Uniforms[offset : offset+FragUniformsSize])
}

// UniformCount reports how many uniform blocks the frame holds.
func (c *Context) UniformCount() int {
	if c.FragSize == 0 {
		return 0
	}
	return len(c.Uniforms) / c.FragSize
}

// Reset truncates all frame arrays to zero length, retaining capacity.
func (c *Context) Reset() {
	c.Calls = c.Calls[:0]
	c.Paths = c.Paths[:0]
	c.Verts = c.Verts[:0]
	c.Uniforms = c.Uniforms[:0]
}

// grow extends s by n zeroed elements.
func grow[T any](s []T, n int) []T {
	if n <= 0 {
		return s
	}
	if len(s)+n <= cap(s) {
		old := len(s)
		s = s[:old+n]
		var zero T
		for i := old; i < len(s); i++ {
			s[i] = zero
		}
		return s
	}
	return append(s, make([]T, n)...)
}
