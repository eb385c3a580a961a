package renderer

import _ "embed"

// Embedded WGSL shader sources. Both variants share bind group layouts and
// entry point names; the renderer picks one at creation time based on the
// AntiAlias flag.

//go:embed shaders/fill.wgsl
var fillShaderSource string

//go:embed shaders/fill_edge_aa.wgsl
var fillEdgeAAShaderSource string

// viewUniformSize is the byte size of the view uniform buffer:
// viewport size (vec2<f32>) + padding (vec2<f32>) = 16 bytes.
const viewUniformSize = 16
