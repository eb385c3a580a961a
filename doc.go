// Package nvg provides the frame data model for a NanoVG-style vector
// graphics renderer running on the GoGPU hardware abstraction layer.
//
// A geometry producer (path tessellator, text layout, UI toolkit) fills a
// [Context] with vertices, paths, draw calls and fragment uniform blocks for
// one frame, then hands the context to a renderer.Renderer which executes
// the calls on a hal.Device. The context arrays are reset at the end of each
// flush and reused, so steady-state frames allocate nothing.
//
// The split mirrors NanoVG's backend boundary: everything in this package is
// plain data with no GPU dependencies beyond blend factor enums, while the
// renderer subpackage owns all device objects.
package nvg
