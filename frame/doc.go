// Package frame owns the generic frame/block/field object model.
//
// Ownership boundary:
// - Frame: ordered named blocks, cross-block total-length update
// - Block: template-driven container, dependency resolution, auto-length
// - Field: sized leaf bytes, optional bit-packed sub-fields
//
// Templates come from a spec.Registry passed in explicitly; the package
// keeps no global state. Serialization always runs Update first, so
// length fields reflect the current tree on every read.
package frame
