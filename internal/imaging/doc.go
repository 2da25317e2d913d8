// Package imaging provides the pixel primitives shared by the embedding and
// extraction pipelines.
//
// The package works with standard Go image.Image values at its edges and with
// Plane, a dense float64 field, internally. Planes carry 8-bit intensities in
// the range [0, 255] unless a function documents otherwise, so intermediate
// results never wrap; conversion back to an image always rounds and clips.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Rectangles follow image.Rectangle semantics: Min is inclusive, Max is exclusive
//
// Images whose bounds do not start at the origin are accepted everywhere; the
// returned images and planes are always re-based to (0,0).
//
// # Grayscale
//
// Grayscale conversion uses ITU-R BT.601 luma weights
// (0.299*R + 0.587*G + 0.114*B), matching the weights used by common image
// toolkits so that thresholds tuned elsewhere carry over unchanged.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other function in this
// package is stateless and never mutates its inputs, so it can be called
// concurrently on shared images.
//
// # Error Handling
//
// Undecodable input surfaces as ErrUnreadableImage (wrapped with the decoder's
// own message). Geometry errors such as empty or out-of-bounds rectangles are
// returned as plain descriptive errors.
package imaging
