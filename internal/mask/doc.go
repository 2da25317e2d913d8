// Package mask generates decorative shape masks (circle, star, heart,
// hexagon, rectangle) that limit which pixels of an embedded region receive
// the pattern.
//
// Masks are *image.Alpha values sized to the region: 255 inside the shape,
// 0 outside. Cache memoizes them in a bounded LRU; cached masks are shared
// between callers and must be treated as read-only.
package mask
