// Package canvas maps images and regions onto the fixed target canvas.
//
// Every embed places its base image on a canvas of fixed resolution before any
// stripes are drawn, so stripe parity depends only on canvas coordinates and
// never on the source size. The package owns the one canonical geometry used
// for that placement: Fit computes the integer resize and paste layout first
// and derives a Transform from it, and every region mapping goes through the
// same Transform, rounding each edge exactly once. The pixels and the region
// therefore never disagree about where the source landed.
package canvas
