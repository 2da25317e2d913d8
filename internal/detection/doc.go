// Package detection locates moiré carriers in captured images.
//
// A carrier is a two-tone stripe field with a period of 1 to 5 pixels. It
// shows up as strong neighbour differences across the stripes and almost
// none along them, which is what [DetectCarrier] scans for.
//
// # Algorithm Overview
//
//  1. Difference planes: absolute row-to-row and column-to-column differences
//     of the grayscale image.
//  2. Window scan: overlapping square windows are scored from summed-area
//     tables. A window qualifies when the across-stripe difference is large
//     and dominates the along-stripe difference by the anisotropy ratio.
//  3. Merging: overlapping qualifying windows of the same orientation are
//     folded into groups; the group covering the largest area wins.
//  4. Refinement: the group's box is trimmed to lines that still carry
//     energy and the stripe period is read off the field's profile.
//
// # Coordinate System
//
// Regions use the standard image convention with the origin at the top-left
// corner, X increasing rightward and Y increasing downward.
//
// # Limitations
//
// Detection works on lossless captures. JPEG re-compression or any
// resampling smears a 1px carrier, which is exactly the effect the preview
// package simulates, and usually defeats detection.
package detection
