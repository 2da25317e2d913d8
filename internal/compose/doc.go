// Package compose places a modulated pattern into the fixed canvas.
//
// Composite never mutates its inputs: it copies the canvas, writes the
// pattern into the region, optionally limits the write to a shape mask, and
// frames the region with a solid contrast border on every side that does not
// touch the canvas edge. No pixel outside the region and its border margin
// changes.
package compose
