// Package moire is the pipeline root. An [Engine] owns the fixed canvas
// size, the extraction budget, the decorative mask cache, a logger and the
// metrics registry, and exposes the embed and extract codecs together with
// the diagnostic previews and carrier detection.
//
// Embedding fits the base image onto the canvas, maps the source region onto
// it, modulates the hidden payload with the chosen strategy and composites
// the result. Extraction optionally crops to a region or a detected carrier,
// runs one of the recovery methods and enhances the output.
//
// Degradations are never errors. A strategy fallback, a downscale or a method
// substitution is reported in the result and counted in the metrics.
// Failures carry a class from [Classify].
package moire
