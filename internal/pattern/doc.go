// Package pattern generates the moiré carrier and modulates it with hidden
// content.
//
// The carrier is a periodic two-tone stripe field. At native 1:1 sampling the
// eye averages it to a flat tone; any resampling breaks the 1:1 grid and the
// modulation aliases into view. Each embedding strategy is a Modulator built
// from its own parameter struct by New; Apply runs one, handles shape
// mismatches by falling back to the overlay strategy, and optionally fuses the
// result with the overlay silhouette.
//
// Every modulator returns a new *image.NRGBA with all channels clipped to
// [0, 255]. Stripe parity depends only on region coordinates: for horizontal
// stripes, row y takes Color1 when (y/period)%2 == 0 and Color2 otherwise.
package pattern
