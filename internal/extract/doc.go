// Package extract recovers a best-effort view of hidden content from a
// captured or re-compressed moiré image.
//
// Four interchangeable methods work on the grayscale of the input:
// fourier_analysis (frequency-domain low/band-pass), frequency_filtering
// (suppress detected stripe edges), pattern_subtraction (remove the
// estimated carrier) and adaptive_detection (local statistics threshold).
// The output keeps the input's width, height and channel layout.
//
// Resource limits are checked before the expensive step rather than
// discovered afterwards. A Budget caps the working size (larger inputs are
// downscaled, processed and scaled back) and the size at which the FFT is
// attempted (larger inputs use pattern_subtraction instead). Such
// degradations succeed and are reported in Metadata.
package extract
