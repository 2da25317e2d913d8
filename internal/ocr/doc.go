// Package ocr reads text back out of recovered images with Tesseract.
//
// A hidden image that carries text is the common case for moiré posters,
// so a word-level read with confidences is a practical legibility score for
// an extraction run. The package wraps gosseract/v2, which needs the
// Tesseract library and language data on the host:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Use [Available] to check for the engine before calling [Probe].
package ocr
