// Package server exposes the moiré engine as an MCP (Model Context Protocol)
// tool server.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line:
//   - Input: JSON-RPC requests on stdin
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods are initialize, tools/list, tools/call and ping.
//
// # Tools
//
//   - image_load: decode and cache an image, report its layout
//   - moire_embed: hide an image inside a region of a base image
//   - moire_extract: recover hidden content, optionally auto-cropped and OCR-checked
//   - moire_preview: compression, 4K display and zoom simulations
//   - moire_map_region: source to canvas region mapping and its inverse
//   - moire_detect_carrier: find the stripe field in a captured image
//   - moire_shapes: list decorative masks and their coverage
//   - moire_cache_clear: drop cached images and masks
//   - moire_stats: cache usage and pipeline counters
//
// Images are passed by path and cached for the lifetime of the process.
// Results carry output images either as a written PNG path or inline as
// base64 PNG.
//
// # Error Handling
//
// Tool failures are JSON-RPC errors with code -32000 and data
// "<class>: <message>", where class is invalid_region, external_input,
// invalid_argument or internal. Strategy fallbacks and method substitutions
// are not errors; they are reported in the tool result.
package server
