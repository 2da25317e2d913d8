// Package preview approximates how an embedded image looks under common
// viewing conditions: social-media re-compression, native 4K display and
// digital zoom. Previews are diagnostic only and are never fed back into
// the embedding pipeline.
package preview
