// Package enhance post-processes raw extraction output for legibility.
//
// Every function is pure: it returns a new image with the same width, height
// and channel layout as its input (*image.Gray stays *image.Gray, anything
// else becomes *image.NRGBA). Color images are processed per channel.
package enhance
