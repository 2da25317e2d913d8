package moire

import (
	"errors"
	"io/fs"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/compose"
	"github.com/lilseedabe/pozt/internal/detection"
	"github.com/lilseedabe/pozt/internal/enhance"
	"github.com/lilseedabe/pozt/internal/extract"
	"github.com/lilseedabe/pozt/internal/imaging"
	"github.com/lilseedabe/pozt/internal/mask"
	"github.com/lilseedabe/pozt/internal/ocr"
	"github.com/lilseedabe/pozt/internal/pattern"
	"github.com/lilseedabe/pozt/internal/preview"
)

// ErrInvalidArgument marks request fields the engine rejects itself.
var ErrInvalidArgument = errors.New("invalid argument")

// Class is the error classification reported to callers.
type Class string

const (
	ClassInvalidRegion   Class = "invalid_region"
	ClassExternalInput   Class = "external_input"
	ClassInvalidArgument Class = "invalid_argument"
	ClassInternal        Class = "internal"
)

var argumentErrors = []error{
	ErrInvalidArgument,
	canvas.ErrUnknownMethod,
	pattern.ErrUnknownStrategy,
	pattern.ErrInvalidSpec,
	extract.ErrUnknownMethod,
	extract.ErrInvalidLevel,
	enhance.ErrUnknownMethod,
	enhance.ErrInvalidParams,
	mask.ErrUnknownShape,
	mask.ErrInvalidParams,
	preview.ErrUnknownKind,
	preview.ErrInvalidZoom,
	compose.ErrInvalidBorder,
	detection.ErrInvalidOptions,
	ocr.ErrInvalidOptions,
}

// Classify maps err to its class. A nil error has the empty class.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, canvas.ErrInvalidRegion):
		return ClassInvalidRegion
	case errors.Is(err, imaging.ErrUnreadableImage),
		errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return ClassExternalInput
	}
	for _, target := range argumentErrors {
		if errors.Is(err, target) {
			return ClassInvalidArgument
		}
	}
	return ClassInternal
}
