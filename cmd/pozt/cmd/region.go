package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/moire"
)

// parseRegion parses "x,y,width,height".
func parseRegion(s string) (canvas.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return canvas.Region{}, fmt.Errorf("%w: region %q must be x,y,width,height", moire.ErrInvalidArgument, s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return canvas.Region{}, fmt.Errorf("%w: region %q: %v", moire.ErrInvalidArgument, s, err)
		}
		v[i] = n
	}
	return canvas.Region{X: v[0], Y: v[1], W: v[2], H: v[3]}, nil
}

// parseSize parses "WIDTHxHEIGHT".
func parseSize(s string) (canvas.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return canvas.Size{}, fmt.Errorf("%w: size %q must be WIDTHxHEIGHT", moire.ErrInvalidArgument, s)
	}
	wi, err1 := strconv.Atoi(strings.TrimSpace(w))
	hi, err2 := strconv.Atoi(strings.TrimSpace(h))
	if err1 != nil || err2 != nil || wi <= 0 || hi <= 0 {
		return canvas.Size{}, fmt.Errorf("%w: size %q must be WIDTHxHEIGHT", moire.ErrInvalidArgument, s)
	}
	return canvas.Size{W: wi, H: hi}, nil
}

// regionFlag reads an optional region flag; ok is false when it was not given.
func regionFlag(value string) (r canvas.Region, ok bool, err error) {
	if value == "" {
		return canvas.Region{}, false, nil
	}
	r, err = parseRegion(value)
	return r, err == nil, err
}
