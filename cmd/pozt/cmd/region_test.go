package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilseedabe/pozt/internal/canvas"
	"github.com/lilseedabe/pozt/internal/moire"
)

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in      string
		want    canvas.Region
		wantErr bool
	}{
		{"10,20,30,40", canvas.Region{X: 10, Y: 20, W: 30, H: 40}, false},
		{" 1, 2, 3, 4 ", canvas.Region{X: 1, Y: 2, W: 3, H: 4}, false},
		{"-5,0,10,10", canvas.Region{X: -5, W: 10, H: 10}, false},
		{"1,2,3", canvas.Region{}, true},
		{"1,2,3,4,5", canvas.Region{}, true},
		{"a,b,c,d", canvas.Region{}, true},
		{"", canvas.Region{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRegion(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, moire.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    canvas.Size
		wantErr bool
	}{
		{"2430x3240", canvas.Size{W: 2430, H: 3240}, false},
		{"100X50", canvas.Size{W: 100, H: 50}, false},
		{"100", canvas.Size{}, true},
		{"0x10", canvas.Size{}, true},
		{"10x-1", canvas.Size{}, true},
		{"wxh", canvas.Size{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, moire.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&usageError{errors.New("bad flag")}, 2},
		{fmt.Errorf("x: %w", canvas.ErrInvalidRegion), 2},
		{moire.ErrInvalidArgument, 2},
		{fmt.Errorf("open: %w", fs.ErrNotExist), 3},
		{errors.New("boom"), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}
