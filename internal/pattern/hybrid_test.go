package pattern

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_ShapeMismatchFallsBackToOverlay(t *testing.T) {
	res, err := Apply(context.Background(), Spec{Strategy: Adaptive}, Input{W: 20, H: 20, Hidden: uniformGray(10, 10, 0)})
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, Overlay, res.Strategy)
	assert.Contains(t, res.Reason, "shape mismatch")
	assert.Equal(t, image.Rect(0, 0, 20, 20), res.Image.Bounds())
}

func TestApply_MissingBaseFallsBack(t *testing.T) {
	res, err := Apply(context.Background(), Spec{Strategy: HuePreserving}, Input{W: 8, H: 8, Hidden: uniformGray(8, 8, 128)})
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, Overlay, res.Strategy)
}

func TestApply_NoFallbackOnMatchingInput(t *testing.T) {
	res, err := Apply(context.Background(), Spec{Strategy: Perfect}, Input{W: 8, H: 8, Hidden: noiseGray(8, 8, 3)})
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, Perfect, res.Strategy)
	assert.Equal(t, 0.04, res.Spec.Strength)
}

func TestApply_Deterministic(t *testing.T) {
	for _, s := range Strategies {
		in := Input{W: 24, H: 16, Hidden: noiseGray(24, 16, 42), Base: uniformColor(24, 16, color.NRGBA{90, 120, 60, 255})}
		a, err := Apply(context.Background(), Spec{Strategy: s, FusionRatio: 0.3}, in)
		require.NoError(t, err)
		b, err := Apply(context.Background(), Spec{Strategy: s, FusionRatio: 0.3}, in)
		require.NoError(t, err)
		assert.Equal(t, a.Image.Pix, b.Image.Pix, string(s))
	}
}

func TestApply_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Apply(ctx, Spec{Strategy: "glitter"}, Input{W: 4, H: 4, Hidden: uniformGray(4, 4, 0)})
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	_, err = Apply(ctx, Spec{}, Input{W: 0, H: 4, Hidden: uniformGray(4, 4, 0)})
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = Apply(ctx, Spec{}, Input{W: 4, H: 4})
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestHybrid_FullOverlayRatioMatchesOverlay(t *testing.T) {
	in := Input{W: 12, H: 12, Hidden: noiseGray(12, 12, 7)}

	hyb, err := Apply(context.Background(), Spec{Strategy: Hybrid, OverlayRatio: 1}, in)
	require.NoError(t, err)
	ov, err := Apply(context.Background(), Spec{Strategy: Overlay, Opacity: 0.8}, in)
	require.NoError(t, err)

	assert.Equal(t, Hybrid, hyb.Strategy)
	assert.Equal(t, ov.Image.Pix, hyb.Image.Pix)
}

func TestFusion_FullRatioMatchesOverlay(t *testing.T) {
	in := Input{W: 12, H: 12, Hidden: noiseGray(12, 12, 9)}

	fused, err := Apply(context.Background(), Spec{Strategy: Adaptive, FusionRatio: 1}, in)
	require.NoError(t, err)
	ov, err := Apply(context.Background(), Spec{Strategy: Overlay, Opacity: fusionOpacity}, in)
	require.NoError(t, err)

	assert.Equal(t, ov.Image.Pix, fused.Image.Pix)
}

func TestFusion_PartialRatioDiffersFromBoth(t *testing.T) {
	in := Input{W: 12, H: 12, Hidden: uniformGray(12, 12, 0)}

	plain, err := Apply(context.Background(), Spec{Strategy: Adaptive}, in)
	require.NoError(t, err)
	fused, err := Apply(context.Background(), Spec{Strategy: Adaptive, FusionRatio: 0.5}, in)
	require.NoError(t, err)

	assert.NotEqual(t, plain.Image.Pix, fused.Image.Pix)
}
