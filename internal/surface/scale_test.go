package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform(t *testing.T) {
	tests := []struct {
		name         string
		viewW, viewH int
		srcW, srcH   int
		mode         ScaleMode
		want         Matrix
	}{
		{
			name: "fill stretch is identity", viewW: 1920, viewH: 1080, srcW: 640, srcH: 480,
			mode: ScaleFillStretch, want: Identity,
		},
		{
			name: "none draws at natural size", viewW: 1000, viewH: 500, srcW: 500, srcH: 250,
			mode: ScaleNone, want: Matrix{ScaleX: 0.5, ScaleY: 0.5},
		},
		{
			name: "fit center letterboxes wide source", viewW: 1000, viewH: 1000, srcW: 2000, srcH: 1000,
			mode: ScaleFitCenter, want: Matrix{ScaleX: 1, ScaleY: 0.5, TranslateX: 0, TranslateY: 250},
		},
		{
			name: "fit within pins top left", viewW: 1000, viewH: 1000, srcW: 2000, srcH: 1000,
			mode: ScaleFitWithin, want: Matrix{ScaleX: 1, ScaleY: 0.5},
		},
		{
			name: "center crop covers view", viewW: 1000, viewH: 1000, srcW: 2000, srcH: 1000,
			mode: ScaleCenterCrop, want: Matrix{ScaleX: 2, ScaleY: 1, TranslateX: -500, TranslateY: 0},
		},
		{
			name: "matching aspect needs no correction", viewW: 1280, viewH: 720, srcW: 1920, srcH: 1080,
			mode: ScaleFitCenter, want: Identity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Transform(tt.viewW, tt.viewH, tt.srcW, tt.srcH, tt.mode)
			require.True(t, ok)
			assert.InDelta(t, tt.want.ScaleX, got.ScaleX, 1e-9)
			assert.InDelta(t, tt.want.ScaleY, got.ScaleY, 1e-9)
			assert.InDelta(t, tt.want.TranslateX, got.TranslateX, 1e-9)
			assert.InDelta(t, tt.want.TranslateY, got.TranslateY, 1e-9)
		})
	}
}

func TestTransformRejectsEmptySizes(t *testing.T) {
	_, ok := Transform(0, 1080, 1920, 1080, ScaleFitCenter)
	assert.False(t, ok)
	_, ok = Transform(1920, 1080, 1920, 0, ScaleFitCenter)
	assert.False(t, ok)
}

func TestParseScaleMode(t *testing.T) {
	for _, name := range ScaleModeNames() {
		mode, err := ParseScaleMode(name)
		require.NoError(t, err)
		assert.Equal(t, name, mode.String())
	}

	mode, err := ParseScaleMode("  Center-Crop ")
	require.NoError(t, err)
	assert.Equal(t, ScaleCenterCrop, mode)
}

func TestParseScaleModeSuggestsClosest(t *testing.T) {
	_, err := ParseScaleMode("crop")
	require.ErrorIs(t, err, ErrUnknownScaleMode)
	assert.Contains(t, err.Error(), `did you mean "center-crop"`)

	_, err = ParseScaleMode("fit-centre")
	require.ErrorIs(t, err, ErrUnknownScaleMode)
	assert.Contains(t, err.Error(), `did you mean "fit-center"`)

	_, err = ParseScaleMode("sideways")
	require.ErrorIs(t, err, ErrUnknownScaleMode)
	assert.Contains(t, err.Error(), "expected one of")
}
