package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"measure-bot/internal/domain/entity"
)

func TestMeasureQuality_FlatFrameIsBlurry(t *testing.T) {
	f := solidFrame(50, 50, rgb{128, 128, 128})
	q := MeasureQuality(f, nil, DefaultConfig().Quality)

	require.InDelta(t, 128.0/255, q.Brightness, 0.01)
	require.Equal(t, 0.0, q.Sharpness)
	require.Len(t, q.Warnings, 1)
	require.Contains(t, q.Warnings[0], "blurry")
}

func TestMeasureQuality_Overexposed(t *testing.T) {
	f := solidFrame(50, 50, rgb{255, 255, 255})
	q := MeasureQuality(f, nil, DefaultConfig().Quality)

	require.Equal(t, 1.0, q.OverexposedRatio)
	require.Equal(t, 1.0, q.GlareRatio)
	require.Equal(t, 0.0, q.UnderexposedRatio)
}

func TestMeasureQuality_EdgeProximity(t *testing.T) {
	f := solidFrame(100, 100, blueCloth)
	fillRect(f, image.Rect(0, 0, 100, 50), lightGray)
	res := &entity.DetectionResult{
		AreaFraction: 0.3,
		Axis: entity.AxisEstimate{
			End1: entity.Pt(1, 50),
			End2: entity.Pt(60, 50),
		},
	}
	q := MeasureQuality(f, res, DefaultConfig().Quality)

	require.Equal(t, 0.3, q.SizeFraction)
	require.InDelta(t, 0.01, q.EdgeProximity, 1e-9)
	require.NotEmpty(t, q.Warnings)
	require.Contains(t, q.Warnings[len(q.Warnings)-1], "edge")
}
