package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"measure-bot/internal/domain/entity"
)

func TestToHSV_OpenCVHueScale(t *testing.T) {
	cases := []struct {
		name    string
		c       rgb
		h, s, v float64
	}{
		{"red", rgb{255, 0, 0}, 0, 255, 255},
		{"green", rgb{0, 255, 0}, 60, 255, 255},
		{"blue", rgb{0, 0, 255}, 120, 255, 255},
		{"gray", rgb{128, 128, 128}, 0, 0, 128},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, s, v := toHSV(tc.c.r, tc.c.g, tc.c.b)
			require.Equal(t, tc.h, h)
			require.Equal(t, tc.s, s)
			require.Equal(t, tc.v, v)
		})
	}
}

func TestToYCrCb_NeutralGray(t *testing.T) {
	y, cr, cb := toYCrCb(128, 128, 128)
	require.Equal(t, 128.0, y)
	require.Equal(t, 128.0, cr)
	require.Equal(t, 128.0, cb)
}

func TestSegmentSkin(t *testing.T) {
	f := solidFrame(40, 30, blueCloth)
	fillRect(f, image.Rect(10, 5, 20, 25), skinTone)

	m := segmentSkin(f)
	require.True(t, m.SameSize(f))
	require.Equal(t, 10*20, m.Count())
	require.True(t, m.At(15, 15))
	require.False(t, m.At(2, 2))
	for _, v := range m.Pix {
		require.Contains(t, []uint8{entity.MaskOff, entity.MaskOn}, v)
	}

	require.False(t, isSkinYCrCb(lightGray.r, lightGray.g, lightGray.b))
	require.False(t, isSkinHSV(lightGray.r, lightGray.g, lightGray.b))
}

func TestDilateErode_EllipseKernel(t *testing.T) {
	m := entity.NewMask(20, 20)
	m.Set(10, 10, true)

	d := Dilate(m, 2)
	require.Equal(t, 13, d.Count())
	require.True(t, d.At(12, 10))
	require.False(t, d.At(12, 12))

	e := Erode(d, 2)
	require.Equal(t, 1, e.Count())
	require.True(t, e.At(10, 10))
}

func TestErode_IgnoresOutOfFrame(t *testing.T) {
	m := rectMask(10, 10, image.Rect(0, 0, 10, 10))
	require.Equal(t, 100, Erode(m, 3).Count())
}

func TestCleanMask_FillsHoleAndDropsSpeckle(t *testing.T) {
	m := rectMask(100, 100, image.Rect(20, 20, 80, 80))
	m.Set(50, 50, false)
	m.Set(5, 5, true)

	cleaned := CleanMask(m, 7)
	require.True(t, cleaned.At(50, 50))
	require.False(t, cleaned.At(5, 5))
	require.True(t, cleaned.At(50, 25))
	require.False(t, cleaned.At(90, 90))
}

func TestLabelComponents_EightConnectivity(t *testing.T) {
	m := entity.NewMask(10, 10)
	m.Set(1, 1, true)
	m.Set(2, 2, true)
	m.Set(3, 3, true)
	m.Set(7, 7, true)

	l := labelComponents(m)
	require.Len(t, l.comps, 2)

	c, ok := l.largest()
	require.True(t, ok)
	require.Equal(t, 3, c.area)
	require.Equal(t, image.Pt(1, 1), c.start)
}

func TestTraceContour_Square(t *testing.T) {
	m := rectMask(5, 5, image.Rect(1, 1, 3, 3))
	l := labelComponents(m)
	c, _ := l.largest()

	require.Equal(t, []image.Point{{1, 1}, {2, 1}, {2, 2}, {1, 2}}, l.traceContour(c))
}

func TestTraceContour_SinglePixel(t *testing.T) {
	m := entity.NewMask(5, 5)
	m.Set(2, 2, true)
	l := labelComponents(m)
	c, _ := l.largest()

	require.Equal(t, []image.Point{{2, 2}}, l.traceContour(c))
}

func TestTraceContour_VisitsEveryBoundaryPixel(t *testing.T) {
	m := rectMask(30, 30, image.Rect(5, 5, 25, 15))
	l := labelComponents(m)
	c, _ := l.largest()
	contour := l.traceContour(c)

	// периметр прямоугольника 20x10 в пикселях
	require.Len(t, contour, 2*20+2*10-4)
	for _, p := range contour {
		require.True(t, p.X == 5 || p.X == 24 || p.Y == 5 || p.Y == 14, "point %v is not on the boundary", p)
	}
}
