package vision

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"measure-bot/internal/domain/entity"
)

func TestInitialize_CPU(t *testing.T) {
	e, err := Initialize(cpuConfig())
	require.NoError(t, err)
	require.Equal(t, BackendCPU, e.Backend())
}

func TestInitialize_RejectsBadConfig(t *testing.T) {
	cfg := cpuConfig()
	cfg.Backend = "cuda"
	_, err := Initialize(cfg)
	require.Error(t, err)

	cfg = cpuConfig()
	cfg.BlurKernel = 4
	_, err = Initialize(cfg)
	require.Error(t, err)
}

func TestEngineDetect_InvalidPayload(t *testing.T) {
	e, err := Initialize(cpuConfig())
	require.NoError(t, err)

	_, err = e.Detect(context.Background(), &entity.Frame{Width: 10, Height: 10, Pix: make([]byte, 10)})
	require.True(t, errors.Is(err, entity.ErrInvalidPayload))

	_, err = e.Detect(context.Background(), nil)
	require.True(t, errors.Is(err, entity.ErrInvalidPayload))
}

func TestEngineDetect_Segmentation(t *testing.T) {
	cfg := cpuConfig()
	cfg.IncludeMaskPreview = true
	e, err := Initialize(cfg)
	require.NoError(t, err)

	f := solidFrame(640, 480, blueCloth)
	fillRect(f, image.Rect(200, 100, 440, 380), skinTone)

	res, err := e.Detect(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, entity.MethodSegmentation, res.Method)
	require.Equal(t, BackendCPU, res.Backend)
	require.Equal(t, 640, res.FrameWidth)
	require.Equal(t, 480, res.FrameHeight)

	// объект выше, чем шире, поэтому ось вертикальна
	require.InDelta(t, 1.0, math.Abs(res.Axis.UnitVector.Y), 1e-6)
	require.InDelta(t, 1.0, res.Axis.UnitVector.Norm(), 1e-9)
	require.InDelta(t, 100, math.Min(res.Axis.End1.Y, res.Axis.End2.Y), 1)
	require.InDelta(t, 379, math.Max(res.Axis.End1.Y, res.Axis.End2.Y), 1)
	require.InDelta(t, 320, res.Axis.End1.X, 1)

	require.Len(t, res.Widths, len(Stations))
	for _, w := range res.Widths {
		require.InDelta(t, 240, w.WidthPixels, 1)
	}
	require.InDelta(t, 240.0*280/(640*480), res.AreaFraction, 0.005)
	require.Greater(t, res.Solidity, 0.98)
	require.LessOrEqual(t, res.Solidity, 1.0)
	require.Greater(t, res.Confidence, 0.6)
	require.Less(t, res.Confidence, 0.8)

	require.NotNil(t, res.MaskPreview)
	require.True(t, res.MaskPreview.SameSize(f))
	require.NotNil(t, res.Quality)
}

func TestEngineDetect_LineFallback(t *testing.T) {
	e, err := Initialize(cpuConfig())
	require.NoError(t, err)

	f := solidFrame(200, 200, lightGray)
	fillRect(f, image.Rect(20, 96, 180, 104), darkGray)

	res, err := e.Detect(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, entity.MethodLineFallback, res.Method)
	require.Empty(t, res.Widths)
	require.Equal(t, 1.0, res.Solidity)
	require.InDelta(t, 0.30, res.Confidence, 1e-9)
	require.Greater(t, res.Axis.Length(), 120.0)
	require.InDelta(t, 1.0, math.Abs(res.Axis.UnitVector.X), 0.01)
}

func TestEngineDetect_NoSubject(t *testing.T) {
	e, err := Initialize(cpuConfig())
	require.NoError(t, err)

	_, err = e.Detect(context.Background(), solidFrame(120, 90, lightGray))
	require.True(t, errors.Is(err, entity.ErrNoSubjectDetected))
}

func TestEngineDetect_CanceledContext(t *testing.T) {
	e, err := Initialize(cpuConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Detect(ctx, solidFrame(20, 20, skinTone))
	require.True(t, errors.Is(err, context.Canceled))
}

func TestEngineDetect_Concurrent(t *testing.T) {
	e, err := Initialize(cpuConfig())
	require.NoError(t, err)

	f := solidFrame(160, 120, blueCloth)
	fillRect(f, image.Rect(60, 10, 100, 110), skinTone)

	want, err := e.Detect(context.Background(), f)
	require.NoError(t, err)

	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			got, err := e.Detect(context.Background(), f)
			if err == nil && got.Confidence != want.Confidence {
				err = errors.New("confidence differs between runs")
			}
			errs <- err
		}()
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-errs)
	}
}

func TestLongestSegment(t *testing.T) {
	_, ok := LongestSegment(nil)
	require.False(t, ok)

	s, ok := LongestSegment([]entity.Segment{
		{A: entity.Pt(0, 0), B: entity.Pt(3, 4)},
		{A: entity.Pt(0, 0), B: entity.Pt(30, 40)},
		{A: entity.Pt(1, 1), B: entity.Pt(2, 2)},
	})
	require.True(t, ok)
	require.Equal(t, 50.0, s.Length())
}

func TestGaussianSigma(t *testing.T) {
	require.InDelta(t, 1.7, gaussianSigma(9), 1e-9)
	require.InDelta(t, 1.1, gaussianSigma(5), 1e-9)
}

func TestCanny_StepEdge(t *testing.T) {
	const w, h = 40, 20
	gray := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 20; x < w; x++ {
			gray[y*w+x] = 200
		}
	}
	edges := Canny(gray, w, h, 50, 150)
	for y := 0; y < h; y++ {
		var row int
		for x := 0; x < w; x++ {
			if edges[y*w+x] != 0 {
				row++
				require.InDelta(t, 19.5, float64(x), 1)
			}
		}
		require.Equal(t, 1, row, "row %d", y)
	}
}
