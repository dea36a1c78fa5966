package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"measure-bot/internal/domain/entity"
)

type stubReference struct {
	match *entity.ReferenceMatch
	err   error
}

func (s stubReference) DetectReference(ctx context.Context, frame *entity.Frame) (*entity.ReferenceMatch, error) {
	return s.match, s.err
}

func testFrame(t *testing.T) *entity.Frame {
	t.Helper()
	f, err := entity.NewFrame(8, 8, make([]byte, 8*8*4))
	require.NoError(t, err)
	return f
}

func TestCalibrationManager_Manual(t *testing.T) {
	m := NewCalibrationManager(nil, entity.UnitInch, 0)
	require.False(t, m.Calibrated())

	state, err := m.SetManual(entity.Pt(0, 0), entity.Pt(100, 0), 2.0, entity.UnitInch)
	require.NoError(t, err)
	require.Equal(t, 50.0, state.PixelsPerUnit)
	require.Equal(t, entity.SourceManual, state.Source)
	require.True(t, state.Validated)
	require.Equal(t, state, m.State())
}

func TestCalibrationManager_RejectsKeepPreviousState(t *testing.T) {
	m := NewCalibrationManager(nil, entity.UnitInch, 0)
	prev, err := m.SetManual(entity.Pt(0, 0), entity.Pt(100, 0), 2.0, entity.UnitInch)
	require.NoError(t, err)

	_, err = m.SetManual(entity.Pt(5, 5), entity.Pt(5, 5), 2.0, entity.UnitInch)
	require.True(t, errors.Is(err, entity.ErrZeroPixelDistance))
	require.Equal(t, prev, m.State())

	for _, ref := range []float64{0, -1} {
		_, err = m.SetManual(entity.Pt(0, 0), entity.Pt(10, 0), ref, entity.UnitInch)
		require.True(t, errors.Is(err, entity.ErrNonPositiveReference))
	}
	require.Equal(t, prev, m.State())
}

func TestCalibrationManager_AutoReference(t *testing.T) {
	ref := stubReference{match: &entity.ReferenceMatch{LongSidePixels: 337.5, ShortSidePixels: 212.5}}
	m := NewCalibrationManager(ref, entity.UnitInch, 0)

	state, err := m.AutoCalibrate(context.Background(), testFrame(t))
	require.NoError(t, err)
	require.Equal(t, entity.SourceReference, state.Source)
	require.True(t, state.Validated)
	require.InDelta(t, 100, state.PixelsPerUnit, 1e-9)
	require.InDelta(t, 3.375, state.ReferenceDistanceUnits, 1e-9)

	mcm := NewCalibrationManager(ref, entity.UnitCentimeter, 0)
	state, err = mcm.AutoCalibrate(context.Background(), testFrame(t))
	require.NoError(t, err)
	require.InDelta(t, 100/2.54, state.PixelsPerUnit, 1e-9)
	require.InDelta(t, 2.54, state.ToUnits(100, entity.UnitCentimeter), 1e-9)
}

func TestCalibrationManager_AutoFallsBackToEstimate(t *testing.T) {
	m := NewCalibrationManager(stubReference{err: entity.ErrReferenceNotFound}, entity.UnitInch, 0)

	state, err := m.AutoCalibrate(context.Background(), testFrame(t))
	require.NoError(t, err)
	require.Equal(t, entity.SourceEstimated, state.Source)
	require.False(t, state.Validated)
	require.Equal(t, float64(DefaultScreenPPI), state.PixelsPerUnit)
	require.True(t, state.Calibrated())
}

func TestCalibrationManager_AutoPropagatesOtherErrors(t *testing.T) {
	m := NewCalibrationManager(stubReference{err: context.Canceled}, entity.UnitInch, 0)

	_, err := m.AutoCalibrate(context.Background(), testFrame(t))
	require.True(t, errors.Is(err, context.Canceled))
	require.False(t, m.Calibrated())

	_, err = m.AutoCalibrate(context.Background(), &entity.Frame{})
	require.True(t, errors.Is(err, entity.ErrInvalidPayload))
}

func TestCalibrationManager_ConcurrentReadersSeeWholeState(t *testing.T) {
	m := NewCalibrationManager(nil, entity.UnitInch, 0)
	var (
		wg   sync.WaitGroup
		torn int
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= 200; i++ {
			_, _ = m.SetManual(entity.Pt(0, 0), entity.Pt(float64(i), 0), 1, entity.UnitInch)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s := m.State()
			// масштаб и эталон записываются одним присваиванием
			if s.Source == entity.SourceManual && (s.ReferenceDistanceUnits != 1 || s.PixelsPerUnit <= 0) {
				torn++
			}
		}
	}()
	wg.Wait()
	require.Zero(t, torn)

	m.Reset()
	require.False(t, m.Calibrated())
}
