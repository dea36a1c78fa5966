package app

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"measure-bot/internal/domain/entity"
)

type fixedCalibration struct {
	state entity.CalibrationState
}

func (f fixedCalibration) State() entity.CalibrationState { return f.state }

var inchCalibration = fixedCalibration{state: entity.CalibrationState{
	PixelsPerUnit: 100,
	Unit:          entity.UnitInch,
	Source:        entity.SourceManual,
	Validated:     true,
}}

func result(lengthPx, widthPx, confidence float64) *entity.DetectionResult {
	return &entity.DetectionResult{
		Axis: entity.AxisEstimate{
			UnitVector: entity.Pt(0, 1),
			End1:       entity.Pt(50, 0),
			End2:       entity.Pt(50, lengthPx),
		},
		Widths:     []entity.WidthSample{{WidthPixels: widthPx}, {WidthPixels: widthPx}},
		Confidence: confidence,
		Method:     entity.MethodSegmentation,
	}
}

func manualConfig() StabilityConfig {
	cfg := DefaultStabilityConfig()
	cfg.AutoCapture = false
	return cfg
}

func TestStabilityController_BecomesStable(t *testing.T) {
	c := NewStabilityController(manualConfig(), inchCalibration)
	require.Equal(t, entity.StateIdle, c.State())

	base := time.Unix(1700000000, 0)
	step := 2 * time.Second / 9
	var last StabilityUpdate
	for i := 0; i < 10; i++ {
		// длина колеблется в пределах 0.01"
		length := 500.0 + float64(i%2)
		last = c.Observe(result(length, 100, 0.95), base.Add(time.Duration(i)*step))
		switch i {
		case 0:
			require.Equal(t, entity.StateDetecting, last.Event.State)
			require.True(t, last.Changed)
			require.Equal(t, 1, c.WindowLen())
		case 1:
			require.Equal(t, entity.StateStabilizing, last.Event.State)
			require.True(t, last.Changed)
		}
	}
	require.Equal(t, entity.StateStable, last.Event.State)
	require.Equal(t, 1.0, last.Event.Progress)
	require.Nil(t, last.Capture)
	require.Equal(t, entity.StateStable, c.State())
}

func TestStabilityController_LowConfidenceResets(t *testing.T) {
	c := NewStabilityController(manualConfig(), inchCalibration)
	base := time.Unix(1700000000, 0)
	step := 2 * time.Second / 9

	for i := 0; i < 5; i++ {
		c.Observe(result(500, 100, 0.95), base.Add(time.Duration(i)*step))
	}
	require.Equal(t, entity.StateStabilizing, c.State())
	require.Equal(t, 5, c.WindowLen())

	u := c.Observe(result(500, 100, 0.3), base.Add(5*step))
	require.Equal(t, entity.StateDetecting, u.Event.State)
	require.Equal(t, 0.0, u.Event.Progress)
	require.Zero(t, c.WindowLen())

	// накопление начинается заново
	for i := 6; i < 10; i++ {
		u = c.Observe(result(500, 100, 0.95), base.Add(time.Duration(i)*step))
	}
	require.Equal(t, entity.StateStabilizing, u.Event.State)
	require.InDelta(t, float64(3*step)/float64(time.Second), u.Event.Progress, 1e-9)
}

func TestStabilityController_NoDetectionResets(t *testing.T) {
	c := NewStabilityController(manualConfig(), inchCalibration)
	now := time.Unix(1700000000, 0)
	c.Observe(result(500, 100, 0.95), now)

	u := c.Observe(nil, now.Add(100*time.Millisecond))
	require.Equal(t, entity.StateDetecting, u.Event.State)
	require.Zero(t, c.WindowLen())
}

func TestStabilityController_SpreadRestartsWindow(t *testing.T) {
	c := NewStabilityController(manualConfig(), inchCalibration)
	now := time.Unix(1700000000, 0)
	c.Observe(result(500, 100, 0.95), now)
	c.Observe(result(500, 100, 0.95), now.Add(500*time.Millisecond))

	u := c.Observe(result(600, 100, 0.95), now.Add(time.Second))
	require.Equal(t, entity.StateStabilizing, u.Event.State)
	require.Equal(t, 0.0, u.Event.Progress)
	require.Equal(t, 1, c.WindowLen())

	// обхват (π × ширина) тоже проверяется
	u = c.Observe(result(600, 110, 0.95), now.Add(1200*time.Millisecond))
	require.Equal(t, 0.0, u.Event.Progress)
	require.Equal(t, 1, c.WindowLen())
}

func TestStabilityController_EvictsOldEntries(t *testing.T) {
	c := NewStabilityController(manualConfig(), inchCalibration)
	now := time.Unix(1700000000, 0)
	c.Observe(result(500, 100, 0.95), now)
	c.Observe(result(500, 100, 0.95), now.Add(time.Second))
	c.Observe(result(500, 100, 0.95), now.Add(2*time.Second))
	require.Equal(t, 2, c.WindowLen())
}

func TestStabilityController_UncalibratedStaysDetecting(t *testing.T) {
	c := NewStabilityController(manualConfig(), fixedCalibration{state: entity.CalibrationState{Source: entity.SourceNone}})
	u := c.Observe(result(500, 100, 0.95), time.Now())
	require.Equal(t, entity.StateDetecting, u.Event.State)
}

func TestStabilityController_AutoCaptureWithCooldown(t *testing.T) {
	c := NewStabilityController(DefaultStabilityConfig(), inchCalibration)
	base := time.Unix(1700000000, 0)

	var captures []*entity.CaptureEvent
	var captureTimes []time.Duration
	for i := 0; i <= 24; i++ {
		offset := time.Duration(i) * 250 * time.Millisecond
		u := c.Observe(result(500+float64(i%3), 100, 0.95), base.Add(offset))
		if u.Capture != nil {
			require.Equal(t, entity.StateIdle, u.Event.State)
			require.Zero(t, c.WindowLen())
			captures = append(captures, u.Capture)
			captureTimes = append(captureTimes, offset)
			continue
		}
		if len(captureTimes) > 0 && offset == captureTimes[len(captureTimes)-1]+250*time.Millisecond {
			// после захвата окно начинается заново через Detecting
			require.Equal(t, entity.StateDetecting, u.Event.State)
		}
	}

	require.Equal(t, []time.Duration{time.Second, 4 * time.Second}, captureTimes)
	first := captures[0]
	require.NotEqual(t, first.ID, captures[1].ID)
	require.Equal(t, entity.UnitInch, first.Unit)
	require.InDelta(t, 5.01, first.PhysicalLength, 0.01)
	require.InDelta(t, 1.0, first.PhysicalWidth, 1e-9)
	require.InDelta(t, math.Pi, first.Girth, 1e-9)
	require.Equal(t, entity.MethodSegmentation, first.Captured.Method)
}
