package container

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"measure-bot/config"
	"measure-bot/internal/domain/entity"
	"measure-bot/internal/infrastructure/storage"
	"measure-bot/internal/infrastructure/vision"
)

func testConfig() *config.Config {
	return &config.Config{
		VisionBackend:        vision.BackendCPU,
		MaxFrameSide:         512,
		MorphRadius:          5,
		OverlayFormat:        "png",
		DetectionBudget:      time.Second,
		DetectionInterval:    time.Second,
		StabilityWindow:      1500 * time.Millisecond,
		StabilityMinDuration: time.Second,
		MinConfidence:        0.7,
		AutoCapture:          true,
		DefaultUnit:          entity.UnitCentimeter,
		ReferenceLength:      3.375,
		ScreenPPI:            96,
	}
}

func TestNew(t *testing.T) {
	c, err := New(testConfig(), storage.NewMemoryUserRepository(), storage.NewMemoryMeasurementRepository())
	require.NoError(t, err)
	require.Equal(t, vision.BackendCPU, c.Engine.Backend())
	require.Equal(t, 5, c.Engine.Config().MorphRadius)
	require.Equal(t, 512, c.Decoder.MaxSide)
	require.Equal(t, "png", c.Renderer.Format)
	require.NotNil(t, c.MeasurementService)
}

func TestNew_BadOverlayFormat(t *testing.T) {
	cfg := testConfig()
	cfg.OverlayFormat = "gif"
	_, err := New(cfg, storage.NewMemoryUserRepository(), storage.NewMemoryMeasurementRepository())
	require.Error(t, err)
}

func TestStabilityConfig(t *testing.T) {
	sc := StabilityConfig(testConfig())
	require.Equal(t, entity.UnitCentimeter, sc.Unit)
	require.Equal(t, time.Second, sc.MinDuration)
	require.True(t, sc.AutoCapture)
}
