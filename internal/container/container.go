package container

import (
	"fmt"

	"measure-bot/config"
	app "measure-bot/internal/application"
	"measure-bot/internal/domain/port"
	"measure-bot/internal/infrastructure/framesource"
	"measure-bot/internal/infrastructure/report"
	"measure-bot/internal/infrastructure/vision"
)

type Container struct {
	UserService        *app.UserService
	MeasurementService *app.MeasurementService
	Engine             *vision.Engine
	Reference          *vision.CardDetector
	Decoder            *framesource.Decoder
	Renderer           *vision.Renderer
}

// VisionConfig переносит параметры окружения в конфигурацию пайплайна.
func VisionConfig(cfg *config.Config) vision.Config {
	vc := vision.DefaultConfig()
	vc.Backend = cfg.VisionBackend
	vc.MorphRadius = cfg.MorphRadius
	vc.IncludeMaskPreview = cfg.IncludeMaskPreview
	return vc
}

// StabilityConfig переносит параметры окружения в конфигурацию автозахвата.
func StabilityConfig(cfg *config.Config) app.StabilityConfig {
	return app.StabilityConfig{
		Window:          cfg.StabilityWindow,
		MinDuration:     cfg.StabilityMinDuration,
		MinConfidence:   cfg.MinConfidence,
		LengthTolerance: cfg.LengthTolerance,
		GirthTolerance:  cfg.GirthTolerance,
		AutoCapture:     cfg.AutoCapture,
		Cooldown:        cfg.CaptureCooldown,
		Unit:            cfg.DefaultUnit,
	}
}

func New(cfg *config.Config, userRepo port.UserRepository, records port.MeasurementRepository) (*Container, error) {
	engine, err := vision.Initialize(VisionConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("initialize vision: %w", err)
	}
	overlay, err := framesource.NormalizeFormat(cfg.OverlayFormat)
	if err != nil {
		return nil, err
	}

	reference := vision.NewCardDetector()
	decoder := framesource.NewDecoder(cfg.MaxFrameSide)
	renderer := vision.NewRenderer(overlay, 90)

	userService := app.NewUserService(userRepo)
	measurementService := app.NewMeasurementService(userService, app.MeasurementDeps{
		Decoder:     decoder,
		Detector:    engine,
		Reference:   reference,
		Highlighter: renderer,
		Describer:   report.NewTextDescriber(),
		Records:     records,
		ScreenPPI:   cfg.ScreenPPI,
	})

	return &Container{
		UserService:        userService,
		MeasurementService: measurementService,
		Engine:             engine,
		Reference:          reference,
		Decoder:            decoder,
		Renderer:           renderer,
	}, nil
}
