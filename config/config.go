package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"measure-bot/internal/domain/entity"
)

type Config struct {
	TelegramToken string

	VisionBackend      string
	MaxFrameSide       int
	MorphRadius        int
	IncludeMaskPreview bool
	OverlayFormat      string

	DetectionBudget   time.Duration
	DetectionInterval time.Duration

	StabilityWindow      time.Duration
	StabilityMinDuration time.Duration
	MinConfidence        float64
	LengthTolerance      float64
	GirthTolerance       float64
	AutoCapture          bool
	CaptureCooldown      time.Duration

	DefaultUnit     entity.Unit
	ReferenceLength float64
	ScreenPPI       float64
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		VisionBackend:      p.str("VISION_BACKEND", "auto"),
		MaxFrameSide:       p.int("MAX_FRAME_SIDE", 1024),
		MorphRadius:        p.int("MORPH_RADIUS", 7),
		IncludeMaskPreview: p.bool("INCLUDE_MASK_PREVIEW", false),
		OverlayFormat:      p.str("OVERLAY_FORMAT", "jpeg"),

		DetectionBudget:   p.duration("DETECTION_BUDGET", 2*time.Second),
		DetectionInterval: p.duration("DETECTION_INTERVAL", 500*time.Millisecond),

		StabilityWindow:      p.duration("STABILITY_WINDOW", 1500*time.Millisecond),
		StabilityMinDuration: p.duration("STABILITY_MIN_DURATION", time.Second),
		MinConfidence:        p.float("MIN_CONFIDENCE", 0.7),
		LengthTolerance:      p.float("LENGTH_TOLERANCE", 0.05),
		GirthTolerance:       p.float("GIRTH_TOLERANCE", 0.05),
		AutoCapture:          p.bool("AUTO_CAPTURE", true),
		CaptureCooldown:      p.duration("CAPTURE_COOLDOWN", 3*time.Second),

		ReferenceLength: p.float("REFERENCE_LENGTH", 3.375),
		ScreenPPI:       p.float("SCREEN_PPI", 96),
	}

	unit, err := entity.ParseUnit(p.str("DEFAULT_UNIT", "in"))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("DEFAULT_UNIT: %w", err))
	}
	cfg.DefaultUnit = unit

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate отклоняет несогласованные значения.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxFrameSide < 0 {
		errs = append(errs, errors.New("MAX_FRAME_SIDE must be non-negative"))
	}
	if c.MorphRadius < 0 {
		errs = append(errs, errors.New("MORPH_RADIUS must be non-negative"))
	}
	if c.DetectionInterval <= 0 {
		errs = append(errs, errors.New("DETECTION_INTERVAL must be positive"))
	}
	if c.DetectionBudget < 0 {
		errs = append(errs, errors.New("DETECTION_BUDGET must be non-negative"))
	}
	if c.StabilityMinDuration > c.StabilityWindow {
		errs = append(errs, errors.New("STABILITY_MIN_DURATION must not exceed STABILITY_WINDOW"))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		errs = append(errs, errors.New("MIN_CONFIDENCE must be in [0, 1]"))
	}
	if c.LengthTolerance < 0 || c.GirthTolerance < 0 {
		errs = append(errs, errors.New("tolerances must be non-negative"))
	}
	if c.ReferenceLength <= 0 {
		errs = append(errs, errors.New("REFERENCE_LENGTH must be positive"))
	}
	if c.ScreenPPI <= 0 {
		errs = append(errs, errors.New("SCREEN_PPI must be positive"))
	}
	return errors.Join(errs...)
}

// parser читает переменные окружения и копит ошибки разбора.
type parser struct {
	errs []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
