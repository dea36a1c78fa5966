package vision

import (
	"fmt"
	"strings"
)

// Имена бэкендов.
const (
	BackendAuto   = "auto"
	BackendCPU    = "cpu"
	BackendOpenCV = "opencv"
)

// Config — параметры пайплайна измерения.
type Config struct {
	Backend string

	MorphRadius     int     // радиус эллиптического элемента очистки маски
	MinAreaFraction float64 // ниже этой доли площади регион считается подозрительно мелким

	BlurKernel             int     // размер ядра размытия перед Canny
	CannyLow               float64 // нижний порог гистерезиса
	CannyHigh              float64 // верхний порог гистерезиса
	HoughVotes             int     // минимальное число голосов за линию
	HoughMinLengthFraction float64 // минимальная длина линии как доля меньшей стороны кадра
	HoughMaxGap            int     // допустимый разрыв внутри линии

	MaxWidthStepFraction float64 // предел шагов при измерении ширины как доля меньшей стороны

	IncludeMaskPreview bool
	MeasureQuality     bool
	Quality            QualityGate
}

// QualityGate — пороги предупреждений о качестве кадра.
type QualityGate struct {
	MinSharpnessEdgeRatio float64
	MaxOverexposedRatio   float64
	MaxUnderexposedRatio  float64
	MaxGlareRatio         float64
	MinEdgeProximity      float64
}

// DefaultConfig возвращает параметры по умолчанию.
func DefaultConfig() Config {
	return Config{
		Backend:                BackendAuto,
		MorphRadius:            7,
		MinAreaFraction:        0.01,
		BlurKernel:             9,
		CannyLow:               50,
		CannyHigh:              150,
		HoughVotes:             80,
		HoughMinLengthFraction: 0.2,
		HoughMaxGap:            10,
		MaxWidthStepFraction:   0.25,
		MeasureQuality:         true,
		Quality: QualityGate{
			MinSharpnessEdgeRatio: 0.008,
			MaxOverexposedRatio:   0.35,
			MaxUnderexposedRatio:  0.45,
			MaxGlareRatio:         0.08,
			MinEdgeProximity:      0.02,
		},
	}
}

// Validate проверяет согласованность параметров.
func (c Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case BackendAuto, BackendCPU, BackendOpenCV, "":
	default:
		return fmt.Errorf("vision: unknown backend %q", c.Backend)
	}
	if c.MorphRadius < 0 {
		return fmt.Errorf("vision: morph radius must be non-negative")
	}
	if c.BlurKernel < 1 || c.BlurKernel%2 == 0 {
		return fmt.Errorf("vision: blur kernel must be a positive odd number")
	}
	if c.CannyLow < 0 || c.CannyHigh < c.CannyLow {
		return fmt.Errorf("vision: canny thresholds must satisfy 0 <= low <= high")
	}
	if c.HoughVotes < 1 {
		return fmt.Errorf("vision: hough votes must be positive")
	}
	if c.HoughMinLengthFraction <= 0 || c.HoughMinLengthFraction > 1 {
		return fmt.Errorf("vision: hough min length fraction must be in (0, 1]")
	}
	if c.MaxWidthStepFraction <= 0 || c.MaxWidthStepFraction > 1 {
		return fmt.Errorf("vision: width step fraction must be in (0, 1]")
	}
	return nil
}

// LineParams — параметры поиска линий для бэкенда.
type LineParams struct {
	BlurKernel    int
	CannyLow      float64
	CannyHigh     float64
	Votes         int
	MinLineLength int
	MaxLineGap    int
}

func (c Config) lineParams(minSide int) LineParams {
	minLen := int(float64(minSide) * c.HoughMinLengthFraction)
	if minLen < 1 {
		minLen = 1
	}
	return LineParams{
		BlurKernel:    c.BlurKernel,
		CannyLow:      c.CannyLow,
		CannyHigh:     c.CannyHigh,
		Votes:         c.HoughVotes,
		MinLineLength: minLen,
		MaxLineGap:    c.HoughMaxGap,
	}
}
