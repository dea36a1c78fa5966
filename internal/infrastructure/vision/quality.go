package vision

import (
	"fmt"
	"math"

	"measure-bot/internal/domain/entity"
)

// Пороги яркости для оценки экспозиции и бликов.
const (
	overexposedLuma  = 250
	underexposedLuma = 20
	glareMaxSat      = 40
	glareMinValue    = 245

	sharpnessCannyLow  = 80
	sharpnessCannyHigh = 160
)

// MeasureQuality считает показатели качества кадра и готовит предупреждения.
// Предупреждения не являются ошибкой: измерение возвращается в любом случае.
func MeasureQuality(frame *entity.Frame, result *entity.DetectionResult, gate QualityGate) *entity.FrameQuality {
	gray := luma(frame)
	total := float64(len(gray))

	var sum, over, under, glare float64
	for i, v := range gray {
		sum += float64(v)
		if v > overexposedLuma {
			over++
		}
		if v < underexposedLuma {
			under++
		}
		p := frame.Pix[i*4 : i*4+3]
		_, s, val := toHSV(p[0], p[1], p[2])
		if s < glareMaxSat && val > glareMinValue {
			glare++
		}
	}

	edges := Canny(gray, frame.Width, frame.Height, sharpnessCannyLow, sharpnessCannyHigh)
	var edgeCount float64
	for _, e := range edges {
		if e != 0 {
			edgeCount++
		}
	}

	q := &entity.FrameQuality{
		Brightness:        sum / total / 255,
		Sharpness:         edgeCount / total,
		OverexposedRatio:  over / total,
		UnderexposedRatio: under / total,
		GlareRatio:        glare / total,
	}
	if result != nil {
		q.SizeFraction = result.AreaFraction
		q.EdgeProximity = edgeProximity(frame, result.Axis)
	}

	if q.Sharpness < gate.MinSharpnessEdgeRatio {
		q.Warnings = append(q.Warnings, fmt.Sprintf("image is blurry (edge_ratio=%.4f)", q.Sharpness))
	}
	if q.OverexposedRatio > gate.MaxOverexposedRatio {
		q.Warnings = append(q.Warnings, fmt.Sprintf("overexposed image (ratio=%.4f)", q.OverexposedRatio))
	}
	if q.UnderexposedRatio > gate.MaxUnderexposedRatio {
		q.Warnings = append(q.Warnings, fmt.Sprintf("underexposed image (ratio=%.4f)", q.UnderexposedRatio))
	}
	if q.GlareRatio > gate.MaxGlareRatio {
		q.Warnings = append(q.Warnings, fmt.Sprintf("too much glare (ratio=%.4f)", q.GlareRatio))
	}
	if result != nil && q.EdgeProximity < gate.MinEdgeProximity {
		q.Warnings = append(q.Warnings, fmt.Sprintf("subject touches frame edge (proximity=%.4f)", q.EdgeProximity))
	}
	return q
}

// edgeProximity — минимальное расстояние концов до края кадра, делённое на меньшую сторону.
func edgeProximity(frame *entity.Frame, axis entity.AxisEstimate) float64 {
	w, h := float64(frame.Width-1), float64(frame.Height-1)
	d := math.Inf(1)
	for _, p := range []entity.Point{axis.End1, axis.End2} {
		d = math.Min(d, math.Min(math.Min(p.X, w-p.X), math.Min(p.Y, h-p.Y)))
	}
	if d < 0 {
		d = 0
	}
	return d / float64(frame.MinSide())
}
