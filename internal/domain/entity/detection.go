package entity

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AxisEstimate — главная ось объекта и её крайние точки.
type AxisEstimate struct {
	UnitVector Point `json:"unit_vector"` // направление оси, |u| = 1
	End1       Point `json:"end1"`        // точка с минимальной проекцией на ось
	End2       Point `json:"end2"`        // точка с максимальной проекцией на ось
	Centroid   Point `json:"centroid"`
}

// Length возвращает длину объекта в пикселях.
func (a AxisEstimate) Length() float64 {
	return a.End1.Dist(a.End2)
}

// Midpoint возвращает середину между концами.
func (a AxisEstimate) Midpoint() Point {
	return Midpoint(a.End1, a.End2)
}

// Project возвращает знаковую проекцию точки на ось относительно центроида.
func (a AxisEstimate) Project(p Point) float64 {
	return p.Sub(a.Centroid).Dot(a.UnitVector)
}

// WidthSample — поперечная ширина в одной станции вдоль оси.
type WidthSample struct {
	AxialPositionFraction float64 `json:"t"`            // доля длины от середины, [-0.2, 0.2]
	WidthPixels           float64 `json:"width_pixels"` // ширина в пикселях
}

// DetectionMethod — каким путём получена геометрия.
type DetectionMethod string

const (
	MethodSegmentation DetectionMethod = "segmentation"
	MethodLineFallback DetectionMethod = "line_fallback"
)

// FrameQuality — измеренные показатели качества кадра.
type FrameQuality struct {
	Brightness        float64  `json:"brightness"`         // средняя яркость, [0, 1]
	Sharpness         float64  `json:"sharpness"`          // доля пикселей-границ
	OverexposedRatio  float64  `json:"overexposed_ratio"`  // доля пересвеченных пикселей
	UnderexposedRatio float64  `json:"underexposed_ratio"` // доля тёмных пикселей
	GlareRatio        float64  `json:"glare_ratio"`        // доля бликов
	SizeFraction      float64  `json:"size_fraction"`      // доля площади объекта
	EdgeProximity     float64  `json:"edge_proximity"`     // расстояние концов до края / min(w, h)
	Warnings          []string `json:"warnings,omitempty"`
}

// DetectionResult — итог одного прохода пайплайна.
type DetectionResult struct {
	Axis         AxisEstimate    `json:"axis"`
	Widths       []WidthSample   `json:"widths"`
	AreaFraction float64         `json:"area_fraction"`
	Solidity     float64         `json:"solidity"`
	Confidence   float64         `json:"confidence"` // [0, 1]
	Method       DetectionMethod `json:"method"`
	Backend      string          `json:"backend"`
	FrameWidth   int             `json:"frame_width"`
	FrameHeight  int             `json:"frame_height"`
	Quality      *FrameQuality   `json:"quality,omitempty"`
	MaskPreview  *Mask           `json:"-"`
}

// LengthPixels возвращает длину объекта в пикселях.
func (r DetectionResult) LengthPixels() float64 {
	return r.Axis.Length()
}

// WidthValues возвращает ширины станций в порядке выборки.
func (r DetectionResult) WidthValues() []float64 {
	out := make([]float64, len(r.Widths))
	for i, w := range r.Widths {
		out[i] = w.WidthPixels
	}
	return out
}

// MedianWidthPixels возвращает медиану ширин; без выборок — 0.
func (r DetectionResult) MedianWidthPixels() float64 {
	return Median(r.WidthValues())
}

// Median возвращает медиану выборки (среднее двух центральных при чётной длине).
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	lower := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if n%2 == 1 {
		return lower
	}
	return (lower + sorted[n/2]) / 2
}
