package vision

import (
	"fmt"
	"image"
	"math"

	"measure-bot/internal/domain/entity"
)

// tieEpsilon — допуск равенства проекций при выборе концов.
const tieEpsilon = 1e-6

// Region — выбранная область объекта вместе с контуром.
type Region struct {
	Area    int           // число пикселей
	Contour []image.Point // внешний контур в порядке обхода
	Moments Moments
}

// Moments — сырые и центральные моменты области.
type Moments struct {
	M00, M10, M01    float64
	Mu20, Mu02, Mu11 float64
}

// Centroid возвращает центр масс, при нулевой массе возвращает fallback.
func (m Moments) Centroid(fallback entity.Point) entity.Point {
	if m.M00 == 0 {
		return fallback
	}
	return entity.Pt(m.M10/m.M00, m.M01/m.M00)
}

// Orientation возвращает угол главной оси по центральным моментам.
func (m Moments) Orientation() float64 {
	return 0.5 * math.Atan2(2*m.Mu11, m.Mu20-m.Mu02)
}

// FindLargestRegion выбирает компоненту с наибольшей площадью.
func FindLargestRegion(mask *entity.Mask) (*Region, error) {
	l := labelComponents(mask)
	c, ok := l.largest()
	if !ok {
		return nil, entity.ErrNoRegionFound
	}
	return &Region{
		Area:    c.area,
		Contour: l.traceContour(c),
		Moments: regionMoments(l, c),
	}, nil
}

func regionMoments(l *labeling, c component) Moments {
	var m Moments
	for y := c.minY; y <= c.maxY; y++ {
		for x := c.minX; x <= c.maxX; x++ {
			if l.labels[y*l.width+x] != c.label {
				continue
			}
			m.M00++
			m.M10 += float64(x)
			m.M01 += float64(y)
		}
	}
	if m.M00 == 0 {
		return m
	}
	cx, cy := m.M10/m.M00, m.M01/m.M00
	for y := c.minY; y <= c.maxY; y++ {
		for x := c.minX; x <= c.maxX; x++ {
			if l.labels[y*l.width+x] != c.label {
				continue
			}
			dx, dy := float64(x)-cx, float64(y)-cy
			m.Mu20 += dx * dx
			m.Mu02 += dy * dy
			m.Mu11 += dx * dy
		}
	}
	return m
}

// ExtractAxis вычисляет главную ось и её крайние точки на контуре.
func ExtractAxis(r *Region, frameCenter entity.Point) (entity.AxisEstimate, error) {
	if r == nil || len(r.Contour) == 0 {
		return entity.AxisEstimate{}, fmt.Errorf("extract axis: %w", entity.ErrNoRegionFound)
	}
	c := r.Moments.Centroid(frameCenter)
	theta := r.Moments.Orientation()
	u := entity.Pt(math.Cos(theta), math.Sin(theta))
	perp := u.Perp()

	pts := make([]entity.Point, len(r.Contour))
	proj := make([]float64, len(r.Contour))
	sMin, sMax := math.Inf(1), math.Inf(-1)
	for i, p := range r.Contour {
		pts[i] = entity.Pt(float64(p.X), float64(p.Y))
		proj[i] = pts[i].Sub(c).Dot(u)
		sMin = math.Min(sMin, proj[i])
		sMax = math.Max(sMax, proj[i])
	}

	// среди равных проекций берём точку ближе к оси, затем первую по обходу
	pick := func(target float64) entity.Point {
		best, bestOff := -1, math.Inf(1)
		for i := range pts {
			if math.Abs(proj[i]-target) > tieEpsilon {
				continue
			}
			off := math.Abs(pts[i].Sub(c).Dot(perp))
			if off < bestOff {
				best, bestOff = i, off
			}
		}
		return pts[best]
	}

	return entity.AxisEstimate{
		UnitVector: u,
		End1:       pick(sMin),
		End2:       pick(sMax),
		Centroid:   c,
	}, nil
}
