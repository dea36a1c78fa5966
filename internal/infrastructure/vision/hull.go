package vision

import (
	"errors"
	"image"
	"math"
	"sort"
)

var errDegenerateHull = errors.New("convex hull is degenerate")

// ConvexHull строит выпуклую оболочку монотонной цепью Эндрю.
// Вершины идут против часовой стрелки в математической системе координат.
func ConvexHull(points []image.Point) ([]image.Point, error) {
	pts := make([]image.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	uniq := pts[:0]
	for _, p := range pts {
		if len(uniq) == 0 || p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		return nil, errDegenerateHull
	}

	hull := make([]image.Point, 0, 2*len(uniq))
	for _, p := range uniq {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(uniq) - 2; i >= 0; i-- {
		p := uniq[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	hull = hull[:len(hull)-1]
	if len(hull) < 3 {
		return nil, errDegenerateHull
	}
	return hull, nil
}

func cross(o, a, b image.Point) int64 {
	return int64(a.X-o.X)*int64(b.Y-o.Y) - int64(a.Y-o.Y)*int64(b.X-o.X)
}

// PolygonArea возвращает площадь многоугольника по формуле шнурования.
func PolygonArea(poly []image.Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	var sum int64
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += int64(poly[i].X)*int64(poly[j].Y) - int64(poly[j].X)*int64(poly[i].Y)
	}
	return math.Abs(float64(sum)) / 2
}

// Solidity возвращает отношение площади контура к площади его оболочки.
func Solidity(contour []image.Point) (float64, error) {
	hull, err := ConvexHull(contour)
	if err != nil {
		return 1, err
	}
	hullArea := PolygonArea(hull)
	if hullArea == 0 {
		return 1, errDegenerateHull
	}
	return math.Min(1, PolygonArea(contour)/hullArea), nil
}
