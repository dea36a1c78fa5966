package entity

import "math"

// Point — точка в пиксельных координатах.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt — сокращённый конструктор точки.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

func (p Point) Scale(k float64) Point { return Point{X: p.X * k, Y: p.Y * k} }

func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// Norm возвращает евклидову длину вектора.
func (p Point) Norm() float64 { return math.Hypot(p.X, p.Y) }

// Dist возвращает расстояние между точками.
func (p Point) Dist(q Point) float64 { return p.Sub(q).Norm() }

// Unit нормирует вектор; нулевой вектор остаётся нулевым.
func (p Point) Unit() Point {
	n := p.Norm()
	if n == 0 {
		return Point{}
	}
	return Point{X: p.X / n, Y: p.Y / n}
}

// Perp возвращает перпендикуляр (−y, x).
func (p Point) Perp() Point { return Point{X: -p.Y, Y: p.X} }

// Midpoint возвращает середину отрезка pq.
func Midpoint(p, q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Segment — отрезок прямой, найденный детектором линий.
type Segment struct {
	A Point
	B Point
}

// Length возвращает длину отрезка.
func (s Segment) Length() float64 { return s.A.Dist(s.B) }
