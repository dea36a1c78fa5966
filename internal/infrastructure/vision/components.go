package vision

import (
	"image"

	"measure-bot/internal/domain/entity"
)

// восемь соседей по часовой стрелке (ось Y направлена вниз)
var neighbors8 = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// component — статистика одной 8-связной компоненты.
type component struct {
	label int32
	area  int
	start image.Point // первый пиксель при обходе по строкам
	minX  int
	minY  int
	maxX  int
	maxY  int
}

// labeling — разметка маски на связные компоненты.
type labeling struct {
	width  int
	height int
	labels []int32 // 0 — фон, иначе номер компоненты
	comps  []component
}

// labelComponents размечает компоненты переднего плана (8-связность).
func labelComponents(m *entity.Mask) *labeling {
	l := &labeling{width: m.Width, height: m.Height, labels: make([]int32, len(m.Pix))}
	stack := make([]int, 0, 1024)
	for idx, v := range m.Pix {
		if v == entity.MaskOff || l.labels[idx] != 0 {
			continue
		}
		label := int32(len(l.comps) + 1)
		sx, sy := idx%m.Width, idx/m.Width
		c := component{label: label, start: image.Pt(sx, sy), minX: sx, minY: sy, maxX: sx, maxY: sy}
		l.labels[idx] = label
		stack = append(stack[:0], idx)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cx, cy := cur%m.Width, cur/m.Width
			c.area++
			c.minX, c.maxX = minInt(c.minX, cx), maxInt(c.maxX, cx)
			c.minY, c.maxY = minInt(c.minY, cy), maxInt(c.maxY, cy)
			for _, d := range neighbors8 {
				nx, ny := cx+d.X, cy+d.Y
				if nx < 0 || ny < 0 || nx >= m.Width || ny >= m.Height {
					continue
				}
				n := ny*m.Width + nx
				if m.Pix[n] != entity.MaskOff && l.labels[n] == 0 {
					l.labels[n] = label
					stack = append(stack, n)
				}
			}
		}
		l.comps = append(l.comps, c)
	}
	return l
}

// largest возвращает компоненту с максимальной площадью (первую при равенстве).
func (l *labeling) largest() (component, bool) {
	var best component
	found := false
	for _, c := range l.comps {
		if !found || c.area > best.area {
			best, found = c, true
		}
	}
	return best, found
}

func (l *labeling) is(x, y int, label int32) bool {
	if x < 0 || y < 0 || x >= l.width || y >= l.height {
		return false
	}
	return l.labels[y*l.width+x] == label
}

func (c component) touchesBorder(width, height int) bool {
	return c.minX == 0 || c.minY == 0 || c.maxX == width-1 || c.maxY == height-1
}

// traceContour обходит внешнюю границу компоненты радиальной развёрткой.
// Точки идут в порядке обхода по часовой стрелке, начиная с верхней левой.
func (l *labeling) traceContour(c component) []image.Point {
	start := c.start
	contour := []image.Point{start}

	// следующий сосед по часовой стрелке, начиная за направлением back
	next := func(p image.Point, back int) (image.Point, int, bool) {
		for i := 1; i <= 8; i++ {
			d := (back + i) % 8
			q := p.Add(neighbors8[d])
			if l.is(q.X, q.Y, c.label) {
				return q, d, true
			}
		}
		return p, 0, false
	}

	// стартовый пиксель самый верхний левый, значит слева фон
	const west = 4
	first, firstDir, ok := next(start, west)
	if !ok {
		return contour
	}
	p, dir := first, firstDir
	limit := 4*c.area + 8
	for i := 0; i < limit; i++ {
		contour = append(contour, p)
		q, d, _ := next(p, (dir+4)%8)
		if p == start && d == firstDir {
			// вернулись в начало тем же ходом: контур замкнут
			contour = contour[:len(contour)-1]
			break
		}
		p, dir = q, d
	}
	return contour
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
