package vision

import (
	"context"
	"image"
	"math"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/domain/port"
)

// Размеры карты формата ID-1 (банковская карта) в дюймах.
const (
	CardLongSideInches  = 3.375
	CardShortSideInches = 2.125
)

// CardDetector ищет на кадре прямоугольник с пропорциями банковской карты.
type CardDetector struct {
	AspectRatio       float64 // длинная сторона / короткая
	AspectTolerance   float64 // допустимое относительное отклонение пропорций
	MinAreaFraction   float64
	MinRectangularity float64 // площадь области / площадь описанного прямоугольника
	BlurKernel        int
}

// NewCardDetector создаёт детектор с параметрами по умолчанию.
func NewCardDetector() *CardDetector {
	return &CardDetector{
		AspectRatio:       CardLongSideInches / CardShortSideInches,
		AspectTolerance:   0.12,
		MinAreaFraction:   0.01,
		MinRectangularity: 0.85,
		BlurKernel:        5,
	}
}

// DetectReference бинаризует кадр порогом Оцу и проверяет каждую область
// обеих полярностей: светлая карта на тёмном фоне и наоборот.
func (d *CardDetector) DetectReference(ctx context.Context, frame *entity.Frame) (*entity.ReferenceMatch, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	gray := blurredGray(frame, d.BlurKernel)
	t := otsuThreshold(gray)

	var best *entity.ReferenceMatch
	for _, bright := range []bool{true, false} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mask := entity.NewMask(frame.Width, frame.Height)
		for i, v := range gray {
			if (v > t) == bright {
				mask.Pix[i] = entity.MaskOn
			}
		}
		mask = CleanMask(mask, 2)
		if m := d.bestCandidate(mask); m != nil && (best == nil || m.Score > best.Score) {
			best = m
		}
	}
	if best == nil {
		return nil, entity.ErrReferenceNotFound
	}
	return best, nil
}

func (d *CardDetector) bestCandidate(mask *entity.Mask) *entity.ReferenceMatch {
	l := labelComponents(mask)
	minArea := int(d.MinAreaFraction * float64(mask.Width*mask.Height))

	var best *entity.ReferenceMatch
	for _, c := range l.comps {
		if c.area < minArea || c.touchesBorder(mask.Width, mask.Height) {
			continue
		}
		hull, err := ConvexHull(l.traceContour(c))
		if err != nil {
			continue
		}
		rect := minAreaRect(hull)
		if rect.short <= 0 {
			continue
		}
		rectangularity := float64(c.area) / (rect.long * rect.short)
		deviation := math.Abs(rect.long/rect.short-d.AspectRatio) / d.AspectRatio
		if rectangularity < d.MinRectangularity || deviation > d.AspectTolerance {
			continue
		}
		score := rectangularity - deviation
		if best == nil || score > best.Score {
			best = &entity.ReferenceMatch{
				LongSidePixels:  rect.long,
				ShortSidePixels: rect.short,
				Corners:         rect.corners,
				Score:           score,
			}
		}
	}
	return best
}

type rotatedRect struct {
	long    float64
	short   float64
	corners [4]entity.Point
}

// minAreaRect перебирает направления рёбер оболочки и выбирает
// описанный прямоугольник минимальной площади. Стороны считаются в
// пикселях, поэтому к размаху между центрами пикселей добавляется 1.
func minAreaRect(hull []image.Point) rotatedRect {
	pts := make([]entity.Point, len(hull))
	for i, p := range hull {
		pts[i] = entity.Pt(float64(p.X), float64(p.Y))
	}
	bestArea := math.Inf(1)
	var best rotatedRect
	for i := range pts {
		e := pts[(i+1)%len(pts)].Sub(pts[i]).Unit()
		if e.Norm() == 0 {
			continue
		}
		n := e.Perp()
		minE, maxE := math.Inf(1), math.Inf(-1)
		minN, maxN := math.Inf(1), math.Inf(-1)
		for _, p := range pts {
			pe, pn := p.Dot(e), p.Dot(n)
			minE, maxE = math.Min(minE, pe), math.Max(maxE, pe)
			minN, maxN = math.Min(minN, pn), math.Max(maxN, pn)
		}
		w, h := maxE-minE+1, maxN-minN+1
		if w*h >= bestArea {
			continue
		}
		bestArea = w * h
		corner := func(a, b float64) entity.Point { return e.Scale(a).Add(n.Scale(b)) }
		best = rotatedRect{
			long:    math.Max(w, h),
			short:   math.Min(w, h),
			corners: [4]entity.Point{corner(minE, minN), corner(maxE, minN), corner(maxE, maxN), corner(minE, maxN)},
		}
	}
	return best
}

// otsuThreshold выбирает порог, максимизирующий межклассовую дисперсию.
func otsuThreshold(gray []uint8) uint8 {
	var hist [256]float64
	for _, v := range gray {
		hist[v]++
	}
	total := float64(len(gray))
	var sumAll float64
	for i, h := range hist {
		sumAll += float64(i) * h
	}
	var sumB, wB, bestVar float64
	var best uint8
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * hist[t]
		mB, mF := sumB/wB, (sumAll-sumB)/wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar, best = between, uint8(t)
		}
	}
	return best
}

// Проверка реализации интерфейса
var _ port.ReferenceDetector = (*CardDetector)(nil)
