package vision

import (
	"image"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/infrastructure/framesource"
)

// houghSeed фиксирует порядок обхода точек, чтобы результат был воспроизводим.
const houghSeed = 0x5eed

// gaussianSigma повторяет выбор сигмы OpenCV для заданного размера ядра.
func gaussianSigma(ksize int) float64 {
	return 0.3*(float64(ksize-1)*0.5-1) + 0.8
}

// blurredGray переводит кадр в оттенки серого и размывает его.
func blurredGray(f *entity.Frame, ksize int) []uint8 {
	img := imaging.Grayscale(framesource.ToImage(f))
	if ksize > 1 {
		img = imaging.Blur(img, gaussianSigma(ksize))
	}
	out := make([]uint8, f.Area())
	for y := 0; y < f.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < f.Width; x++ {
			out[y*f.Width+x] = row[x*4]
		}
	}
	return out
}

// Canny строит карту границ: Собель, подавление немаксимумов, гистерезис.
func Canny(gray []uint8, width, height int, low, high float64) []uint8 {
	mag := make([]int32, width*height)
	gxs := make([]int32, width*height)
	gys := make([]int32, width*height)
	at := func(x, y int) int32 {
		// отражение границы, как BORDER_REFLECT_101
		if x < 0 {
			x = -x
		}
		if y < 0 {
			y = -y
		}
		if x >= width {
			x = 2*width - x - 2
		}
		if y >= height {
			y = 2*height - y - 2
		}
		if x < 0 || y < 0 {
			return 0
		}
		return int32(gray[y*width+x])
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			i := y*width + x
			gxs[i], gys[i] = gx, gy
			mag[i] = abs32(gx) + abs32(gy)
		}
	}

	const (
		none   = 0
		weak   = 1
		strong = 2
	)
	const tan22 = 0.4142135623730951
	class := make([]uint8, width*height)
	stack := make([]int, 0, 1024)
	magAt := func(x, y int) int32 {
		if x < 0 || y < 0 || x >= width || y >= height {
			return 0
		}
		return mag[y*width+x]
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			m := mag[i]
			if float64(m) <= low {
				continue
			}
			ax, ay := math.Abs(float64(gxs[i])), math.Abs(float64(gys[i]))
			var n1, n2 int32
			switch {
			case ay <= ax*tan22:
				n1, n2 = magAt(x-1, y), magAt(x+1, y)
			case ay >= ax/tan22:
				n1, n2 = magAt(x, y-1), magAt(x, y+1)
			case (gxs[i] > 0) == (gys[i] > 0):
				n1, n2 = magAt(x-1, y-1), magAt(x+1, y+1)
			default:
				n1, n2 = magAt(x+1, y-1), magAt(x-1, y+1)
			}
			if m <= n1 || m < n2 {
				continue
			}
			if float64(m) > high {
				class[i] = strong
				stack = append(stack, i)
			} else {
				class[i] = weak
			}
		}
	}

	edges := make([]uint8, width*height)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if edges[i] != 0 {
			continue
		}
		edges[i] = 255
		x, y := i%width, i/width
		for _, d := range neighbors8 {
			nx, ny := x+d.X, y+d.Y
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				continue
			}
			n := ny*width + nx
			if class[n] != none && edges[n] == 0 {
				stack = append(stack, n)
			}
		}
	}
	return edges
}

// HoughLinesP — вероятностное преобразование Хафа: случайный порядок точек,
// голосование, прослеживание отрезка с допуском разрыва, снятие голосов.
func HoughLinesP(edges []uint8, width, height int, votes, minLineLength, maxLineGap int) []entity.Segment {
	const (
		rho   = 1.0
		theta = math.Pi / 180
		shift = 16
	)
	numAngle := int(math.Round(math.Pi / theta))
	numRho := int(math.Round(float64((width+height)*2+1) / rho))
	offset := (numRho - 1) / 2
	acc := make([]int32, numAngle*numRho)
	cosT := make([]float64, numAngle)
	sinT := make([]float64, numAngle)
	for n := 0; n < numAngle; n++ {
		cosT[n] = math.Cos(float64(n)*theta) / rho
		sinT[n] = math.Sin(float64(n)*theta) / rho
	}

	mask := make([]bool, width*height)
	points := make([]image.Point, 0, 1024)
	for i, v := range edges {
		if v != 0 {
			mask[i] = true
			points = append(points, image.Pt(i%width, i/width))
		}
	}
	rng := rand.New(rand.NewSource(houghSeed))
	rng.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })

	vote := func(x, y int, delta int32) (int32, int) {
		best, bestN := int32(-1), -1
		for n := 0; n < numAngle; n++ {
			r := int(math.Round(float64(x)*cosT[n]+float64(y)*sinT[n])) + offset
			acc[n*numRho+r] += delta
			if v := acc[n*numRho+r]; v > best {
				best, bestN = v, n
			}
		}
		return best, bestN
	}

	var lines []entity.Segment
	for _, pt := range points {
		if !mask[pt.Y*width+pt.X] {
			continue
		}
		best, n := vote(pt.X, pt.Y, 1)
		if best < int32(votes) {
			continue
		}

		// направление вдоль найденной прямой
		a, b := -sinT[n], cosT[n]
		x0, y0 := pt.X, pt.Y
		var dx0, dy0 int
		xflag := math.Abs(a) > math.Abs(b)
		if xflag {
			dx0 = sign(a)
			dy0 = int(math.Round(b * (1 << shift) / math.Abs(a)))
			y0 = (y0 << shift) + (1 << (shift - 1))
		} else {
			dy0 = sign(b)
			dx0 = int(math.Round(a * (1 << shift) / math.Abs(b)))
			x0 = (x0 << shift) + (1 << (shift - 1))
		}
		pixel := func(x, y int) (int, int) {
			if xflag {
				return x, y >> shift
			}
			return x >> shift, y
		}

		var ends [2]image.Point
		for k := 0; k < 2; k++ {
			gap := 0
			x, y, dx, dy := x0, y0, dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			for ; ; x, y = x+dx, y+dy {
				j1, i1 := pixel(x, y)
				if j1 < 0 || j1 >= width || i1 < 0 || i1 >= height {
					break
				}
				if mask[i1*width+j1] {
					gap = 0
					ends[k] = image.Pt(j1, i1)
				} else if gap++; gap > maxLineGap {
					break
				}
			}
		}

		good := absInt(ends[1].X-ends[0].X) >= minLineLength || absInt(ends[1].Y-ends[0].Y) >= minLineLength

		for k := 0; k < 2; k++ {
			x, y, dx, dy := x0, y0, dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			for ; ; x, y = x+dx, y+dy {
				j1, i1 := pixel(x, y)
				if j1 < 0 || j1 >= width || i1 < 0 || i1 >= height {
					break
				}
				if mask[i1*width+j1] {
					if good {
						vote(j1, i1, -1)
					}
					mask[i1*width+j1] = false
				}
				if j1 == ends[k].X && i1 == ends[k].Y {
					break
				}
			}
		}

		if good {
			lines = append(lines, entity.Segment{
				A: entity.Pt(float64(ends[0].X), float64(ends[0].Y)),
				B: entity.Pt(float64(ends[1].X), float64(ends[1].Y)),
			})
		}
	}
	return lines
}

// LongestSegment возвращает отрезок максимальной длины.
func LongestSegment(lines []entity.Segment) (entity.Segment, bool) {
	var best entity.Segment
	found := false
	for _, l := range lines {
		if !found || l.Length() > best.Length() {
			best, found = l, true
		}
	}
	return best, found
}

// axisFromSegment превращает отрезок в оценку оси: концы — концы отрезка.
func axisFromSegment(s entity.Segment) entity.AxisEstimate {
	return entity.AxisEstimate{
		UnitVector: s.B.Sub(s.A).Unit(),
		End1:       s.A,
		End2:       s.B,
		Centroid:   entity.Midpoint(s.A, s.B),
	}
}

func sign(v float64) int {
	if v > 0 {
		return 1
	}
	return -1
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
