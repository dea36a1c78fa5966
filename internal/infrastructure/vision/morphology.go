package vision

import (
	"measure-bot/internal/domain/entity"
)

// ellipseKernel описывает эллиптический структурный элемент как набор
// горизонтальных полуширин для каждого смещения по вертикали.
type ellipseKernel struct {
	radius int
	half   []int // half[dy+radius]: полуширина строки, -1 если строка пуста
}

func newEllipseKernel(radius int) ellipseKernel {
	k := ellipseKernel{radius: radius, half: make([]int, 2*radius+1)}
	for dy := -radius; dy <= radius; dy++ {
		hw := -1
		for dx := 0; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				hw = dx
			}
		}
		k.half[dy+radius] = hw
	}
	return k
}

// rowPrefix возвращает префиксные суммы пикселей переднего плана по строкам.
func rowPrefix(m *entity.Mask) []int32 {
	stride := m.Width + 1
	pre := make([]int32, stride*m.Height)
	for y := 0; y < m.Height; y++ {
		row := pre[y*stride : (y+1)*stride]
		for x := 0; x < m.Width; x++ {
			row[x+1] = row[x]
			if m.Pix[y*m.Width+x] != entity.MaskOff {
				row[x+1]++
			}
		}
	}
	return pre
}

// morph выполняет дилатацию (dilate=true) или эрозию маски.
// Пиксели за пределами кадра в операции не участвуют.
func morph(m *entity.Mask, k ellipseKernel, dilate bool) *entity.Mask {
	out := entity.NewMask(m.Width, m.Height)
	if k.radius == 0 {
		copy(out.Pix, m.Pix)
		return out
	}
	pre := rowPrefix(m)
	stride := m.Width + 1
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			on := !dilate
			for dy := -k.radius; dy <= k.radius; dy++ {
				hw := k.half[dy+k.radius]
				yy := y + dy
				if hw < 0 || yy < 0 || yy >= m.Height {
					continue
				}
				x0, x1 := x-hw, x+hw
				if x0 < 0 {
					x0 = 0
				}
				if x1 >= m.Width {
					x1 = m.Width - 1
				}
				n := pre[yy*stride+x1+1] - pre[yy*stride+x0]
				if dilate && n > 0 {
					on = true
					break
				}
				if !dilate && int(n) != x1-x0+1 {
					on = false
					break
				}
			}
			if on {
				out.Pix[y*m.Width+x] = entity.MaskOn
			}
		}
	}
	return out
}

// Dilate расширяет передний план эллипсом радиуса radius.
func Dilate(m *entity.Mask, radius int) *entity.Mask {
	return morph(m, newEllipseKernel(radius), true)
}

// Erode сужает передний план эллипсом радиуса radius.
func Erode(m *entity.Mask, radius int) *entity.Mask {
	return morph(m, newEllipseKernel(radius), false)
}

// CleanMask закрывает мелкие разрывы, затем убирает одиночный шум.
// Порядок важен: закрытие перед открытием сохраняет основной объект.
func CleanMask(m *entity.Mask, radius int) *entity.Mask {
	k := newEllipseKernel(radius)
	closed := morph(morph(m, k, true), k, false)
	return morph(morph(closed, k, false), k, true)
}
