package entity

// Значения пикселей маски.
const (
	MaskOff uint8 = 0
	MaskOn  uint8 = 255
)

// Mask — одноканальная бинарная маска (0 или 255) размером с исходный кадр.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask создаёт пустую маску заданного размера.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// Inside сообщает, лежит ли точка в пределах маски.
func (m *Mask) Inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At возвращает true для пикселя переднего плана; за пределами маски — false.
func (m *Mask) At(x, y int) bool {
	if !m.Inside(x, y) {
		return false
	}
	return m.Pix[y*m.Width+x] != MaskOff
}

// Set помечает пиксель как передний план или фон.
func (m *Mask) Set(x, y int, on bool) {
	if !m.Inside(x, y) {
		return
	}
	v := MaskOff
	if on {
		v = MaskOn
	}
	m.Pix[y*m.Width+x] = v
}

// Count возвращает число пикселей переднего плана.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != MaskOff {
			n++
		}
	}
	return n
}

// Clone возвращает независимую копию маски.
func (m *Mask) Clone() *Mask {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return &Mask{Width: m.Width, Height: m.Height, Pix: pix}
}

// SameSize проверяет совпадение размеров маски и кадра.
func (m *Mask) SameSize(f *Frame) bool {
	return m.Width == f.Width && m.Height == f.Height
}
