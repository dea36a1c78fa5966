package entity

import (
	"fmt"
	"time"
)

// Frame — кадр в формате RGBA, построчно, 4 байта на пиксель.
// После передачи в детектор кадр не изменяется вызывающей стороной.
type Frame struct {
	Width      int
	Height     int
	Pix        []byte
	Seq        uint64    // порядковый номер кадра в потоке
	CapturedAt time.Time // момент захвата
}

// NewFrame проверяет размеры и длину буфера и создаёт кадр.
func NewFrame(width, height int, pix []byte) (*Frame, error) {
	f := &Frame{Width: width, Height: height, Pix: pix}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate отклоняет некорректный кадр до начала обработки.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: frame is nil", ErrInvalidPayload)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: bad dimensions %dx%d", ErrInvalidPayload, f.Width, f.Height)
	}
	if len(f.Pix) == 0 {
		return fmt.Errorf("%w: empty pixel buffer", ErrInvalidPayload)
	}
	if want := f.Width * f.Height * 4; len(f.Pix) != want {
		return fmt.Errorf("%w: buffer length %d, want %d", ErrInvalidPayload, len(f.Pix), want)
	}
	return nil
}

// RGB возвращает цвет пикселя (x, y) без проверки границ.
func (f *Frame) RGB(x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * 4
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Area возвращает количество пикселей кадра.
func (f *Frame) Area() int {
	return f.Width * f.Height
}

// MinSide возвращает меньшую из сторон кадра.
func (f *Frame) MinSide() int {
	if f.Width < f.Height {
		return f.Width
	}
	return f.Height
}

// Center возвращает геометрический центр кадра.
func (f *Frame) Center() Point {
	return Point{X: float64(f.Width) / 2, Y: float64(f.Height) / 2}
}
