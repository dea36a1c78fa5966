package vision

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/domain/port"
	"measure-bot/internal/infrastructure/framesource"
)

var (
	axisColor    = color.NRGBA{G: 255, A: 255}
	endColor     = color.NRGBA{R: 255, A: 255}
	stationColor = color.NRGBA{R: 255, G: 215, A: 255}
	maskTint     = color.NRGBA{G: 160, B: 255, A: 255}
)

// Renderer рисует ось, концы и станции ширины поверх кадра.
type Renderer struct {
	Format  string // jpeg, png или webp
	Quality int
}

// NewRenderer создаёт рендерер с JPEG по умолчанию.
func NewRenderer(format string, quality int) *Renderer {
	if format == "" {
		format = framesource.FormatJPEG
	}
	if quality <= 0 {
		quality = 90
	}
	return &Renderer{Format: format, Quality: quality}
}

// Highlight возвращает закодированную картинку с разметкой измерения.
func (r *Renderer) Highlight(frame *entity.Frame, result *entity.DetectionResult) ([]byte, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	img := imaging.Clone(framesource.ToImage(frame))
	if result != nil {
		if result.MaskPreview != nil && result.MaskPreview.SameSize(frame) {
			tintMask(img, result.MaskPreview)
		}
		drawResult(img, result)
	}
	return framesource.Encode(img, r.Format, r.Quality)
}

func drawResult(img *image.NRGBA, result *entity.DetectionResult) {
	axis := result.Axis
	drawLine(img, axis.End1, axis.End2, axisColor, 2)

	mid := axis.Midpoint()
	perp := axis.UnitVector.Perp()
	length := axis.Length()
	for _, w := range result.Widths {
		c := mid.Add(axis.UnitVector.Scale(w.AxialPositionFraction * length))
		half := perp.Scale(w.WidthPixels / 2)
		drawLine(img, c.Sub(half), c.Add(half), stationColor, 1)
	}
	drawDisc(img, axis.End1, 4, endColor)
	drawDisc(img, axis.End2, 4, endColor)
}

// drawLine рисует отрезок алгоритмом Брезенхэма заданной толщины.
func drawLine(img *image.NRGBA, a, b entity.Point, c color.NRGBA, thickness int) {
	x0, y0 := int(math.Round(a.X)), int(math.Round(a.Y))
	x1, y1 := int(math.Round(b.X)), int(math.Round(b.Y))
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	errAcc := dx + dy
	r := thickness / 2
	for {
		for oy := -r; oy <= r; oy++ {
			for ox := -r; ox <= r; ox++ {
				setPixel(img, x0+ox, y0+oy, c)
			}
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			errAcc += dx
			y0 += sy
		}
	}
}

func drawDisc(img *image.NRGBA, center entity.Point, radius int, c color.NRGBA) {
	cx, cy := int(math.Round(center.X)), int(math.Round(center.Y))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				setPixel(img, cx+dx, cy+dy, c)
			}
		}
	}
}

// tintMask подкрашивает пиксели маски наполовину.
func tintMask(img *image.NRGBA, mask *entity.Mask) {
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if !mask.At(x, y) {
				continue
			}
			o := img.PixOffset(x, y)
			img.Pix[o] = uint8((uint16(img.Pix[o]) + uint16(maskTint.R)) / 2)
			img.Pix[o+1] = uint8((uint16(img.Pix[o+1]) + uint16(maskTint.G)) / 2)
			img.Pix[o+2] = uint8((uint16(img.Pix[o+2]) + uint16(maskTint.B)) / 2)
		}
	}
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if !(image.Point{X: x, Y: y}.In(img.Rect)) {
		return
	}
	img.SetNRGBA(x, y, c)
}

// Проверка реализации интерфейса
var _ port.Highlighter = (*Renderer)(nil)
