package framesource

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/domain/port"
)

// Decode превращает байты JPEG/PNG/WebP в кадр RGBA.
// Изображения больше maxSide уменьшаются с сохранением пропорций; maxSide <= 0 отключает уменьшение.
func Decode(data []byte, maxSide int) (*entity.Frame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image data", entity.ErrInvalidPayload)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", entity.ErrInvalidPayload, err)
	}
	return FromImage(img, maxSide)
}

// FromImage копирует изображение в новый кадр, при необходимости уменьшая его.
func FromImage(img image.Image, maxSide int) (*entity.Frame, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	b := img.Bounds()
	var nrgba *image.NRGBA
	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		// Приводим изображение к стандартному размеру для стабильных порогов.
		nrgba = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	} else {
		nrgba = imaging.Clone(img)
	}

	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		copy(pix[y*w*4:(y+1)*w*4], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+w*4])
	}
	frame, err := entity.NewFrame(w, h, pix)
	if err != nil {
		return nil, err
	}
	frame.CapturedAt = time.Now()
	return frame, nil
}

// ToImage оборачивает буфер кадра в изображение без копирования.
func ToImage(f *entity.Frame) *image.NRGBA {
	return &image.NRGBA{Pix: f.Pix, Stride: f.Width * 4, Rect: image.Rect(0, 0, f.Width, f.Height)}
}

// Decoder декодирует загрузки с фиксированным пределом размера.
type Decoder struct {
	MaxSide int
}

// NewDecoder создаёт декодер загрузок.
func NewDecoder(maxSide int) *Decoder {
	return &Decoder{MaxSide: maxSide}
}

// Decode реализует port.PhotoDecoder.
func (d *Decoder) Decode(data []byte) (*entity.Frame, error) {
	return Decode(data, d.MaxSide)
}

// Проверка реализации интерфейса
var _ port.PhotoDecoder = (*Decoder)(nil)
