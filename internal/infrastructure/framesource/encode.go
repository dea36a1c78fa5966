package framesource

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"

	"measure-bot/internal/domain/entity"
)

// Форматы вывода изображений.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// NormalizeFormat приводит расширение или имя формата к одному из Format*.
func NormalizeFormat(s string) (string, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("unsupported image format %q", s)
}

// FormatFromPath определяет формат по расширению файла.
func FormatFromPath(path string) (string, error) {
	return NormalizeFormat(filepath.Ext(path))
}

// Encode кодирует изображение в выбранный формат.
func Encode(img image.Image, format string, quality int) ([]byte, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatWebP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)})
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// MaskImage превращает маску в изображение в оттенках серого.
func MaskImage(m *entity.Mask) *image.Gray {
	return &image.Gray{Pix: m.Pix, Stride: m.Width, Rect: image.Rect(0, 0, m.Width, m.Height)}
}
