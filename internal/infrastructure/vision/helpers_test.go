package vision

import (
	"image"

	"measure-bot/internal/domain/entity"
)

type rgb struct{ r, g, b uint8 }

var (
	skinTone   = rgb{220, 170, 140}
	blueCloth  = rgb{30, 60, 160}
	lightGray  = rgb{220, 220, 220}
	darkGray   = rgb{20, 20, 20}
	cardWhite  = rgb{245, 245, 245}
	tableColor = rgb{40, 40, 40}
)

func solidFrame(w, h int, c rgb) *entity.Frame {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.r, c.g, c.b, 255
	}
	f, err := entity.NewFrame(w, h, pix)
	if err != nil {
		panic(err)
	}
	return f
}

// fillRect закрашивает r (полуинтервалы, как image.Rectangle).
func fillRect(f *entity.Frame, r image.Rectangle, c rgb) {
	r = r.Intersect(image.Rect(0, 0, f.Width, f.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := (y*f.Width + x) * 4
			f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c.r, c.g, c.b
		}
	}
}

func rectMask(w, h int, rects ...image.Rectangle) *entity.Mask {
	m := entity.NewMask(w, h)
	for _, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

func cpuConfig() Config {
	cfg := DefaultConfig()
	cfg.Backend = BackendCPU
	return cfg
}
