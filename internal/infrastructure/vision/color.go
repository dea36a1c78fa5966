package vision

import (
	"math"

	"measure-bot/internal/domain/entity"
)

// Диапазоны цвета кожи: YCrCb и HSV (оттенок в 8-битной шкале OpenCV, 0–180).
const (
	skinCrMin = 133
	skinCrMax = 173
	skinCbMin = 77
	skinCbMax = 127

	skinHMin = 0
	skinHMax = 50
	skinVMin = 50
	skinVMax = 255
)

var (
	skinSMin = 0.23 * 255
	skinSMax = 0.68 * 255
)

// toYCrCb переводит RGB в YCrCb с 8-битным округлением.
func toYCrCb(r, g, b uint8) (y, cr, cb float64) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	y = 0.299*rf + 0.587*gf + 0.114*bf
	cr = clampByte(math.Round((rf-y)*0.713 + 128))
	cb = clampByte(math.Round((bf-y)*0.564 + 128))
	return math.Round(y), cr, cb
}

// toHSV переводит RGB в HSV: H в [0, 180), S и V в [0, 255].
func toHSV(r, g, b uint8) (h, s, v float64) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	maxC := math.Max(rf, math.Max(gf, bf))
	minC := math.Min(rf, math.Min(gf, bf))
	diff := maxC - minC
	v = maxC
	if maxC > 0 {
		s = math.Round(diff / maxC * 255)
	}
	if diff == 0 {
		return 0, s, v
	}
	switch maxC {
	case rf:
		h = 60 * (gf - bf) / diff
	case gf:
		h = 120 + 60*(bf-rf)/diff
	default:
		h = 240 + 60*(rf-gf)/diff
	}
	if h < 0 {
		h += 360
	}
	h = math.Round(h / 2)
	if h >= 180 {
		h -= 180
	}
	return h, s, v
}

func isSkinYCrCb(r, g, b uint8) bool {
	_, cr, cb := toYCrCb(r, g, b)
	return cr >= skinCrMin && cr <= skinCrMax && cb >= skinCbMin && cb <= skinCbMax
}

func isSkinHSV(r, g, b uint8) bool {
	h, s, v := toHSV(r, g, b)
	return h >= skinHMin && h <= skinHMax && s >= skinSMin && s <= skinSMax && v >= skinVMin && v <= skinVMax
}

// segmentSkin строит маску объединением двух цветовых порогов.
func segmentSkin(frame *entity.Frame) *entity.Mask {
	mask := entity.NewMask(frame.Width, frame.Height)
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			r, g, b := frame.RGB(x, y)
			if isSkinYCrCb(r, g, b) || isSkinHSV(r, g, b) {
				mask.Pix[y*frame.Width+x] = entity.MaskOn
			}
		}
	}
	return mask
}

// luma возвращает яркостный канал кадра.
func luma(frame *entity.Frame) []uint8 {
	out := make([]uint8, frame.Area())
	for i := range out {
		p := frame.Pix[i*4 : i*4+3]
		out[i] = uint8(clampByte(math.Round(0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2]))))
	}
	return out
}

func clampByte(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
