package vision

import (
	"measure-bot/internal/domain/entity"
)

// Веса составляющих уверенности.
const (
	weightElongation = 0.45
	weightArea       = 0.25
	weightSolidity   = 0.30

	elongationScale = 3.0
	areaScale       = 0.2
)

// Elongation возвращает отношение длины к медиане ширин, без ширин 0.
func Elongation(lengthPixels float64, widths []entity.WidthSample) float64 {
	if len(widths) == 0 {
		return 0
	}
	values := make([]float64, len(widths))
	for i, w := range widths {
		values[i] = w.WidthPixels
	}
	med := entity.Median(values)
	if med <= 0 {
		return 0
	}
	return lengthPixels / med
}

// Confidence объединяет вытянутость, долю площади и выпуклость в [0, 1].
// Каждое слагаемое ограничивается до взвешивания.
func Confidence(elongation, areaFraction, solidity float64) float64 {
	return clamp01(elongation/elongationScale)*weightElongation +
		clamp01(areaFraction/areaScale)*weightArea +
		clamp01(solidity)*weightSolidity
}

// clamp01 ограничивает значение отрезком [0, 1]; NaN даёт 0.
func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
