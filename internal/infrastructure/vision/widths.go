package vision

import (
	"math"

	"measure-bot/internal/domain/entity"
)

// Stations — доли длины от середины, в которых измеряется ширина.
// Станции сгущены к центру, где ширина стабильнее и нет артефактов концов.
var Stations = []float64{-0.2, -0.1, -0.05, 0, 0.05, 0.1, 0.2}

// SampleWidths измеряет поперечную ширину маски в станциях вдоль оси.
// Станции вне маски отбрасываются, поэтому выборок может быть меньше семи.
func SampleWidths(mask *entity.Mask, axis entity.AxisEstimate, maxSteps int) []entity.WidthSample {
	length := axis.Length()
	if length == 0 || maxSteps <= 0 {
		return nil
	}
	mid := axis.Midpoint()
	dir := axis.UnitVector
	perp := dir.Perp()

	out := make([]entity.WidthSample, 0, len(Stations))
	for _, t := range Stations {
		p := mid.Add(dir.Scale(t * length))
		if !maskAt(mask, p) {
			continue
		}
		w := run(mask, p, perp, maxSteps) + run(mask, p, perp.Scale(-1), maxSteps) + 1
		out = append(out, entity.WidthSample{AxialPositionFraction: t, WidthPixels: float64(w)})
	}
	return out
}

// run возвращает число шагов от p в направлении dir, оставшихся внутри маски.
func run(mask *entity.Mask, p, dir entity.Point, maxSteps int) int {
	for k := 1; k <= maxSteps; k++ {
		if !maskAt(mask, p.Add(dir.Scale(float64(k)))) {
			return k - 1
		}
	}
	return maxSteps
}

func maskAt(mask *entity.Mask, p entity.Point) bool {
	return mask.At(int(math.Floor(p.X+0.5)), int(math.Floor(p.Y+0.5)))
}
