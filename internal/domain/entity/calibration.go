package entity

import (
	"fmt"
	"strings"
	"time"
)

// Unit — единица длины для физических величин.
type Unit string

const (
	UnitInch       Unit = "in"
	UnitCentimeter Unit = "cm"
)

const cmPerInch = 2.54

// ParseUnit разбирает пользовательское обозначение единицы.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "inch", "inches", "\"":
		return UnitInch, nil
	case "cm", "centimeter", "centimeters", "см":
		return UnitCentimeter, nil
	}
	return "", fmt.Errorf("unknown unit %q", s)
}

// Convert переводит значение из единицы from в единицу to.
func Convert(v float64, from, to Unit) float64 {
	if from == to {
		return v
	}
	if from == UnitInch && to == UnitCentimeter {
		return v * cmPerInch
	}
	return v / cmPerInch
}

// CalibrationSource — происхождение калибровки.
type CalibrationSource string

const (
	SourceNone      CalibrationSource = "uncalibrated"
	SourceManual    CalibrationSource = "manual"    // две точки, отмеченные пользователем
	SourceReference CalibrationSource = "reference" // найден эталонный объект (карта)
	SourceEstimated CalibrationSource = "estimated" // оценка по плотности экрана
)

// CalibrationState — масштаб пиксели/единица, действующий до перекалибровки.
type CalibrationState struct {
	PixelsPerUnit          float64           `json:"pixels_per_unit"`
	ReferenceDistanceUnits float64           `json:"reference_distance_units"`
	Unit                   Unit              `json:"unit"`
	Source                 CalibrationSource `json:"source"`
	Validated              bool              `json:"validated"` // false для оценочной калибровки
	LastCalibratedAt       time.Time         `json:"last_calibrated_at"`
}

// Calibrated сообщает, задан ли масштаб.
func (c CalibrationState) Calibrated() bool {
	return c.Source != SourceNone && c.Source != "" && c.PixelsPerUnit > 0
}

// ToUnits переводит пиксели в единицы unit.
func (c CalibrationState) ToUnits(pixels float64, unit Unit) float64 {
	if c.PixelsPerUnit <= 0 {
		return 0
	}
	return Convert(pixels/c.PixelsPerUnit, c.Unit, unit)
}

// PixelsPer возвращает масштаб в пикселях на единицу unit.
func (c CalibrationState) PixelsPer(unit Unit) float64 {
	return c.PixelsPerUnit / Convert(1, c.Unit, unit)
}

// ReferenceMatch — найденный на кадре эталонный прямоугольник.
type ReferenceMatch struct {
	LongSidePixels  float64
	ShortSidePixels float64
	Corners         [4]Point
	Score           float64 // прямоугольность с поправкой на отклонение пропорций
}
