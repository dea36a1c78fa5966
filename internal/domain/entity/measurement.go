package entity

import (
	"time"

	"github.com/google/uuid"
)

// MeasurementRecord — итоговая запись измерения для хранилища.
type MeasurementRecord struct {
	ID             uuid.UUID
	UserID         int64
	Date           time.Time
	LengthUnits    float64
	WidthUnits     float64
	GirthUnits     float64
	Unit           Unit
	Confidence     float64
	Notes          string
	PhotoReference string
}

// Measurement — результат измерения одного кадра в физических единицах.
type Measurement struct {
	Result      DetectionResult
	Calibration CalibrationState
	Length      float64
	Width       float64
	Girth       float64
	Unit        Unit
}
