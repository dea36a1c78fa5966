package entity

import (
	"time"

	"github.com/google/uuid"
)

// StabilityState — состояние контроллера автозахвата.
type StabilityState string

const (
	StateIdle        StabilityState = "idle"
	StateDetecting   StabilityState = "detecting"
	StateStabilizing StabilityState = "stabilizing"
	StateStable      StabilityState = "stable"
)

// StabilityEvent — событие для UI: смена состояния или прогресс стабилизации.
type StabilityEvent struct {
	State    StabilityState `json:"state"`
	Progress float64        `json:"progress"` // [0, 1]
	At       time.Time      `json:"at"`
}

// CaptureEvent — автоматический захват стабильного измерения.
type CaptureEvent struct {
	ID             uuid.UUID       `json:"id"`
	Captured       DetectionResult `json:"captured"`
	PhysicalLength float64         `json:"physical_length"`
	PhysicalWidth  float64         `json:"physical_width"`
	Girth          float64         `json:"girth"` // π × ширина
	Unit           Unit            `json:"unit"`
	At             time.Time       `json:"at"`
}
