package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/domain/port"
)

// Размеры эталонной карты ID-1 в дюймах.
const (
	cardLongInches  = 3.375
	cardShortInches = 2.125
)

// DefaultScreenPPI — плотность экрана для грубой оценки масштаба.
const DefaultScreenPPI = 96

// CalibrationManager хранит масштаб пиксели/единица.
// Запись заменяет состояние целиком, читатели всегда видят согласованный снимок.
type CalibrationManager struct {
	mu        sync.RWMutex
	state     entity.CalibrationState
	reference port.ReferenceDetector
	unit      entity.Unit
	screenPPI float64
	now       func() time.Time
}

// NewCalibrationManager создаёт менеджер без калибровки.
func NewCalibrationManager(reference port.ReferenceDetector, unit entity.Unit, screenPPI float64) *CalibrationManager {
	if unit == "" {
		unit = entity.UnitInch
	}
	if screenPPI <= 0 {
		screenPPI = DefaultScreenPPI
	}
	return &CalibrationManager{
		state:     entity.CalibrationState{Unit: unit, Source: entity.SourceNone},
		reference: reference,
		unit:      unit,
		screenPPI: screenPPI,
		now:       time.Now,
	}
}

// State возвращает снимок текущей калибровки.
func (m *CalibrationManager) State() entity.CalibrationState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Calibrated сообщает, задан ли масштаб.
func (m *CalibrationManager) Calibrated() bool {
	return m.State().Calibrated()
}

// SetManual калибрует по двум точкам и известному расстоянию между ними.
// При отказе состояние не меняется.
func (m *CalibrationManager) SetManual(p1, p2 entity.Point, referenceDistance float64, unit entity.Unit) (entity.CalibrationState, error) {
	if unit == "" {
		unit = m.unit
	}
	pixels := p1.Dist(p2)
	if pixels == 0 || math.IsNaN(pixels) {
		return m.State(), entity.ErrZeroPixelDistance
	}
	if !(referenceDistance > 0) || math.IsInf(referenceDistance, 1) {
		return m.State(), entity.ErrNonPositiveReference
	}

	state := entity.CalibrationState{
		PixelsPerUnit:          pixels / referenceDistance,
		ReferenceDistanceUnits: referenceDistance,
		Unit:                   unit,
		Source:                 entity.SourceManual,
		Validated:              true,
		LastCalibratedAt:       m.now(),
	}
	m.replace(state)
	return state, nil
}

// AutoCalibrate ищет на кадре эталонную карту. Если карты нет,
// масштаб оценивается по плотности экрана и помечается как непроверенный.
func (m *CalibrationManager) AutoCalibrate(ctx context.Context, frame *entity.Frame) (entity.CalibrationState, error) {
	if err := frame.Validate(); err != nil {
		return m.State(), err
	}
	if m.reference == nil {
		return m.EstimateFromScreen(), nil
	}

	match, err := m.reference.DetectReference(ctx, frame)
	if errors.Is(err, entity.ErrReferenceNotFound) {
		log.Printf("calibration: reference card not found, using screen estimate (%.0f ppi)", m.screenPPI)
		return m.EstimateFromScreen(), nil
	}
	if err != nil {
		return m.State(), fmt.Errorf("detect reference: %w", err)
	}

	// средний масштаб по обеим сторонам карты
	ppi := (match.LongSidePixels/cardLongInches + match.ShortSidePixels/cardShortInches) / 2
	state := entity.CalibrationState{
		PixelsPerUnit:          ppi / entity.Convert(1, entity.UnitInch, m.unit),
		ReferenceDistanceUnits: entity.Convert(cardLongInches, entity.UnitInch, m.unit),
		Unit:                   m.unit,
		Source:                 entity.SourceReference,
		Validated:              true,
		LastCalibratedAt:       m.now(),
	}
	m.replace(state)
	log.Printf("calibration: reference card %.0fx%.0f px, %.2f px/%s", match.LongSidePixels, match.ShortSidePixels, state.PixelsPerUnit, state.Unit)
	return state, nil
}

// EstimateFromScreen задаёт масштаб по плотности экрана.
func (m *CalibrationManager) EstimateFromScreen() entity.CalibrationState {
	state := entity.CalibrationState{
		PixelsPerUnit:          m.screenPPI / entity.Convert(1, entity.UnitInch, m.unit),
		ReferenceDistanceUnits: entity.Convert(1, entity.UnitInch, m.unit),
		Unit:                   m.unit,
		Source:                 entity.SourceEstimated,
		Validated:              false,
		LastCalibratedAt:       m.now(),
	}
	m.replace(state)
	return state
}

// Reset возвращает менеджер в состояние без калибровки.
func (m *CalibrationManager) Reset() {
	m.replace(entity.CalibrationState{Unit: m.unit, Source: entity.SourceNone})
}

func (m *CalibrationManager) replace(state entity.CalibrationState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}
