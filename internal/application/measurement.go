package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/domain/port"
)

// NewMeasurement переводит результат детекции в физические единицы.
// Обхват оценивается как π × медиана ширин.
func NewMeasurement(result *entity.DetectionResult, calib entity.CalibrationState, unit entity.Unit) *entity.Measurement {
	width := calib.ToUnits(result.MedianWidthPixels(), unit)
	return &entity.Measurement{
		Result:      *result,
		Calibration: calib,
		Length:      calib.ToUnits(result.LengthPixels(), unit),
		Width:       width,
		Girth:       math.Pi * width,
		Unit:        unit,
	}
}

// MeasurementOutput содержит измерение, сохранённую запись и картинку с разметкой.
type MeasurementOutput struct {
	Measurement *entity.Measurement
	Record      entity.MeasurementRecord
	Highlighted []byte
	Text        string
}

// MeasurementDeps — зависимости сервиса измерений.
type MeasurementDeps struct {
	Decoder     port.PhotoDecoder
	Detector    port.SubjectDetector
	Reference   port.ReferenceDetector
	Highlighter port.Highlighter
	Describer   port.Describer
	Records     port.MeasurementRepository
	ScreenPPI   float64
}

type MeasurementService struct {
	users        *UserService
	deps         MeasurementDeps
	calibrations map[int64]*CalibrationManager
	mu           sync.Mutex
	now          func() time.Time
}

// NewMeasurementService создаёт сервис, который ведёт калибровку и измерения пользователей.
func NewMeasurementService(users *UserService, deps MeasurementDeps) *MeasurementService {
	return &MeasurementService{
		users:        users,
		deps:         deps,
		calibrations: make(map[int64]*CalibrationManager),
		now:          time.Now,
	}
}

// Calibration возвращает менеджер калибровки пользователя, создавая его при первом обращении.
func (s *MeasurementService) Calibration(userID int64) *CalibrationManager {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.calibrations[userID]
	if !ok {
		m = NewCalibrationManager(s.deps.Reference, entity.UnitInch, s.deps.ScreenPPI)
		s.calibrations[userID] = m
	}
	return m
}

// Calibrate задаёт масштаб по двум точкам на снимке и известному расстоянию.
func (s *MeasurementService) Calibrate(ctx context.Context, userID int64, p1, p2 entity.Point, reference float64, unit entity.Unit) (entity.CalibrationState, error) {
	return s.Calibration(userID).SetManual(p1, p2, reference, unit)
}

// AutoCalibrate калибрует по фото с банковской картой и возвращает пользователя в меню.
func (s *MeasurementService) AutoCalibrate(ctx context.Context, userID, chatID int64, photo []byte) (entity.CalibrationState, error) {
	if s.deps.Decoder == nil {
		return entity.CalibrationState{}, errors.New("decoder is not configured")
	}
	defer s.resetState(ctx, userID, chatID)

	frame, err := s.deps.Decoder.Decode(photo)
	if err != nil {
		return entity.CalibrationState{}, err
	}
	return s.Calibration(userID).AutoCalibrate(ctx, frame)
}

// Measure анализирует фото, сохраняет запись и готовит ответ.
// Без калибровки масштаб сначала ищется на этом же кадре.
func (s *MeasurementService) Measure(ctx context.Context, userID, chatID int64, photo []byte, photoRef string) (*MeasurementOutput, error) {
	if s.deps.Decoder == nil || s.deps.Detector == nil {
		return nil, errors.New("detector is not configured")
	}
	defer s.resetState(ctx, userID, chatID)

	user, err := s.users.SetState(ctx, userID, chatID, entity.StateProcessing)
	if err != nil {
		return nil, err
	}

	frame, err := s.deps.Decoder.Decode(photo)
	if err != nil {
		return nil, err
	}

	calibration := s.Calibration(userID)
	if !calibration.Calibrated() {
		if _, err := calibration.AutoCalibrate(ctx, frame); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrUncalibrated, err)
		}
	}

	result, err := s.deps.Detector.Detect(ctx, frame)
	if err != nil {
		return nil, err
	}

	m := NewMeasurement(result, calibration.State(), user.Unit)
	record := entity.MeasurementRecord{
		ID:             uuid.New(),
		UserID:         userID,
		Date:           s.now(),
		LengthUnits:    m.Length,
		WidthUnits:     m.Width,
		GirthUnits:     m.Girth,
		Unit:           m.Unit,
		Confidence:     result.Confidence,
		Notes:          recordNotes(m),
		PhotoReference: photoRef,
	}
	if s.deps.Records != nil {
		if err := s.deps.Records.Save(ctx, record); err != nil {
			return nil, fmt.Errorf("save measurement: %w", err)
		}
	}

	out := &MeasurementOutput{Measurement: m, Record: record}
	if s.deps.Highlighter != nil {
		out.Highlighted, err = s.deps.Highlighter.Highlight(frame, result)
		if err != nil {
			log.Printf("measure: highlight failed: %v", err)
		}
	}
	if s.deps.Describer != nil {
		out.Text = s.deps.Describer.Describe(m)
	}
	return out, nil
}

// SetUnit меняет единицу вывода пользователя.
func (s *MeasurementService) SetUnit(ctx context.Context, userID, chatID int64, unit entity.Unit) (*entity.User, error) {
	return s.users.SetUnit(ctx, userID, chatID, unit)
}

// History возвращает сохранённые измерения пользователя и их описание.
func (s *MeasurementService) History(ctx context.Context, userID int64) ([]entity.MeasurementRecord, string, error) {
	if s.deps.Records == nil {
		return nil, "", errors.New("measurement storage is not configured")
	}
	records, err := s.deps.Records.List(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	var text string
	if s.deps.Describer != nil {
		text = s.deps.Describer.DescribeHistory(records)
	}
	return records, text, nil
}

func (s *MeasurementService) resetState(ctx context.Context, userID, chatID int64) {
	if _, err := s.users.SetState(ctx, userID, chatID, entity.StateMainMenu); err != nil {
		log.Printf("measure: reset user state: %v", err)
	}
}

// recordNotes собирает служебные пометки записи: метод, источник масштаба, предупреждения.
func recordNotes(m *entity.Measurement) string {
	notes := []string{string(m.Result.Method), "calibration=" + string(m.Calibration.Source)}
	if q := m.Result.Quality; q != nil {
		notes = append(notes, q.Warnings...)
	}
	return strings.Join(notes, "; ")
}
