package app

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"measure-bot/internal/domain/entity"
)

// Calibrator отдаёт текущую калибровку.
type Calibrator interface {
	State() entity.CalibrationState
}

// StabilityConfig — параметры окна стабильности и автозахвата.
type StabilityConfig struct {
	Window          time.Duration // длина окна последних результатов
	MinDuration     time.Duration // сколько окно должно покрывать для Stable
	MinConfidence   float64
	LengthTolerance float64 // допустимый размах длины, в Unit
	GirthTolerance  float64 // допустимый размах обхвата, в Unit
	AutoCapture     bool
	Cooldown        time.Duration
	Unit            entity.Unit
}

// DefaultStabilityConfig возвращает параметры по умолчанию.
func DefaultStabilityConfig() StabilityConfig {
	return StabilityConfig{
		Window:          1500 * time.Millisecond,
		MinDuration:     time.Second,
		MinConfidence:   0.7,
		LengthTolerance: 0.05,
		GirthTolerance:  0.05,
		AutoCapture:     true,
		Cooldown:        3 * time.Second,
		Unit:            entity.UnitInch,
	}
}

// StabilityUpdate — итог обработки одного результата.
type StabilityUpdate struct {
	Event   entity.StabilityEvent
	Changed bool                 // состояние отличается от предыдущего
	Capture *entity.CaptureEvent // не nil, если сработал автозахват
}

type stabilitySample struct {
	at     time.Time
	result entity.DetectionResult
	length float64
	width  float64
	girth  float64
}

// StabilityController отслеживает устойчивость измерения во времени и
// выдаёт автозахват, когда длина и обхват держатся в допуске.
type StabilityController struct {
	mu          sync.Mutex
	cfg         StabilityConfig
	calibration Calibrator
	window      []stabilitySample
	state       entity.StabilityState
	lastCapture time.Time
}

// NewStabilityController создаёт контроллер в состоянии Idle.
func NewStabilityController(cfg StabilityConfig, calibration Calibrator) *StabilityController {
	if cfg.Unit == "" {
		cfg.Unit = entity.UnitInch
	}
	return &StabilityController{cfg: cfg, calibration: calibration, state: entity.StateIdle}
}

// State возвращает текущее состояние.
func (c *StabilityController) State() entity.StabilityState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// WindowLen возвращает число результатов в окне.
func (c *StabilityController) WindowLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.window)
}

// Reset очищает окно и возвращает контроллер в Idle. Кулдаун сохраняется.
func (c *StabilityController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = nil
	c.state = entity.StateIdle
}

// Observe принимает результат детекции кадра, снятого в момент at.
// nil означает кадр без объекта.
func (c *StabilityController) Observe(result *entity.DetectionResult, at time.Time) StabilityUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()

	calib := c.calibration.State()
	if result == nil || result.Confidence < c.cfg.MinConfidence || !calib.Calibrated() {
		// без частичного зачёта: накопленное окно сбрасывается
		c.window = c.window[:0]
		return c.transition(entity.StateDetecting, 0, at)
	}

	width := calib.ToUnits(result.MedianWidthPixels(), c.cfg.Unit)
	c.window = append(c.window, stabilitySample{
		at:     at,
		result: *result,
		length: calib.ToUnits(result.LengthPixels(), c.cfg.Unit),
		width:  width,
		girth:  math.Pi * width,
	})
	c.evict(at)

	lengths, girths := c.series()
	if floats.Max(lengths)-floats.Min(lengths) > c.cfg.LengthTolerance ||
		floats.Max(girths)-floats.Min(girths) > c.cfg.GirthTolerance {
		// объект сдвинулся: стабилизация начинается с последнего кадра
		c.window = append(c.window[:0], c.window[len(c.window)-1])
		return c.transition(entity.StateStabilizing, 0, at)
	}

	if c.state == entity.StateIdle {
		// первый принятый кадр: объект найден, окно только начато
		return c.transition(entity.StateDetecting, 0, at)
	}

	span := at.Sub(c.window[0].at)
	if span < c.cfg.MinDuration {
		progress := 1.0
		if c.cfg.MinDuration > 0 {
			progress = float64(span) / float64(c.cfg.MinDuration)
		}
		return c.transition(entity.StateStabilizing, progress, at)
	}

	update := c.transition(entity.StateStable, 1, at)
	if !c.cfg.AutoCapture || (!c.lastCapture.IsZero() && at.Sub(c.lastCapture) < c.cfg.Cooldown) {
		return update
	}

	capture := c.capture(at)
	c.lastCapture = at
	c.window = c.window[:0]
	update = c.transition(entity.StateIdle, 0, at)
	update.Changed = true
	update.Capture = capture
	return update
}

// evict удаляет результаты старше окна.
func (c *StabilityController) evict(now time.Time) {
	i := 0
	for i < len(c.window) && now.Sub(c.window[i].at) > c.cfg.Window {
		i++
	}
	c.window = append(c.window[:0], c.window[i:]...)
}

func (c *StabilityController) series() (lengths, girths []float64) {
	lengths = make([]float64, len(c.window))
	girths = make([]float64, len(c.window))
	for i, s := range c.window {
		lengths[i] = s.length
		girths[i] = s.girth
	}
	return lengths, girths
}

func (c *StabilityController) capture(at time.Time) *entity.CaptureEvent {
	lengths, girths := c.series()
	widths := make([]float64, len(c.window))
	for i, s := range c.window {
		widths[i] = s.width
	}
	return &entity.CaptureEvent{
		ID:             uuid.New(),
		Captured:       c.window[len(c.window)-1].result,
		PhysicalLength: stat.Mean(lengths, nil),
		PhysicalWidth:  stat.Mean(widths, nil),
		Girth:          stat.Mean(girths, nil),
		Unit:           c.cfg.Unit,
		At:             at,
	}
}

func (c *StabilityController) transition(state entity.StabilityState, progress float64, at time.Time) StabilityUpdate {
	changed := c.state != state
	c.state = state
	return StabilityUpdate{
		Event:   entity.StabilityEvent{State: state, Progress: math.Min(1, progress), At: at},
		Changed: changed,
	}
}
