// Package vision реализует оптический пайплайн измерения вытянутого объекта:
// цветовая сегментация, морфологическая очистка, контур и главная ось,
// запасной поиск линий, поперечные ширины и оценка уверенности.
package vision

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/domain/port"
)

// loadOpenCV проверяет доступность OpenCV один раз за процесс и кэширует результат.
var loadOpenCV = sync.OnceValues(newOpenCVBackend)

// Engine выполняет полный проход пайплайна. Между вызовами состояния нет,
// поэтому один Engine можно использовать из нескольких горутин.
type Engine struct {
	cfg     Config
	backend Backend
	cpu     Backend
}

// Initialize проверяет конфигурацию и выбирает бэкенд.
// Режим auto предпочитает OpenCV и переходит на CPU, если OpenCV недоступен.
func Initialize(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := selectBackend(strings.ToLower(cfg.Backend))
	if err != nil {
		return nil, err
	}
	log.Printf("vision: using %s backend", backend.Name())
	return &Engine{cfg: cfg, backend: backend, cpu: cpuBackend{}}, nil
}

func selectBackend(name string) (Backend, error) {
	switch name {
	case BackendCPU:
		return cpuBackend{}, nil
	case BackendOpenCV:
		b, err := loadOpenCV()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrBackendUnavailable, err)
		}
		return b, nil
	default:
		b, err := loadOpenCV()
		if err != nil {
			log.Printf("vision: opencv unavailable (%v), falling back to cpu", err)
			return cpuBackend{}, nil
		}
		return b, nil
	}
}

// Backend возвращает имя активного бэкенда.
func (e *Engine) Backend() string {
	return e.backend.Name()
}

// Config возвращает параметры движка.
func (e *Engine) Config() Config {
	return e.cfg
}

// Detect анализирует один кадр. Ошибки ErrNoSubjectDetected и ErrInvalidPayload
// означают, что результата для этого кадра нет.
func (e *Engine) Detect(ctx context.Context, frame *entity.Frame) (*entity.DetectionResult, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mask, backendName, err := e.segmentAndClean(frame)
	if err != nil {
		return nil, err
	}
	if !mask.SameSize(frame) {
		return nil, fmt.Errorf("mask size %dx%d does not match frame %dx%d", mask.Width, mask.Height, frame.Width, frame.Height)
	}

	region, err := FindLargestRegion(mask)
	if errors.Is(err, entity.ErrNoRegionFound) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return e.detectLines(frame)
	}
	if err != nil {
		return nil, err
	}

	axis, err := ExtractAxis(region, frame.Center())
	if err != nil {
		return nil, err
	}

	areaFraction := float64(region.Area) / float64(frame.Area())
	if areaFraction < e.cfg.MinAreaFraction {
		log.Printf("vision: region is small (area_fraction=%.4f)", areaFraction)
	}

	maxSteps := int(float64(frame.MinSide()) * e.cfg.MaxWidthStepFraction)
	widths := SampleWidths(mask, axis, maxSteps)

	solidity, err := Solidity(region.Contour)
	if err != nil {
		log.Printf("vision: solidity defaults to 1: %v", err)
	}

	result := &entity.DetectionResult{
		Axis:         axis,
		Widths:       widths,
		AreaFraction: areaFraction,
		Solidity:     solidity,
		Confidence:   Confidence(Elongation(axis.Length(), widths), areaFraction, solidity),
		Method:       entity.MethodSegmentation,
		Backend:      backendName,
		FrameWidth:   frame.Width,
		FrameHeight:  frame.Height,
	}
	if e.cfg.IncludeMaskPreview {
		result.MaskPreview = mask
	}
	e.attachQuality(frame, result)
	return result, nil
}

// segmentAndClean строит и очищает маску; при сбое OpenCV повторяет на CPU.
func (e *Engine) segmentAndClean(frame *entity.Frame) (*entity.Mask, string, error) {
	mask, err := runMask(e.backend, frame, e.cfg.MorphRadius)
	if err == nil {
		return mask, e.backend.Name(), nil
	}
	if e.backend.Name() == e.cpu.Name() {
		return nil, "", err
	}
	log.Printf("vision: %s segmentation failed, retrying on cpu: %v", e.backend.Name(), err)
	mask, err = runMask(e.cpu, frame, e.cfg.MorphRadius)
	if err != nil {
		return nil, "", err
	}
	return mask, e.cpu.Name(), nil
}

func runMask(b Backend, frame *entity.Frame, radius int) (*entity.Mask, error) {
	raw, err := b.Segment(frame)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	cleaned, err := b.Clean(raw, radius)
	if err != nil {
		return nil, fmt.Errorf("clean mask: %w", err)
	}
	return cleaned, nil
}

// detectLines — запасной путь: самый длинный отрезок задаёт ось и концы.
func (e *Engine) detectLines(frame *entity.Frame) (*entity.DetectionResult, error) {
	params := e.cfg.lineParams(frame.MinSide())
	backendName := e.backend.Name()
	lines, err := e.backend.DetectLines(frame, params)
	if err != nil && backendName != e.cpu.Name() {
		log.Printf("vision: %s line detection failed, retrying on cpu: %v", backendName, err)
		backendName = e.cpu.Name()
		lines, err = e.cpu.DetectLines(frame, params)
	}
	if err != nil {
		return nil, fmt.Errorf("detect lines: %w", err)
	}

	longest, ok := LongestSegment(lines)
	if !ok || longest.Length() == 0 {
		return nil, entity.ErrNoSubjectDetected
	}

	// без маски ширин нет, выпуклость считается полной
	const solidity = 1.0
	result := &entity.DetectionResult{
		Axis:        axisFromSegment(longest),
		Solidity:    solidity,
		Confidence:  Confidence(0, 0, solidity),
		Method:      entity.MethodLineFallback,
		Backend:     backendName,
		FrameWidth:  frame.Width,
		FrameHeight: frame.Height,
	}
	e.attachQuality(frame, result)
	return result, nil
}

func (e *Engine) attachQuality(frame *entity.Frame, result *entity.DetectionResult) {
	if !e.cfg.MeasureQuality {
		return
	}
	result.Quality = MeasureQuality(frame, result, e.cfg.Quality)
}

// Проверка реализации интерфейса
var _ port.SubjectDetector = (*Engine)(nil)
