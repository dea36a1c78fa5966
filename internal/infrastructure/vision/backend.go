package vision

import (
	"measure-bot/internal/domain/entity"
)

// Backend выполняет пиксельные этапы пайплайна. Контур, ось, ширины и
// уверенность считаются общим кодом, чтобы формулы не зависели от бэкенда.
type Backend interface {
	Name() string

	// Segment строит маску по цветовым порогам.
	Segment(frame *entity.Frame) (*entity.Mask, error)

	// Clean закрывает и открывает маску эллипсом радиуса radius.
	Clean(mask *entity.Mask, radius int) (*entity.Mask, error)

	// DetectLines находит отрезки прямых на исходном кадре.
	DetectLines(frame *entity.Frame, params LineParams) ([]entity.Segment, error)
}

// cpuBackend — реализация на чистом Go, доступна всегда.
type cpuBackend struct{}

func (cpuBackend) Name() string { return BackendCPU }

func (cpuBackend) Segment(frame *entity.Frame) (*entity.Mask, error) {
	return segmentSkin(frame), nil
}

func (cpuBackend) Clean(mask *entity.Mask, radius int) (*entity.Mask, error) {
	return CleanMask(mask, radius), nil
}

func (cpuBackend) DetectLines(frame *entity.Frame, p LineParams) ([]entity.Segment, error) {
	gray := blurredGray(frame, p.BlurKernel)
	edges := Canny(gray, frame.Width, frame.Height, p.CannyLow, p.CannyHigh)
	return HoughLinesP(edges, frame.Width, frame.Height, p.Votes, p.MinLineLength, p.MaxLineGap), nil
}
