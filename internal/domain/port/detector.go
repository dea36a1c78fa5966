package port

import (
	"context"

	"measure-bot/internal/domain/entity"
)

// SubjectDetector интерфейс детектора вытянутого объекта на кадре
type SubjectDetector interface {
	// Detect выполняет полный проход пайплайна по одному кадру
	Detect(ctx context.Context, frame *entity.Frame) (*entity.DetectionResult, error)

	// Backend возвращает имя используемого бэкенда (cpu, opencv)
	Backend() string
}

// ReferenceDetector ищет на кадре эталонный объект известного размера
type ReferenceDetector interface {
	// DetectReference возвращает размеры найденного эталона в пикселях
	DetectReference(ctx context.Context, frame *entity.Frame) (*entity.ReferenceMatch, error)
}

// Highlighter рисует результат измерения поверх кадра
type Highlighter interface {
	// Highlight возвращает закодированное изображение с осью и станциями
	Highlight(frame *entity.Frame, result *entity.DetectionResult) ([]byte, error)
}
