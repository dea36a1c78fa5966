package entity

import "errors"

// Ошибки пайплайна измерения. Вызывающий код сравнивает их через errors.Is.
var (
	// ErrInvalidPayload — кадр без размеров/буфера или с буфером неверной длины.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrNoRegionFound — после сегментации не осталось ни одной области.
	ErrNoRegionFound = errors.New("no region found")
	// ErrNoSubjectDetected — не сработала ни сегментация, ни поиск линий.
	ErrNoSubjectDetected = errors.New("no subject detected")

	ErrZeroPixelDistance    = errors.New("zero pixel distance")
	ErrNonPositiveReference = errors.New("non-positive reference distance")
	ErrReferenceNotFound    = errors.New("reference object not found")
	ErrUncalibrated         = errors.New("calibration is not set")

	ErrBackendUnavailable = errors.New("vision backend is unavailable")
	ErrStaleResult        = errors.New("stale detection result")
	ErrDetectionTimeout   = errors.New("detection budget exceeded")
	ErrWorkerStopped      = errors.New("detection worker is stopped")
)
