package port

import (
	"context"

	"measure-bot/internal/domain/entity"
)

// MeasurementRepository граница хранения итоговых измерений
type MeasurementRepository interface {
	// Save сохраняет запись измерения
	Save(ctx context.Context, record entity.MeasurementRecord) error

	// List возвращает записи пользователя от старых к новым
	List(ctx context.Context, userID int64) ([]entity.MeasurementRecord, error)
}
