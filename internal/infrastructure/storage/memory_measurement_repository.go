package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/domain/port"
)

// MemoryMeasurementRepository in-memory хранилище измерений
type MemoryMeasurementRepository struct {
	mu      sync.RWMutex
	records map[int64][]entity.MeasurementRecord
}

// NewMemoryMeasurementRepository создаёт пустое хранилище измерений
func NewMemoryMeasurementRepository() *MemoryMeasurementRepository {
	return &MemoryMeasurementRepository{
		records: make(map[int64][]entity.MeasurementRecord),
	}
}

// Save добавляет запись; запись с тем же ID заменяется
func (r *MemoryMeasurementRepository) Save(ctx context.Context, record entity.MeasurementRecord) error {
	if record.ID == uuid.Nil {
		return errors.New("measurement record has no id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.records[record.UserID]
	for i := range list {
		if list[i].ID == record.ID {
			list[i] = record
			return nil
		}
	}
	r.records[record.UserID] = append(list, record)
	return nil
}

// List возвращает записи пользователя от старых к новым
func (r *MemoryMeasurementRepository) List(ctx context.Context, userID int64) ([]entity.MeasurementRecord, error) {
	r.mu.RLock()
	out := make([]entity.MeasurementRecord, len(r.records[userID]))
	copy(out, r.records[userID])
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Проверка реализации интерфейса
var _ port.MeasurementRepository = (*MemoryMeasurementRepository)(nil)
