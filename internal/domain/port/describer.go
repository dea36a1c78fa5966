package port

import (
	"measure-bot/internal/domain/entity"
)

// Describer формирует текстовое описание измерения
type Describer interface {
	// Describe генерирует описание результата для пользователя
	Describe(m *entity.Measurement) string

	// DescribeHistory формирует список сохранённых измерений
	DescribeHistory(records []entity.MeasurementRecord) string
}
