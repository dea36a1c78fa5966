package report

import (
	"fmt"
	"strings"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/domain/port"
)

const dateLayout = "02.01.2006 15:04"

// TextDescriber формирует текстовые ответы для чата
type TextDescriber struct {
	// HistoryLimit ограничивает число последних записей в истории
	HistoryLimit int
}

// NewTextDescriber создаёт описатель с историей из последних 10 записей
func NewTextDescriber() *TextDescriber {
	return &TextDescriber{HistoryLimit: 10}
}

// Describe генерирует описание результата измерения
func (d *TextDescriber) Describe(m *entity.Measurement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📏 Длина: %s\n", formatValue(m.Length, m.Unit))
	if len(m.Result.Widths) > 0 {
		fmt.Fprintf(&b, "↔️ Ширина: %s\n", formatValue(m.Width, m.Unit))
		fmt.Fprintf(&b, "⭕ Обхват: %s\n", formatValue(m.Girth, m.Unit))
	} else {
		b.WriteString("↔️ Ширина: не измерена (найдена только линия)\n")
	}
	fmt.Fprintf(&b, "🎯 Уверенность: %.0f%%\n", m.Result.Confidence*100)
	fmt.Fprintf(&b, "📐 Калибровка: %s\n", describeCalibration(m.Calibration))

	if q := m.Result.Quality; q != nil && len(q.Warnings) > 0 {
		b.WriteString("\n⚠️ Качество снимка:\n")
		for _, w := range q.Warnings {
			fmt.Fprintf(&b, "• %s\n", w)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// DescribeHistory формирует список сохранённых измерений
func (d *TextDescriber) DescribeHistory(records []entity.MeasurementRecord) string {
	if len(records) == 0 {
		return "📭 Сохранённых измерений пока нет."
	}
	if d.HistoryLimit > 0 && len(records) > d.HistoryLimit {
		records = records[len(records)-d.HistoryLimit:]
	}

	var b strings.Builder
	b.WriteString("🗂 Последние измерения:\n")
	for i, r := range records {
		fmt.Fprintf(&b, "%d. %s — %s × %s (%.0f%%)\n",
			i+1, r.Date.Format(dateLayout), formatValue(r.LengthUnits, r.Unit), formatValue(r.GirthUnits, r.Unit), r.Confidence*100)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatValue(v float64, unit entity.Unit) string {
	if unit == entity.UnitInch {
		return fmt.Sprintf("%.2f\"", v)
	}
	return fmt.Sprintf("%.1f см", v)
}

func describeCalibration(c entity.CalibrationState) string {
	switch c.Source {
	case entity.SourceManual:
		return "ручная"
	case entity.SourceReference:
		return "по карте"
	case entity.SourceEstimated:
		return "оценка по экрану (не проверена, результат приблизительный)"
	default:
		return "нет"
	}
}

// Проверка реализации интерфейса
var _ port.Describer = (*TextDescriber)(nil)
