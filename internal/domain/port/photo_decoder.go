package port

import (
	"measure-bot/internal/domain/entity"
)

// PhotoDecoder превращает загруженный файл в кадр для анализа
type PhotoDecoder interface {
	// Decode декодирует JPEG/PNG/WebP и приводит размер к рабочему
	Decode(data []byte) (*entity.Frame, error)
}
