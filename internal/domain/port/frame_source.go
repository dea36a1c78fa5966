package port

import (
	"context"

	"measure-bot/internal/domain/entity"
)

// FrameSource поставляет кадры живого потока или загруженных изображений
type FrameSource interface {
	// Next возвращает очередной кадр; вызывающий становится его владельцем
	Next(ctx context.Context) (*entity.Frame, error)

	// Name идентифицирует источник (устройство, каталог)
	Name() string
}
