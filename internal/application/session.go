package app

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/domain/port"
)

// SessionEvent — событие живой сессии для UI или сохранения.
type SessionEvent struct {
	Frame  *entity.Frame
	Result *entity.DetectionResult // nil, если на кадре ничего не найдено
	Update StabilityUpdate
}

// LiveSession с фиксированным интервалом берёт кадры из источника,
// отправляет их в воркер и передаёт результаты контроллеру стабильности.
type LiveSession struct {
	mu        sync.Mutex
	source    port.FrameSource
	worker    *DetectionWorker
	stability *StabilityController
	interval  time.Duration
	onEvent   func(SessionEvent)
	now       func() time.Time
}

// NewLiveSession собирает сессию; onEvent может быть nil.
func NewLiveSession(source port.FrameSource, worker *DetectionWorker, stability *StabilityController, interval time.Duration, onEvent func(SessionEvent)) *LiveSession {
	if onEvent == nil {
		onEvent = func(SessionEvent) {}
	}
	return &LiveSession{
		source:    source,
		worker:    worker,
		stability: stability,
		interval:  interval,
		onEvent:   onEvent,
		now:       time.Now,
	}
}

// SwitchSource меняет источник кадров. Детекция, начатая на старом
// источнике, будет отброшена, накопленная стабильность сбрасывается.
func (s *LiveSession) SwitchSource(source port.FrameSource) {
	s.mu.Lock()
	s.source = source
	s.worker.SourceChanged()
	s.stability.Reset()
	s.mu.Unlock()
	log.Printf("session: switched source to %s", source.Name())
}

// Run обрабатывает кадры до отмены контекста или конца источника.
func (s *LiveSession) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.Step(ctx); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Step обрабатывает один кадр. Ошибки отдельного кадра не прерывают сессию:
// такой кадр считается кадром без объекта.
func (s *LiveSession) Step(ctx context.Context) error {
	s.mu.Lock()
	source, gen := s.source, s.worker.Generation()
	s.mu.Unlock()

	frame, err := source.Next(ctx)
	if err != nil {
		return err
	}
	at := frame.CapturedAt
	if at.IsZero() {
		at = s.now()
	}

	result, err := s.worker.DetectGeneration(ctx, frame, gen)
	switch {
	case err == nil:
	case errors.Is(err, entity.ErrStaleResult):
		log.Printf("session: dropped stale result for frame %d", frame.Seq)
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, entity.ErrNoSubjectDetected):
		result = nil
	default:
		log.Printf("session: frame %d: %v", frame.Seq, err)
		result = nil
	}

	s.mu.Lock()
	if s.worker.Generation() != gen {
		s.mu.Unlock()
		log.Printf("session: dropped frame %d from previous source", frame.Seq)
		return nil
	}
	update := s.stability.Observe(result, at)
	s.mu.Unlock()
	if update.Changed {
		log.Printf("session: state %s", update.Event.State)
	}
	s.onEvent(SessionEvent{Frame: frame, Result: result, Update: update})
	return nil
}
