package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"measure-bot/internal/domain/entity"
	"measure-bot/internal/domain/port"
)

type detectionJob struct {
	ctx   context.Context
	frame *entity.Frame
	reply chan detectionReply
}

type detectionReply struct {
	result *entity.DetectionResult
	err    error
}

// DetectionWorker выполняет детекцию в отдельной горутине, не больше одной
// одновременно. Новые запросы ждут в очереди, пока текущий не завершится.
type DetectionWorker struct {
	detector   port.SubjectDetector
	budget     time.Duration
	jobs       chan detectionJob
	done       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	generation atomic.Uint64
}

// NewDetectionWorker запускает воркер. budget ограничивает время одного вызова;
// 0 отключает ограничение.
func NewDetectionWorker(detector port.SubjectDetector, budget time.Duration) *DetectionWorker {
	w := &DetectionWorker{
		detector: detector,
		budget:   budget,
		jobs:     make(chan detectionJob),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

// Generation возвращает текущее поколение источника кадров.
func (w *DetectionWorker) Generation() uint64 {
	return w.generation.Load()
}

// SourceChanged отмечает смену источника: результаты, запрошенные раньше,
// будут отброшены по прибытии.
func (w *DetectionWorker) SourceChanged() uint64 {
	return w.generation.Add(1)
}

// Detect ставит кадр в очередь и ждёт результат. Кадр переходит во владение воркера.
func (w *DetectionWorker) Detect(ctx context.Context, frame *entity.Frame) (*entity.DetectionResult, error) {
	return w.DetectGeneration(ctx, frame, w.Generation())
}

// DetectGeneration детектирует кадр, полученный в поколении gen. Если источник
// сменился до отправки или до прихода ответа, возвращается ErrStaleResult.
// Бюджет отсчитывается с момента, когда воркер взял кадр: ожидание в очереди
// в него не входит.
func (w *DetectionWorker) DetectGeneration(ctx context.Context, frame *entity.Frame, gen uint64) (*entity.DetectionResult, error) {
	if w.generation.Load() != gen {
		return nil, entity.ErrStaleResult
	}

	reply := make(chan detectionReply, 1)
	select {
	case w.jobs <- detectionJob{ctx: ctx, frame: frame, reply: reply}:
	case <-w.done:
		return nil, entity.ErrWorkerStopped
	case <-ctx.Done():
		return nil, budgetError(ctx)
	}

	wait := ctx
	if w.budget > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, w.budget)
		defer cancel()
	}

	select {
	case r := <-reply:
		if w.generation.Load() != gen {
			return nil, entity.ErrStaleResult
		}
		if errors.Is(r.err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", entity.ErrDetectionTimeout, r.err)
		}
		return r.result, r.err
	case <-wait.Done():
		// поздний результат уйдёт в буферизованный канал и будет отброшен
		return nil, budgetError(wait)
	}
}

// Stop останавливает воркер и дожидается завершения текущей детекции.
func (w *DetectionWorker) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
}

func (w *DetectionWorker) loop() {
	defer w.wg.Done()
	for {
		select {
		case job := <-w.jobs:
			job.reply <- w.run(job)
		case <-w.done:
			return
		}
	}
}

// run выполняет одну детекцию; паника превращается в ошибку.
func (w *DetectionWorker) run(job detectionJob) (reply detectionReply) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("worker: detection panicked: %v", r)
			reply = detectionReply{err: fmt.Errorf("detection panicked: %v", r)}
		}
	}()
	ctx := job.ctx
	if w.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.budget)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return detectionReply{err: err}
	}
	result, err := w.detector.Detect(ctx, job.frame)
	return detectionReply{result: result, err: err}
}

func budgetError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", entity.ErrDetectionTimeout, ctx.Err())
	}
	return ctx.Err()
}
