package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"measure-bot/internal/domain/entity"
)

// fakeDetector отдаёт заранее заданный результат и считает параллельные вызовы.
type fakeDetector struct {
	delay    time.Duration
	result   *entity.DetectionResult
	err      error
	panicMsg string
	started  chan struct{}

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	calls       atomic.Int32
}

func (d *fakeDetector) Detect(ctx context.Context, frame *entity.Frame) (*entity.DetectionResult, error) {
	d.calls.Add(1)
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		m := d.maxInFlight.Load()
		if n <= m || d.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if d.started != nil {
		d.started <- struct{}{}
	}
	if d.panicMsg != "" {
		panic(d.panicMsg)
	}
	time.Sleep(d.delay)
	return d.result, d.err
}

func (d *fakeDetector) Backend() string { return "fake" }

func TestDetectionWorker_ReturnsResult(t *testing.T) {
	want := &entity.DetectionResult{Confidence: 0.9}
	w := NewDetectionWorker(&fakeDetector{result: want}, time.Second)
	defer w.Stop()

	got, err := w.Detect(context.Background(), testFrame(t))
	require.NoError(t, err)
	require.Same(t, want, got)
}

func TestDetectionWorker_OneInFlight(t *testing.T) {
	d := &fakeDetector{delay: 10 * time.Millisecond, result: &entity.DetectionResult{}}
	w := NewDetectionWorker(d, 0)
	defer w.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.Detect(context.Background(), testFrame(t))
		}()
	}
	wg.Wait()
	require.Equal(t, int32(6), d.calls.Load())
	require.Equal(t, int32(1), d.maxInFlight.Load())
}

func TestDetectionWorker_Timeout(t *testing.T) {
	d := &fakeDetector{delay: 200 * time.Millisecond, result: &entity.DetectionResult{}}
	w := NewDetectionWorker(d, 20*time.Millisecond)
	defer w.Stop()

	_, err := w.Detect(context.Background(), testFrame(t))
	require.True(t, errors.Is(err, entity.ErrDetectionTimeout))
}

func TestDetectionWorker_BudgetStartsWhenJobIsTaken(t *testing.T) {
	d := &fakeDetector{delay: 100 * time.Millisecond, result: &entity.DetectionResult{}, started: make(chan struct{}, 2)}
	w := NewDetectionWorker(d, 180*time.Millisecond)
	defer w.Stop()

	errCh := make(chan error, 1)
	go func() {
		_, err := w.Detect(context.Background(), testFrame(t))
		errCh <- err
	}()
	<-d.started

	// второй кадр ждёт в очереди почти всю первую детекцию, но его бюджет
	// начинается только когда воркер берёт кадр
	_, err := w.Detect(context.Background(), testFrame(t))
	require.NoError(t, err)
	require.NoError(t, <-errCh)
}

func TestDetectionWorker_RejectsOutdatedGeneration(t *testing.T) {
	d := &fakeDetector{result: &entity.DetectionResult{}}
	w := NewDetectionWorker(d, time.Second)
	defer w.Stop()

	gen := w.Generation()
	w.SourceChanged()

	_, err := w.DetectGeneration(context.Background(), testFrame(t), gen)
	require.ErrorIs(t, err, entity.ErrStaleResult)
	require.Zero(t, d.calls.Load())
}

func TestDetectionWorker_StaleResultDiscarded(t *testing.T) {
	d := &fakeDetector{delay: 50 * time.Millisecond, result: &entity.DetectionResult{}, started: make(chan struct{}, 1)}
	w := NewDetectionWorker(d, 0)
	defer w.Stop()

	errCh := make(chan error, 1)
	go func() {
		_, err := w.Detect(context.Background(), testFrame(t))
		errCh <- err
	}()
	<-d.started
	require.Equal(t, uint64(1), w.SourceChanged())

	require.True(t, errors.Is(<-errCh, entity.ErrStaleResult))

	// запрос нового поколения проходит
	d.started = nil
	_, err := w.Detect(context.Background(), testFrame(t))
	require.NoError(t, err)
}

func TestDetectionWorker_RecoversPanic(t *testing.T) {
	w := NewDetectionWorker(&fakeDetector{panicMsg: "boom"}, time.Second)
	defer w.Stop()

	_, err := w.Detect(context.Background(), testFrame(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestDetectionWorker_PropagatesDetectorError(t *testing.T) {
	w := NewDetectionWorker(&fakeDetector{err: entity.ErrNoSubjectDetected}, time.Second)
	defer w.Stop()

	_, err := w.Detect(context.Background(), testFrame(t))
	require.True(t, errors.Is(err, entity.ErrNoSubjectDetected))
}

func TestDetectionWorker_Stopped(t *testing.T) {
	w := NewDetectionWorker(&fakeDetector{}, 0)
	w.Stop()
	w.Stop()

	_, err := w.Detect(context.Background(), testFrame(t))
	require.True(t, errors.Is(err, entity.ErrWorkerStopped))
}
