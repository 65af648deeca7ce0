package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"feedloader/internal/domain"
)

// LoadRecorder принимает итог каждой загрузки для метрик.
type LoadRecorder interface {
	RecordLoad(source string, result domain.LoadFeedResult, duration time.Duration)
}

// Worker периодически загружает ленту через domain.FeedLoader.
// Загрузки не пересекаются: следующий цикл начинается после доставки
// результата предыдущего или остановки воркера.
type Worker struct {
	loader   domain.FeedLoader
	interval time.Duration
	recorder LoadRecorder
	log      *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	cycles atomic.Int64
}

// New создает воркер. recorder может быть nil.
func New(loader domain.FeedLoader, interval time.Duration, recorder LoadRecorder, log *slog.Logger) *Worker {
	return &Worker{
		loader:   loader,
		interval: interval,
		recorder: recorder,
		log:      log.With(slog.String("component", "worker")),
	}
}

// Start запускает цикл обновления в отдельной горутине.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx)
}

// Stop останавливает воркер и ждет завершения текущего цикла.
// Результат загрузки, пришедший после Stop, игнорируется.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil
}

// Interval возвращает период обновления.
func (w *Worker) Interval() time.Duration { return w.interval }

// Cycles возвращает число завершенных циклов.
func (w *Worker) Cycles() int64 { return w.cycles.Load() }

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	w.log.Info("Feed refresh worker started",
		slog.String("interval", w.interval.String()),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.refresh(ctx)
	for {
		select {
		case <-ticker.C:
			w.refresh(ctx)
		case <-ctx.Done():
			w.log.Info("Worker stopping")
			return
		}
	}
}

// refresh выполняет одну загрузку и ждет ее результата.
func (w *Worker) refresh(ctx context.Context) {
	const op = "worker.refresh"
	log := w.log.With(slog.String("op", op))
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	delivered := make(chan domain.LoadFeedResult, 1)
	w.loader.Load(func(result domain.LoadFeedResult) {
		delivered <- result
	})

	var result domain.LoadFeedResult
	select {
	case result = <-delivered:
	case <-ctx.Done():
		log.Warn("Refresh abandoned, worker stopped")
		return
	}
	duration := time.Since(start)
	w.cycles.Add(1)
	if w.recorder != nil {
		w.recorder.RecordLoad("worker", result, duration)
	}
	if result.Err != nil {
		log.Error("Feed refresh failed",
			slog.Any("error", result.Err),
			slog.Duration("duration", duration),
		)
		return
	}
	log.Info("Feed refresh completed",
		slog.Int("items_found", len(result.Items)),
		slog.Duration("duration", duration),
	)
}
