package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"feedloader/internal/adapter/fetcher"
	"feedloader/internal/config"
	"feedloader/internal/domain"
	"feedloader/internal/logger"
	"feedloader/internal/metrics"
	server "feedloader/internal/transport/http"
	"feedloader/internal/usecase"
	"feedloader/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App связывает загрузчик ленты с воркером обновления, HTTP API и метриками.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	loader   *usecase.RemoteFeedLoader
	recorder *metrics.Recorder
	server   *http.Server
	worker   *worker.Worker
	stopChan chan os.Signal
	wg       sync.WaitGroup

	mu   sync.Mutex
	addr string
}

// New создает приложение по проверенной конфигурации.
// Запросы к ленте не выполняются до вызова Run или Load.
func New(cfg *config.Config) (*App, error) {
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	slog.SetDefault(appLogger)

	feedURL, err := cfg.FeedURL()
	if err != nil {
		return nil, fmt.Errorf("bad feed url: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	httpClient := fetcher.NewHTTPClient(cfg.Client, appLogger)
	loader := usecase.NewRemoteFeedLoader(feedURL, httpClient)

	handler := server.NewHandler(appLogger, loader, recorder)
	router := server.NewServer(appLogger, handler, registry)

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	refresher := worker.New(loader, cfg.Feed.RefreshInterval.Std(), recorder, appLogger)

	return &App{
		config:   cfg,
		logger:   appLogger,
		loader:   loader,
		recorder: recorder,
		server:   httpServer,
		worker:   refresher,
		stopChan: make(chan os.Signal, 1),
	}, nil
}

// Load выполняет одну загрузку ленты и ждет результата.
// Возвращает ошибку контекста, если результат не пришел вовремя.
func (a *App) Load(ctx context.Context) (domain.LoadFeedResult, error) {
	start := time.Now()
	delivered := make(chan domain.LoadFeedResult, 1)
	a.loader.Load(func(result domain.LoadFeedResult) {
		delivered <- result
	})
	select {
	case result := <-delivered:
		a.recorder.RecordLoad("cli", result, time.Since(start))
		return result, nil
	case <-ctx.Done():
		return domain.LoadFeedResult{}, ctx.Err()
	}
}

// Addr возвращает адрес, на котором слушает HTTP API, или пустую строку до запуска.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Run запускает воркер обновления и HTTP API.
// Блокируется до отмены ctx или сигнала SIGINT/SIGTERM, затем выполняет Shutdown.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting feed loader",
		slog.String("component", "app"),
		slog.String("feed_url", a.config.Feed.URL),
		slog.String("refresh_interval", a.worker.Interval().String()),
	)
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	a.mu.Lock()
	a.addr = listener.Addr().String()
	a.mu.Unlock()
	a.logger.Info("HTTP server ready",
		slog.String("component", "server"),
		slog.String("address", a.Addr()),
	)

	a.worker.Start()

	serveErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", slog.String("component", "server"), slog.Any("error", err))
			serveErr <- err
		}
	}()

	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)

	var runErr error
	select {
	case sig := <-a.stopChan:
		a.logger.Info("Shutdown signal received",
			slog.String("component", "app"),
			slog.String("signal", sig.String()),
		)
	case <-ctx.Done():
		a.logger.Info("Context cancelled, initiating shutdown", slog.String("component", "app"))
	case runErr = <-serveErr:
	}
	if err := a.Shutdown(); err != nil {
		return err
	}
	return runErr
}

// Shutdown останавливает воркер, завершает HTTP-сервер с таймаутом 10 секунд
// и освобождает загрузчик, чтобы поздние ответы не доставлялись.
func (a *App) Shutdown() error {
	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	a.worker.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var err error
	if shutdownErr := a.server.Shutdown(shutdownCtx); shutdownErr != nil {
		a.logger.Error("HTTP server shutdown failed", slog.Any("error", shutdownErr))
		err = fmt.Errorf("http server shutdown: %w", shutdownErr)
	}
	a.loader.Release()
	a.wg.Wait()
	a.logger.Info("Application stopped gracefully", slog.String("component", "app"))
	return err
}
