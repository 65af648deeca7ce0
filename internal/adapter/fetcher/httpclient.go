package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"feedloader/internal/config"
	"feedloader/internal/usecase"

	"github.com/sony/gobreaker"
)

// ErrMissingURL возвращается, если Get вызван без URL.
var ErrMissingURL = errors.New("missing request url")

// HTTPClient реализует usecase.HTTPClient поверх net/http.
// Каждый вызов Get выполняется в отдельной горутине; любой полученный ответ,
// независимо от статуса, считается успехом транспортного уровня.
type HTTPClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
	userAgent string
	log       *slog.Logger
}

var _ usecase.HTTPClient = (*HTTPClient)(nil)

// NewHTTPClient создает клиент с ограничением частоты запросов и,
// если включено, с размыканием цепи после подряд идущих сбоев.
func NewHTTPClient(cfg config.ClientConfig, log *slog.Logger) *HTTPClient {
	httpClient := &http.Client{
		Transport: NewRateLimitedTransport(http.DefaultTransport, cfg.RequestsPerSecond, cfg.Burst),
		Timeout:   cfg.Timeout.Std(),
	}
	return newHTTPClient(httpClient, cfg, log)
}

func newHTTPClient(httpClient *http.Client, cfg config.ClientConfig, log *slog.Logger) *HTTPClient {
	c := &HTTPClient{
		client:    httpClient,
		userAgent: cfg.UserAgent,
		log:       log.With(slog.String("component", "fetcher")),
	}
	if cb := cfg.CircuitBreaker; cb.Enabled {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "feed-client",
			MaxRequests: cb.MaxRequests,
			Interval:    cb.Interval.Std(),
			Timeout:     cb.Timeout.Std(),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cb.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.log.Warn("Circuit breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			},
		})
	}
	return c
}

// Get выполняет GET-запрос асинхронно и вызывает completion ровно один раз.
func (c *HTTPClient) Get(u *url.URL, completion func(usecase.HTTPClientResult)) {
	go func() {
		completion(c.do(u))
	}()
}

func (c *HTTPClient) do(u *url.URL) usecase.HTTPClientResult {
	const op = "fetcher.HTTPClient.Get"
	if u == nil {
		c.log.Error("Request without URL", slog.String("op", op))
		return usecase.HTTPClientResult{Err: ErrMissingURL}
	}
	log := c.log.With(slog.String("op", op), slog.String("url", u.String()))
	log.Debug("Fetching URL")
	start := time.Now()

	result := c.execute(u)
	if result.Err != nil {
		log.Error("HTTP request failed",
			slog.Any("error", result.Err),
			slog.Duration("duration", time.Since(start)),
		)
		return result
	}
	log.Debug("Fetched URL",
		slog.Int("status_code", result.Response.StatusCode),
		slog.Int("bytes", len(result.Data)),
		slog.Duration("duration", time.Since(start)),
	)
	return result
}

// execute пропускает запрос через circuit breaker, если он настроен.
// Сбоем для breaker считается только ошибка транспорта, но не статус ответа.
func (c *HTTPClient) execute(u *url.URL) usecase.HTTPClientResult {
	if c.breaker == nil {
		return c.fetch(u)
	}
	var result usecase.HTTPClientResult
	_, err := c.breaker.Execute(func() (interface{}, error) {
		result = c.fetch(u)
		return nil, result.Err
	})
	if err != nil {
		return usecase.HTTPClientResult{Err: err}
	}
	return result
}

func (c *HTTPClient) fetch(u *url.URL) usecase.HTTPClientResult {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, u.String(), nil)
	if err != nil {
		return usecase.HTTPClientResult{Err: fmt.Errorf("failed to create request for url %s: %w", u, err)}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return usecase.HTTPClientResult{Err: fmt.Errorf("failed to fetch url %s: %w", u, err)}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return usecase.HTTPClientResult{Err: fmt.Errorf("failed to read body of %s: %w", u, err)}
	}
	return usecase.HTTPClientResult{
		Data: data,
		Response: &usecase.HTTPResponse{
			StatusCode: resp.StatusCode,
			URL:        resp.Request.URL,
		},
	}
}
