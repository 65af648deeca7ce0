package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config представляет основную конфигурацию загрузчика ленты.
// Содержит настройки сервера, логгера, ленты и HTTP-клиента.
type Config struct {
	Server ServerConfig `json:"server"`
	Logger LoggerConfig `json:"logger"`
	Feed   FeedConfig   `json:"feed"`
	Client ClientConfig `json:"client"`
}

// ServerConfig содержит настройки HTTP API.
type ServerConfig struct {
	Address string `json:"address"`
}

// LoggerConfig содержит настройки системы логирования.
// Output и ErrorOutput принимают "stdout", "stderr" или путь к файлу.
type LoggerConfig struct {
	Level       string `json:"level"`
	Output      string `json:"output"`
	ErrorOutput string `json:"error_output"`
}

// FeedConfig описывает удаленную ленту и период ее обновления.
type FeedConfig struct {
	URL             string   `json:"url"`
	RefreshInterval Duration `json:"refresh_interval"`
}

// ClientConfig содержит параметры исходящего HTTP-клиента.
type ClientConfig struct {
	Timeout           Duration             `json:"timeout"`
	RequestsPerSecond float64              `json:"requests_per_second"`
	Burst             int                  `json:"burst"`
	UserAgent         string               `json:"user_agent"`
	CircuitBreaker    CircuitBreakerConfig `json:"circuit_breaker"`
}

// CircuitBreakerConfig управляет размыканием цепи при подряд идущих сбоях транспорта.
type CircuitBreakerConfig struct {
	Enabled          bool     `json:"enabled"`
	MaxRequests      uint32   `json:"max_requests"`
	Interval         Duration `json:"interval"`
	Timeout          Duration `json:"timeout"`
	FailureThreshold uint32   `json:"failure_threshold"`
}

// Duration - time.Duration, читаемый из JSON-строки вида "30s".
type Duration time.Duration

// UnmarshalJSON разбирает длительность в формате time.ParseDuration.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON кодирует длительность строкой.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std возвращает значение как time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load загружает конфигурацию из JSON-файла поверх значений по умолчанию.
// Если файл отсутствует и optional равен true, возвращаются значения по умолчанию.
func Load(configPath string, optional bool) (*Config, error) {
	cfg := New()
	fileData, err := os.ReadFile(configPath)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	if err := json.Unmarshal(fileData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON from file %s: %w", configPath, err)
	}
	return cfg, nil
}

// New создает новый экземпляр Config со значениями по умолчанию.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		Logger: LoggerConfig{
			Level:       "info",
			Output:      "stdout",
			ErrorOutput: "stderr",
		},
		Feed: FeedConfig{
			RefreshInterval: Duration(5 * time.Minute),
		},
		Client: ClientConfig{
			Timeout:           Duration(30 * time.Second),
			RequestsPerSecond: 2,
			Burst:             5,
			UserAgent:         "feedloader/1.0",
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				MaxRequests:      3,
				Interval:         Duration(60 * time.Second),
				Timeout:          Duration(30 * time.Second),
				FailureThreshold: 3,
			},
		},
	}
}

// Validate проверяет корректность конфигурации.
// Возвращает ошибку с описанием первой найденной проблемы.
func (c *Config) Validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is not set")
	}
	u, err := url.ParseRequestURI(c.Feed.URL)
	if err != nil {
		return fmt.Errorf("invalid feed.url: %s", c.Feed.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("feed.url must use http or https: %s", c.Feed.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("feed.url has no host: %s", c.Feed.URL)
	}
	if c.Feed.RefreshInterval <= 0 {
		return fmt.Errorf("feed.refresh_interval must be positive")
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be positive")
	}
	if c.Client.RequestsPerSecond <= 0 {
		return fmt.Errorf("client.requests_per_second must be a positive number")
	}
	if c.Client.Burst <= 0 {
		return fmt.Errorf("client.burst must be a positive number")
	}
	if cb := c.Client.CircuitBreaker; cb.Enabled {
		if cb.FailureThreshold == 0 {
			return fmt.Errorf("client.circuit_breaker.failure_threshold must be positive")
		}
		if cb.Timeout <= 0 {
			return fmt.Errorf("client.circuit_breaker.timeout must be positive")
		}
	}
	switch c.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logger.level: %s", c.Logger.Level)
	}
	return nil
}

// FeedURL возвращает разобранный URL ленты. Вызывать после Validate.
func (c *Config) FeedURL() (*url.URL, error) {
	return url.Parse(c.Feed.URL)
}
