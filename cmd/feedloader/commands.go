package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedloader/internal/app"
	"feedloader/internal/config"
	"feedloader/internal/domain"

	"github.com/alecthomas/kong"
)

const defaultConfigPath = "config.json"

// Globals содержит флаги, общие для всех команд.
type Globals struct {
	Config   string           `name:"config" short:"c" default:"config.json" help:"Path to the JSON config file."`
	FeedURL  string           `name:"feed-url" help:"Feed URL, overrides feed.url from the config."`
	LogLevel string           `name:"log-level" help:"Log level (debug, info, warn, error), overrides logger.level."`
	Version  kong.VersionFlag `name:"version" help:"Print version information and quit."`
}

// CLI описывает командную строку feedloader.
type CLI struct {
	Globals

	Serve ServeCmd `cmd:"" default:"1" help:"Refresh the feed periodically and serve it over HTTP."`
	Load  LoadCmd  `cmd:"" help:"Load the feed once and print its items as JSON."`
}

// loadConfig читает файл конфигурации и применяет значения флагов.
// Отсутствие файла допускается только для пути по умолчанию.
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.Config, g.Config == defaultConfigPath)
	if err != nil {
		return nil, err
	}
	if g.FeedURL != "" {
		cfg.Feed.URL = g.FeedURL
	}
	if g.LogLevel != "" {
		cfg.Logger.Level = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

type ServeCmd struct {
	Address string `name:"address" help:"Listen address, overrides server.address."`
}

func (c *ServeCmd) Run(globals *Globals) error {
	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}
	if c.Address != "" {
		cfg.Server.Address = c.Address
	}
	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	return application.Run(context.Background())
}

type LoadCmd struct {
	Timeout time.Duration `name:"timeout" default:"30s" help:"Maximum time to wait for the feed."`
	Indent  bool          `name:"indent" default:"true" negatable:"" help:"Indent JSON output."`
}

func (c *LoadCmd) Run(globals *Globals) error {
	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}
	// Логи идут в stderr, записи ленты в stdout.
	if cfg.Logger.Output == "stdout" {
		cfg.Logger.Output = "stderr"
	}
	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	result, err := application.Load(ctx)
	if err != nil {
		return fmt.Errorf("load did not complete: %w", err)
	}
	if result.Err != nil {
		return fmt.Errorf("load failed: %w", result.Err)
	}
	return writeItems(os.Stdout, result.Items, c.Indent)
}

func writeItems(w io.Writer, items []domain.FeedItem, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(struct {
		Items []domain.FeedItem `json:"items"`
	}{Items: items})
}
