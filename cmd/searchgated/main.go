// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/searchgate"
	"github.com/poiesic/searchgate/ai"
	"github.com/poiesic/searchgate/dispatch"
	"github.com/poiesic/searchgate/server"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "searchgated",
		Usage: "Streaming retrieval-augmented search gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the query gateway",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: server.DefaultAddr,
					},
					&cli.StringFlag{
						Name:  "ui",
						Usage: "Directory with the web UI bundle (empty disables the mount)",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of queries executed concurrently",
						Value: dispatch.DefaultCapacity,
					},
					&cli.StringFlag{
						Name:  "llm-host",
						Usage: "Chat completion service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "llm-model",
						Usage:    "Chat model name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (defaults to llm-host if not specified)",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "related-questions",
						Usage: "Generate related questions after each answer",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "max-related",
						Usage: "Maximum related questions per answer",
						Value: 5,
					},
					&cli.DurationFlag{
						Name:  "shutdown-timeout",
						Usage: "Grace period for in-flight responses on shutdown",
						Value: 30 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(c *cli.Context) error {
	embeddingHost := c.String("embedding-host")
	if embeddingHost == "" {
		embeddingHost = c.String("llm-host")
	}

	aiConfig := ai.NewConfig(
		ai.WithChatHost(c.String("llm-host")),
		ai.WithChatModel(c.String("llm-model")),
		ai.WithEmbeddingHost(embeddingHost),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithMaxRelatedQuestions(c.Int("max-related")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	engine, err := searchgate.NewEngine(c.String("db"),
		searchgate.WithAIConfig(aiConfig),
		searchgate.WithPoolSize(c.Int("pool-size")),
		searchgate.WithRelatedQuestions(c.Bool("related-questions")),
	)
	if err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer engine.Close()

	srv, err := engine.NewServer(
		server.WithAddr(c.String("addr")),
		server.WithUIDir(c.String("ui")),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", levelStr)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}
