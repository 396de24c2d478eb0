package main

import (
	"context"
	"fmt"
	"io"

	"learning-path/shared/ai"
	"learning-path/shared/config"
	"learning-path/shared/logging"
	"learning-path/shared/pipeline"
	"learning-path/shared/resources"
	"learning-path/shared/storage"
	"learning-path/shared/youtube"

	"github.com/gin-gonic/gin"
)

// app holds the wired collaborators shared by the subcommands.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	store   storage.CourseStore
	closers []io.Closer
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logging.New(cfg.Logging.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if cfg.Logging.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.NewStore(ctx, &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create course store: %w", err)
	}

	a := &app{cfg: cfg, log: log, store: store}
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	return a, nil
}

// generator wires the full pipeline: text generation, video search with an
// optional redis cache, and the course store.
func (a *app) generator(ctx context.Context, opts ...pipeline.Option) (*pipeline.Generator, error) {
	textGen, err := ai.NewGenerator(ctx, &a.cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to create text generator: %w", err)
	}
	invoker := ai.NewInvoker(textGen, ai.NewBackoff(a.cfg.AI.MaxAttempts, a.cfg.AI.BaseDelay), a.log)

	sanitizer, err := ai.NewSanitizer()
	if err != nil {
		return nil, fmt.Errorf("failed to create response sanitizer: %w", err)
	}

	client, err := youtube.NewClient(ctx, &a.cfg.YouTube, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}

	var searcher resources.VideoSearcher = client
	if a.cfg.Cache.RedisAddr != "" {
		cache, err := youtube.NewRedisCache(ctx, a.cfg.Cache.RedisAddr)
		if err != nil {
			a.log.Warn("Search cache unavailable, continuing without it", "addr", a.cfg.Cache.RedisAddr, "error", err)
		} else {
			a.closers = append(a.closers, cache)
			searcher = youtube.NewCachedSearcher(client, cache, a.cfg.Cache.TTL, a.log)
			a.log.Info("Search cache enabled", "addr", a.cfg.Cache.RedisAddr, "ttl", a.cfg.Cache.TTL.String())
		}
	}

	return pipeline.NewGenerator(a.cfg, invoker, sanitizer, searcher, a.store, a.log, opts...), nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("Failed to close resource", "error", err)
		}
	}
	a.log.Sync()
}
