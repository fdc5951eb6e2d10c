package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/harrisonrobin/taskboard/pkg/cache"
	"github.com/harrisonrobin/taskboard/pkg/colors"
	"github.com/harrisonrobin/taskboard/pkg/config"
	"github.com/harrisonrobin/taskboard/pkg/filesource"
	"github.com/harrisonrobin/taskboard/pkg/pipeline"
	"github.com/harrisonrobin/taskboard/pkg/sheets"
)

// app is the wiring shared by show, tui and serve: a source behind the
// snapshot cache, and the pipeline over it.
type app struct {
	source   pipeline.Source
	cache    *cache.Source
	pipeline *pipeline.Pipeline
	watchDir string
	closers  []func() error
}

func newApp(ctx context.Context) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newExitError(CodeInvalidConfig, err)
	}

	a := &app{}
	src, err := newSource(ctx, cfg)
	if err != nil {
		return nil, runError(err)
	}
	a.source = src
	if cfg.Source == config.SourceFile {
		a.watchDir = cfg.FileDir
	}

	var backend cache.Backend
	if cfg.Cache.RedisAddr != "" {
		r, err := cache.NewRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, using in-process cache", zap.Error(err))
		} else {
			backend = r
			a.closers = append(a.closers, r.Close)
		}
	}

	target := cfg.Target()
	a.cache = cache.New(src, backend, cfg.Cache.TTLDuration(), logger.Named("cache"))
	a.cache.Pin(target.SpreadsheetID, target.TableName)
	a.pipeline = pipeline.New(a.cache, target, cfg.Schema, logger.Named("pipeline"))
	return a, nil
}

func newSource(ctx context.Context, c *config.Config) (pipeline.Source, error) {
	if c.Source == config.SourceFile {
		return filesource.NewClient(c.FileDir), nil
	}
	client, err := sheets.NewClient(ctx, c.Credentials, logger.Named("sheets"))
	if err != nil {
		if errors.Is(err, pipeline.ErrSourceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", pipeline.ErrSourceUnavailable, err)
	}
	return client, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c()
	}
}

// openColors loads the project color cache. Rendering works without it.
func openColors() *colors.ColorCache {
	path, err := colors.DefaultPath()
	if err != nil {
		return nil
	}
	palette, err := colors.NewColorCache(path)
	if err != nil {
		logger.Debug("color cache unavailable", zap.Error(err))
		return nil
	}
	return palette
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return os.Getenv("USERNAME")
}
