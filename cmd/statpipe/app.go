package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kndndrj/statpipe/adapters"
	"github.com/kndndrj/statpipe/config"
	"github.com/kndndrj/statpipe/core"
	"github.com/kndndrj/statpipe/handler"
	"github.com/kndndrj/statpipe/internal/logging"
)

// newHandler wires configured services, cache and metrics into a handler.
func newHandler(cfg *config.Config, logger log.Logger, reg prometheus.Registerer) (*handler.Handler, error) {
	var services []*core.Service
	for _, params := range cfg.ServiceParams() {
		svc, err := adapters.NewService(params)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", params.Name, err)
		}
		services = append(services, svc)
	}

	opts := []handler.Option{
		handler.WithLogger(logger),
		handler.WithConcurrency(cfg.Concurrency),
	}
	if reg != nil {
		opts = append(opts, handler.WithMetrics(handler.NewMetrics(reg)))
	}

	var cache *adapters.Cache
	if cfg.Cache.URL != "" {
		var err error
		cache, err = adapters.NewCache(cfg.Cache.URL, cfg.Cache.TTL, adapters.CacheWithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("adapters.NewCache: %w", err)
		}
	}

	return buildHandler(services, cache, logger, opts...)
}

// buildHandler creates the handler and takes ownership of cache. The cache is
// closed when the handler can't be created.
func buildHandler(services []*core.Service, cache *adapters.Cache, logger log.Logger, opts ...handler.Option) (*handler.Handler, error) {
	if cache != nil {
		opts = append(opts, handler.WithCache(cache))
	}

	h, err := handler.New(services, opts...)
	if err != nil {
		if cache != nil {
			if cerr := cache.Close(); cerr != nil {
				level.Warn(logger).Log("msg", "closing cache", "err", cerr)
			}
		}
		return nil, fmt.Errorf("handler.New: %w", err)
	}
	return h, nil
}

func loadConfig(path string, stderr io.Writer) (*config.Config, log.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		return nil, nil, err
	}
	level.Debug(logger).Log("msg", "config loaded", "services", len(cfg.Services))

	return cfg, logger, nil
}

func readDefinition(path string) (*core.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	def, err := core.DecodeDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}
