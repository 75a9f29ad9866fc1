package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/kndndrj/statpipe/adapters"
	"github.com/kndndrj/statpipe/core"
)

var _ core.SourceLookup = (*Handler)(nil)

// Handler is the entry point for running pipelines against a fixed set of
// services. The service map is built once and never changes; each service
// connects on first use.
type Handler struct {
	lookupService map[string]*core.Service

	engine      *core.Engine
	cache       *adapters.Cache
	metrics     *Metrics
	logger      log.Logger
	concurrency int

	// sources wraps each connected source once
	mu      sync.Mutex
	sources map[string]core.Source
}

type Option func(*Handler)

func WithLogger(logger log.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithCache serves repeated stat calls from cache.
func WithCache(cache *adapters.Cache) Option {
	return func(h *Handler) {
		h.cache = cache
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// WithConcurrency limits how many pipelines AggregateBatch runs at once.
func WithConcurrency(n int) Option {
	return func(h *Handler) {
		h.concurrency = n
	}
}

func New(services []*core.Service, opts ...Option) (*Handler, error) {
	h := &Handler{
		lookupService: make(map[string]*core.Service, len(services)),
		logger:        log.NewNopLogger(),
		concurrency:   1,
		sources:       make(map[string]core.Source),
	}
	for _, opt := range opts {
		opt(h)
	}

	for _, svc := range services {
		if _, ok := h.lookupService[svc.GetName()]; ok {
			return nil, fmt.Errorf("duplicate service name: %q", svc.GetName())
		}
		h.lookupService[svc.GetName()] = svc

		backend, _, _ := strings.Cut(svc.GetURL(), "://")
		level.Debug(h.logger).Log("msg", "registered service", "service", svc.GetName(), "backend", backend)
	}

	engineOpts := []core.EngineOption{core.EngineWithLogger(h.logger)}
	if h.metrics != nil {
		engineOpts = append(engineOpts, core.EngineWithStageObserver(h.metrics.observeStage))
	}
	h.engine = core.NewEngine(
		core.NewResolver(h, core.ResolverWithLogger(h.logger)),
		engineOpts...,
	)

	return h, nil
}

// Close closes all connected services and the cache.
func (h *Handler) Close() {
	for _, svc := range h.lookupService {
		svc.Close()
	}
	if h.cache != nil {
		if err := h.cache.Close(); err != nil {
			level.Warn(h.logger).Log("msg", "closing cache", "err", err)
		}
	}
}

// Lookup returns the connected source of a service.
func (h *Handler) Lookup(_ context.Context, service string) (core.Source, error) {
	svc, ok := h.lookupService[service]
	if !ok {
		return nil, core.ErrServiceNotFound
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if src, ok := h.sources[service]; ok {
		return src, nil
	}

	src, err := svc.Source()
	if err != nil {
		level.Error(h.logger).Log("msg", "service connect failed", "service", service, "err", err)
		return nil, err
	}

	if h.metrics != nil {
		src = h.metrics.instrument(service, src)
	}
	if h.cache != nil {
		src = h.cache.Wrap(service, src)
	}
	h.sources[service] = src

	return src, nil
}

// Aggregate runs a single pipeline.
func (h *Handler) Aggregate(ctx context.Context, req *core.AggregateRequest) (*core.Result, error) {
	return h.AggregateWithEvents(ctx, req, nil)
}

// AggregateWithEvents runs a single pipeline and reports execution state
// changes to onEvent, which may be nil.
func (h *Handler) AggregateWithEvents(ctx context.Context, req *core.AggregateRequest, onEvent func(*core.Execution)) (*core.Result, error) {
	return h.engine.RunWithEvents(ctx, req, func(exec *core.Execution) {
		if h.metrics != nil {
			h.metrics.observeExecution(exec)
		}
		if exec.GetState().IsFinal() {
			level.Info(h.logger).Log(
				"msg", "execution finished",
				"execution_id", exec.GetID(),
				"domain_id", exec.GetDomainID(),
				"state", exec.GetState(),
				"took", exec.GetTimeTaken(),
			)
		}
		if onEvent != nil {
			onEvent(exec)
		}
	})
}

// BatchResult is the outcome of one pipeline of a batch.
type BatchResult struct {
	Result *core.Result
	Err    error
}

// AggregateBatch runs independent pipelines concurrently. A failing pipeline
// does not stop the others; results keep the order of reqs.
func (h *Handler) AggregateBatch(ctx context.Context, reqs []*core.AggregateRequest) []BatchResult {
	results := make([]BatchResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(max(h.concurrency, 1))
	for i, req := range reqs {
		g.Go(func() error {
			res, err := h.Aggregate(ctx, req)
			results[i] = BatchResult{Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Validate checks a definition without contacting any service. Besides the
// structural checks every fetched resource type must belong to a registered
// service.
func (h *Handler) Validate(def *core.Definition) error {
	if err := core.Validate(def.Stages); err != nil {
		return err
	}

	for _, st := range def.Stages {
		var resourceType string
		switch s := st.(type) {
		case *core.QueryStage:
			resourceType = s.ResourceType
		case *core.JoinStage:
			resourceType = s.ResourceType
		case *core.ConcatStage:
			resourceType = s.ResourceType
		default:
			continue
		}

		service, _, err := core.ParseResourceType(resourceType)
		if err != nil {
			return err
		}
		if _, ok := h.lookupService[service]; !ok {
			return core.NewUnsupportedResourceError(resourceType)
		}
	}
	return nil
}
