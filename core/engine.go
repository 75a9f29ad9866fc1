package core

import (
	"context"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// AggregateRequest is a single pipeline invocation.
type AggregateRequest struct {
	DomainID string
	Stages   []Stage
	Page     PageSpec
}

// RequestFromDefinition creates a request for a stored definition.
func RequestFromDefinition(def *Definition) *AggregateRequest {
	return &AggregateRequest{
		DomainID: def.DomainID,
		Stages:   def.Stages,
		Page:     def.Page,
	}
}

// StageObserver is notified after every stage with its kind, duration and
// outcome.
type StageObserver func(kind string, took time.Duration, err error)

// Engine executes aggregation pipelines. It keeps no state between runs and
// is safe for concurrent use.
type Engine struct {
	resolver *Resolver
	logger   log.Logger
	observer StageObserver
}

type EngineOption func(*Engine)

func EngineWithLogger(logger log.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

func EngineWithStageObserver(observer StageObserver) EngineOption {
	return func(e *Engine) {
		e.observer = observer
	}
}

func NewEngine(resolver *Resolver, opts ...EngineOption) *Engine {
	e := &Engine{
		resolver: resolver,
		logger:   log.NewNopLogger(),
		observer: func(string, time.Duration, error) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the pipeline and returns the paged result.
func (e *Engine) Run(ctx context.Context, req *AggregateRequest) (*Result, error) {
	return e.RunWithEvents(ctx, req, nil)
}

// RunWithEvents is Run which reports every state change of the execution to
// onEvent.
func (e *Engine) RunWithEvents(ctx context.Context, req *AggregateRequest, onEvent func(*Execution)) (*Result, error) {
	exec := newExecution(req.DomainID, len(req.Stages))
	emit := func() {
		if onEvent != nil {
			onEvent(exec)
		}
	}
	logger := log.With(e.logger, "execution_id", exec.GetID())
	emit()

	failed := func(err error) (*Result, error) {
		exec.fail(err)
		level.Error(logger).Log("msg", "pipeline failed", "stage", exec.stageKind, "err", err)
		emit()
		return nil, err
	}

	if err := Validate(req.Stages); err != nil {
		return failed(err)
	}

	var table *Table
	for i, st := range req.Stages {
		if err := ctx.Err(); err != nil {
			return failed(NewStatisticsQueryError("execution canceled", err))
		}

		exec.enterStage(i, st.Kind())
		emit()
		level.Debug(logger).Log("msg", "stage started", "index", i, "stage", st.Kind())

		start := time.Now()
		next, err := e.runStage(ctx, req.DomainID, st, table)
		took := time.Since(start)
		e.observer(st.Kind(), took, err)
		if err != nil {
			return failed(err)
		}
		table = next

		level.Debug(logger).Log("msg", "stage finished", "index", i, "stage", st.Kind(), "rows", table.Len(), "took", took)
	}

	page, total := Paginate(Coalesce(table), req.Page)

	exec.complete()
	emit()
	level.Debug(logger).Log("msg", "pipeline completed", "total_count", total, "took", exec.GetTimeTaken())

	return &Result{Table: page, TotalCount: total}, nil
}

func (e *Engine) runStage(ctx context.Context, domainID string, st Stage, table *Table) (*Table, error) {
	switch s := st.(type) {
	case *QueryStage:
		return e.resolver.Resolve(ctx, domainID, s.ResourceType, s.Query, s.ExtendData)

	case *JoinStage:
		addition, err := e.resolver.Resolve(ctx, domainID, s.ResourceType, s.Query, s.ExtendData)
		if err != nil {
			return nil, err
		}
		return Join(table, addition, s.Keys, s.Type)

	case *ConcatStage:
		addition, err := e.resolver.Resolve(ctx, domainID, s.ResourceType, s.Query, s.ExtendData)
		if err != nil {
			return nil, err
		}
		return Concat(table, addition)

	case *SortStage:
		return Sort(table, s.Keys)

	case *FormulaStage:
		switch s.Operator {
		case FormulaQuery:
			return FilterRows(table, s.Expression)
		default:
			if s.Name != "" {
				return EvalColumn(table, s.Name, s.Expression)
			}
			return EvalAssignment(table, s.Expression)
		}

	case *FillNaStage:
		return FillNa(table, s.Defaults), nil
	}

	return nil, NewRequiredParameterError(strings.Join(stageKeys(), " | "))
}
