package core_test

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kndndrj/statpipe/core"
	"github.com/kndndrj/statpipe/core/mock"
)

func newTestEngine(sources mock.Lookup, opts ...core.EngineOption) *core.Engine {
	return core.NewEngine(core.NewResolver(sources), opts...)
}

func scenarioSources() (*mock.Source, *mock.Source) {
	identity := mock.NewSource(
		mock.SourceWithRecords("Project",
			map[string]any{"project_id": "p-1", "name": "alpha"},
			map[string]any{"project_id": "p-2", "name": "beta"},
			map[string]any{"project_id": "p-3", "name": "gamma"},
		),
	)
	inventory := mock.NewSource(
		mock.SourceWithRecords("Server",
			map[string]any{"project_id": "p-1", "server_count": 4.0},
			map[string]any{"project_id": "p-2", "server_count": 9.0},
			map[string]any{"project_id": "p-3", "server_count": 1.0},
		),
		mock.SourceWithRecords("Empty"),
	)
	return identity, inventory
}

func projectQuery() *core.QueryStage {
	return &core.QueryStage{ResourceType: "identity.Project", Query: map[string]any{}}
}

func TestEngine_ScenarioA(t *testing.T) {
	r := require.New(t)

	identity, inventory := scenarioSources()
	engine := newTestEngine(mock.Lookup{"identity": identity, "inventory": inventory})

	result, err := engine.Run(context.Background(), &core.AggregateRequest{
		Stages: []core.Stage{
			projectQuery(),
			&core.JoinStage{ResourceType: "inventory.Server", Query: map[string]any{}, Keys: []string{"project_id"}},
			&core.FormulaStage{Operator: core.FormulaEval, Expression: "total = server_count"},
			&core.SortStage{Keys: []core.SortKey{{Key: "total", Desc: true}}},
		},
		Page: core.PageSpec{Limit: 2},
	})
	r.NoError(err)

	r.Equal(3, result.TotalCount)
	r.Equal(2, result.Len())
	r.Equal("p-2", result.Table.Value(0, "project_id"))
	r.Equal(9.0, result.Table.Value(0, "total"))
	r.Equal("p-1", result.Table.Value(1, "project_id"))
	r.Equal(4.0, result.Table.Value(1, "total"))
}

func TestEngine_ScenarioB(t *testing.T) {
	r := require.New(t)

	identity, inventory := scenarioSources()
	engine := newTestEngine(mock.Lookup{"identity": identity, "inventory": inventory})

	_, err := engine.Run(context.Background(), &core.AggregateRequest{
		Stages: []core.Stage{
			&core.JoinStage{ResourceType: "inventory.Server", Query: map[string]any{}, Keys: []string{"project_id"}},
		},
	})
	r.ErrorIs(err, core.ErrMissingQueryOperation)
	r.Empty(identity.Calls())
	r.Empty(inventory.Calls())
}

func TestEngine_ScenarioC(t *testing.T) {
	r := require.New(t)

	identity, inventory := scenarioSources()
	engine := newTestEngine(mock.Lookup{"identity": identity, "inventory": inventory})

	_, err := engine.Run(context.Background(), &core.AggregateRequest{
		Stages: []core.Stage{
			projectQuery(),
			&core.JoinStage{ResourceType: "inventory.Server", Query: map[string]any{}, Keys: []string{"project_id"}, Type: "DIAGONAL"},
		},
	})
	r.ErrorIs(err, core.ErrInvalidParameterType)
	r.Empty(identity.Calls())
	r.Empty(inventory.Calls())
}

func TestEngine_ScenarioD(t *testing.T) {
	r := require.New(t)

	identity := mock.NewSource(
		mock.SourceWithRecords("Project", map[string]any{"project_id": "p-1"}),
	)
	inventory := mock.NewSource(
		mock.SourceWithRecords("Server", map[string]any{"server_id": "s-1", "server_count": 1}),
	)
	engine := newTestEngine(mock.Lookup{"identity": identity, "inventory": inventory})

	_, err := engine.Run(context.Background(), &core.AggregateRequest{
		Stages: []core.Stage{
			projectQuery(),
			&core.JoinStage{ResourceType: "inventory.Server", Query: map[string]any{}, Keys: []string{"project_id"}},
		},
	})
	r.ErrorIs(err, core.ErrJoinKeyNotFound)

	var coreErr *core.Error
	r.ErrorAs(err, &coreErr)
	r.Equal("inventory.Server", coreErr.ResourceType)
	r.Equal([]string{"project_id"}, coreErr.Keys)
}

func TestEngine_ScenarioE(t *testing.T) {
	r := require.New(t)

	src := mock.NewSource(mock.SourceWithRecords("Metric", mock.NewRecords(0, 5)...))
	engine := newTestEngine(mock.Lookup{"monitoring": src})

	var last *core.Execution
	result, err := engine.RunWithEvents(context.Background(), &core.AggregateRequest{
		Stages: []core.Stage{
			&core.QueryStage{ResourceType: "monitoring.Metric", Query: map[string]any{}},
			&core.FormulaStage{Operator: core.FormulaEval, Expression: "x = y / 0_literal_error"},
		},
	}, func(e *core.Execution) {
		last = e
	})
	r.Nil(result)
	r.ErrorIs(err, core.ErrFormula)

	var coreErr *core.Error
	r.ErrorAs(err, &coreErr)
	r.Equal("x = y / 0_literal_error", coreErr.Expression)

	r.Equal(core.ExecutionStateFailed, last.GetState())
	index, kind := last.GetStage()
	r.Equal(1, index)
	r.Equal(core.StageFormula, kind)
	r.ErrorIs(last.Err(), core.ErrFormula)
}

func TestEngine_EmptyJoinKeepsSchema(t *testing.T) {
	r := require.New(t)

	identity, inventory := scenarioSources()
	engine := newTestEngine(mock.Lookup{"identity": identity, "inventory": inventory})

	result, err := engine.Run(context.Background(), &core.AggregateRequest{
		Stages: []core.Stage{
			projectQuery(),
			&core.JoinStage{
				ResourceType: "inventory.Empty",
				Query: map[string]any{"aggregate": []any{
					map[string]any{"group": map[string]any{
						"keys":   []any{map[string]any{"name": "project_id"}},
						"fields": []any{map[string]any{"name": "server_count"}},
					}},
				}},
				Keys: []string{"project_id"},
			},
			&core.FillNaStage{Defaults: map[string]any{"server_count": 0}},
			&core.SortStage{Keys: []core.SortKey{{Key: "server_count"}, {Key: "project_id", Desc: true}}},
		},
	})
	r.NoError(err)
	r.Equal(3, result.TotalCount)
	r.Equal(core.Header{"name", "project_id", "server_count"}, result.Header())
	r.Equal([]core.Row{
		{"gamma", "p-3", 0},
		{"beta", "p-2", 0},
		{"alpha", "p-1", 0},
	}, result.Rows())
}

func TestEngine_ConcatFilterAndCoalesce(t *testing.T) {
	r := require.New(t)

	src := mock.NewSource(
		mock.SourceWithRecords("Server",
			map[string]any{"provider": "aws", "count": 4},
			map[string]any{"provider": "gcp", "count": 0},
		),
		mock.SourceWithRecords("Database",
			map[string]any{"provider": "aws", "count": 2, "engine": "pg"},
		),
	)
	engine := newTestEngine(mock.Lookup{"inventory": src})

	result, err := engine.Run(context.Background(), &core.AggregateRequest{
		Stages: []core.Stage{
			&core.QueryStage{ResourceType: "inventory.Server", Query: map[string]any{}, ExtendData: map[string]any{"kind": "server"}},
			&core.ConcatStage{ResourceType: "inventory.Database", Query: map[string]any{}, ExtendData: map[string]any{"kind": "database"}},
			&core.FormulaStage{Operator: core.FormulaQuery, Expression: "provider == 'aws'"},
			&core.FormulaStage{Operator: core.FormulaEval, Name: "missing", Expression: "count * null"},
		},
	})
	r.NoError(err)
	r.Equal(2, result.TotalCount)
	r.Equal(core.Header{"count", "provider", "kind", "engine", "missing"}, result.Header())
	r.Equal([]core.Row{
		{4, "aws", "server", nil, nil},
		{2, "aws", "database", "pg", nil},
	}, result.Rows())

	data, err := json.Marshal(result)
	r.NoError(err)
	r.JSONEq(`{
		"results": [
			{"count": 4, "provider": "aws", "kind": "server", "engine": null, "missing": null},
			{"count": 2, "provider": "aws", "kind": "database", "engine": "pg", "missing": null}
		],
		"total_count": 2
	}`, string(data))
}

func TestEngine_Events(t *testing.T) {
	r := require.New(t)

	identity, inventory := scenarioSources()

	var observed []string
	engine := newTestEngine(mock.Lookup{"identity": identity, "inventory": inventory},
		core.EngineWithStageObserver(func(kind string, _ time.Duration, err error) {
			r.NoError(err)
			observed = append(observed, kind)
		}),
	)

	var states []core.ExecutionState
	var ids []core.ExecutionID
	result, err := engine.RunWithEvents(context.Background(), &core.AggregateRequest{
		DomainID: "domain-1",
		Stages: []core.Stage{
			projectQuery(),
			&core.SortStage{Keys: []core.SortKey{{Key: "name"}}},
		},
	}, func(e *core.Execution) {
		states = append(states, e.GetState())
		ids = append(ids, e.GetID())
		r.Equal("domain-1", e.GetDomainID())
	})
	r.NoError(err)
	r.Equal(3, result.Len())

	r.Equal([]core.ExecutionState{
		core.ExecutionStateAwaitingFirstStage,
		core.ExecutionStateRunning,
		core.ExecutionStateRunning,
		core.ExecutionStateCompleted,
	}, states)
	for _, id := range ids {
		r.Equal(ids[0], id)
	}
	r.Equal([]string{core.StageQuery, core.StageSort}, observed)

	r.Equal("domain-1", identity.Calls()[0].DomainID)
}

func TestEngine_Canceled(t *testing.T) {
	r := require.New(t)

	identity, inventory := scenarioSources()
	engine := newTestEngine(mock.Lookup{"identity": identity, "inventory": inventory})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, &core.AggregateRequest{Stages: []core.Stage{projectQuery()}})
	r.ErrorIs(err, core.ErrStatisticsQuery)
	r.ErrorIs(err, context.Canceled)
	r.Empty(identity.Calls())
}

func TestEngine_NaNBecomesNull(t *testing.T) {
	r := require.New(t)

	src := mock.NewSource(mock.SourceWithRecords("Metric",
		map[string]any{"v": math.NaN()},
		map[string]any{"v": 1.0},
	))
	engine := newTestEngine(mock.Lookup{"monitoring": src})

	result, err := engine.Run(context.Background(), &core.AggregateRequest{
		Stages: []core.Stage{&core.QueryStage{ResourceType: "monitoring.Metric", Query: map[string]any{}}},
	})
	r.NoError(err)
	r.Equal([]core.Row{{nil}, {1.0}}, result.Rows())
}
