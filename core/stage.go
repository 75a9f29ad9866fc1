package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Stage is one step of an aggregation pipeline. The set of variants is
// closed: QueryStage, JoinStage, ConcatStage, SortStage, FormulaStage and
// FillNaStage.
type Stage interface {
	// Kind returns the wire tag of the stage.
	Kind() string
	isStage()
}

const (
	StageQuery   = "query"
	StageJoin    = "join"
	StageConcat  = "concat"
	StageSort    = "sort"
	StageFormula = "formula"
	StageFillNa  = "fill_na"
)

// stageTags is the decoding precedence when an entry carries several tags.
var stageTags = []string{StageQuery, StageJoin, StageConcat, StageSort, StageFormula, StageFillNa}

type (
	QueryStage struct {
		ResourceType string         `json:"resource_type,omitempty"`
		Query        map[string]any `json:"query"`
		ExtendData   map[string]any `json:"extend_data,omitempty"`
	}

	JoinStage struct {
		ResourceType string         `json:"resource_type,omitempty"`
		Query        map[string]any `json:"query"`
		ExtendData   map[string]any `json:"extend_data,omitempty"`
		Keys         []string       `json:"keys,omitempty"`
		Type         JoinType       `json:"type,omitempty"`
	}

	ConcatStage struct {
		ResourceType string         `json:"resource_type,omitempty"`
		Query        map[string]any `json:"query"`
		ExtendData   map[string]any `json:"extend_data,omitempty"`
	}

	SortKey struct {
		Key  string `json:"key"`
		Desc bool   `json:"desc,omitempty"`
	}

	SortStage struct {
		Keys []SortKey
	}

	FormulaStage struct {
		Operator   FormulaOperator
		Name       string
		Expression string
	}

	FillNaStage struct {
		Defaults map[string]any
	}
)

func (*QueryStage) Kind() string   { return StageQuery }
func (*JoinStage) Kind() string    { return StageJoin }
func (*ConcatStage) Kind() string  { return StageConcat }
func (*SortStage) Kind() string    { return StageSort }
func (*FormulaStage) Kind() string { return StageFormula }
func (*FillNaStage) Kind() string  { return StageFillNa }

func (*QueryStage) isStage()   {}
func (*JoinStage) isStage()    {}
func (*ConcatStage) isStage()  {}
func (*SortStage) isStage()    {}
func (*FormulaStage) isStage() {}
func (*FillNaStage) isStage()  {}

var (
	_ Stage = (*QueryStage)(nil)
	_ Stage = (*JoinStage)(nil)
	_ Stage = (*ConcatStage)(nil)
	_ Stage = (*SortStage)(nil)
	_ Stage = (*FormulaStage)(nil)
	_ Stage = (*FillNaStage)(nil)
)

type FormulaOperator string

const (
	FormulaEval  FormulaOperator = "EVAL"
	FormulaQuery FormulaOperator = "QUERY"
)

// Definition is the stored form of a pipeline: ordered stages plus paging
// and tenant scope.
type Definition struct {
	Stages   []Stage
	Page     PageSpec
	DomainID string
}

type definitionPersistent struct {
	Aggregate []json.RawMessage `json:"aggregate"`
	Page      *PageSpec         `json:"page,omitempty"`
	DomainID  string            `json:"domain_id,omitempty"`
}

// DecodeDefinition parses a JSON pipeline definition. Structural problems
// are reported with the same error kinds as Validate.
func DecodeDefinition(data []byte) (*Definition, error) {
	def := new(Definition)
	if err := def.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return def, nil
}

func (d *Definition) UnmarshalJSON(data []byte) error {
	var alias definitionPersistent
	if err := json.Unmarshal(data, &alias); err != nil {
		return NewInvalidArgumentError("definition", err.Error())
	}

	stages := make([]Stage, 0, len(alias.Aggregate))
	for _, raw := range alias.Aggregate {
		st, err := decodeStage(raw)
		if err != nil {
			return err
		}
		stages = append(stages, st)
	}

	*d = Definition{
		Stages:   stages,
		DomainID: alias.DomainID,
	}
	if alias.Page != nil {
		d.Page = *alias.Page
	}
	return nil
}

func (d *Definition) MarshalJSON() ([]byte, error) {
	agg := make([]json.RawMessage, 0, len(d.Stages))
	for _, st := range d.Stages {
		raw, err := encodeStage(st)
		if err != nil {
			return nil, err
		}
		agg = append(agg, raw)
	}

	alias := definitionPersistent{
		Aggregate: agg,
		DomainID:  d.DomainID,
	}
	if d.Page != (PageSpec{}) {
		page := d.Page
		alias.Page = &page
	}
	return json.Marshal(alias)
}

type sortPersistent struct {
	Key  string    `json:"key,omitempty"`
	Name string    `json:"name,omitempty"`
	Desc bool      `json:"desc,omitempty"`
	Keys []SortKey `json:"keys,omitempty"`
}

type formulaPersistent struct {
	Eval     *string `json:"eval,omitempty"`
	Query    *string `json:"query,omitempty"`
	Operator string  `json:"operator,omitempty"`
	Name     string  `json:"name,omitempty"`
	Formula  *string `json:"formula,omitempty"`
}

type fillNaPersistent struct {
	Data map[string]any `json:"data"`
}

func decodeStage(raw json.RawMessage) (Stage, error) {
	var entry map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, NewInvalidArgumentError("aggregate", err.Error())
	}

	tag := ""
	for _, t := range stageTags {
		if _, ok := entry[t]; ok {
			tag = t
			break
		}
	}

	body := entry[tag]
	if tag != "" && isJSONNull(body) {
		return nil, NewRequiredParameterError("aggregate." + tag)
	}

	unmarshal := func(v any) error {
		if err := json.Unmarshal(body, v); err != nil {
			return NewInvalidArgumentError("aggregate."+tag, err.Error())
		}
		return nil
	}

	switch tag {
	case StageQuery:
		var st QueryStage
		if err := unmarshal(&st); err != nil {
			return nil, err
		}
		return &st, nil
	case StageJoin:
		var st JoinStage
		if err := unmarshal(&st); err != nil {
			return nil, err
		}
		return &st, nil
	case StageConcat:
		var st ConcatStage
		if err := unmarshal(&st); err != nil {
			return nil, err
		}
		return &st, nil
	case StageSort:
		var p sortPersistent
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		st := &SortStage{Keys: p.Keys}
		if len(st.Keys) == 0 {
			key := p.Key
			if key == "" {
				key = p.Name
			}
			if key != "" {
				st.Keys = []SortKey{{Key: key, Desc: p.Desc}}
			}
		}
		return st, nil
	case StageFormula:
		var p formulaPersistent
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return formulaFromPersistent(&p), nil
	case StageFillNa:
		var p fillNaPersistent
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return &FillNaStage{Defaults: p.Data}, nil
	default:
		return nil, NewRequiredParameterError(strings.Join(stageKeys(), " | "))
	}
}

func formulaFromPersistent(p *formulaPersistent) *FormulaStage {
	st := &FormulaStage{Name: p.Name}
	switch {
	case p.Eval != nil:
		st.Operator = FormulaEval
		st.Expression = *p.Eval
	case p.Query != nil:
		st.Operator = FormulaQuery
		st.Expression = *p.Query
	default:
		st.Operator = FormulaOperator(strings.ToUpper(p.Operator))
		if st.Operator == "" {
			st.Operator = FormulaEval
		}
		if p.Formula != nil {
			st.Expression = *p.Formula
		}
	}
	return st
}

func encodeStage(st Stage) (json.RawMessage, error) {
	var body any
	switch s := st.(type) {
	case *QueryStage, *JoinStage, *ConcatStage:
		body = s
	case *SortStage:
		if len(s.Keys) == 1 {
			body = sortPersistent{Key: s.Keys[0].Key, Desc: s.Keys[0].Desc}
		} else {
			body = sortPersistent{Keys: s.Keys}
		}
	case *FormulaStage:
		expr := s.Expression
		switch s.Operator {
		case FormulaEval:
			body = formulaPersistent{Eval: &expr, Name: s.Name}
		case FormulaQuery:
			body = formulaPersistent{Query: &expr}
		default:
			body = formulaPersistent{Operator: string(s.Operator), Name: s.Name, Formula: &expr}
		}
	case *FillNaStage:
		body = fillNaPersistent{Data: s.Defaults}
	default:
		return nil, fmt.Errorf("unknown stage type %T", st)
	}

	return json.Marshal(map[string]any{st.Kind(): body})
}

func isJSONNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
