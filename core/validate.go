package core

import (
	"strings"

	"github.com/kndndrj/statpipe/core/formula"
)

// Validate checks a stage list without fetching any data. The first stage
// must be a query; every stage must carry its required fields and known
// enumerated values.
func Validate(stages []Stage) error {
	if len(stages) == 0 {
		return NewMissingQueryOperationError()
	}
	if _, ok := stages[0].(*QueryStage); !ok {
		return NewMissingQueryOperationError()
	}

	for _, st := range stages {
		if err := validateStage(st); err != nil {
			return err
		}
	}
	return nil
}

func validateStage(st Stage) error {
	switch s := st.(type) {
	case *QueryStage:
		return validateFetch(StageQuery, s.ResourceType, s.Query)

	case *JoinStage:
		if !s.Type.Valid() {
			return NewInvalidParameterTypeError("join.type", JoinTypeNames())
		}
		return validateFetch(StageJoin, s.ResourceType, s.Query)

	case *ConcatStage:
		return validateFetch(StageConcat, s.ResourceType, s.Query)

	case *SortStage:
		if len(s.Keys) == 0 {
			return NewRequiredParameterError("aggregate.sort.key")
		}
		for _, k := range s.Keys {
			if k.Key == "" {
				return NewRequiredParameterError("aggregate.sort.key")
			}
		}

	case *FormulaStage:
		switch s.Operator {
		case FormulaEval:
			if strings.TrimSpace(s.Expression) == "" {
				return NewRequiredParameterError("aggregate.formula.eval")
			}
			if s.Name == "" && !formula.IsAssignment(s.Expression) {
				return NewRequiredParameterError("aggregate.formula.name")
			}
		case FormulaQuery:
			if strings.TrimSpace(s.Expression) == "" {
				return NewRequiredParameterError("aggregate.formula.query")
			}
		default:
			return NewInvalidParameterTypeError("aggregate.formula.operator", []string{string(FormulaEval), string(FormulaQuery)})
		}

	case *FillNaStage:
		if s.Defaults == nil {
			return NewRequiredParameterError("aggregate.fill_na.data")
		}

	case nil:
		return NewRequiredParameterError(strings.Join(stageKeys(), " | "))
	}

	return nil
}

func validateFetch(tag, resourceType string, query map[string]any) error {
	if resourceType == "" {
		return NewRequiredParameterError("aggregate." + tag + ".resource_type")
	}
	if query == nil {
		return NewRequiredParameterError("aggregate." + tag + ".query")
	}
	if _, _, err := ParseResourceType(resourceType); err != nil {
		return err
	}
	return nil
}

func stageKeys() []string {
	keys := make([]string, len(stageTags))
	for i, t := range stageTags {
		keys[i] = "aggregate." + t
	}
	return keys
}
