package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by the engine matches exactly one of
// these with errors.Is.
var (
	ErrRequiredParameter      = errors.New("required parameter missing")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrInvalidParameterType   = errors.New("invalid parameter type")
	ErrUnsupportedResource    = errors.New("resource type not supported")
	ErrMissingQueryOperation  = errors.New("aggregate must start with a query stage")
	ErrStatisticsQuery        = errors.New("statistics query failed")
	ErrJoinKeyNotFound        = errors.New("join key does not exist")
	ErrIndexJoin              = errors.New("index join failed")
	ErrConcat                 = errors.New("data concat failed")
	ErrFormula                = errors.New("statistics formula error")
	ErrConnectorConfiguration = errors.New("connector configuration error")
)

// Error carries the details of a failed pipeline request. Only the fields
// relevant to its kind are set.
type Error struct {
	kind error
	msg  string

	Key          string
	Reason       string
	Allowed      []string
	ResourceType string
	Keys         []string
	Expression   string

	cause error
}

func (e *Error) Error() string {
	return e.msg
}

// Is matches the error kind.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the kind sentinel of the error.
func (e *Error) Kind() error {
	return e.kind
}

func NewRequiredParameterError(key string) error {
	return &Error{
		kind: ErrRequiredParameter,
		msg:  fmt.Sprintf("%s (key = %s)", ErrRequiredParameter, key),
		Key:  key,
	}
}

func NewInvalidArgumentError(key, reason string) error {
	return &Error{
		kind:   ErrInvalidArgument,
		msg:    fmt.Sprintf("%s (key = %s, reason = %s)", ErrInvalidArgument, key, reason),
		Key:    key,
		Reason: reason,
	}
}

func NewInvalidParameterTypeError(key string, allowed []string) error {
	return &Error{
		kind:    ErrInvalidParameterType,
		msg:     fmt.Sprintf("%s (key = %s, type = %s)", ErrInvalidParameterType, key, strings.Join(allowed, " | ")),
		Key:     key,
		Allowed: allowed,
	}
}

func NewMissingQueryOperationError() error {
	return &Error{
		kind: ErrMissingQueryOperation,
		msg:  ErrMissingQueryOperation.Error(),
	}
}

func NewUnsupportedResourceError(resourceType string) error {
	return &Error{
		kind:         ErrUnsupportedResource,
		msg:          fmt.Sprintf("%s (resource_type = %s)", ErrUnsupportedResource, resourceType),
		ResourceType: resourceType,
	}
}

// NewStatisticsQueryError wraps a failed remote call or local query step.
// cause may be nil. A cause which already is an *Error only contributes its
// message, so the result matches ErrStatisticsQuery alone.
func NewStatisticsQueryError(reason string, cause error) error {
	var coreErr *Error
	if errors.As(cause, &coreErr) {
		cause = nil
	}
	return &Error{
		kind:   ErrStatisticsQuery,
		msg:    fmt.Sprintf("%s (reason = %s)", ErrStatisticsQuery, reason),
		Reason: reason,
		cause:  cause,
	}
}

func NewJoinKeyError(resourceType string, keys []string) error {
	return &Error{
		kind:         ErrJoinKeyNotFound,
		msg:          fmt.Sprintf("%s (resource_type = %s, join_keys = %v)", ErrJoinKeyNotFound, resourceType, keys),
		ResourceType: resourceType,
		Keys:         keys,
	}
}

func NewIndexJoinError(reason string) error {
	return &Error{
		kind:   ErrIndexJoin,
		msg:    fmt.Sprintf("%s (reason = %s)", ErrIndexJoin, reason),
		Reason: reason,
	}
}

func NewConcatError(reason string) error {
	return &Error{
		kind:   ErrConcat,
		msg:    fmt.Sprintf("%s (reason = %s)", ErrConcat, reason),
		Reason: reason,
	}
}

func NewFormulaError(expression string, cause error) error {
	return &Error{
		kind:       ErrFormula,
		msg:        fmt.Sprintf("%s: %s", ErrFormula, expression),
		Expression: expression,
		cause:      cause,
	}
}

func NewConnectorConfigurationError(backend, reason string) error {
	return &Error{
		kind:   ErrConnectorConfiguration,
		msg:    fmt.Sprintf("%s (backend = %s, reason = %s)", ErrConnectorConfiguration, backend, reason),
		Key:    backend,
		Reason: reason,
	}
}
