package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Resolver turns a resource type and a query into a table by calling the
// stat source of the resource's service.
type Resolver struct {
	sources SourceLookup
	logger  log.Logger
}

type ResolverOption func(*Resolver)

func ResolverWithLogger(logger log.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func NewResolver(sources SourceLookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		sources: sources,
		logger:  log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ParseResourceType splits "service.resource".
func ParseResourceType(resourceType string) (service, resource string, err error) {
	parts := strings.Split(resourceType, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", NewInvalidArgumentError("resource_type", fmt.Sprintf("resource_type is invalid. (%s)", resourceType))
	}
	return parts[0], parts[1], nil
}

// Resolve fetches the statistics of resourceType. A zero record response
// yields a table with the schema declared by the query's grouping stage.
// extendData is added to every row as constant columns.
func (r *Resolver) Resolve(ctx context.Context, domainID, resourceType string, query, extendData map[string]any) (*Table, error) {
	service, resource, err := ParseResourceType(resourceType)
	if err != nil {
		return nil, err
	}

	src, err := r.sources.Lookup(ctx, service)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, NewUnsupportedResourceError(resourceType)
		}
		return nil, NewStatisticsQueryError(err.Error(), err)
	}
	if checker, ok := src.(ResourceChecker); ok && !checker.SupportsResource(resource) {
		return nil, NewUnsupportedResourceError(resourceType)
	}

	level.Debug(r.logger).Log("msg", "stat resource", "service", service, "resource", resource, "query", queryString(query))

	records, hint, err := r.stat(ctx, src, &StatRequest{
		DomainID: domainID,
		Resource: resource,
		Query:    query,
	})
	if err != nil {
		return nil, err
	}

	var table *Table
	if len(records) == 0 {
		declared := DeclaredSchema(query)
		if len(declared) == 0 {
			declared = hint
		}
		table = EmptyTable(resourceType, declared)
	} else {
		table, err = TableFromRecords(resourceType, hint, records)
		if err != nil {
			return nil, NewStatisticsQueryError(err.Error(), err)
		}
	}

	keys := make([]string, 0, len(extendData))
	for k := range extendData {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		table = table.WithConstant(k, extendData[k])
	}

	return table, nil
}

func (r *Resolver) stat(ctx context.Context, src Source, req *StatRequest) ([]Record, Header, error) {
	stream, err := src.Stat(ctx, req)
	if err != nil {
		return nil, nil, wrapStatError(ctx, err)
	}
	defer stream.Close()

	var records []Record
	for stream.HasNext() {
		if err := ctx.Err(); err != nil {
			return nil, nil, wrapStatError(ctx, err)
		}
		rec, err := stream.Next()
		if errors.Is(err, ErrStreamDrained) {
			break
		}
		if err != nil {
			return nil, nil, wrapStatError(ctx, err)
		}
		records = append(records, rec)
	}

	return records, stream.Header(), nil
}

func wrapStatError(ctx context.Context, err error) error {
	var coreErr *Error
	if errors.As(err, &coreErr) && errors.Is(err, ErrStatisticsQuery) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return NewStatisticsQueryError(err.Error(), err)
}

func queryString(query map[string]any) string {
	b, err := json.Marshal(query)
	if err != nil {
		return fmt.Sprint(query)
	}
	return string(b)
}
