package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrServiceNotFound = errors.New("service not registered")

type (
	// Adapter connects to a stat source via url
	Adapter interface {
		Connect(url string) (Source, error)
	}

	// StatRequest is a single stat call for a resource of a service.
	StatRequest struct {
		DomainID string
		Resource string
		Query    map[string]any
	}

	// Source is a backend service exposing stat over its resources.
	Source interface {
		Stat(context.Context, *StatRequest) (RecordStream, error)
		Close()
	}

	// ResourceChecker is an optional interface for sources which know which
	// resources support stat.
	ResourceChecker interface {
		SupportsResource(resource string) bool
	}

	// SourceLookup resolves a service name to a connected source. Unknown
	// services are reported with ErrServiceNotFound.
	SourceLookup interface {
		Lookup(ctx context.Context, service string) (Source, error)
	}
)

// Service is a configured stat source which connects on first use. It is
// safe for concurrent use.
type Service struct {
	params           *ServiceParams
	unexpandedParams *ServiceParams
	adapter          Adapter

	once   sync.Once
	source Source
	err    error
}

func NewService(params *ServiceParams, adapter Adapter) *Service {
	return &Service{
		params:           params.Expand(),
		unexpandedParams: params,
		adapter:          adapter,
	}
}

func (s *Service) GetName() string {
	return s.params.Name
}

func (s *Service) GetURL() string {
	return s.params.URL
}

// GetParams returns the original configuration of the service.
func (s *Service) GetParams() *ServiceParams {
	return s.unexpandedParams
}

// Source returns the connected source, connecting on the first call. A
// failed connect is remembered and returned to every caller.
func (s *Service) Source() (Source, error) {
	s.once.Do(func() {
		src, err := s.adapter.Connect(s.params.URL)
		if err != nil {
			s.err = fmt.Errorf("adapter.Connect: %w", err)
			return
		}
		if len(s.params.Resources) > 0 {
			src = &restrictedSource{Source: src, allowed: s.params.Resources}
		}
		s.source = src
	})

	return s.source, s.err
}

// Close closes the source if it was ever connected.
func (s *Service) Close() {
	s.once.Do(func() {
		s.err = errors.New("service closed")
	})
	if s.source != nil {
		s.source.Close()
	}
}

// restrictedSource limits stat to an allow-list of resources.
type restrictedSource struct {
	Source
	allowed []string
}

var (
	_ ResourceChecker = (*restrictedSource)(nil)
	_ Source          = (*restrictedSource)(nil)
)

func (s *restrictedSource) SupportsResource(resource string) bool {
	for _, a := range s.allowed {
		if strings.EqualFold(a, resource) {
			if checker, ok := s.Source.(ResourceChecker); ok {
				return checker.SupportsResource(resource)
			}
			return true
		}
	}
	return false
}
