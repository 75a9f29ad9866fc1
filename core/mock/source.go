package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/kndndrj/statpipe/core"
)

var (
	_ core.Source          = (*Source)(nil)
	_ core.ResourceChecker = (*Source)(nil)
)

// Source is an in-memory stat source serving fixed records per resource.
type Source struct {
	config *sourceConfig

	mu     sync.Mutex
	calls  []*core.StatRequest
	closed bool
}

func NewSource(opts ...SourceOption) *Source {
	config := &sourceConfig{
		records:           make(map[string][]core.Record),
		statSideEffects:   make(map[string]func(context.Context, *core.StatRequest) error),
		recordStreamOpts:  make(map[string][]RecordStreamOption),
		declaredResources: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(config)
	}

	return &Source{
		config: config,
	}
}

func (s *Source) Stat(ctx context.Context, req *core.StatRequest) (core.RecordStream, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	eff, ok := s.config.statSideEffects[req.Resource]
	if ok {
		err := eff(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("side effect error: %w", err)
		}
	}

	return NewRecordStream(s.config.records[req.Resource], s.config.recordStreamOpts[req.Resource]...), nil
}

// SupportsResource reports whether records or a side effect were registered
// for the resource. Sources built without any resources support all.
func (s *Source) SupportsResource(resource string) bool {
	if len(s.config.declaredResources) == 0 {
		return true
	}
	return s.config.declaredResources[resource]
}

func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Calls returns all stat requests received so far.
func (s *Source) Calls() []*core.StatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*core.StatRequest, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Source) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
