package mock

import (
	"context"
	"fmt"

	"github.com/kndndrj/statpipe/core"
)

var _ core.Adapter = (*Adapter)(nil)

// Adapter hands out registered sources by url.
type Adapter struct {
	sources map[string]core.Source
}

func NewAdapter(sources map[string]core.Source) *Adapter {
	return &Adapter{
		sources: sources,
	}
}

func (a *Adapter) Connect(url string) (core.Source, error) {
	src, ok := a.sources[url]
	if !ok {
		return nil, core.NewConnectorConfigurationError("mock", fmt.Sprintf("no source for url %q", url))
	}
	return src, nil
}

var _ core.SourceLookup = (Lookup)(nil)

// Lookup is a static service name to source mapping.
type Lookup map[string]core.Source

func (l Lookup) Lookup(_ context.Context, service string) (core.Source, error) {
	src, ok := l[service]
	if !ok {
		return nil, core.ErrServiceNotFound
	}
	return src, nil
}
