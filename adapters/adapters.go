package adapters

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kndndrj/statpipe/core"
)

var (
	errNoValidTypeAliases   = errors.New("no valid type aliases provided")
	ErrUnsupportedTypeAlias = errors.New("no adapter registered for provided type alias")
)

// registeredAdapters holds implemented adapters - specific adapters register themselves in their init functions.
// The main reason is to be able to compile the binary without unsupported os/arch of specific drivers.
var registeredAdapters = make(map[string]core.Adapter)

// register registers a new adapter for specific url schemes
func register(adapter core.Adapter, aliases ...string) error {
	if len(aliases) < 1 {
		return errNoValidTypeAliases
	}

	invalidCount := 0
	for _, alias := range aliases {
		if alias == "" {
			invalidCount++
			continue
		}
		registeredAdapters[alias] = adapter
	}

	if invalidCount == len(aliases) {
		return errNoValidTypeAliases
	}

	return nil
}

var _ core.Adapter = (*Mux)(nil)

// Mux is an interface to all internal adapters. As an adapter itself it
// dispatches on the url scheme.
type Mux struct{}

func (*Mux) GetAdapter(typ string) (core.Adapter, error) {
	value, ok := registeredAdapters[strings.ToLower(typ)]
	if !ok {
		return nil, ErrUnsupportedTypeAlias
	}

	return value, nil
}


func (m *Mux) Connect(url string) (core.Source, error) {
	scheme := schemeOf(url)
	adapter, err := m.GetAdapter(scheme)
	if err != nil {
		return nil, core.NewConnectorConfigurationError(scheme, err.Error())
	}

	return adapter.Connect(url)
}

// schemeOf returns the part of url before "://" or an empty string.
func schemeOf(url string) string {
	scheme, _, ok := strings.Cut(url, "://")
	if !ok {
		return ""
	}
	return strings.ToLower(scheme)
}

// stripScheme returns url without its "scheme://" prefix.
func stripScheme(url string) string {
	_, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	return rest
}

// NewService is a wrapper around core.NewService that uses the internal mux
// for adapter lookup.
func NewService(params *core.ServiceParams) (*core.Service, error) {
	expanded := params.Expand()
	if expanded.URL == "" {
		return nil, core.NewConnectorConfigurationError(expanded.Name, "endpoint is empty")
	}

	mux := new(Mux)
	if _, err := mux.GetAdapter(schemeOf(expanded.URL)); err != nil {
		return nil, fmt.Errorf("Mux.GetAdapter: %w", core.NewConnectorConfigurationError(schemeOf(expanded.URL), err.Error()))
	}

	return core.NewService(params, mux), nil
}
