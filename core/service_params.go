package core

// ServiceParams configure a single stat source.
type ServiceParams struct {
	Name string
	URL  string
	// Resources optionally limits which resources may be queried.
	Resources []string
}

// Expand returns a copy of the original parameters with expanded fields
func (p *ServiceParams) Expand() *ServiceParams {
	resources := make([]string, len(p.Resources))
	for i, r := range p.Resources {
		resources[i] = expandOrDefault(r)
	}

	return &ServiceParams{
		Name:      expandOrDefault(p.Name),
		URL:       expandOrDefault(p.URL),
		Resources: resources,
	}
}
