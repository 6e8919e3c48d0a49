package sdk

import (
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
)

// Params are fields of a new entity.
type Params struct {
	Name string
	Kind string

	// ID of the entity. Empty for a new one.
	ID string

	Description string
	Labels      []string
	Embedded    bool

	// Spec is kind specific. It is validated against the schema of Kind.
	Spec fields.Bag

	Extra fields.Bag
}

func (p Params) registryParams() registry.Params {
	return registry.Params{
		Name:        p.Name,
		Kind:        p.Kind,
		ID:          p.ID,
		Description: p.Description,
		Labels:      p.Labels,
		Embedded:    p.Embedded,
		Spec:        p.Spec,
		Extra:       p.Extra,
	}
}
