package registry

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/entity"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
)

// Params are what users pass to create a new entity.
type Params struct {
	Type    domain.EntityType
	Project string
	Name    string
	Kind    string

	// ID of the entity. A new UUID is used when empty.
	ID string

	Description string
	Labels      []string
	Embedded    bool

	Spec fields.Bag

	// unknown fields, kept at top level of the entity.
	Extra fields.Bag
}

// NewID returns a new entity id.
func NewID() string {
	return uuid.NewString()
}

// BuildFromParams creates a new entity of the kind.
//
// The entity spec is always validated.
//
// # Returns
//
// - *entity.Entity: a new entity in CREATED state. It is not saved yet.
//
// - error: ErrUnknownKind, if the kind is not registered. ErrValidation for invalid params or spec.
func (r *Registry) BuildFromParams(p Params) (*entity.Entity, error) {
	d, err := r.Lookup(p.Type, p.Kind)
	if err != nil {
		return nil, err
	}

	spec := p.Spec.Clone()
	if spec == nil {
		spec = fields.Bag{}
	}
	if err := r.ValidateSpec(p.Type, p.Kind, spec); err != nil {
		return nil, err
	}
	if err := r.checkExecutable(d, spec); err != nil {
		return nil, err
	}

	e := &entity.Entity{
		Type:    p.Type,
		Project: p.Project,
		Name:    p.Name,
		ID:      p.ID,
		Kind:    p.Kind,
		Spec:    spec,
		Status:  entity.Status{State: domain.Created},
		Extra:   p.Extra.Clone(),
		Metadata: entity.Metadata{
			Description: p.Description,
			Labels:      p.Labels,
			Embedded:    p.Embedded,
		},
	}
	if err := fillIdentity(e); err != nil {
		return nil, err
	}
	return e, nil
}

// BuildFromDict reads an entity from its dictionary form, like what clients return.
//
// When validate is false, the entity spec is trusted and not validated.
// Missing id is filled with a new UUID, and missing timestamps with now.
//
// # Args
//
// - entityType: the entity type. When empty, it is read from "key" of b.
//
// - b: dictionary of the entity.
//
// - validate: validate the entity spec or not.
//
// # Returns
//
// - *entity.Entity
//
// - error: ErrUnknownKind, if the kind is not registered.
// ErrValidation, if b is not an entity or validation fails.
func (r *Registry) BuildFromDict(entityType domain.EntityType, b fields.Bag, validate bool) (*entity.Entity, error) {
	if entityType == "" {
		et, ok := entity.EntityTypeOf(b)
		if !ok {
			return nil, fmt.Errorf("%w: entity type is unknown, and dictionary has no key", dherr.ErrValidation)
		}
		entityType = et
	}

	e, err := entity.FromDict(entityType, b)
	if err != nil {
		return nil, err
	}
	d, err := r.Lookup(entityType, e.Kind)
	if err != nil {
		return nil, err
	}
	if validate {
		if err := r.ValidateSpec(entityType, e.Kind, e.Spec); err != nil {
			return nil, err
		}
		if err := r.checkExecutable(d, e.Spec); err != nil {
			return nil, err
		}
	}
	if e.Status.State == "" {
		e.Status.State = domain.Created
	}
	if err := fillIdentity(e); err != nil {
		return nil, err
	}
	return e, nil
}

// fillIdentity sets id, key and metadata defaults of e.
func fillIdentity(e *entity.Entity) error {
	if e.Type == domain.Project {
		if e.Name == "" {
			return fmt.Errorf("%w: project has no name", dherr.ErrValidation)
		}
		e.ID = e.Name
		e.Project = e.Name
	} else {
		if e.Project == "" {
			return fmt.Errorf("%w: %s has no project", dherr.ErrValidation, e.Type)
		}
		if !e.Type.Unnamed() && e.Name == "" {
			return fmt.Errorf("%w: %s has no name", dherr.ErrValidation, e.Type)
		}
		if e.ID == "" {
			e.ID = NewID()
		}
	}

	m := &e.Metadata
	if m.Project == "" {
		m.Project = e.Project
	}
	if m.Name == "" {
		m.Name = e.Name
		if e.Type.Unnamed() {
			m.Name = e.ID
		}
	}
	if m.Version == "" && e.Type.Versioned() {
		m.Version = e.ID
	}
	now := entity.Now()
	if m.Created == "" {
		m.Created = now
	}
	if m.Updated == "" {
		m.Updated = m.Created
	}

	if e.Key == "" {
		e.Key = e.BuildKey()
	}
	return nil
}

// checkExecutable checks that tasks reference functions, and runs reference tasks,
// of the same executable kind.
func (r *Registry) checkExecutable(d Descriptor, spec fields.Bag) error {
	var ref string
	switch d.EntityType {
	case domain.Task:
		ref = spec.Str("function")
		if ref == "" {
			ref = spec.Str("workflow")
		}
	case domain.Run:
		ref = spec.Str("task")
	default:
		return nil
	}
	if ref == "" {
		return fmt.Errorf("%w: %s '%s' has no reference to what it executes", dherr.ErrValidation, d.EntityType, d.Kind)
	}
	x, err := domain.ParseExecutableString(ref)
	if err != nil {
		// plain id or name of task; resolved on run.
		return nil
	}
	exec, _ := domain.SplitKind(x.Kind)
	if d.Executable != "" && exec != d.Executable {
		return fmt.Errorf(
			"%w: %s '%s' cannot execute '%s'", dherr.ErrEntityTypeMismatch, d.EntityType, d.Kind, ref,
		)
	}
	return nil
}
