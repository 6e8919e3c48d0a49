// Package entity defines the typed core of every entity and its dictionary form.
package entity

import (
	"fmt"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
)

// Entity is a record managed by the platform.
//
// Spec is kind specific, and validated by the schema registered for the kind.
// Top-level fields unknown to Entity are kept in Extra.
type Entity struct {
	Type    domain.EntityType
	Project string
	Name    string
	ID      string
	Kind    string
	Key     string
	User    string

	Metadata Metadata
	Spec     fields.Bag
	Status   Status

	Extra fields.Bag
}

var entityKeys = []string{
	"project", "name", "id", "kind", "key", "user", "metadata", "spec", "status",
}

// BuildKey derives the key from identity fields.
func (e *Entity) BuildKey() string {
	if e.Type == domain.Project {
		return domain.BuildProjectKey(e.Name)
	}
	return domain.BuildKey(e.Project, e.Type, e.Kind, e.Name, e.ID)
}

// ExecutableString is the reference tasks hold to this function or workflow.
func (e *Entity) ExecutableString() string {
	return domain.BuildExecutableString(e.Kind, e.Project, e.Name, e.ID)
}

// TaskString is the reference runs hold to this task.
func (e *Entity) TaskString() string {
	return domain.BuildTaskString(e.Kind, e.Project, e.ID)
}

// State is a shortcut for Status.State.
func (e *Entity) State() domain.State {
	return e.Status.State
}

func (e *Entity) AddRelationship(rel domain.Relationship, dest string) {
	for _, r := range e.Metadata.Relationships {
		if r.Type == string(rel) && r.Dest == dest {
			return
		}
	}
	e.Metadata.Relationships = append(
		e.Metadata.Relationships,
		Relationship{Type: string(rel), Dest: dest},
	)
}

func (e *Entity) String() string {
	if e == nil {
		return "(nil)"
	}
	return e.Key
}

// ToDict converts the entity into its dictionary form, which clients exchange.
func (e *Entity) ToDict() fields.Bag {
	out := fields.Bag{}
	for k, v := range e.Extra {
		out[k] = v
	}
	if e.Type != domain.Project {
		out["project"] = e.Project
	}
	out["name"] = e.Name
	out["id"] = e.ID
	out["kind"] = e.Kind
	out["key"] = e.Key
	if e.User != "" {
		out["user"] = e.User
	}
	out["metadata"] = map[string]any(e.Metadata.ToDict())
	spec := e.Spec.Clone()
	if spec == nil {
		spec = fields.Bag{}
	}
	out["spec"] = map[string]any(spec)
	out["status"] = map[string]any(e.Status.ToDict())
	return out
}

// FromDict reads an entity of the type from its dictionary form.
//
// Only the structure is checked here: kind is required, and names are required except for
// tasks and runs. Spec is not validated; see registry.BuildFromDict for that.
//
// Missing key is derived from identity fields.
func FromDict(entityType domain.EntityType, b fields.Bag) (*Entity, error) {
	kind := b.Str("kind")
	if kind == "" {
		return nil, fmt.Errorf("%w: %s has no kind", dherr.ErrValidation, entityType)
	}

	e := &Entity{
		Type:     entityType,
		Project:  b.Str("project"),
		Name:     b.Str("name"),
		ID:       b.Str("id"),
		Kind:     kind,
		Key:      b.Str("key"),
		User:     b.Str("user"),
		Metadata: MetadataFromDict(b.Map("metadata")),
		Spec:     b.Map("spec").Clone(),
		Status:   StatusFromDict(b.Map("status")),
	}
	if e.Spec == nil {
		e.Spec = fields.Bag{}
	}

	if entityType == domain.Project {
		if e.Name == "" {
			e.Name = e.ID
		}
		e.ID = e.Name
		e.Project = e.Name
	}
	if !entityType.Unnamed() && e.Name == "" {
		return nil, fmt.Errorf("%w: %s has no name", dherr.ErrValidation, entityType)
	}
	if e.Project == "" {
		e.Project = e.Metadata.Project
	}
	if e.Key == "" && e.ID != "" {
		e.Key = e.BuildKey()
	}

	if extra := b.Without(entityKeys...); len(extra) != 0 {
		e.Extra = extra.Clone()
	}
	return e, nil
}

// EntityTypeOf guesses the entity type of a dictionary from its key.
func EntityTypeOf(b fields.Bag) (domain.EntityType, bool) {
	key := b.Str("key")
	if key == "" {
		return "", false
	}
	k, err := domain.ParseKey(key)
	if err != nil {
		return "", false
	}
	return k.EntityType, true
}

// Replace takes all fields of other, as the backend is authoritative after writes.
//
// Type is kept.
func (e *Entity) Replace(other *Entity) {
	t := e.Type
	*e = *other
	e.Type = t
}
