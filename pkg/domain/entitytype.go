package domain

import (
	"fmt"

	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
)

type EntityType string

const (
	Project  EntityType = "project"
	Artifact EntityType = "artifact"
	Dataitem EntityType = "dataitem"
	Model    EntityType = "model"
	Secret   EntityType = "secret"
	Function EntityType = "function"
	Workflow EntityType = "workflow"
	Task     EntityType = "task"
	Run      EntityType = "run"
)

func (et EntityType) String() string {
	return string(et)
}

// Plural is the form used in API paths ("runs").
func (et EntityType) Plural() string {
	return string(et) + "s"
}

// IsExecutable reports whether tasks and runs can be made from entities of this type.
func (et EntityType) IsExecutable() bool {
	switch et {
	case Function, Workflow:
		return true
	default:
		return false
	}
}

func (et EntityType) IsMaterial() bool {
	switch et {
	case Artifact, Dataitem, Model:
		return true
	default:
		return false
	}
}

// Unnamed reports whether entities of this type are identified by id only.
func (et EntityType) Unnamed() bool {
	return et == Task || et == Run
}

// Versioned entities keep every saved version; others have a single version per name.
func (et EntityType) Versioned() bool {
	switch et {
	case Artifact, Dataitem, Model, Secret, Function, Workflow:
		return true
	default:
		return false
	}
}

// EntityTypes lists all types in the order projects enumerate their content.
func EntityTypes() []EntityType {
	return []EntityType{
		Artifact, Dataitem, Model, Function, Workflow, Secret, Task, Run,
	}
}

// EmbeddedTypes are the types a project spec lists.
func EmbeddedTypes() []EntityType {
	return []EntityType{Artifact, Dataitem, Model, Function, Workflow}
}

func AsEntityType(s string) (EntityType, error) {
	switch et := EntityType(s); et {
	case Project, Artifact, Dataitem, Model, Secret, Function, Workflow, Task, Run:
		return et, nil
	}
	// plural form is accepted, as it appears in API paths.
	if n := len(s); 1 < n && s[n-1] == 's' {
		switch et := EntityType(s[:n-1]); et {
		case Project, Artifact, Dataitem, Model, Secret, Function, Workflow, Task, Run:
			return et, nil
		}
	}
	return "", fmt.Errorf("%w: '%s' is not an entity type", dherr.ErrValidation, s)
}
