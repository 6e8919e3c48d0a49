package domain

import (
	"fmt"
	"strings"

	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
)

const KeyScheme = "store://"

// Key is a parsed entity key.
type Key struct {
	Project    string
	EntityType EntityType
	Kind       string

	// empty for tasks and runs.
	Name string

	ID string
}

// String formats the key back.
func (k Key) String() string {
	if k.EntityType == Project || k.EntityType == "" {
		return BuildProjectKey(k.Project)
	}
	return BuildKey(k.Project, k.EntityType, k.Kind, k.Name, k.ID)
}

// BuildKey builds an entity key.
//
// For tasks and runs name is ignored:
//
//	store://{project}/{entity_type}/{kind}/{id}
//
// and for others:
//
//	store://{project}/{entity_type}/{kind}/{name}:{id}
func BuildKey(project string, entityType EntityType, kind string, name string, id string) string {
	if entityType.Unnamed() {
		return fmt.Sprintf("%s%s/%s/%s/%s", KeyScheme, project, entityType, kind, id)
	}
	return fmt.Sprintf("%s%s/%s/%s/%s:%s", KeyScheme, project, entityType, kind, name, id)
}

func BuildProjectKey(name string) string {
	return KeyScheme + name
}

// IsKey reports whether s looks like an entity key.
func IsKey(s string) bool {
	return strings.HasPrefix(s, KeyScheme)
}

// ParseKey parses an entity key.
//
// # Returns
//
// - Key
//
// - error: ErrInvalidKey, if s is not an entity key.
func ParseKey(s string) (Key, error) {
	if !IsKey(s) {
		return Key{}, fmt.Errorf("%w: '%s' does not start with %s", dherr.ErrInvalidKey, s, KeyScheme)
	}
	body := strings.TrimPrefix(s, KeyScheme)
	parts := strings.Split(body, "/")

	if len(parts) == 1 {
		if parts[0] == "" {
			return Key{}, fmt.Errorf("%w: '%s' has no project", dherr.ErrInvalidKey, s)
		}
		return Key{Project: parts[0], EntityType: Project, Kind: string(Project), Name: parts[0], ID: parts[0]}, nil
	}
	if len(parts) != 4 {
		return Key{}, fmt.Errorf(
			"%w: '%s' should be %s{project}/{entity_type}/{kind}/{name}:{id}",
			dherr.ErrInvalidKey, s, KeyScheme,
		)
	}

	et, err := AsEntityType(parts[1])
	if err != nil {
		return Key{}, fmt.Errorf("%w: %s", dherr.ErrInvalidKey, err)
	}

	k := Key{Project: parts[0], EntityType: et, Kind: parts[2]}
	if et.Unnamed() {
		k.ID = parts[3]
	} else {
		name, id, ok := strings.Cut(parts[3], ":")
		if !ok {
			// key without version points the latest.
			name, id = parts[3], ""
		}
		k.Name, k.ID = name, id
	}

	if k.Project == "" || k.Kind == "" || (k.Name == "" && k.ID == "") {
		return Key{}, fmt.Errorf("%w: '%s' has empty part", dherr.ErrInvalidKey, s)
	}
	return k, nil
}

// Executable is a reference to a function or a workflow, which tasks and runs hold in spec.
//
//	{kind}://{project}/{name}:{id}
//
// or, for tasks,
//
//	{kind}://{project}/{id}
type Executable struct {
	Kind    string
	Project string
	Name    string
	ID      string
}

func (e Executable) String() string {
	if e.Name == "" {
		return fmt.Sprintf("%s://%s/%s", e.Kind, e.Project, e.ID)
	}
	return fmt.Sprintf("%s://%s/%s:%s", e.Kind, e.Project, e.Name, e.ID)
}

func BuildExecutableString(kind string, project string, name string, id string) string {
	return Executable{Kind: kind, Project: project, Name: name, ID: id}.String()
}

func BuildTaskString(kind string, project string, id string) string {
	return Executable{Kind: kind, Project: project, ID: id}.String()
}

// ParseExecutableString parses what BuildExecutableString or BuildTaskString has built.
func ParseExecutableString(s string) (Executable, error) {
	kind, rest, ok := strings.Cut(s, "://")
	if !ok || kind == "" {
		return Executable{}, fmt.Errorf("%w: '%s' is not {kind}://{project}/...", dherr.ErrInvalidKey, s)
	}
	project, ref, ok := strings.Cut(rest, "/")
	if !ok || project == "" || ref == "" {
		return Executable{}, fmt.Errorf("%w: '%s' has no project or reference", dherr.ErrInvalidKey, s)
	}
	name, id, named := strings.Cut(ref, ":")
	if !named {
		return Executable{Kind: kind, Project: project, ID: ref}, nil
	}
	return Executable{Kind: kind, Project: project, Name: name, ID: id}, nil
}

// SplitKind splits a task or run kind "<executable-kind>+<action>".
//
// For kinds without action, action is empty.
func SplitKind(kind string) (executable string, action string) {
	executable, action, _ = strings.Cut(kind, "+")
	return executable, action
}

// Relationship between entities, recorded in metadata.
type Relationship string

const (
	ProducedBy Relationship = "produced_by"
	Consumes   Relationship = "consumes"
	RunOf      Relationship = "run_of"
)
