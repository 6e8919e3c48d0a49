// Package registry maps (entity type, kind) to what implements the kind.
//
// Kinds are registered by extensions, which are installed explicitly:
//
//	reg := registry.New()
//	if err := reg.Install(base.Extension, container.Extension); err != nil {
//		...
//	}
//
// A Registry is not safe for concurrent mutation. Install everything before use.
package registry

import (
	"fmt"
	"slices"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtime"
)

// Schema is a typed spec of a kind.
type Schema interface {
	// Validate checks the entity spec which has been decoded into the Schema.
	Validate() error
}

// Descriptor describes a kind.
type Descriptor struct {
	EntityType domain.EntityType
	Kind       string

	// Schema returns a new, empty schema of the entity spec.
	//
	// When nil, any spec is accepted.
	Schema func() Schema

	// Runtime creates runtimes for this kind.
	//
	// Required for functions and workflows which can be run.
	Runtime runtime.Factory

	// Executable is the kind of function or workflow which tasks and runs of this kind execute.
	//
	// Empty for other entity types.
	Executable string

	// Action of the task kind, like "job" for "container+job".
	Action string
}

// Registry of kinds.
type Registry struct {
	kinds map[domain.EntityType]map[string]Descriptor
}

// Extension registers kinds which it provides.
type Extension func(*Registry) error

func New() *Registry {
	return &Registry{kinds: map[domain.EntityType]map[string]Descriptor{}}
}

// Install extensions in order.
//
// It stops at the first failing extension.
func (r *Registry) Install(exts ...Extension) error {
	for _, ext := range exts {
		if err := ext(r); err != nil {
			return err
		}
	}
	return nil
}

// Register a kind.
//
// # Returns
//
// - error: ErrKindAlreadyRegistered, if the pair of entity type and kind has been registered.
// ErrValidation, if the descriptor lacks entity type or kind.
func (r *Registry) Register(d Descriptor) error {
	if d.EntityType == "" || d.Kind == "" {
		return fmt.Errorf("%w: descriptor needs entity type and kind: %+v", dherr.ErrValidation, d)
	}
	byKind, ok := r.kinds[d.EntityType]
	if !ok {
		byKind = map[string]Descriptor{}
		r.kinds[d.EntityType] = byKind
	}
	if _, ok := byKind[d.Kind]; ok {
		return fmt.Errorf("%w: %s '%s'", dherr.ErrKindAlreadyRegistered, d.EntityType, d.Kind)
	}
	byKind[d.Kind] = d
	return nil
}

// Lookup the descriptor of a kind.
//
// # Returns
//
// - Descriptor
//
// - error: ErrUnknownKind, if the kind is not registered for the entity type.
func (r *Registry) Lookup(entityType domain.EntityType, kind string) (Descriptor, error) {
	d, ok := r.kinds[entityType][kind]
	if !ok {
		return Descriptor{}, dherr.NewErrUnknownKind(string(entityType), kind)
	}
	return d, nil
}

// Kinds registered for the entity type, sorted.
func (r *Registry) Kinds(entityType domain.EntityType) []string {
	kinds := make([]string, 0, len(r.kinds[entityType]))
	for k := range r.kinds[entityType] {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// executable finds the function or workflow descriptor of the executable kind.
func (r *Registry) executable(kind string) (Descriptor, error) {
	for _, et := range []domain.EntityType{domain.Function, domain.Workflow} {
		if d, ok := r.kinds[et][kind]; ok {
			return d, nil
		}
	}
	return Descriptor{}, dherr.NewErrUnknownKind("executable", kind)
}

// ExecutableType tells whether the executable kind is a function or a workflow.
func (r *Registry) ExecutableType(kind string) (domain.EntityType, error) {
	d, err := r.executable(kind)
	if err != nil {
		return "", err
	}
	return d.EntityType, nil
}

// Runtime creates a runtime for a kind of function, workflow, task or run.
//
// The runtime is chosen by the executable part of the kind ("python" for "python+job").
//
// # Returns
//
// - runtime.Runtime
//
// - error: ErrUnknownKind, if no executable kind is registered for the kind
// or it has no runtime. Otherwise, errors from the runtime factory.
func (r *Registry) Runtime(kind string, env runtime.Env) (runtime.Runtime, error) {
	exec, _ := domain.SplitKind(kind)
	d, err := r.executable(exec)
	if err != nil {
		return nil, err
	}
	if d.Runtime == nil {
		return nil, fmt.Errorf("%w: %s '%s' has no runtime", dherr.ErrUnknownKind, d.EntityType, d.Kind)
	}
	rt, err := d.Runtime(env)
	if err != nil {
		return nil, xe.WrapWithNote(fmt.Sprintf("creating runtime for %s", kind), err)
	}
	return rt, nil
}

// TaskKind returns the kind of tasks which perform action on the executable kind.
//
// # Returns
//
// - string: "<executable>+<action>"
//
// - error: ErrUnknownKind, if the task kind is not registered.
func (r *Registry) TaskKind(executable string, action string) (string, error) {
	kind := executable + "+" + action
	if _, err := r.Lookup(domain.Task, kind); err != nil {
		return "", err
	}
	return kind, nil
}

// RunKind returns the kind of runs for the executable kind.
//
// # Returns
//
// - string: "<executable>+run"
//
// - error: ErrUnknownKind, if the run kind is not registered.
func (r *Registry) RunKind(executable string) (string, error) {
	kind := executable + "+run"
	if _, err := r.Lookup(domain.Run, kind); err != nil {
		return "", err
	}
	return kind, nil
}

// Actions of tasks registered for the executable kind, sorted.
func (r *Registry) Actions(executable string) []string {
	actions := []string{}
	for _, d := range r.kinds[domain.Task] {
		if d.Executable == executable {
			actions = append(actions, d.Action)
		}
	}
	slices.Sort(actions)
	return actions
}

// ActionOf returns the action of a task kind.
//
// When the kind is not registered, the part after "+" is returned.
func (r *Registry) ActionOf(taskKind string) string {
	if d, ok := r.kinds[domain.Task][taskKind]; ok && d.Action != "" {
		return d.Action
	}
	_, action := domain.SplitKind(taskKind)
	return action
}

// ValidateSpec decodes spec into the schema of the kind and validates it.
//
// # Returns
//
// - error: ErrUnknownKind, if the kind is not registered.
// ErrValidation, if the entity spec is not valid.
func (r *Registry) ValidateSpec(entityType domain.EntityType, kind string, spec fields.Bag) error {
	d, err := r.Lookup(entityType, kind)
	if err != nil {
		return err
	}
	if d.Schema == nil {
		return nil
	}
	s := d.Schema()
	if spec == nil {
		spec = fields.Bag{}
	}
	if err := spec.Decode(s); err != nil {
		return fmt.Errorf("%w: spec of %s '%s': %s", dherr.ErrValidation, entityType, kind, err)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: spec of %s '%s': %w", dherr.ErrValidation, entityType, kind, err)
	}
	return nil
}
