package sdk

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/entity"
	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/projctx"
)

// Object is an entity bound to the SDK which it is read or created with.
type Object struct {
	*entity.Entity
	sdk *SDK
}

func (o *Object) object() *Object {
	return o
}

func (o *Object) context() (*projctx.Context, error) {
	return o.sdk.Context(o.Project)
}

// Save the entity into the backend.
//
// The entity is replaced with what the backend responds.
//
// # Args
//
// - context.Context
//
// - bool: false to create, true to update. Updating refreshes metadata.updated.
//
// # Returns
//
// - error: ErrEntityAlreadyExists, if creating existing one. ErrEntityNotExists, if updating missing one.
// ErrContextNotFound, if the project has no context.
func (o *Object) Save(ctx context.Context, update bool) error {
	return o.save(ctx, update, (*entity.Entity).ToDict)
}

func (o *Object) save(ctx context.Context, update bool, dict func(*entity.Entity) fields.Bag) error {
	pc, err := o.context()
	if err != nil {
		return err
	}
	var resp fields.Bag
	if update {
		o.Metadata.Updated = entity.Now()
		resp, err = pc.Update(ctx, o.Type, o.ID, dict(o.Entity))
	} else {
		resp, err = pc.Create(ctx, o.Type, dict(o.Entity))
	}
	if err != nil {
		return err
	}
	return o.replace(resp)
}

// Refresh the entity with the backend.
func (o *Object) Refresh(ctx context.Context) error {
	pc, err := o.context()
	if err != nil {
		return err
	}
	resp, err := pc.Read(ctx, o.Type, o.ID)
	if err != nil {
		return err
	}
	return o.replace(resp)
}

// replace fields with the dictionary from the backend. Empty response leaves the entity as is.
func (o *Object) replace(resp fields.Bag) error {
	if len(resp) == 0 {
		return nil
	}
	e, err := o.sdk.Registry.BuildFromDict(o.Type, resp, false)
	if err != nil {
		return err
	}
	o.Entity.Replace(e)
	return nil
}

// Export the entity into a YAML file in dir.
//
// # Returns
//
// - string: path of the file.
//
// - error
func (o *Object) Export(dir string) (string, error) {
	return entity.Export(dir, o.Entity)
}

// DeleteOptions controls deletion.
type DeleteOptions struct {
	// AllVersions deletes every version having the same name.
	AllVersions bool

	// Cascade deletes dependents, like tasks of a function.
	Cascade bool
}

func (d DeleteOptions) params() client.Params {
	return client.Params{"cascade": strconv.FormatBool(d.Cascade)}
}

// Delete the entity from the backend.
func (o *Object) Delete(ctx context.Context, opts DeleteOptions) (fields.Bag, error) {
	pc, err := o.context()
	if err != nil {
		return nil, err
	}
	if opts.AllVersions && !o.Type.Unnamed() {
		return pc.DeleteAll(ctx, o.Type, o.Name, opts.params())
	}
	return pc.Delete(ctx, o.Type, o.ID, opts.params())
}

// reference is where an entity is: a name (with optional id), an id, or a key.
type reference struct {
	name string
	id   string
}

// resolveRef reads ref as a key or a name.
//
// Tasks and runs have no name, so they are referred by key or id.
func resolveRef(project string, et domain.EntityType, ref string, id string) (reference, error) {
	if domain.IsKey(ref) {
		k, err := domain.ParseKey(ref)
		if err != nil {
			return reference{}, err
		}
		if k.EntityType != et {
			return reference{}, fmt.Errorf("%w: %s is not %s", dherr.ErrEntityTypeMismatch, ref, et)
		}
		if k.Project != project {
			return reference{}, fmt.Errorf("%w: %s is not in project %s", dherr.ErrInvalidKey, ref, project)
		}
		if id == "" {
			id = k.ID
		}
		return reference{name: k.Name, id: id}, nil
	}
	if et.Unnamed() {
		if id != "" {
			return reference{id: id}, nil
		}
		return reference{}, fmt.Errorf(
			"%w: %s should be referred by key (%s{project}/%s/...) or id, not by name '%s'",
			dherr.ErrInvalidKey, et, domain.KeyScheme, et, ref,
		)
	}
	if ref == "" {
		return reference{}, fmt.Errorf("%w: %s has empty name", dherr.ErrInvalidKey, et)
	}
	return reference{name: ref, id: id}, nil
}

// read an entity by id, or the latest one by name when id is empty.
func read(ctx context.Context, pc *projctx.Context, et domain.EntityType, name string, id string) (fields.Bag, error) {
	if id != "" {
		return pc.Read(ctx, et, id)
	}
	found, err := pc.List(ctx, et, client.Params{"name": name})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, dherr.NewBackendError(
			dherr.ErrEntityNotExists, "read "+string(et), fmt.Sprintf("no %s named '%s'", et, name), nil,
		)
	}
	return found[0], nil
}

// wrapper is an Object specialized for an entity family.
type wrapper interface {
	object() *Object
}

// Family is operations over entities of a type in a project.
type Family[T wrapper] struct {
	project *Project
	et      domain.EntityType
	wrap    func(Object) T
}

func (f Family[T]) sdk() *SDK {
	return f.project.sdk
}

func (f Family[T]) build(b fields.Bag) (T, error) {
	e, err := f.sdk().Registry.BuildFromDict(f.et, b, false)
	if err != nil {
		var zero T
		return zero, err
	}
	return f.wrap(Object{Entity: e, sdk: f.sdk()}), nil
}

// New creates a new entity and saves it.
//
// p.Type and p.Project are set by the family.
//
// # Returns
//
// - T: the saved entity.
//
// - error: ErrUnknownKind, ErrValidation for invalid params. Backend errors while saving.
func (f Family[T]) New(ctx context.Context, p Params) (T, error) {
	var zero T
	obj, err := f.newUnsaved(p)
	if err != nil {
		return zero, err
	}
	if err := obj.object().Save(ctx, false); err != nil {
		return zero, err
	}
	return obj, nil
}

func (f Family[T]) newUnsaved(p Params) (T, error) {
	var zero T
	rp := p.registryParams()
	rp.Type = f.et
	rp.Project = f.project.Name
	e, err := f.sdk().Registry.BuildFromParams(rp)
	if err != nil {
		return zero, err
	}
	if pc, err := f.sdk().Context(f.project.Name); err == nil && pc.Running() && f.et.IsMaterial() {
		if pc.RegisterLogged(e.Name, e.Key) {
			e.AddRelationship(domain.ProducedBy, pc.RunKey)
		}
	}
	return f.wrap(Object{Entity: e, sdk: f.sdk()}), nil
}

// Get an entity.
//
// # Args
//
// - context.Context
//
// - ref: key (store://...) or name. Tasks and runs take key or id.
//
// - id: id of the version. Empty for the latest version, or what the key says.
//
// # Returns
//
// - T
//
// - error: ErrInvalidKey, if ref is malformed or a name for unnamed entities. ErrEntityNotExists.
func (f Family[T]) Get(ctx context.Context, ref string, id string) (T, error) {
	var zero T
	pc, err := f.sdk().Context(f.project.Name)
	if err != nil {
		return zero, err
	}
	if f.et.Unnamed() && !domain.IsKey(ref) && id == "" {
		id = ref
	}
	r, err := resolveRef(f.project.Name, f.et, ref, id)
	if err != nil {
		return zero, err
	}
	resp, err := read(ctx, pc, f.et, r.name, r.id)
	if err != nil {
		return zero, err
	}
	return f.build(resp)
}

// Versions lists all versions of the named entity.
func (f Family[T]) Versions(ctx context.Context, ref string) ([]T, error) {
	if f.et.Unnamed() {
		return nil, fmt.Errorf("%w: %s has no versions", dherr.ErrEntityTypeMismatch, f.et)
	}
	r, err := resolveRef(f.project.Name, f.et, ref, "")
	if err != nil {
		return nil, err
	}
	return f.List(ctx, client.Params{"name": r.name, "versions": "all"})
}

// List entities. params are filters, like "kind", "state" or "function".
func (f Family[T]) List(ctx context.Context, params client.Params) ([]T, error) {
	pc, err := f.sdk().Context(f.project.Name)
	if err != nil {
		return nil, err
	}
	found, err := pc.List(ctx, f.et, params)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(found))
	for _, b := range found {
		obj, err := f.build(b)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// Update saves the modified entity.
func (f Family[T]) Update(ctx context.Context, obj T) (T, error) {
	if err := obj.object().Save(ctx, true); err != nil {
		var zero T
		return zero, err
	}
	return obj, nil
}

// Delete an entity.
//
// # Args
//
// - context.Context
//
// - ref: key or name. Tasks and runs take key only, unless id is given.
//
// - id: id of the version. Required unless ref is key or opts.AllVersions.
//
// - DeleteOptions
//
// # Returns
//
// - fields.Bag: response of the backend.
//
// - error: ErrInvalidKey, if ref is a name of task or run, or version is not specified.
// Errors of cascaded deletions are joined.
func (f Family[T]) Delete(ctx context.Context, ref string, id string, opts DeleteOptions) (fields.Bag, error) {
	pc, err := f.sdk().Context(f.project.Name)
	if err != nil {
		return nil, err
	}
	r, err := resolveRef(f.project.Name, f.et, ref, id)
	if err != nil {
		return nil, err
	}

	all := opts.AllVersions && !f.et.Unnamed()
	if !all && r.id == "" {
		return nil, fmt.Errorf(
			"%w: deleting %s '%s' needs an id, a versioned key or AllVersions", dherr.ErrInvalidKey, f.et, ref,
		)
	}

	var cascaded error
	if opts.Cascade && pc.Local() {
		if err := f.exists(ctx, pc, r, all); err != nil {
			return nil, err
		}
		cascaded = f.cascade(ctx, pc, r, opts)
	}

	var resp fields.Bag
	if all {
		resp, err = pc.DeleteAll(ctx, f.et, r.name, opts.params())
	} else {
		resp, err = pc.Delete(ctx, f.et, r.id, opts.params())
	}
	if err != nil {
		return nil, errors.Join(err, cascaded)
	}
	return resp, cascaded
}

// exists fails with ErrEntityNotExists unless the entity to be deleted is there.
func (f Family[T]) exists(ctx context.Context, pc *projctx.Context, r reference, all bool) error {
	if all {
		found, err := pc.List(ctx, f.et, client.Params{"name": r.name, "versions": "all"})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return fmt.Errorf("%w: %s '%s'", dherr.ErrEntityNotExists, f.et, r.name)
		}
		return nil
	}
	e, err := pc.Read(ctx, f.et, r.id)
	if err != nil {
		return err
	}
	if r.name != "" && e.Str("name") != r.name {
		return fmt.Errorf("%w: %s '%s' with id %s", dherr.ErrEntityNotExists, f.et, r.name, r.id)
	}
	return nil
}

// cascade deletes dependents which the local backend does not remove by itself:
// tasks of functions and workflows, and runs of tasks.
func (f Family[T]) cascade(ctx context.Context, pc *projctx.Context, r reference, opts DeleteOptions) error {
	var errs []error
	switch {
	case f.et.IsExecutable():
		var versions []fields.Bag
		if opts.AllVersions {
			vs, err := pc.List(ctx, f.et, client.Params{"name": r.name, "versions": "all"})
			if err != nil {
				return err
			}
			versions = vs
		} else if r.id != "" {
			v, err := pc.Read(ctx, f.et, r.id)
			if err != nil {
				return err
			}
			versions = append(versions, v)
		}

		tasks := Family[*Task]{project: f.project, et: domain.Task, wrap: wrapTask}
		for _, v := range versions {
			ref := domain.BuildExecutableString(v.Str("kind"), f.project.Name, v.Str("name"), v.Str("id"))
			found, err := pc.List(ctx, domain.Task, client.Params{string(f.et): ref})
			if err != nil {
				return err
			}
			for _, t := range found {
				if _, err := tasks.Delete(ctx, "", t.Str("id"), DeleteOptions{Cascade: true}); err != nil {
					errs = append(errs, xe.WrapWithNote("cascading to task "+t.Str("id"), err))
				}
			}
		}
	case f.et == domain.Task && r.id != "":
		t, err := pc.Read(ctx, domain.Task, r.id)
		if err != nil {
			return err
		}
		ref := domain.BuildTaskString(t.Str("kind"), f.project.Name, r.id)
		runs, err := pc.List(ctx, domain.Run, client.Params{"task": ref})
		if err != nil {
			return err
		}
		for _, run := range runs {
			if _, err := pc.Delete(ctx, domain.Run, run.Str("id"), nil); err != nil {
				errs = append(errs, xe.WrapWithNote("cascading to run "+run.Str("id"), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Import reads an entity from a YAML file and creates it.
//
// # Args
//
// - context.Context
//
// - path: YAML file. Documents following the first are tasks of the executable.
//
// - resetID: discards the id in the file, to create a new version.
//
// # Returns
//
// - T
//
// - error: ErrEntityAlreadyExists (as entity error), if it has been created. Use Load to update.
func (f Family[T]) Import(ctx context.Context, path string, resetID bool) (T, error) {
	var zero T
	obj, rest, err := f.readFile(path)
	if err != nil {
		return zero, err
	}
	o := obj.object()
	o.Status = entity.Status{State: domain.Created}
	if resetID {
		o.ID = ""
		o.Key = ""
		o.Metadata.Version = ""
		e, err := f.sdk().Registry.BuildFromDict(f.et, o.ToDict(), false)
		if err != nil {
			return zero, err
		}
		o.Entity = e
	}
	if err := o.Save(ctx, false); err != nil {
		if errors.Is(err, dherr.ErrEntityAlreadyExists) {
			return zero, fmt.Errorf(
				"%w: %s '%s' already exists. If you want to update it, use Load instead: %w",
				dherr.ErrEntity, f.et, o.Name, err,
			)
		}
		return zero, err
	}
	if err := f.importDependents(ctx, o, rest); err != nil {
		return zero, err
	}
	return obj, nil
}

// Load reads an entity from a YAML file and updates it, or creates when missing.
func (f Family[T]) Load(ctx context.Context, path string) (T, error) {
	var zero T
	obj, rest, err := f.readFile(path)
	if err != nil {
		return zero, err
	}
	o := obj.object()
	if err := o.Save(ctx, true); err != nil {
		if !errors.Is(err, dherr.ErrEntityNotExists) {
			return zero, err
		}
		if err := o.Save(ctx, false); err != nil {
			return zero, err
		}
	}
	if err := f.importDependents(ctx, o, rest); err != nil {
		return zero, err
	}
	return obj, nil
}

func (f Family[T]) readFile(path string) (T, []fields.Bag, error) {
	var zero T
	docs, err := entity.ReadYAML(path)
	if err != nil {
		return zero, nil, err
	}
	if len(docs) == 0 {
		return zero, nil, fmt.Errorf("%w: %s has no entity", dherr.ErrValidation, path)
	}
	head := docs[0].Clone()
	head["project"] = f.project.Name
	obj, err := f.build(head)
	if err != nil {
		return zero, nil, err
	}
	return obj, docs[1:], nil
}

// importDependents saves tasks following an executable in a file. Existing ones are kept.
func (f Family[T]) importDependents(ctx context.Context, o *Object, docs []fields.Bag) error {
	if !f.et.IsExecutable() {
		return nil
	}
	ref := o.ExecutableString()
	for _, d := range docs {
		d = d.Clone()
		d["project"] = f.project.Name
		d["status"] = map[string]any{}
		spec := d.Map("spec")
		if spec == nil {
			spec = fields.Bag{}
		}
		spec[string(f.et)] = ref
		d["spec"] = map[string]any(spec)

		e, err := f.sdk().Registry.BuildFromDict(domain.Task, d, false)
		if err != nil {
			return err
		}
		t := &Object{Entity: e, sdk: f.sdk()}
		if err := t.Save(ctx, false); err != nil && !errors.Is(err, dherr.ErrEntityAlreadyExists) {
			return err
		}
	}
	return nil
}
