package sdk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/entity"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/projctx"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
	"github.com/scc-digitalhub/digitalhub-go/pkg/uri"
)

// DefaultContext is the local directory of projects without spec.context.
const DefaultContext = "./"

// DefaultWorkflow is what Project.Run runs without workflow name.
const DefaultWorkflow = "main"

// Project is a project bound to its context.
type Project struct {
	Object
}

// ProjectOptions are how a project is got or created.
type ProjectOptions struct {
	// Local selects the in-process backend.
	Local bool

	// Context is the local directory of project files. DefaultContext when empty.
	Context string

	// Source is URI of project sources (git+https://..., ./src, ...).
	Source string

	Description string
	Labels      []string

	// Config goes into spec.config.
	Config fields.Bag
}

func (o ProjectOptions) spec() fields.Bag {
	spec := fields.Bag{"context": DefaultContext}
	if o.Context != "" {
		spec["context"] = o.Context
	}
	if o.Source != "" {
		spec["source"] = o.Source
	}
	if o.Config != nil {
		spec["config"] = map[string]any(o.Config.Clone())
	}
	return spec
}

// ProjectDeleteOptions controls DeleteProject.
type ProjectDeleteOptions struct {
	Local bool

	// Cascade deletes every entity of the project.
	Cascade bool

	// KeepContext leaves the context of the project in the SDK.
	KeepContext bool
}

// projectDict is the dictionary of the project to be saved. Lists of contents are derived by backends.
func projectDict(e *entity.Entity) fields.Bag {
	d := e.ToDict()
	if spec := d.Map("spec"); spec != nil {
		plurals := make([]string, 0, len(domain.EmbeddedTypes()))
		for _, et := range domain.EmbeddedTypes() {
			plurals = append(plurals, et.Plural())
		}
		d["spec"] = map[string]any(spec.Without(plurals...))
	}
	return d
}

// buildContext returns the context of the project, replacing one talking to another backend
// or rooted at another directory than opts.Context.
func (s *SDK) buildContext(ctx context.Context, e *entity.Entity, cl client.Client, opts ProjectOptions) (*projctx.Context, error) {
	if pc, err := s.contexts.Get(e.Name); err == nil && pc.Client == cl && (opts.Context == "" || pc.Root == opts.Context) {
		return pc, nil
	}
	s.contexts.Remove(e.Name)

	root := opts.Context
	if root == "" {
		root = e.Spec.Str("context")
	}
	if root == "" {
		root = DefaultContext
	}
	return s.contexts.Build(ctx, e.Name, cl, root, e.Spec.Map("config"))
}

func (s *SDK) project(ctx context.Context, e *entity.Entity, cl client.Client, opts ProjectOptions) (*Project, error) {
	if _, err := s.buildContext(ctx, e, cl, opts); err != nil {
		return nil, err
	}
	return &Project{Object: Object{Entity: e, sdk: s}}, nil
}

// NewProject creates a project.
//
// # Args
//
// - context.Context
//
// - name: project name
//
// - ProjectOptions
//
// # Returns
//
// - *Project
//
// - error: ErrEntityAlreadyExists, if the project exists. ErrConfiguration, if the remote backend is not configured.
func (s *SDK) NewProject(ctx context.Context, name string, opts ProjectOptions) (*Project, error) {
	cl, err := s.Client(opts.Local)
	if err != nil {
		return nil, err
	}
	e, err := s.Registry.BuildFromParams(projectParams(name, opts))
	if err != nil {
		return nil, err
	}

	_, ctxErr := s.contexts.Get(name)
	existed := ctxErr == nil
	p, err := s.project(ctx, e, cl, opts)
	if err != nil {
		return nil, err
	}
	if err := p.Save(ctx, false); err != nil {
		if !existed {
			s.contexts.Remove(name)
		}
		return nil, err
	}
	return p, nil
}

func projectParams(name string, opts ProjectOptions) registry.Params {
	return registry.Params{
		Type:        domain.Project,
		Project:     name,
		Name:        name,
		Kind:        string(domain.Project),
		Description: opts.Description,
		Labels:      opts.Labels,
		Spec:        opts.spec(),
	}
}

// GetProject reads a project and makes its context.
//
// # Returns
//
// - *Project
//
// - error: ErrEntityNotExists, if there is no such project.
func (s *SDK) GetProject(ctx context.Context, name string, opts ProjectOptions) (*Project, error) {
	cl, err := s.Client(opts.Local)
	if err != nil {
		return nil, err
	}
	resp, err := cl.ReadObject(ctx, client.BaseAPI(domain.Project, name), nil)
	if err != nil {
		return nil, err
	}
	e, err := s.Registry.BuildFromDict(domain.Project, resp, false)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, e, cl, opts)
}

// GetOrCreateProject gets the project, or creates it if missing.
func (s *SDK) GetOrCreateProject(ctx context.Context, name string, opts ProjectOptions) (*Project, error) {
	p, err := s.GetProject(ctx, name, opts)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, dherr.ErrEntityNotExists) {
		return nil, err
	}
	return s.NewProject(ctx, name, opts)
}

// ImportProject creates a project from a YAML file, with entities listed in it.
//
// Entities not embedded are imported from files their metadata.ref points.
//
// # Args
//
// - context.Context
//
// - path: YAML file, as Project.Export writes.
//
// - ProjectOptions: Local and Context are used.
//
// - resetID: entities get new ids.
//
// # Returns
//
// - *Project
//
// - error: ErrEntity, if the project already exists. Use LoadProject to update.
func (s *SDK) ImportProject(ctx context.Context, path string, opts ProjectOptions, resetID bool) (*Project, error) {
	cl, err := s.Client(opts.Local)
	if err != nil {
		return nil, err
	}
	doc, e, err := s.readProjectFile(path)
	if err != nil {
		return nil, err
	}
	p, err := s.project(ctx, e, cl, opts)
	if err != nil {
		return nil, err
	}
	if err := p.Save(ctx, false); err != nil {
		if errors.Is(err, dherr.ErrEntityAlreadyExists) {
			return nil, fmt.Errorf(
				"%w: project '%s' already exists. If you want to update it, use LoadProject instead: %w",
				dherr.ErrEntity, e.Name, err,
			)
		}
		return nil, err
	}
	if err := p.importContents(ctx, doc, filepath.Dir(path), resetID, false); err != nil {
		return nil, err
	}
	return p, p.Refresh(ctx)
}

// LoadProject updates a project from a YAML file, or creates it when missing.
//
// Entities referred by metadata.ref are loaded too.
func (s *SDK) LoadProject(ctx context.Context, path string, opts ProjectOptions) (*Project, error) {
	cl, err := s.Client(opts.Local)
	if err != nil {
		return nil, err
	}
	doc, e, err := s.readProjectFile(path)
	if err != nil {
		return nil, err
	}
	p, err := s.project(ctx, e, cl, opts)
	if err != nil {
		return nil, err
	}
	if err := p.Save(ctx, true); err != nil {
		if !errors.Is(err, dherr.ErrEntityNotExists) {
			return nil, err
		}
		if err := p.Save(ctx, false); err != nil {
			return nil, err
		}
	}
	if err := p.importContents(ctx, doc, filepath.Dir(path), false, true); err != nil {
		return nil, err
	}
	return p, p.Refresh(ctx)
}

func (s *SDK) readProjectFile(path string) (fields.Bag, *entity.Entity, error) {
	docs, err := entity.ReadYAML(path)
	if err != nil {
		return nil, nil, err
	}
	if len(docs) == 0 {
		return nil, nil, fmt.Errorf("%w: %s has no project", dherr.ErrValidation, path)
	}
	e, err := s.Registry.BuildFromDict(domain.Project, docs[0], false)
	if err != nil {
		return nil, nil, err
	}
	return docs[0], e, nil
}

// UpdateProject saves the modified project.
func (s *SDK) UpdateProject(ctx context.Context, p *Project) (*Project, error) {
	if err := p.Save(ctx, true); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProject deletes the project from the backend.
//
// # Returns
//
// - fields.Bag: response of the backend
//
// - error
func (s *SDK) DeleteProject(ctx context.Context, name string, opts ProjectDeleteOptions) (fields.Bag, error) {
	cl, err := s.Client(opts.Local)
	if err != nil {
		return nil, err
	}
	resp, err := cl.DeleteObject(
		ctx, client.BaseAPI(domain.Project, name),
		client.Params{"cascade": strconv.FormatBool(opts.Cascade)},
	)
	if err != nil {
		return nil, err
	}
	if !opts.KeepContext {
		s.RemoveContext(name)
	}
	return resp, nil
}

// ListProjects lists projects in the backend.
func (s *SDK) ListProjects(ctx context.Context, local bool) ([]*Project, error) {
	cl, err := s.Client(local)
	if err != nil {
		return nil, err
	}
	found, err := cl.ListObjects(ctx, client.BaseAPI(domain.Project), nil)
	if err != nil {
		return nil, err
	}
	out := make([]*Project, 0, len(found))
	for _, b := range found {
		e, err := s.Registry.BuildFromDict(domain.Project, b, false)
		if err != nil {
			return nil, err
		}
		p, err := s.project(ctx, e, cl, ProjectOptions{Local: local})
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Save the project. Lists of entities in spec are not sent.
func (p *Project) Save(ctx context.Context, update bool) error {
	return p.save(ctx, update, projectDict)
}

// Export writes the project into its context directory as projects-{name}.yaml.
//
// Entities listed in spec and not embedded are exported as their own files,
// and metadata.ref of the listed entity points the file.
//
// # Returns
//
// - string: path of the project file.
//
// - error
func (p *Project) Export(ctx context.Context) (string, error) {
	pc, err := p.context()
	if err != nil {
		return "", err
	}
	if err := p.Refresh(ctx); err != nil {
		if !errors.Is(err, dherr.ErrBackend) {
			return "", err
		}
		p.sdk.Logger.Warnf("exporting project %s without refresh: %s", p.Name, err)
	}

	obj := p.ToDict()
	spec := obj.Map("spec")
	if spec == nil {
		spec = fields.Bag{}
	}
	for _, et := range domain.EmbeddedTypes() {
		items := spec.Slice(et.Plural())
		for i, item := range items {
			b := fields.AsBag(item)
			if b == nil || b.Map("metadata").Bool("embedded") {
				continue
			}
			ref, err := p.exportContent(ctx, pc, et, b.Str("id"))
			if err != nil {
				return "", err
			}
			b = b.Clone()
			md := b.Map("metadata")
			if md == nil {
				md = fields.Bag{}
			}
			md["ref"] = ref
			b["metadata"] = map[string]any(md)
			items[i] = map[string]any(b)
		}
		if items != nil {
			spec[et.Plural()] = items
		}
	}
	obj["spec"] = map[string]any(spec)
	return entity.WriteYAML(filepath.Join(pc.Root, entity.ExportFilename(p.Entity)), obj)
}

// exportContent exports an entity of the project, with tasks for functions and workflows.
func (p *Project) exportContent(ctx context.Context, pc *projctx.Context, et domain.EntityType, id string) (string, error) {
	b, err := pc.Read(ctx, et, id)
	if err != nil {
		return "", err
	}
	e, err := p.sdk.Registry.BuildFromDict(et, b, false)
	if err != nil {
		return "", err
	}
	var deps []*entity.Entity
	if et.IsExecutable() {
		tasks, err := pc.List(ctx, domain.Task, client.Params{string(et): e.ExecutableString()})
		if err != nil {
			return "", err
		}
		for _, t := range tasks {
			te, err := p.sdk.Registry.BuildFromDict(domain.Task, t, false)
			if err != nil {
				return "", err
			}
			deps = append(deps, te)
		}
	}
	return entity.Export(pc.Root, e, deps...)
}

// importContents creates (or, when load, updates) entities listed in spec of the project file.
//
// Embedded entities are created from the listing itself. Existing ones are left as is.
func (p *Project) importContents(ctx context.Context, doc fields.Bag, dir string, resetID bool, load bool) error {
	spec := doc.Map("spec")
	for _, et := range domain.EmbeddedTypes() {
		for _, item := range spec.Slice(et.Plural()) {
			b := fields.AsBag(item)
			if b == nil {
				continue
			}
			md := b.Map("metadata")
			embedded := md == nil || !md.Has("embedded") || md.Bool("embedded")
			ref := md.Str("ref")

			switch {
			case ref != "" && !md.Bool("embedded"):
				if !uri.HasLocalScheme(ref) {
					continue
				}
				path := refPath(ref, dir)
				if _, err := os.Stat(path); err != nil {
					return fmt.Errorf("%w: file not found: %s", dherr.ErrEntity, ref)
				}
				if err := p.importRef(ctx, et, path, resetID, load); err != nil {
					return err
				}
			case embedded && !load:
				if err := p.importEmbedded(ctx, et, b, resetID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func refPath(ref string, dir string) string {
	path := uri.LocalPath(ref)
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(dir, path)
}

func (p *Project) importRef(ctx context.Context, et domain.EntityType, path string, resetID bool, load bool) error {
	var err error
	switch {
	case et.IsMaterial():
		f := p.materials(et)
		if load {
			_, err = f.Load(ctx, path)
		} else {
			_, err = f.Import(ctx, path, resetID)
		}
	case et.IsExecutable():
		f := p.executables(et)
		if load {
			_, err = f.Load(ctx, path)
		} else {
			_, err = f.Import(ctx, path, resetID)
		}
	}
	return err
}

func (p *Project) importEmbedded(ctx context.Context, et domain.EntityType, b fields.Bag, resetID bool) error {
	b = b.Clone()
	b["project"] = p.Name
	md := b.Map("metadata")
	if md == nil {
		md = fields.Bag{}
	}
	md["embedded"] = true
	if resetID {
		delete(b, "id")
		delete(b, "key")
		delete(md, "version")
	}
	b["metadata"] = map[string]any(md)

	e, err := p.sdk.Registry.BuildFromDict(et, b, false)
	if err != nil {
		return err
	}
	o := &Object{Entity: e, sdk: p.sdk}
	if err := o.Save(ctx, false); err != nil && !errors.Is(err, dherr.ErrEntityAlreadyExists) {
		return err
	}
	return nil
}

// Run runs the workflow of the project. Empty workflow is DefaultWorkflow.
//
// workflow may be a name or a key.
func (p *Project) Run(ctx context.Context, workflow string, opts RunOptions) (*Run, error) {
	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}
	if workflow == "" {
		workflow = DefaultWorkflow
	}
	for _, item := range p.Spec.Slice(domain.Workflow.Plural()) {
		b := fields.AsBag(item)
		if b == nil || (b.Str("name") != workflow && b.Str("key") != workflow) {
			continue
		}
		wf, err := p.Workflows().Get(ctx, b.Str("key"), "")
		if err != nil {
			return nil, err
		}
		return wf.Run(ctx, WorkflowAction, opts)
	}
	return nil, fmt.Errorf("%w: workflow '%s' not found in project %s", dherr.ErrEntity, workflow, p.Name)
}

func (p *Project) materials(et domain.EntityType) Family[*Material] {
	return Family[*Material]{project: p, et: et, wrap: wrapMaterial}
}

func (p *Project) executables(et domain.EntityType) Family[*Executable] {
	return Family[*Executable]{project: p, et: et, wrap: wrapExecutable}
}

func (p *Project) Artifacts() Family[*Material] { return p.materials(domain.Artifact) }
func (p *Project) Dataitems() Family[*Material] { return p.materials(domain.Dataitem) }
func (p *Project) Models() Family[*Material]    { return p.materials(domain.Model) }

func (p *Project) Functions() Family[*Executable] { return p.executables(domain.Function) }
func (p *Project) Workflows() Family[*Executable] { return p.executables(domain.Workflow) }

func (p *Project) Tasks() Family[*Task] {
	return Family[*Task]{project: p, et: domain.Task, wrap: wrapTask}
}

func (p *Project) Runs() Family[*Run] {
	return Family[*Run]{project: p, et: domain.Run, wrap: wrapRun}
}

func (p *Project) Secrets() Family[*Secret] {
	return Family[*Secret]{project: p, et: domain.Secret, wrap: wrapSecret}
}

// Entities of any type, as plain objects. For projects, use SDK methods.
func (p *Project) Entities(et domain.EntityType) Family[*Object] {
	return Family[*Object]{project: p, et: et, wrap: func(o Object) *Object { return &o }}
}

// projectOf returns the project which o belongs to, bound to the same SDK.
//
// Its entity only has the name; call Refresh for the rest.
func (o *Object) projectOf() *Project {
	e := &entity.Entity{Type: domain.Project, Name: o.Project, ID: o.Project, Project: o.Project, Kind: string(domain.Project)}
	return &Project{Object: Object{Entity: e, sdk: o.sdk}}
}
