// Package projctx keeps per-project state: the backend a project talks to and
// where its files are.
package projctx

import (
	"context"
	"os"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
)

// EnvRunID names the run this process executes for, if any: its id or key.
const EnvRunID = "DIGITALHUB_RUN_ID"

// Context of a project.
type Context struct {
	Name   string
	Client client.Client

	// local directory of project files.
	Root string

	// parent of scratch directories.
	TmpDir string

	// project configuration (spec.config).
	Config fields.Bag

	// key of the run this process executes for. Empty when not in a run.
	RunKey string

	// entities logged during the run, name to key.
	Logged map[string]string
}

// Local reports the project is on an in-process backend.
func (c *Context) Local() bool {
	return c.Client.IsLocal()
}

func (c *Context) api(et domain.EntityType, id ...string) string {
	if et == domain.Project {
		return client.BaseAPI(et, id...)
	}
	return client.ContextAPI(c.Name, et, id...)
}

// Create an entity in the project.
func (c *Context) Create(ctx context.Context, et domain.EntityType, obj fields.Bag) (fields.Bag, error) {
	return c.Client.CreateObject(ctx, c.api(et), obj)
}

// Read an entity by id. For projects, id is the name.
func (c *Context) Read(ctx context.Context, et domain.EntityType, id string) (fields.Bag, error) {
	return c.Client.ReadObject(ctx, c.api(et, id), nil)
}

// ReadLatest reads the latest version of the named entity.
func (c *Context) ReadLatest(ctx context.Context, et domain.EntityType, name string) (fields.Bag, error) {
	return c.Client.ReadObject(ctx, c.api(et), client.Params{"name": name})
}

// Update an entity.
func (c *Context) Update(ctx context.Context, et domain.EntityType, id string, obj fields.Bag) (fields.Bag, error) {
	return c.Client.UpdateObject(ctx, c.api(et, id), obj)
}

// Delete an entity by id.
func (c *Context) Delete(ctx context.Context, et domain.EntityType, id string, params client.Params) (fields.Bag, error) {
	return c.Client.DeleteObject(ctx, c.api(et, id), params)
}

// DeleteAll deletes all versions of the named entity.
func (c *Context) DeleteAll(ctx context.Context, et domain.EntityType, name string, params client.Params) (fields.Bag, error) {
	return c.Client.DeleteObject(ctx, c.api(et), params.With("name", name))
}

// List entities of the type.
func (c *Context) List(ctx context.Context, et domain.EntityType, params client.Params) ([]fields.Bag, error) {
	return c.Client.ListObjects(ctx, c.api(et), params)
}

// SetRun marks this context as executing the run.
func (c *Context) SetRun(runKey string) {
	c.RunKey = runKey
	c.Logged = map[string]string{}
}

// UnsetRun clears the run and logged entities.
func (c *Context) UnsetRun() {
	c.RunKey = ""
	c.Logged = map[string]string{}
}

// searchRun sets the run named by id or key, when the backend has it.
// Otherwise the context is left not running.
func (c *Context) searchRun(ctx context.Context, ref string) {
	id := ref
	if domain.IsKey(ref) {
		k, err := domain.ParseKey(ref)
		if err != nil || k.EntityType != domain.Run || k.Project != c.Name {
			return
		}
		id = k.ID
	}
	run, err := c.Read(ctx, domain.Run, id)
	if err != nil {
		return
	}
	key := run.Str("key")
	if !domain.IsKey(key) {
		key = domain.BuildKey(c.Name, domain.Run, run.Str("kind"), "", run.Str("id"))
	}
	c.SetRun(key)
}

// Running reports this context executes a run.
func (c *Context) Running() bool {
	return c.RunKey != ""
}

// RegisterLogged records an entity logged in the run.
//
// It reports whether the entity should get "produced_by" relationship, that is, the context is running.
func (c *Context) RegisterLogged(name string, key string) bool {
	if !c.Running() {
		return false
	}
	if c.Logged == nil {
		c.Logged = map[string]string{}
	}
	c.Logged[name] = key
	return true
}

// WithTempDir calls fn with a new scratch directory, which is removed after fn returns.
func (c *Context) WithTempDir(fn func(dir string) error) error {
	dir, err := os.MkdirTemp(c.TmpDir, "dh-"+c.Name+"-")
	if err != nil {
		return xe.Wrap(err)
	}
	defer os.RemoveAll(dir)
	return fn(dir)
}
