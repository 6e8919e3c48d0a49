package projctx

import (
	"context"
	"os"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
)

// Builder keeps a Context per project.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	tmpDir    string
	instances map[string]*Context
}

// NewBuilder returns a Builder whose contexts make scratch directories in tmpDir.
//
// Empty tmpDir is os.TempDir().
func NewBuilder(tmpDir string) *Builder {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &Builder{tmpDir: tmpDir, instances: map[string]*Context{}}
}

// Build returns the context of the project, creating it if there is none.
//
// When EnvRunID is set, the context executes that run, if the backend knows it.
//
// # Args
//
// - context.Context
//
// - string: project name
//
// - client.Client: backend of the project
//
// - string: local directory of the project. It is created if missing.
//
// - fields.Bag: project configuration
//
// # Returns
//
// - *Context: existing context, or new one.
//
// - error
func (b *Builder) Build(ctx context.Context, project string, cl client.Client, root string, config fields.Bag) (*Context, error) {
	if c, ok := b.instances[project]; ok {
		return c, nil
	}
	if root != "" {
		if err := os.MkdirAll(root, os.FileMode(0o755)); err != nil {
			return nil, xe.Wrap(err)
		}
	}
	c := &Context{
		Name: project, Client: cl, Root: root, TmpDir: b.tmpDir,
		Config: config, Logged: map[string]string{},
	}
	if runID := os.Getenv(EnvRunID); runID != "" {
		c.searchRun(ctx, runID)
	}
	b.instances[project] = c
	return c, nil
}

// Get the context of the project.
//
// # Returns
//
// - *Context
//
// - error: ErrContextNotFound, if no context is built for the project.
func (b *Builder) Get(project string) (*Context, error) {
	c, ok := b.instances[project]
	if !ok {
		return nil, dherr.NewErrContextNotFound(project)
	}
	return c, nil
}

// Remove the context of the project. It is fine to remove missing one.
func (b *Builder) Remove(project string) {
	delete(b.instances, project)
}

// Projects lists names of projects having context.
func (b *Builder) Projects() []string {
	names := make([]string, 0, len(b.instances))
	for n := range b.instances {
		names = append(names, n)
	}
	return names
}
