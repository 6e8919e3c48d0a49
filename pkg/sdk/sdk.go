// Package sdk is the entry point of the library.
//
// An SDK holds everything the library needs at runtime: kinds, backends, contexts of projects and stores.
// Create one at process start and pass it around:
//
//	s, err := sdk.New()
//	if err != nil {
//		...
//	}
//	p, err := s.GetOrCreateProject(ctx, "my-project", sdk.ProjectOptions{Local: true})
//
// An SDK is not safe for concurrent use.
package sdk

import (
	"context"
	"os"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/client/local"
	"github.com/scc-digitalhub/digitalhub-go/pkg/client/remote"
	"github.com/scc-digitalhub/digitalhub-go/pkg/configs"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/logger"
	"github.com/scc-digitalhub/digitalhub-go/pkg/projctx"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtime"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtimes"
	"github.com/scc-digitalhub/digitalhub-go/pkg/store"
)

type SDK struct {
	Registry *registry.Registry
	Stores   *store.Stores
	Logger   logger.Logger

	contexts *projctx.Builder
	tmpDir   string

	extensions    []registry.Extension
	credentials   configs.Credentials
	remoteOptions []remote.Option

	local  client.Client
	remote client.Client
}

type Option func(*SDK)

// WithExtensions replaces extensions to be installed. By default, runtimes.Default().
func WithExtensions(exts ...registry.Extension) Option {
	return func(s *SDK) {
		s.extensions = exts
	}
}

// WithCredentials sets credentials for the remote backend.
//
// Fields left empty are read from environment variables.
func WithCredentials(creds configs.Credentials) Option {
	return func(s *SDK) {
		s.credentials = creds
	}
}

// WithRemoteOptions passes options to the remote client.
func WithRemoteOptions(opts ...remote.Option) Option {
	return func(s *SDK) {
		s.remoteOptions = append(s.remoteOptions, opts...)
	}
}

// WithClients replaces clients. nil keeps the default one.
func WithClients(local client.Client, remote client.Client) Option {
	return func(s *SDK) {
		s.local = local
		s.remote = remote
	}
}

func WithStores(st *store.Stores) Option {
	return func(s *SDK) {
		s.Stores = st
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *SDK) {
		s.Logger = l
	}
}

// WithTmpDir sets where scratch directories are made. By default, os.TempDir().
func WithTmpDir(dir string) Option {
	return func(s *SDK) {
		s.tmpDir = dir
	}
}

// New creates an SDK.
//
// # Returns
//
// - *SDK
//
// - error: when an extension fails to register its kinds.
func New(options ...Option) (*SDK, error) {
	s := &SDK{
		Registry:   registry.New(),
		Logger:     logger.Default(),
		extensions: runtimes.Default(),
		tmpDir:     os.TempDir(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.Stores == nil {
		s.Stores = store.Default()
	}
	if err := s.Registry.Install(s.extensions...); err != nil {
		return nil, err
	}
	s.contexts = projctx.NewBuilder(s.tmpDir)
	return s, nil
}

// Client returns the local or remote client.
//
// Clients are created on first use, and the same one is returned until ResetClients.
//
// # Returns
//
// - client.Client
//
// - error: ErrConfiguration, if the remote client is requested without endpoint.
func (s *SDK) Client(local bool) (client.Client, error) {
	if local {
		if s.local == nil {
			s.local = newLocal()
		}
		return s.local, nil
	}
	if s.remote == nil {
		opts := append([]remote.Option{remote.WithLogger(s.Logger)}, s.remoteOptions...)
		c, err := remote.New(s.credentials.Merge(configs.FromEnv()), opts...)
		if err != nil {
			return nil, err
		}
		s.remote = c
	}
	return s.remote, nil
}

func newLocal() client.Client {
	return local.New()
}

// ResetClients discards clients. Next Client creates new ones.
func (s *SDK) ResetClients() {
	s.local = nil
	s.remote = nil
}

// Context returns the context of the project.
//
// # Returns
//
// - *projctx.Context
//
// - error: ErrContextNotFound, if the project is not created nor got by this SDK.
func (s *SDK) Context(project string) (*projctx.Context, error) {
	return s.contexts.Get(project)
}

// RemoveContext forgets the context of the project.
func (s *SDK) RemoveContext(project string) {
	s.contexts.Remove(project)
}

// Resolve reads the entity of key. SDK is runtime.Resolver.
func (s *SDK) Resolve(ctx context.Context, key string) (fields.Bag, error) {
	k, err := domain.ParseKey(key)
	if err != nil {
		return nil, err
	}
	pc, err := s.Context(k.Project)
	if err != nil {
		return nil, err
	}
	if k.EntityType == domain.Project {
		return pc.Read(ctx, domain.Project, k.Project)
	}
	return read(ctx, pc, k.EntityType, k.Name, k.ID)
}

var _ runtime.Resolver = &SDK{}

func (s *SDK) runtimeEnv(project string) runtime.Env {
	return runtime.Env{Project: project, TmpDir: s.tmpDir, Logger: s.Logger, Resolver: s}
}
