package sdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
	"github.com/scc-digitalhub/digitalhub-go/pkg/store"
	"github.com/scc-digitalhub/digitalhub-go/pkg/uri"
)

// KindTable is the kind of dataitems stored as SQL tables.
const KindTable = "table"

// Material is an artifact, a dataitem or a model: an entity pointing data at spec.path.
type Material struct {
	Object
}

func wrapMaterial(o Object) *Material {
	return &Material{Object: o}
}

// Path is where the data is.
func (m *Material) Path() string {
	return m.Spec.Str("path")
}

// Download the data into dst.
//
// # Args
//
// - context.Context
//
// - dst: local directory or file. When empty, a new temporary directory.
//
// - overwrite: replaces existing files.
//
// # Returns
//
// - string: local path of the downloaded data.
//
// - error: ErrStoreUnavailable, if no store serves spec.path. ErrDestinationExists.
func (m *Material) Download(ctx context.Context, dst string, overwrite bool) (string, error) {
	st, err := m.sdk.Stores.Get(m.Path())
	if err != nil {
		return "", err
	}
	return st.Download(ctx, m.Path(), dst, overwrite)
}

// Upload local files at source to spec.path, and records them in status.files.
//
// source is a file, a directory or a glob pattern.
func (m *Material) Upload(ctx context.Context, source string) error {
	st, err := m.sdk.Stores.Get(m.Path())
	if err != nil {
		return err
	}
	uploaded, err := st.Upload(ctx, source, m.Path())
	if err != nil {
		return err
	}
	paths := make([]string, 0, len(uploaded))
	for _, u := range uploaded {
		paths = append(paths, u.Dst)
	}
	files, err := st.FileInfo(ctx, paths)
	if err != nil {
		if !errors.Is(err, store.ErrUnsupported) {
			return err
		}
		m.sdk.Logger.Warnf("no file info for %s: %s", m.Key, err)
	}
	m.Status.Files = files
	return m.Save(ctx, true)
}

// ReadRows writes rows of a table dataitem into w as CSV with header.
//
// # Returns
//
// - int64: number of rows.
//
// - error: ErrEntityTypeMismatch, if it is not a table. ErrStoreUnavailable, if there is no SQL store.
func (m *Material) ReadRows(ctx context.Context, w io.Writer) (int64, error) {
	if m.Type != domain.Dataitem || m.Kind != KindTable {
		return 0, fmt.Errorf("%w: %s is not a table dataitem", dherr.ErrEntityTypeMismatch, m.Key)
	}
	if !uri.HasSQLScheme(m.Path()) {
		return 0, fmt.Errorf("%w: path of %s is not sql://: %s", dherr.ErrValidation, m.Key, m.Path())
	}
	sql, ok := m.sdk.Stores.SQL.(*store.SQL)
	if !ok || sql == nil {
		return 0, fmt.Errorf("%w: no SQL store for %s", store.ErrStoreUnavailable, m.Path())
	}
	return sql.CopyTo(ctx, m.Path(), w)
}

// logMaterial creates a material of et and uploads source into it.
//
// Without spec.path, the data is kept in the context directory:
//
//	{context}/{types}/{name}/{id}
func (p *Project) logMaterial(ctx context.Context, et domain.EntityType, params Params, source string) (*Material, error) {
	pc, err := p.context()
	if err != nil {
		return nil, err
	}
	if params.Kind == "" {
		params.Kind = string(et)
	}
	if params.ID == "" {
		params.ID = registry.NewID()
	}
	spec := params.Spec.Clone()
	if spec == nil {
		spec = fields.Bag{}
	}
	if source != "" {
		spec["src_path"] = source
	}
	if spec.Str("path") == "" {
		spec["path"] = filepath.Join(pc.Root, et.Plural(), params.Name, params.ID) + "/"
	}
	params.Spec = spec

	m, err := p.materials(et).New(ctx, params)
	if err != nil {
		return nil, err
	}
	if source == "" {
		return m, nil
	}
	if err := m.Upload(ctx, source); err != nil {
		return m, err
	}
	return m, nil
}

// LogArtifact creates an artifact and uploads source into it. Empty kind is "artifact".
func (p *Project) LogArtifact(ctx context.Context, params Params, source string) (*Material, error) {
	return p.logMaterial(ctx, domain.Artifact, params, source)
}

// LogDataitem creates a dataitem. For tables, give spec.path (sql://...) and empty source.
func (p *Project) LogDataitem(ctx context.Context, params Params, source string) (*Material, error) {
	return p.logMaterial(ctx, domain.Dataitem, params, source)
}

// LogModel creates a model and uploads source into it.
func (p *Project) LogModel(ctx context.Context, params Params, source string) (*Material, error) {
	return p.logMaterial(ctx, domain.Model, params, source)
}
