// Package store moves material files between their storage and local filesystem.
//
// Stores are selected by the uri scheme of materials:
//
//	st, err := stores.Get("https://example.com/data.csv")
//	if err != nil {
//		...
//	}
//	path, err := st.Download(ctx, "https://example.com/data.csv", "./data", false)
package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/entity"
	"github.com/scc-digitalhub/digitalhub-go/pkg/uri"
)

var (
	// store operation failed.
	ErrStore = fmt.Errorf("%w: store", dherr.ErrBackend)

	// no store serves the scheme in this build.
	ErrStoreUnavailable = fmt.Errorf("%w: unavailable", ErrStore)

	// the store does not support the operation.
	ErrUnsupported = fmt.Errorf("%w: unsupported operation", ErrStore)

	// destination exists and overwriting is not allowed.
	ErrDestinationExists = fmt.Errorf("%w: destination already exists", ErrStore)
)

// Uploaded is a pair of a local source and where it is uploaded.
type Uploaded struct {
	Dst string
	Src string
}

type Store interface {
	// Download src into local filesystem.
	//
	// # Args
	//
	// - context.Context
	//
	// - src: uri of the material.
	//
	// - dst: local destination. Directory or file path. When empty, a new temporary directory.
	//
	// - overwrite: allows replacing existing files.
	//
	// # Returns
	//
	// - string: local path of what is downloaded.
	//
	// - error: ErrDestinationExists, if dst exists and overwrite is false.
	Download(ctx context.Context, src string, dst string, overwrite bool) (string, error)

	// Upload local files to dst.
	//
	// # Args
	//
	// - context.Context
	//
	// - src: local path of file or directory, or glob pattern ("**" is supported).
	//
	// - dst: uri to upload to.
	//
	// # Returns
	//
	// - []Uploaded: uploaded files.
	//
	// - error: ErrUnsupported, if the store is read only.
	Upload(ctx context.Context, src string, dst string) ([]Uploaded, error)

	// FileInfo describes files in the store.
	FileInfo(ctx context.Context, paths []string) ([]entity.File, error)
}

// Progress wraps w to report progress of writing size bytes (-1 if unknown) into label.
//
// The returned writer is closed when writing is done.
type Progress func(label string, size int64, w io.Writer) io.WriteCloser

// Stores selects Store for uri.
type Stores struct {
	Local  Store
	Remote Store
	S3     Store
	SQL    Store
}

// Default returns Stores with the default configurations.
//
// S3 store connects with S3_* and AWS_* environment variables,
// and SQL store connects with POSTGRES_* environment variables.
func Default() *Stores {
	return &Stores{
		Local:  &Local{},
		Remote: NewRemote(),
		S3:     NewS3(S3ConfigFromEnv()),
		SQL:    NewSQL(),
	}
}

// Get the store for uri.
//
// # Returns
//
// - Store
//
// - error: ErrUnknownScheme, if the scheme is not known.
// ErrStoreUnavailable, if the scheme is known but no store serves it.
func (s *Stores) Get(u string) (Store, error) {
	c, err := uri.MapURIScheme(u)
	if err != nil {
		return nil, err
	}
	var st Store
	switch c {
	case uri.Local:
		st = s.Local
	case uri.Remote:
		st = s.Remote
	case uri.S3:
		st = s.S3
	case uri.SQL:
		st = s.SQL
	}
	if st == nil {
		return nil, fmt.Errorf("%w: no store for %s (%s)", ErrStoreUnavailable, c, u)
	}
	return st, nil
}

// IsUnavailable tells err is because no store serves the uri.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
