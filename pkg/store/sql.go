package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/scc-digitalhub/digitalhub-go/pkg/conn/postgres"
	"github.com/scc-digitalhub/digitalhub-go/pkg/entity"
	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
)

// SQL exports tables of PostgreSQL as CSV. It is read only.
type SQL struct {
	// Config is connection parameters. The database is overridden by sql:// paths.
	Config postgres.Config

	// Open connects to the database.
	Open func(ctx context.Context, config postgres.Config) (postgres.Pool, error)
}

var _ Store = &SQL{}

// NewSQL returns SQL store configured by POSTGRES_* environment variables.
func NewSQL() *SQL {
	return &SQL{Config: postgres.ConfigFromEnv(), Open: postgres.Open}
}

func (s *SQL) pool(ctx context.Context, table postgres.Table) (postgres.Pool, error) {
	conf := s.Config
	if table.Database != "" {
		conf.Database = table.Database
	}
	return s.Open(ctx, conf)
}

// CopyTo writes the table at path (sql://...) as CSV with header into w.
//
// # Returns
//
// - int64: number of rows.
//
// - error
func (s *SQL) CopyTo(ctx context.Context, path string, w io.Writer) (int64, error) {
	table, err := postgres.ParseTablePath(path)
	if err != nil {
		return 0, err
	}
	pool, err := s.pool(ctx, table)
	if err != nil {
		return 0, err
	}
	defer pool.Close()
	return postgres.CopyOut(ctx, pool, table, w)
}

// Download exports the table into {dst}/{table}.csv, or dst when it has an extension.
func (s *SQL) Download(ctx context.Context, src string, dst string, overwrite bool) (string, error) {
	table, err := postgres.ParseTablePath(src)
	if err != nil {
		return "", err
	}
	if dst == "" {
		if dst, err = os.MkdirTemp("", "dh-download-"); err != nil {
			return "", xe.Wrap(err)
		}
	}
	if filepath.Ext(dst) == "" {
		dst = filepath.Join(dst, table.Name+".csv")
	}
	if _, err := os.Stat(dst); err == nil && !overwrite {
		return "", fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	}
	pool, err := s.pool(ctx, table)
	if err != nil {
		return "", err
	}
	defer pool.Close()

	if err := os.MkdirAll(filepath.Dir(dst), os.FileMode(0o777)); err != nil {
		return "", xe.Wrap(err)
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(0o666))
	if err != nil {
		return "", xe.Wrap(err)
	}
	defer f.Close()
	if _, err := postgres.CopyOut(ctx, pool, table, f); err != nil {
		return "", err
	}
	return dst, nil
}

func (*SQL) Upload(context.Context, string, string) ([]Uploaded, error) {
	return nil, fmt.Errorf("%w: SQL store does not support upload", ErrUnsupported)
}

func (*SQL) FileInfo(context.Context, []string) ([]entity.File, error) {
	return nil, fmt.Errorf("%w: SQL store does not support file info", ErrUnsupported)
}
