package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/scc-digitalhub/digitalhub-go/pkg/entity"
	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/uri"
	dhio "github.com/scc-digitalhub/digitalhub-go/pkg/utils/io"
)

// Local is a store on local filesystem.
type Local struct{}

var _ Store = &Local{}

func (*Local) Download(_ context.Context, src string, dst string, overwrite bool) (string, error) {
	srcpath := uri.LocalPath(src)
	st, err := os.Stat(srcpath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrStore, err)
	}
	if dst == "" {
		if dst, err = os.MkdirTemp("", "dh-download-"); err != nil {
			return "", xe.Wrap(err)
		}
	}
	dst = uri.LocalPath(dst)

	if st.IsDir() {
		dest := filepath.Join(dst, filepath.Base(srcpath))
		files, err := expand(srcpath)
		if err != nil {
			return "", err
		}
		for _, f := range files {
			if err := copyFile(filepath.Join(srcpath, f), filepath.Join(dest, f), overwrite); err != nil {
				return "", err
			}
		}
		return dest, nil
	}

	dest := dst
	if dstat, err := os.Stat(dst); err == nil && dstat.IsDir() {
		dest = filepath.Join(dest, filepath.Base(srcpath))
	}
	if err := copyFile(srcpath, dest, overwrite); err != nil {
		return "", err
	}
	return dest, nil
}

// Upload copies local files into the local directory dst.
//
// Paths relative to src (or the non-glob part of it) are kept under dst.
func (*Local) Upload(_ context.Context, src string, dst string) ([]Uploaded, error) {
	base, files, err := sources(uri.LocalPath(src))
	if err != nil {
		return nil, err
	}
	dstpath := uri.LocalPath(dst)

	uploaded := make([]Uploaded, 0, len(files))
	for _, f := range files {
		from := filepath.Join(base, f)
		to := filepath.Join(dstpath, f)
		if err := copyFile(from, to, true); err != nil {
			return nil, err
		}
		uploaded = append(uploaded, Uploaded{Dst: to, Src: from})
	}
	return uploaded, nil
}

func (*Local) FileInfo(_ context.Context, paths []string) ([]entity.File, error) {
	infos := make([]entity.File, 0, len(paths))
	for _, p := range paths {
		fi, err := localFileInfo(uri.LocalPath(p))
		if err != nil {
			return nil, err
		}
		infos = append(infos, fi)
	}
	return infos, nil
}

func localFileInfo(path string) (entity.File, error) {
	st, err := os.Stat(path)
	if err != nil {
		return entity.File{}, fmt.Errorf("%w: %s", ErrStore, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return entity.File{}, xe.Wrap(err)
	}
	defer f.Close()
	sum, err := dhio.Checksum(f)
	if err != nil {
		return entity.File{}, xe.Wrap(err)
	}

	return entity.File{
		Path:         path,
		Name:         filepath.Base(path),
		ContentType:  mime.TypeByExtension(filepath.Ext(path)),
		Size:         st.Size(),
		Hash:         sum,
		LastModified: st.ModTime().UTC().Format(entity.TimestampLayout),
	}, nil
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// sources resolves src into a base directory and files relative to it.
//
// src is a file, a directory (walked recursively) or a glob pattern.
func sources(src string) (string, []string, error) {
	if containsGlob(src) {
		base, pattern := doublestar.SplitPattern(filepath.ToSlash(src))
		base = filepath.FromSlash(base)
		matches, err := doublestar.Glob(os.DirFS(base), pattern, doublestar.WithFilesOnly())
		if err != nil {
			return "", nil, fmt.Errorf("%w: glob error: %s", ErrStore, err)
		}
		if len(matches) == 0 {
			return "", nil, fmt.Errorf("%w: no files match pattern: %s", ErrStore, src)
		}
		files := make([]string, len(matches))
		for i, m := range matches {
			files[i] = filepath.FromSlash(m)
		}
		return base, files, nil
	}

	st, err := os.Stat(src)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrStore, err)
	}
	if !st.IsDir() {
		return filepath.Dir(src), []string{filepath.Base(src)}, nil
	}
	files, err := expand(src)
	if err != nil {
		return "", nil, err
	}
	return src, files, nil
}

// expand lists files under dir recursively, relative to dir.
func expand(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "**", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: glob error: %s", ErrStore, err)
	}
	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.FromSlash(m)
	}
	return files, nil
}

func copyFile(src string, dst string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		} else if !errors.Is(err, os.ErrNotExist) {
			return xe.Wrap(err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dst), os.FileMode(0o777)); err != nil {
		return xe.Wrap(err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrStore, err)
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(0o666))
	if err != nil {
		return xe.Wrap(err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return xe.Wrap(err)
	}
	return nil
}
