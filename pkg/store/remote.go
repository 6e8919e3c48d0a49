package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scc-digitalhub/digitalhub-go/pkg/entity"
	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/uri"
)

// DefaultFilename is used when the url of a download has no file name.
const DefaultFilename = "data.file"

// Remote downloads materials with HTTP(S). It is read only.
type Remote struct {
	HTTPClient *http.Client

	// Progress reports download progress. It may be nil.
	Progress Progress
}

var _ Store = &Remote{}

func NewRemote() *Remote {
	return &Remote{HTTPClient: &http.Client{Timeout: 60 * time.Second}}
}

// Download src into dst. When dst is a directory (or has no extension),
// the file is saved in it with the name in src.
func (r *Remote) Download(ctx context.Context, src string, dst string, overwrite bool) (string, error) {
	src = strings.TrimPrefix(src, "zip+")
	if dst == "" {
		d, err := os.MkdirTemp("", "dh-download-")
		if err != nil {
			return "", xe.Wrap(err)
		}
		dst = d
	}
	dst = uri.LocalPath(dst)

	if st, err := os.Stat(dst); (err == nil && st.IsDir()) || filepath.Ext(dst) == "" {
		name := uri.Filename(src)
		if name == "" || name == "." || name == "/" || filepath.Ext(name) == "" {
			name = DefaultFilename
		}
		dst = filepath.Join(dst, name)
	}
	if !overwrite {
		if _, err := os.Stat(dst); err == nil {
			return "", fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", xe.Wrap(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrStore, err)
	}
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: GET %s: %s", ErrStore, src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || 300 <= resp.StatusCode {
		return "", fmt.Errorf("%w: GET %s: status %d", ErrStore, src, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dst), os.FileMode(0o777)); err != nil {
		return "", xe.Wrap(err)
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(0o666))
	if err != nil {
		return "", xe.Wrap(err)
	}
	defer f.Close()

	var w io.Writer = f
	if r.Progress != nil {
		pw := r.Progress(dst, resp.ContentLength, f)
		defer pw.Close()
		w = pw
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("%w: GET %s: %s", ErrStore, src, err)
	}
	return dst, nil
}

func (*Remote) Upload(context.Context, string, string) ([]Uploaded, error) {
	return nil, fmt.Errorf("%w: remote HTTP store does not support upload", ErrUnsupported)
}

func (*Remote) FileInfo(context.Context, []string) ([]entity.File, error) {
	return nil, fmt.Errorf("%w: remote HTTP store does not support file info", ErrUnsupported)
}
