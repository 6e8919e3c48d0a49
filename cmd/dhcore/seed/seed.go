// Package seed loads exported projects into the backend of the server on start.
package seed

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
)

// Pattern of project files, as sdk.Project.Export names them.
const Pattern = "**/projects-*.yaml"

// Projects loads projects-*.yaml files under dir, recursively, into the local backend of s.
//
// Projects already there are updated.
//
// # Returns
//
// - []string: names of loaded projects, in order of file paths.
//
// - error
func Projects(ctx context.Context, s *sdk.SDK, dir string) ([]string, error) {
	files, err := doublestar.FilepathGlob(filepath.Join(dir, Pattern))
	if err != nil {
		return nil, xe.Wrap(err)
	}
	sort.Strings(files)

	names := make([]string, 0, len(files))
	for _, f := range files {
		p, err := s.LoadProject(ctx, f, sdk.ProjectOptions{Local: true, Context: filepath.Dir(f)})
		if err != nil {
			return names, xe.WrapWithNote("loading "+f, err)
		}
		s.Logger.Infof("project %s is loaded from %s", p.Name, f)
		names = append(names, p.Name)
	}
	return names, nil
}
