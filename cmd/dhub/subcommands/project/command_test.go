package project_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/internal/commandline"
	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/internal/fixture"
	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/logger"
	project_export "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/project/export"
	project_import "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/project/imports"
	project_list "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/project/list"
	project_rm "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/project/rm"
	project_show "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/project/show"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/try"
)

func TestList(t *testing.T) {
	ctx := context.Background()
	s := fixture.SDK(t)
	fixture.Project(t, s, "p1")
	fixture.Project(t, s, "p2")

	cl, stdout, _ := commandline.New("dhub project list", struct{}{}, nil)
	if err := project_list.Task()(ctx, logger.Null(), s, cl, nil); err != nil {
		t.Fatal(err)
	}

	var got []map[string]any
	if err := json.Unmarshal([]byte(stdout.String()), &got); err != nil {
		t.Fatalf("output is not json: %s", stdout)
	}
	names := map[string]bool{}
	for _, p := range got {
		names[fields.Bag(p).Str("name")] = true
	}
	if len(got) != 2 || !names["p1"] || !names["p2"] {
		t.Errorf("unexpected projects: %v", got)
	}
}

func TestShow(t *testing.T) {
	t.Run("it shows the project", func(t *testing.T) {
		ctx := context.Background()
		s := fixture.SDK(t)
		p := fixture.Project(t, s, "p")

		cl, stdout, _ := commandline.New(
			"dhub project show", struct{}{},
			map[string][]string{project_show.ARG_NAME: {"p"}},
		)
		if err := project_show.Task()(ctx, logger.Null(), s, cl, nil); err != nil {
			t.Fatal(err)
		}
		var got map[string]any
		if err := json.Unmarshal([]byte(stdout.String()), &got); err != nil {
			t.Fatalf("output is not json: %s", stdout)
		}
		if fields.Bag(got).Str("key") != p.Key {
			t.Errorf("unexpected project: %v", got)
		}
	})

	t.Run("missing project is ErrEntityNotExists", func(t *testing.T) {
		s := fixture.SDK(t)
		cl, _, _ := commandline.New(
			"dhub project show", struct{}{},
			map[string][]string{project_show.ARG_NAME: {"missing"}},
		)
		err := project_show.Task()(context.Background(), logger.Null(), s, cl, nil)
		if !errors.Is(err, dherr.ErrEntityNotExists) {
			t.Errorf("expected ErrEntityNotExists, got %v", err)
		}
	})
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	s := fixture.SDK(t)
	p := fixture.Project(t, s, "p")
	a := try.To(p.Artifacts().New(ctx, sdk.Params{
		Name: "a", Kind: "artifact", Spec: fields.Bag{"path": "s3://bucket/a"},
	})).OrFatal(t)

	dir := t.TempDir()
	exportCl, exported, _ := commandline.New(
		"dhub project export", project_export.Flags{Context: dir},
		map[string][]string{project_export.ARG_NAME: {"p"}},
	)
	if err := project_export.Task()(ctx, logger.Null(), s, exportCl, nil); err != nil {
		t.Fatal(err)
	}
	path := strings.TrimSpace(exported.String())
	if filepath.Dir(path) != dir {
		t.Errorf("project file is not in %s: %s", dir, path)
	}

	other := fixture.SDK(t)
	importCl, imported, _ := commandline.New(
		"dhub project import", project_import.Flags{},
		map[string][]string{project_import.ARG_FILE: {path}},
	)
	if err := project_import.Task()(ctx, logger.Null(), other, importCl, nil); err != nil {
		t.Fatal(err)
	}
	if key := strings.TrimSpace(imported.String()); key != p.Key {
		t.Errorf("unexpected key: %s", key)
	}

	ip := try.To(other.GetProject(ctx, "p", sdk.ProjectOptions{})).OrFatal(t)
	got := try.To(ip.Artifacts().Get(ctx, "a", "")).OrFatal(t)
	if got.ID != a.ID {
		t.Errorf("unexpected artifact: %+v", got.Entity)
	}

	t.Run("importing again fails", func(t *testing.T) {
		err := project_import.Task()(ctx, logger.Null(), other, importCl, nil)
		if !errors.Is(err, dherr.ErrEntity) {
			t.Errorf("expected ErrEntity, got %v", err)
		}
	})

	t.Run("importing again with --load updates", func(t *testing.T) {
		cl, _, _ := commandline.New(
			"dhub project import", project_import.Flags{Load: true},
			map[string][]string{project_import.ARG_FILE: {path}},
		)
		if err := project_import.Task()(ctx, logger.Null(), other, cl, nil); err != nil {
			t.Error(err)
		}
	})
}

func TestRm(t *testing.T) {
	ctx := context.Background()
	s := fixture.SDK(t)
	fixture.Project(t, s, "p")

	cl, _, _ := commandline.New(
		"dhub project rm", project_rm.Flags{Cascade: true},
		map[string][]string{project_rm.ARG_NAME: {"p"}},
	)
	if err := project_rm.Task()(ctx, logger.Null(), s, cl, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetProject(ctx, "p", sdk.ProjectOptions{}); !errors.Is(err, dherr.ErrEntityNotExists) {
		t.Errorf("project is not deleted: %v", err)
	}
	if _, err := s.Context("p"); err == nil {
		t.Error("context is left")
	}

	if err := project_rm.Task()(ctx, logger.Null(), s, cl, nil); !errors.Is(err, dherr.ErrEntityNotExists) {
		t.Errorf("deleting twice: expected ErrEntityNotExists, got %v", err)
	}
}
