package entity_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	entity_download "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/entity/download"
	entity_list "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/entity/list"
	entity_rm "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/entity/rm"
	entity_show "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/entity/show"
	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/internal/commandline"
	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/internal/fixture"
	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/logger"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/try"
)

func logArtifact(t *testing.T, p *sdk.Project, name string, content string) *sdk.Material {
	t.Helper()
	src := filepath.Join(t.TempDir(), name+".txt")
	if err := os.WriteFile(src, []byte(content), os.FileMode(0644)); err != nil {
		t.Fatal(err)
	}
	return try.To(p.LogArtifact(context.Background(), sdk.Params{Name: name}, src)).OrFatal(t)
}

func TestShow(t *testing.T) {
	ctx := context.Background()
	s := fixture.SDK(t)
	p := fixture.Project(t, s, "p")
	v1 := logArtifact(t, p, "a", "v1")
	v2 := logArtifact(t, p, "a", "v2")

	type When struct {
		key string
	}
	type Then struct {
		id  string
		err error
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			cl, stdout, _ := commandline.New(
				"dhub entity show", struct{}{},
				map[string][]string{entity_show.ARG_KEY: {when.key}},
			)
			err := entity_show.Task()(ctx, logger.Null(), s, cl, nil)
			if then.err != nil {
				if !errors.Is(err, then.err) {
					t.Errorf("expected %v, got %v", then.err, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			var got map[string]any
			if err := json.Unmarshal([]byte(stdout.String()), &got); err != nil {
				t.Fatalf("output is not json: %s", stdout)
			}
			if id := fields.Bag(got).Str("id"); id != then.id {
				t.Errorf("expected id %s, got %s", then.id, id)
			}
		}
	}

	t.Run("versioned key shows the version", theory(
		When{key: v1.Key},
		Then{id: v1.ID},
	))

	t.Run("key without id shows the latest", theory(
		When{key: domain.BuildKey("p", domain.Artifact, "artifact", "a", "")},
		Then{id: v2.ID},
	))

	t.Run("project key shows the project", theory(
		When{key: domain.BuildProjectKey("p")},
		Then{id: p.ID},
	))

	t.Run("malformed key is ErrInvalidKey", theory(
		When{key: "p/artifact/a"},
		Then{err: dherr.ErrInvalidKey},
	))

	t.Run("key of missing project is ErrEntityNotExists", theory(
		When{key: domain.BuildKey("missing", domain.Artifact, "artifact", "a", "")},
		Then{err: dherr.ErrEntityNotExists},
	))
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := fixture.SDK(t)
	p := fixture.Project(t, s, "p")
	logArtifact(t, p, "a", "v1")
	logArtifact(t, p, "a", "v2")
	logArtifact(t, p, "b", "v1")

	type Then struct {
		count int
		err   error
	}

	theory := func(typ string, flags entity_list.Flags, then Then) func(*testing.T) {
		return func(t *testing.T) {
			cl, stdout, _ := commandline.New(
				"dhub entity list", flags,
				map[string][]string{
					entity_list.ARG_PROJECT: {"p"},
					entity_list.ARG_TYPE:    {typ},
				},
			)
			err := entity_list.Task()(ctx, logger.Null(), s, cl, nil)
			if then.err != nil {
				if !errors.Is(err, then.err) {
					t.Errorf("expected %v, got %v", then.err, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			var got []any
			if err := json.Unmarshal([]byte(stdout.String()), &got); err != nil {
				t.Fatalf("output is not json: %s", stdout)
			}
			if len(got) != then.count {
				t.Errorf("expected %d entities, got %d", then.count, len(got))
			}
		}
	}

	t.Run("latest versions are listed", theory("artifact", entity_list.Flags{}, Then{count: 2}))
	t.Run("plural type is accepted", theory("artifacts", entity_list.Flags{}, Then{count: 2}))
	t.Run("all versions are listed", theory("artifact", entity_list.Flags{AllVersions: true}, Then{count: 3}))
	t.Run("versions of a name are listed", theory(
		"artifact", entity_list.Flags{Name: "a", AllVersions: true}, Then{count: 2},
	))
	t.Run("empty type lists nothing", theory("model", entity_list.Flags{}, Then{count: 0}))
	t.Run("unknown type is error", theory("dataset", entity_list.Flags{}, Then{err: dherr.ErrValidation}))
}

func TestRm(t *testing.T) {
	ctx := context.Background()

	t.Run("versioned key deletes the version", func(t *testing.T) {
		s := fixture.SDK(t)
		p := fixture.Project(t, s, "p")
		v1 := logArtifact(t, p, "a", "v1")
		v2 := logArtifact(t, p, "a", "v2")

		cl, _, _ := commandline.New(
			"dhub entity rm", entity_rm.Flags{},
			map[string][]string{entity_rm.ARG_KEY: {v1.Key}},
		)
		if err := entity_rm.Task()(ctx, logger.Null(), s, cl, nil); err != nil {
			t.Fatal(err)
		}
		if _, err := p.Artifacts().Get(ctx, "a", v1.ID); !errors.Is(err, dherr.ErrEntityNotExists) {
			t.Errorf("deleted version is found: %v", err)
		}
		if _, err := p.Artifacts().Get(ctx, "a", v2.ID); err != nil {
			t.Errorf("other version is deleted: %v", err)
		}
	})

	t.Run("key without id needs --all-versions", func(t *testing.T) {
		s := fixture.SDK(t)
		p := fixture.Project(t, s, "p")
		logArtifact(t, p, "a", "v1")
		logArtifact(t, p, "a", "v2")
		key := domain.BuildKey("p", domain.Artifact, "artifact", "a", "")

		cl, _, _ := commandline.New(
			"dhub entity rm", entity_rm.Flags{},
			map[string][]string{entity_rm.ARG_KEY: {key}},
		)
		if err := entity_rm.Task()(ctx, logger.Null(), s, cl, nil); !errors.Is(err, dherr.ErrInvalidKey) {
			t.Errorf("expected ErrInvalidKey, got %v", err)
		}

		cl.Flags_ = entity_rm.Flags{AllVersions: true}
		if err := entity_rm.Task()(ctx, logger.Null(), s, cl, nil); err != nil {
			t.Fatal(err)
		}
		if found := try.To(p.Artifacts().Versions(ctx, "a")).OrFatal(t); len(found) != 0 {
			t.Errorf("versions are left: %d", len(found))
		}
	})
}

func TestDownload(t *testing.T) {
	ctx := context.Background()
	s := fixture.SDK(t)
	p := fixture.Project(t, s, "p")
	a := logArtifact(t, p, "a", "hello")

	dest := t.TempDir()
	cl, stdout, _ := commandline.New(
		"dhub entity download", entity_download.Flags{},
		map[string][]string{
			entity_download.ARG_KEY:  {a.Key},
			entity_download.ARG_DEST: {dest},
		},
	)
	if err := entity_download.Task()(ctx, logger.Null(), s, cl, nil); err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(stdout.String())
	buf := try.To(os.ReadFile(filepath.Join(got, "a.txt"))).OrFatal(t)
	if string(buf) != "hello" {
		t.Errorf("unexpected content: %s", buf)
	}

	t.Run("downloading again without --overwrite fails", func(t *testing.T) {
		if err := entity_download.Task()(ctx, logger.Null(), s, cl, nil); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("downloading again with --overwrite succeeds", func(t *testing.T) {
		cl := cl
		cl.Flags_ = entity_download.Flags{Overwrite: true}
		if err := entity_download.Task()(ctx, logger.Null(), s, cl, nil); err != nil {
			t.Error(err)
		}
	})

	t.Run("secret has no data", func(t *testing.T) {
		secret := try.To(p.Secrets().New(ctx, sdk.Params{Name: "token", Kind: "secret"})).OrFatal(t)
		cl, _, _ := commandline.New(
			"dhub entity download", entity_download.Flags{},
			map[string][]string{entity_download.ARG_KEY: {secret.Key}},
		)
		if err := entity_download.Task()(ctx, logger.Null(), s, cl, nil); !errors.Is(err, dherr.ErrEntityTypeMismatch) {
			t.Errorf("expected ErrEntityTypeMismatch, got %v", err)
		}
	})
}
