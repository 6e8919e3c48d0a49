package projctx_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/client/local"
	"github.com/scc-digitalhub/digitalhub-go/pkg/client/mock"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/projctx"
	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/try"
)

func TestBuilder(t *testing.T) {
	t.Run("Get before Build is a context error", func(t *testing.T) {
		b := projctx.NewBuilder(t.TempDir())
		_, err := b.Get("p")
		if !errors.Is(err, dherr.ErrContextNotFound) {
			t.Fatalf("expected ErrContextNotFound, got %v", err)
		}
		if !errors.Is(err, dherr.ErrContext) {
			t.Errorf("should be a context error: %v", err)
		}
		want := "Context 'p' not found. Get or create a project named 'p'."
		if !strings.HasSuffix(err.Error(), want) {
			t.Errorf("message: expected to end with %q, got %q", want, err.Error())
		}
	})

	t.Run("Build creates root and is idempotent", func(t *testing.T) {
		t.Setenv(projctx.EnvRunID, "")
		root := filepath.Join(t.TempDir(), "nested", "p")
		b := projctx.NewBuilder(t.TempDir())
		c := local.New()

		first := try.To(b.Build(context.Background(), "p", c, root, fields.Bag{"k": "v"})).OrFatal(t)
		if st, err := os.Stat(root); err != nil || !st.IsDir() {
			t.Fatalf("root is not created: %v", err)
		}
		if !first.Local() {
			t.Error("context on local client should be local")
		}
		if first.Running() {
			t.Error("context should not be running")
		}

		second := try.To(b.Build(context.Background(), "p", local.New(), "", nil)).OrFatal(t)
		if first != second {
			t.Error("Build should return the existing context")
		}
		got := try.To(b.Get("p")).OrFatal(t)
		if got != first {
			t.Error("Get should return the built context")
		}
	})

	t.Run("Remove forgets context", func(t *testing.T) {
		b := projctx.NewBuilder(t.TempDir())
		try.To(b.Build(context.Background(), "p", local.New(), "", nil)).OrFatal(t)
		b.Remove("p")
		b.Remove("never-built")
		if _, err := b.Get("p"); !errors.Is(err, dherr.ErrContextNotFound) {
			t.Errorf("expected ErrContextNotFound, got %v", err)
		}
		if len(b.Projects()) != 0 {
			t.Errorf("unexpected projects: %v", b.Projects())
		}
	})

	t.Run("run from environment", func(t *testing.T) {
		type When struct {
			env string
		}
		type Then struct {
			runKey string
		}
		theory := func(when When, then Then) func(*testing.T) {
			return func(t *testing.T) {
				cl := local.New()
				try.To(cl.CreateObject(
					context.Background(),
					client.ContextAPI("p", domain.Run),
					fields.Bag{"id": "r1", "kind": "python+run", "project": "p", "spec": map[string]any{}},
				)).OrFatal(t)

				t.Setenv(projctx.EnvRunID, when.env)
				b := projctx.NewBuilder(t.TempDir())
				ctx := try.To(b.Build(context.Background(), "p", cl, "", nil)).OrFatal(t)
				if ctx.RunKey != then.runKey || ctx.Running() != (then.runKey != "") {
					t.Errorf("run key: expected %q, got %q (running: %v)", then.runKey, ctx.RunKey, ctx.Running())
				}
			}
		}

		t.Run("id is resolved to key", theory(
			When{env: "r1"}, Then{runKey: "store://p/run/python+run/r1"},
		))
		t.Run("key is accepted", theory(
			When{env: "store://p/run/python+run/r1"}, Then{runKey: "store://p/run/python+run/r1"},
		))
		t.Run("unknown run is ignored", theory(
			When{env: "r2"}, Then{runKey: ""},
		))
		t.Run("run of other project is ignored", theory(
			When{env: "store://q/run/python+run/r1"}, Then{runKey: ""},
		))
	})
}

func TestContext_Delegation(t *testing.T) {
	type When struct {
		call func(*projctx.Context) error
	}
	type Then struct {
		method string
		api    string
		params client.Params
	}

	ok := fields.Bag{"id": "x"}
	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			m := mock.New(t)
			m.Impl.CreateObject = func(_ context.Context, api string, _ fields.Bag) (fields.Bag, error) { return ok, nil }
			m.Impl.ReadObject = func(_ context.Context, api string, _ client.Params) (fields.Bag, error) { return ok, nil }
			m.Impl.UpdateObject = func(_ context.Context, api string, _ fields.Bag) (fields.Bag, error) { return ok, nil }
			m.Impl.DeleteObject = func(_ context.Context, api string, _ client.Params) (fields.Bag, error) { return ok, nil }
			m.Impl.ListObjects = func(_ context.Context, api string, _ client.Params) ([]fields.Bag, error) { return nil, nil }

			c := &projctx.Context{Name: "p", Client: m}
			if err := when.call(c); err != nil {
				t.Fatal(err)
			}

			var api string
			var params client.Params
			switch then.method {
			case "create":
				api = m.Calls.CreateObject[0].API
			case "read":
				api, params = m.Calls.ReadObject[0].API, m.Calls.ReadObject[0].Params
			case "update":
				api = m.Calls.UpdateObject[0].API
			case "delete":
				api, params = m.Calls.DeleteObject[0].API, m.Calls.DeleteObject[0].Params
			case "list":
				api, params = m.Calls.ListObjects[0].API, m.Calls.ListObjects[0].Params
			}
			if api != then.api {
				t.Errorf("api: expected %s, got %s", then.api, api)
			}
			for k, v := range then.params {
				if params[k] != v {
					t.Errorf("param %s: expected %s, got %v", k, v, params)
				}
			}
		}
	}

	ctx := context.Background()
	t.Run("create", theory(
		When{call: func(c *projctx.Context) error {
			_, err := c.Create(ctx, domain.Artifact, fields.Bag{})
			return err
		}},
		Then{method: "create", api: "/api/v1/-/p/artifacts"},
	))
	t.Run("create project", theory(
		When{call: func(c *projctx.Context) error {
			_, err := c.Create(ctx, domain.Project, fields.Bag{})
			return err
		}},
		Then{method: "create", api: "/api/v1/projects"},
	))
	t.Run("read", theory(
		When{call: func(c *projctx.Context) error {
			_, err := c.Read(ctx, domain.Run, "r1")
			return err
		}},
		Then{method: "read", api: "/api/v1/-/p/runs/r1"},
	))
	t.Run("read latest", theory(
		When{call: func(c *projctx.Context) error {
			_, err := c.ReadLatest(ctx, domain.Function, "f")
			return err
		}},
		Then{method: "read", api: "/api/v1/-/p/functions", params: client.Params{"name": "f"}},
	))
	t.Run("update", theory(
		When{call: func(c *projctx.Context) error {
			_, err := c.Update(ctx, domain.Model, "m1", fields.Bag{})
			return err
		}},
		Then{method: "update", api: "/api/v1/-/p/models/m1"},
	))
	t.Run("delete all versions", theory(
		When{call: func(c *projctx.Context) error {
			_, err := c.DeleteAll(ctx, domain.Dataitem, "d", client.Params{"cascade": "true"})
			return err
		}},
		Then{method: "delete", api: "/api/v1/-/p/dataitems", params: client.Params{"name": "d", "cascade": "true"}},
	))
	t.Run("list", theory(
		When{call: func(c *projctx.Context) error {
			_, err := c.List(ctx, domain.Task, client.Params{"function": "f"})
			return err
		}},
		Then{method: "list", api: "/api/v1/-/p/tasks", params: client.Params{"function": "f"}},
	))
}

func TestContext_Run(t *testing.T) {
	c := &projctx.Context{Name: "p", Client: local.New()}
	if c.RegisterLogged("a", "store://p/artifact/artifact/a:1") {
		t.Error("not running context should not register logged entities")
	}

	c.SetRun("store://p/run/python+run/r1")
	if !c.RegisterLogged("a", "store://p/artifact/artifact/a:1") {
		t.Error("running context should register logged entities")
	}
	if c.Logged["a"] != "store://p/artifact/artifact/a:1" {
		t.Errorf("unexpected logged: %v", c.Logged)
	}

	c.UnsetRun()
	if c.Running() || len(c.Logged) != 0 {
		t.Errorf("run state should be cleared: %+v", c)
	}
}

func TestContext_WithTempDir(t *testing.T) {
	tmp := t.TempDir()
	c := &projctx.Context{Name: "p", Client: local.New(), TmpDir: tmp}

	t.Run("removed after success", func(t *testing.T) {
		var seen string
		err := c.WithTempDir(func(dir string) error {
			seen = dir
			return os.WriteFile(filepath.Join(dir, "f"), []byte("x"), 0o644)
		})
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Dir(seen) != tmp {
			t.Errorf("temp dir should be in %s: %s", tmp, seen)
		}
		if _, err := os.Stat(seen); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("temp dir remains: %v", err)
		}
	})

	t.Run("removed after failure", func(t *testing.T) {
		expected := errors.New("fake error")
		var seen string
		err := c.WithTempDir(func(dir string) error {
			seen = dir
			return expected
		})
		if !errors.Is(err, expected) {
			t.Errorf("unexpected error: %v", err)
		}
		if _, err := os.Stat(seen); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("temp dir remains: %v", err)
		}
	})
}
