package local_test

import (
	"context"
	"errors"
	"testing"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/client/local"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/try"
)

func artifact(name string, id string, created string) fields.Bag {
	return fields.Bag{
		"project": "p", "name": name, "id": id, "kind": "artifact",
		"metadata": map[string]any{"created": created},
		"spec":     map[string]any{"path": "s3://bucket/" + name},
		"status":   map[string]any{"state": "CREATED"},
	}
}

func TestCreateObject(t *testing.T) {
	ctx := context.Background()

	t.Run("creating the same object twice fails and keeps the first", func(t *testing.T) {
		c := local.New()
		api := client.ContextAPI("p", domain.Artifact)
		obj := artifact("a", "1", "2024-01-01T00:00:00.000Z")

		try.To(c.CreateObject(ctx, api, obj)).OrFatal(t)

		second := obj.Clone()
		second["spec"] = map[string]any{"path": "s3://elsewhere"}
		_, err := c.CreateObject(ctx, api, second)
		if !errors.Is(err, dherr.ErrEntityAlreadyExists) {
			t.Fatalf("expected ErrEntityAlreadyExists, got %v", err)
		}
		if !errors.Is(err, dherr.ErrBackend) {
			t.Errorf("should be a backend error: %v", err)
		}

		got := try.To(c.ReadObject(ctx, client.ContextAPI("p", domain.Artifact, "1"), nil)).OrFatal(t)
		if got.Map("spec").Str("path") != "s3://bucket/a" {
			t.Errorf("first object is overwritten: %v", got)
		}
	})

	t.Run("duplicated project", func(t *testing.T) {
		c := local.New()
		p := fields.Bag{"name": "p", "kind": "project"}
		try.To(c.CreateObject(ctx, client.BaseAPI(domain.Project), p)).OrFatal(t)
		if _, err := c.CreateObject(ctx, client.BaseAPI(domain.Project), p); !errors.Is(err, dherr.ErrEntityAlreadyExists) {
			t.Errorf("expected ErrEntityAlreadyExists, got %v", err)
		}
	})

	t.Run("stored object is a copy", func(t *testing.T) {
		c := local.New()
		obj := artifact("a", "1", "2024-01-01T00:00:00.000Z")
		try.To(c.CreateObject(ctx, client.ContextAPI("p", domain.Artifact), obj)).OrFatal(t)
		obj.Map("spec")["path"] = "changed"

		got := try.To(c.ReadObject(ctx, client.ContextAPI("p", domain.Artifact, "1"), nil)).OrFatal(t)
		if got.Map("spec").Str("path") != "s3://bucket/a" {
			t.Errorf("stored object is shared: %v", got)
		}
	})
}

func TestReadObject(t *testing.T) {
	ctx := context.Background()
	c := local.New()
	api := client.ContextAPI("p", domain.Artifact)
	try.To(c.CreateObject(ctx, api, artifact("a", "1", "2024-01-01T00:00:00.000Z"))).OrFatal(t)
	try.To(c.CreateObject(ctx, api, artifact("a", "2", "2024-02-01T00:00:00.000Z"))).OrFatal(t)

	t.Run("by id", func(t *testing.T) {
		got := try.To(c.ReadObject(ctx, client.ContextAPI("p", domain.Artifact, "1"), nil)).OrFatal(t)
		if got.Str("id") != "1" {
			t.Errorf("unexpected: %v", got)
		}
	})

	t.Run("latest by name", func(t *testing.T) {
		got := try.To(c.ReadObject(ctx, api, client.Params{"name": "a"})).OrFatal(t)
		if got.Str("id") != "2" {
			t.Errorf("unexpected: %v", got)
		}
	})

	t.Run("missing", func(t *testing.T) {
		for _, target := range []string{
			client.ContextAPI("p", domain.Artifact, "3"),
			client.ContextAPI("q", domain.Artifact, "1"),
			client.BaseAPI(domain.Project, "p"),
		} {
			if _, err := c.ReadObject(ctx, target, nil); !errors.Is(err, dherr.ErrEntityNotExists) {
				t.Errorf("%s: expected ErrEntityNotExists, got %v", target, err)
			}
		}
	})

	t.Run("logs are empty", func(t *testing.T) {
		got := try.To(c.ReadObject(ctx, client.OperationAPI("p", domain.Run, "r", client.OpLogs), nil)).OrFatal(t)
		if len(got) != 0 {
			t.Errorf("unexpected: %v", got)
		}
	})

	t.Run("secret values are not available", func(t *testing.T) {
		_, err := c.ReadObject(ctx, client.DataAPI("p", domain.Secret), nil)
		if !errors.Is(err, dherr.ErrNotSupported) {
			t.Errorf("expected ErrNotSupported, got %v", err)
		}
	})
}

func TestReadProject_ListsContents(t *testing.T) {
	ctx := context.Background()
	c := local.New()
	try.To(c.CreateObject(ctx, client.BaseAPI(domain.Project), fields.Bag{
		"name": "p", "kind": "project", "spec": map[string]any{"context": "./"},
	})).OrFatal(t)
	try.To(c.CreateObject(ctx, client.ContextAPI("p", domain.Artifact), artifact("a", "1", "2024-01-01T00:00:00.000Z"))).OrFatal(t)
	embedded := artifact("b", "2", "2024-01-01T00:00:00.000Z")
	embedded["metadata"] = map[string]any{"created": "2024-01-01T00:00:00.000Z", "embedded": true}
	try.To(c.CreateObject(ctx, client.ContextAPI("p", domain.Artifact), embedded)).OrFatal(t)
	try.To(c.CreateObject(ctx, client.ContextAPI("other", domain.Artifact), artifact("c", "3", "2024-01-01T00:00:00.000Z"))).OrFatal(t)

	p := try.To(c.ReadObject(ctx, client.BaseAPI(domain.Project, "p"), nil)).OrFatal(t)
	spec := p.Map("spec")
	if spec.Str("context") != "./" {
		t.Errorf("spec is lost: %v", spec)
	}
	arts := spec.Slice("artifacts")
	if len(arts) != 2 {
		t.Fatalf("unexpected artifacts: %v", arts)
	}
	a, b := fields.AsBag(arts[0]), fields.AsBag(arts[1])
	if a.Str("name") != "a" || a.Has("spec") {
		t.Errorf("not embedded artifact should not have spec: %v", a)
	}
	if b.Str("name") != "b" || !b.Has("spec") {
		t.Errorf("embedded artifact should have spec: %v", b)
	}
	if fns := spec.Slice("functions"); fns == nil || len(fns) != 0 {
		t.Errorf("functions should be empty list: %v", fns)
	}
}

func TestUpdateObject(t *testing.T) {
	ctx := context.Background()
	c := local.New()
	api := client.ContextAPI("p", domain.Artifact)
	try.To(c.CreateObject(ctx, api, artifact("a", "1", "2024-01-01T00:00:00.000Z"))).OrFatal(t)
	try.To(c.CreateObject(ctx, api, artifact("a", "2", "2024-02-01T00:00:00.000Z"))).OrFatal(t)

	t.Run("latest follows update", func(t *testing.T) {
		updated := artifact("a", "2", "2024-02-01T00:00:00.000Z")
		updated["status"] = map[string]any{"state": "READY"}
		try.To(c.UpdateObject(ctx, client.ContextAPI("p", domain.Artifact, "2"), updated)).OrFatal(t)

		got := try.To(c.ReadObject(ctx, api, client.Params{"name": "a"})).OrFatal(t)
		if got.Map("status").Str("state") != "READY" {
			t.Errorf("unexpected: %v", got)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := c.UpdateObject(ctx, client.ContextAPI("p", domain.Artifact, "9"), artifact("a", "9", ""))
		if !errors.Is(err, dherr.ErrEntityNotExists) {
			t.Errorf("expected ErrEntityNotExists, got %v", err)
		}
	})
}

func TestDeleteObject(t *testing.T) {
	ctx := context.Background()
	setup := func(t *testing.T) *local.Client {
		c := local.New()
		api := client.ContextAPI("p", domain.Artifact)
		try.To(c.CreateObject(ctx, api, artifact("a", "1", "2024-01-01T00:00:00.000Z"))).OrFatal(t)
		try.To(c.CreateObject(ctx, api, artifact("a", "3", "2024-03-01T00:00:00.000Z"))).OrFatal(t)
		try.To(c.CreateObject(ctx, api, artifact("a", "2", "2024-02-01T00:00:00.000Z"))).OrFatal(t)
		return c
	}

	t.Run("deleting latest recomputes latest by created", func(t *testing.T) {
		c := setup(t)
		// "2" is created last, so it is latest.
		got := try.To(c.DeleteObject(ctx, client.ContextAPI("p", domain.Artifact, "2"), nil)).OrFatal(t)
		if !got.Bool("deleted") {
			t.Errorf("unexpected response: %v", got)
		}
		latest := try.To(c.ReadObject(ctx, client.ContextAPI("p", domain.Artifact), client.Params{"name": "a"})).OrFatal(t)
		if latest.Str("id") != "3" {
			t.Errorf("unexpected latest: %v", latest)
		}
	})

	t.Run("by name deletes all versions", func(t *testing.T) {
		c := setup(t)
		try.To(c.DeleteObject(ctx, client.ContextAPI("p", domain.Artifact), client.Params{"name": "a"})).OrFatal(t)
		for _, id := range []string{"1", "2", "3"} {
			if _, err := c.ReadObject(ctx, client.ContextAPI("p", domain.Artifact, id), nil); !errors.Is(err, dherr.ErrEntityNotExists) {
				t.Errorf("%s remains: %v", id, err)
			}
		}
	})

	t.Run("missing", func(t *testing.T) {
		c := setup(t)
		if _, err := c.DeleteObject(ctx, client.ContextAPI("p", domain.Artifact, "9"), nil); !errors.Is(err, dherr.ErrEntityNotExists) {
			t.Errorf("expected ErrEntityNotExists, got %v", err)
		}
	})

	t.Run("project with cascade", func(t *testing.T) {
		c := setup(t)
		try.To(c.CreateObject(ctx, client.BaseAPI(domain.Project), fields.Bag{"name": "p", "kind": "project"})).OrFatal(t)
		try.To(c.DeleteObject(ctx, client.BaseAPI(domain.Project, "p"), client.Params{"cascade": "true"})).OrFatal(t)
		if _, err := c.ReadObject(ctx, client.ContextAPI("p", domain.Artifact, "1"), nil); !errors.Is(err, dherr.ErrEntityNotExists) {
			t.Errorf("entity in project remains: %v", err)
		}
	})
}

func TestListObjects(t *testing.T) {
	ctx := context.Background()
	c := local.New()
	api := client.ContextAPI("p", domain.Run)
	runs := []fields.Bag{
		{"id": "r1", "kind": "python+run", "metadata": map[string]any{"created": "2024-01-01T00:00:00.000Z"},
			"spec": map[string]any{"task": "python+job://p/t1"}, "status": map[string]any{"state": "COMPLETED"}},
		{"id": "r2", "kind": "python+run", "metadata": map[string]any{"created": "2024-01-02T00:00:00.000Z"},
			"spec": map[string]any{"task": "python+job://p/t1"}, "status": map[string]any{"state": "ERROR"}},
		{"id": "r3", "kind": "container+run", "metadata": map[string]any{"created": "2024-01-03T00:00:00.000Z"},
			"spec": map[string]any{"task": "container+job://p/t2"}, "status": map[string]any{"state": "COMPLETED"}},
	}
	for _, r := range runs {
		try.To(c.CreateObject(ctx, api, r)).OrFatal(t)
	}

	type When struct {
		params client.Params
	}
	type Then struct {
		ids []string
	}
	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			got := try.To(c.ListObjects(ctx, api, when.params)).OrFatal(t)
			ids := make([]string, len(got))
			for i := range got {
				ids[i] = got[i].Str("id")
			}
			if len(ids) != len(then.ids) {
				t.Fatalf("got %v, want %v", ids, then.ids)
			}
			for i := range ids {
				if ids[i] != then.ids[i] {
					t.Errorf("got %v, want %v", ids, then.ids)
				}
			}
		}
	}

	t.Run("all, newer first", theory(When{}, Then{ids: []string{"r3", "r2", "r1"}}))
	t.Run("by kind", theory(
		When{params: client.Params{"kind": "python+run"}}, Then{ids: []string{"r2", "r1"}},
	))
	t.Run("by state", theory(
		When{params: client.Params{"state": "COMPLETED"}}, Then{ids: []string{"r3", "r1"}},
	))
	t.Run("by task", theory(
		When{params: client.Params{"task": "python+job://p/t1", "state": "ERROR"}}, Then{ids: []string{"r2"}},
	))
	t.Run("other project is empty", func(t *testing.T) {
		got := try.To(c.ListObjects(ctx, client.ContextAPI("q", domain.Run), nil)).OrFatal(t)
		if len(got) != 0 {
			t.Errorf("unexpected: %v", got)
		}
	})

	t.Run("versions", func(t *testing.T) {
		aapi := client.ContextAPI("p", domain.Artifact)
		try.To(c.CreateObject(ctx, aapi, artifact("a", "1", "2024-01-01T00:00:00.000Z"))).OrFatal(t)
		try.To(c.CreateObject(ctx, aapi, artifact("a", "2", "2024-02-01T00:00:00.000Z"))).OrFatal(t)
		try.To(c.CreateObject(ctx, aapi, artifact("b", "3", "2024-03-01T00:00:00.000Z"))).OrFatal(t)

		latest := try.To(c.ListObjects(ctx, aapi, nil)).OrFatal(t)
		if len(latest) != 2 {
			t.Errorf("only latest versions are listed: %v", latest)
		}
		all := try.To(c.ListObjects(ctx, aapi, client.Params{"name": "a", "versions": "all"})).OrFatal(t)
		if len(all) != 2 || all[0].Str("id") != "2" || all[1].Str("id") != "1" {
			t.Errorf("unexpected versions: %v", all)
		}
	})
}
