package registry_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry/base"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtime"
	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/try"
)

type stubRuntime struct {
	runtime.Delegated
	env runtime.Env
}

func (s *stubRuntime) Run(context.Context, fields.Bag) (*runtime.Result, error) {
	return &runtime.Result{}, nil
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	stub := func(env runtime.Env) (runtime.Runtime, error) { return &stubRuntime{env: env}, nil }
	ext := func(r *registry.Registry) error {
		return base.Executable(
			r,
			registry.Descriptor{EntityType: domain.Function, Kind: "stub", Runtime: stub},
			map[string]func() registry.Schema{"job": nil, "serve": nil},
			nil,
		)
	}
	if err := reg.Install(base.Extension, ext); err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestRegister_Lookup(t *testing.T) {
	t.Run("registered kinds are looked up as registered", func(t *testing.T) {
		reg := registry.New()
		descriptors := []registry.Descriptor{
			{EntityType: domain.Function, Kind: "f", Runtime: runtime.NewDelegated},
			{EntityType: domain.Task, Kind: "f+job", Executable: "f", Action: "job"},
			{EntityType: domain.Run, Kind: "f+job", Executable: "f", Action: "job"},
			{EntityType: domain.Artifact, Kind: "artifact"},
		}
		for _, d := range descriptors {
			if err := reg.Register(d); err != nil {
				t.Fatal(err)
			}
		}
		for _, d := range descriptors {
			got := try.To(reg.Lookup(d.EntityType, d.Kind)).OrFatal(t)
			if got.EntityType != d.EntityType || got.Kind != d.Kind ||
				got.Executable != d.Executable || got.Action != d.Action {
				t.Errorf("lookup %s/%s: expected %+v, got %+v", d.EntityType, d.Kind, d, got)
			}
		}
	})

	t.Run("registering twice fails", func(t *testing.T) {
		reg := registry.New()
		d := registry.Descriptor{EntityType: domain.Model, Kind: "mlflow"}
		if err := reg.Register(d); err != nil {
			t.Fatal(err)
		}
		if err := reg.Register(d); !errors.Is(err, dherr.ErrKindAlreadyRegistered) {
			t.Errorf("expected ErrKindAlreadyRegistered, got %v", err)
		}
	})

	t.Run("same kind for different entity types is allowed", func(t *testing.T) {
		reg := registry.New()
		for _, et := range []domain.EntityType{domain.Task, domain.Run} {
			if err := reg.Register(registry.Descriptor{EntityType: et, Kind: "x+job"}); err != nil {
				t.Fatal(err)
			}
		}
	})

	t.Run("unknown kind is a hard error", func(t *testing.T) {
		reg := registry.New()
		_, err := reg.Lookup(domain.Function, "nothing")
		if !errors.Is(err, dherr.ErrUnknownKind) || !errors.Is(err, dherr.ErrEntity) {
			t.Errorf("expected ErrUnknownKind, got %v", err)
		}
	})

	t.Run("descriptor without kind is rejected", func(t *testing.T) {
		reg := registry.New()
		if err := reg.Register(registry.Descriptor{EntityType: domain.Model}); !errors.Is(err, dherr.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestInstall(t *testing.T) {
	reg := newRegistry(t)

	if !slices.Equal(reg.Kinds(domain.Task), []string{"stub+job", "stub+serve"}) {
		t.Errorf("unexpected task kinds: %v", reg.Kinds(domain.Task))
	}
	if !slices.Equal(reg.Kinds(domain.Run), []string{"stub+job", "stub+run", "stub+serve"}) {
		t.Errorf("unexpected run kinds: %v", reg.Kinds(domain.Run))
	}
	if !slices.Equal(reg.Actions("stub"), []string{"job", "serve"}) {
		t.Errorf("unexpected actions: %v", reg.Actions("stub"))
	}
	if k := try.To(reg.TaskKind("stub", "job")).OrFatal(t); k != "stub+job" {
		t.Errorf("unexpected task kind: %s", k)
	}
	if _, err := reg.TaskKind("stub", "build"); !errors.Is(err, dherr.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if k := try.To(reg.RunKind("stub")).OrFatal(t); k != "stub+run" {
		t.Errorf("unexpected run kind: %s", k)
	}
	if a := reg.ActionOf("stub+serve"); a != "serve" {
		t.Errorf("unexpected action: %s", a)
	}

	t.Run("installing again fails with duplication", func(t *testing.T) {
		if err := reg.Install(base.Extension); !errors.Is(err, dherr.ErrKindAlreadyRegistered) {
			t.Errorf("expected ErrKindAlreadyRegistered, got %v", err)
		}
	})
}

func TestRuntime(t *testing.T) {
	reg := newRegistry(t)

	for _, kind := range []string{"stub", "stub+job", "stub+run"} {
		t.Run("runtime is resolved for "+kind, func(t *testing.T) {
			rt := try.To(reg.Runtime(kind, runtime.Env{Project: "p"})).OrFatal(t)
			stub, ok := rt.(*stubRuntime)
			if !ok {
				t.Fatalf("unexpected runtime: %T", rt)
			}
			if stub.env.Project != "p" {
				t.Errorf("env is not passed: %+v", stub.env)
			}
		})
	}

	t.Run("unknown executable", func(t *testing.T) {
		if _, err := reg.Runtime("nothing+job", runtime.Env{}); !errors.Is(err, dherr.ErrUnknownKind) {
			t.Errorf("expected ErrUnknownKind, got %v", err)
		}
	})
}

func TestValidateSpec(t *testing.T) {
	reg := newRegistry(t)

	type When struct {
		entityType domain.EntityType
		kind       string
		spec       fields.Bag
	}

	theory := func(when When, then error) func(*testing.T) {
		return func(t *testing.T) {
			err := reg.ValidateSpec(when.entityType, when.kind, when.spec)
			if then == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, then) {
				t.Errorf("expected %v, got %v", then, err)
			}
		}
	}

	t.Run("artifact with path", theory(
		When{domain.Artifact, "artifact", fields.Bag{"path": "s3://bucket/key"}}, nil,
	))
	t.Run("artifact without path", theory(
		When{domain.Artifact, "artifact", fields.Bag{}}, dherr.ErrValidation,
	))
	t.Run("artifact with unknown scheme", theory(
		When{domain.Artifact, "artifact", fields.Bag{"path": "ftp://x/y"}}, dherr.ErrUnknownScheme,
	))
	t.Run("task with resources", theory(
		When{domain.Task, "stub+job", fields.Bag{
			"function":  "stub://p/f:1",
			"resources": map[string]any{"cpu": "500m", "mem": "1Gi", "gpu": 1},
			"envs":      []any{map[string]any{"name": "A", "value": "b"}},
		}}, nil,
	))
	t.Run("task with broken quantity", theory(
		When{domain.Task, "stub+job", fields.Bag{
			"function":  "stub://p/f:1",
			"resources": map[string]any{"cpu": "lots"},
		}}, dherr.ErrValidation,
	))
	t.Run("task with unknown volume type", theory(
		When{domain.Task, "stub+job", fields.Bag{
			"function": "stub://p/f:1",
			"volumes":  []any{map[string]any{"volume_type": "nfs", "name": "v", "mount_path": "/data"}},
		}}, dherr.ErrValidation,
	))
	t.Run("task without function", theory(
		When{domain.Task, "stub+job", fields.Bag{}}, dherr.ErrValidation,
	))
	t.Run("unknown kind", theory(
		When{domain.Model, "pytorch", fields.Bag{"path": "x"}}, dherr.ErrUnknownKind,
	))
}
