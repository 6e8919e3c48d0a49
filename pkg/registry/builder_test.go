package registry_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/entity"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/try"
)

func TestBuildFromParams(t *testing.T) {
	reg := newRegistry(t)

	t.Run("a new artifact gets identity and defaults", func(t *testing.T) {
		e := try.To(reg.BuildFromParams(registry.Params{
			Type: domain.Artifact, Project: "p", Name: "a", Kind: "artifact",
			Labels: []string{"x"},
			Spec:   fields.Bag{"path": "s3://b/k"},
			Extra:  fields.Bag{"custom": 1},
		})).OrFatal(t)

		if _, err := uuid.Parse(e.ID); err != nil {
			t.Errorf("id is not uuid: %s", e.ID)
		}
		if e.Key != domain.BuildKey("p", domain.Artifact, "artifact", "a", e.ID) {
			t.Errorf("unexpected key: %s", e.Key)
		}
		if e.State() != domain.Created {
			t.Errorf("unexpected state: %s", e.State())
		}
		m := e.Metadata
		if m.Project != "p" || m.Name != "a" || m.Version != e.ID || m.Created == "" || m.Updated != m.Created {
			t.Errorf("unexpected metadata: %+v", m)
		}
		if _, err := entity.ParseTimestamp(m.Created); err != nil {
			t.Errorf("created is not a timestamp: %s", m.Created)
		}
		if e.Extra["custom"] != 1 {
			t.Errorf("extra is lost: %v", e.Extra)
		}
	})

	t.Run("given id is used", func(t *testing.T) {
		e := try.To(reg.BuildFromParams(registry.Params{
			Type: domain.Secret, Project: "p", Name: "s", Kind: "secret", ID: "v1",
		})).OrFatal(t)
		if e.ID != "v1" || e.Key != "store://p/secret/secret/s:v1" {
			t.Errorf("unexpected: %s", e.Key)
		}
	})

	t.Run("spec is always validated", func(t *testing.T) {
		_, err := reg.BuildFromParams(registry.Params{
			Type: domain.Artifact, Project: "p", Name: "a", Kind: "artifact",
		})
		if !errors.Is(err, dherr.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := reg.BuildFromParams(registry.Params{
			Type: domain.Function, Project: "p", Name: "f", Kind: "nothing",
		})
		if !errors.Is(err, dherr.ErrUnknownKind) {
			t.Errorf("expected ErrUnknownKind, got %v", err)
		}
	})

	t.Run("project needs no project field", func(t *testing.T) {
		e := try.To(reg.BuildFromParams(registry.Params{
			Type: domain.Project, Name: "p", Kind: "project",
		})).OrFatal(t)
		if e.ID != "p" || e.Project != "p" || e.Key != "store://p" {
			t.Errorf("unexpected project: %+v", e)
		}
	})

	t.Run("entity without project is rejected", func(t *testing.T) {
		_, err := reg.BuildFromParams(registry.Params{
			Type: domain.Secret, Name: "s", Kind: "secret",
		})
		if !errors.Is(err, dherr.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("run is keyed without name", func(t *testing.T) {
		e := try.To(reg.BuildFromParams(registry.Params{
			Type: domain.Run, Project: "p", Kind: "stub+job", ID: "r1",
			Spec: fields.Bag{"task": "t"},
		})).OrFatal(t)
		if e.Key != "store://p/run/stub+job/r1" {
			t.Errorf("unexpected key: %s", e.Key)
		}
		if e.Metadata.Name != "r1" {
			t.Errorf("unexpected metadata name: %s", e.Metadata.Name)
		}
	})

	t.Run("task of another executable kind is rejected", func(t *testing.T) {
		_, err := reg.BuildFromParams(registry.Params{
			Type: domain.Task, Project: "p", Kind: "stub+job",
			Spec: fields.Bag{"function": "python://p/f:1"},
		})
		if !errors.Is(err, dherr.ErrEntityTypeMismatch) {
			t.Errorf("expected ErrEntityTypeMismatch, got %v", err)
		}
	})
}

func TestBuildFromDict(t *testing.T) {
	reg := newRegistry(t)

	t.Run("to_dict then from_dict reproduces an equal entity", func(t *testing.T) {
		for _, p := range []registry.Params{
			{Type: domain.Project, Name: "p", Kind: "project", Description: "d"},
			{Type: domain.Dataitem, Project: "p", Name: "d", Kind: "table", Spec: fields.Bag{"path": "sql://db/t"}},
			{Type: domain.Model, Project: "p", Name: "m", Kind: "mlflow", Spec: fields.Bag{"path": "./m", "flavor": "sklearn"}},
			{Type: domain.Function, Project: "p", Name: "f", Kind: "stub"},
			{Type: domain.Task, Project: "p", Kind: "stub+job", Spec: fields.Bag{"function": "stub://p/f:1"}},
			{Type: domain.Run, Project: "p", Kind: "stub+run", Spec: fields.Bag{"task": "stub+job://p/t1"}},
		} {
			original := try.To(reg.BuildFromParams(p)).OrFatal(t)
			dict := original.ToDict()

			restored := try.To(reg.BuildFromDict("", dict, false)).OrFatal(t)
			if !fields.Equal(restored.ToDict(), dict) {
				t.Errorf("%s: round trip changed entity:\n%v\n%v", original.Key, dict, restored.ToDict())
			}
			if restored.Type != p.Type {
				t.Errorf("%s: type is changed: %s", original.Key, restored.Type)
			}
		}
	})

	t.Run("missing id is synthesized", func(t *testing.T) {
		e := try.To(reg.BuildFromDict(domain.Artifact, fields.Bag{
			"project": "p", "name": "a", "kind": "artifact", "spec": map[string]any{"path": "./a"},
		}, true)).OrFatal(t)
		if _, err := uuid.Parse(e.ID); err != nil {
			t.Errorf("id is not uuid: %s", e.ID)
		}
		if e.Key != domain.BuildKey("p", domain.Artifact, "artifact", "a", e.ID) {
			t.Errorf("unexpected key: %s", e.Key)
		}
	})

	t.Run("validation can be skipped", func(t *testing.T) {
		b := fields.Bag{"project": "p", "name": "a", "kind": "artifact", "id": "1"}
		if _, err := reg.BuildFromDict(domain.Artifact, b, false); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if _, err := reg.BuildFromDict(domain.Artifact, b, true); !errors.Is(err, dherr.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("unknown kind is not swallowed even without validation", func(t *testing.T) {
		_, err := reg.BuildFromDict(domain.Model, fields.Bag{
			"project": "p", "name": "m", "kind": "pytorch", "id": "1",
		}, false)
		if !errors.Is(err, dherr.ErrUnknownKind) {
			t.Errorf("expected ErrUnknownKind, got %v", err)
		}
	})

	t.Run("entity type is required when key is missing", func(t *testing.T) {
		_, err := reg.BuildFromDict("", fields.Bag{"kind": "artifact", "name": "a"}, false)
		if !errors.Is(err, dherr.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}
