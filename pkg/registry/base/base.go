// Package base registers kinds of entities which are not executed: projects, materials
// (artifacts, dataitems and models) and secrets.
package base

import (
	"fmt"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
	"github.com/scc-digitalhub/digitalhub-go/pkg/uri"
)

type Project struct {
	Context   string `json:"context,omitempty"`
	Source    string `json:"source,omitempty"`
	Functions []any  `json:"functions,omitempty"`
	Artifacts []any  `json:"artifacts,omitempty"`
	Dataitems []any  `json:"dataitems,omitempty"`
	Models    []any  `json:"models,omitempty"`
	Workflows []any  `json:"workflows,omitempty"`
}

func (p *Project) Validate() error {
	if p.Source != "" {
		if _, err := uri.MapURIScheme(p.Source); err != nil {
			return fmt.Errorf("%w: source: %w", dherr.ErrValidation, err)
		}
	}
	return nil
}

// Material is the schema common to artifacts, dataitems and models.
type Material struct {
	Path    string `json:"path"`
	SrcPath string `json:"src_path,omitempty"`
}

func (m *Material) Validate() error {
	if m.Path == "" {
		return fmt.Errorf("%w: path is required", dherr.ErrValidation)
	}
	if _, err := uri.MapURIScheme(m.Path); err != nil {
		return fmt.Errorf("%w: path: %w", dherr.ErrValidation, err)
	}
	return nil
}

type Table struct {
	Material
	Schema map[string]any `json:"schema,omitempty"`
}

func (t *Table) Validate() error {
	return t.Material.Validate()
}

type Model struct {
	Material
	Framework  string         `json:"framework,omitempty"`
	Algorithm  string         `json:"algorithm,omitempty"`
	BaseModel  string         `json:"base_model,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Metrics    map[string]any `json:"metrics,omitempty"`
}

func (m *Model) Validate() error {
	return m.Material.Validate()
}

type Mlflow struct {
	Model
	Flavor        string         `json:"flavor,omitempty"`
	ModelConfig   map[string]any `json:"model_config,omitempty"`
	InputDatasets []any          `json:"input_datasets,omitempty"`
	Signature     map[string]any `json:"signature,omitempty"`
}

type Huggingface struct {
	Model
	ModelID       string `json:"model_id,omitempty"`
	ModelRevision string `json:"model_revision,omitempty"`
}

type Secret struct {
	Path     string `json:"path,omitempty"`
	Provider string `json:"provider,omitempty"`
}

func (*Secret) Validate() error { return nil }

// Extension registers base kinds.
func Extension(reg *registry.Registry) error {
	descriptors := []registry.Descriptor{
		{EntityType: domain.Project, Kind: "project", Schema: func() registry.Schema { return &Project{} }},

		{EntityType: domain.Artifact, Kind: "artifact", Schema: func() registry.Schema { return &Material{} }},

		{EntityType: domain.Dataitem, Kind: "dataitem", Schema: func() registry.Schema { return &Material{} }},
		{EntityType: domain.Dataitem, Kind: "table", Schema: func() registry.Schema { return &Table{} }},

		{EntityType: domain.Model, Kind: "model", Schema: func() registry.Schema { return &Model{} }},
		{EntityType: domain.Model, Kind: "sklearn", Schema: func() registry.Schema { return &Model{} }},
		{EntityType: domain.Model, Kind: "mlflow", Schema: func() registry.Schema { return &Mlflow{} }},
		{EntityType: domain.Model, Kind: "huggingface", Schema: func() registry.Schema { return &Huggingface{} }},

		{EntityType: domain.Secret, Kind: "secret", Schema: func() registry.Schema { return &Secret{} }},
	}
	for _, d := range descriptors {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Executable registers kinds of an executable (function or workflow), its tasks and runs.
//
// Each task kind "<kind>+<action>" is registered also as a run kind, so runs can be typed by action,
// besides "<kind>+run".
//
// # Args
//
// - reg: registry
//
// - fn: descriptor of the function or the workflow. Its Runtime is shared by tasks and runs.
//
// - tasks: map from action to the task schema. nil schema means FunctionTask or WorkflowTask.
//
// - run: the run schema. nil means Run.
func Executable(
	reg *registry.Registry,
	fn registry.Descriptor,
	tasks map[string]func() registry.Schema,
	run func() registry.Schema,
) error {
	if !fn.EntityType.IsExecutable() {
		return fmt.Errorf("%w: %s is not executable", dherr.ErrEntityTypeMismatch, fn.EntityType)
	}
	if err := reg.Register(fn); err != nil {
		return err
	}
	if run == nil {
		run = func() registry.Schema { return &Run{} }
	}

	for action, schema := range tasks {
		if schema == nil {
			if fn.EntityType == domain.Workflow {
				schema = func() registry.Schema { return &WorkflowTask{} }
			} else {
				schema = func() registry.Schema { return &FunctionTask{} }
			}
		}
		kind := fn.Kind + "+" + action
		if err := reg.Register(registry.Descriptor{
			EntityType: domain.Task, Kind: kind, Schema: schema,
			Runtime: fn.Runtime, Executable: fn.Kind, Action: action,
		}); err != nil {
			return err
		}
		if err := reg.Register(registry.Descriptor{
			EntityType: domain.Run, Kind: kind, Schema: run,
			Runtime: fn.Runtime, Executable: fn.Kind, Action: action,
		}); err != nil {
			return err
		}
	}

	return reg.Register(registry.Descriptor{
		EntityType: domain.Run, Kind: fn.Kind + "+run", Schema: run,
		Runtime: fn.Runtime, Executable: fn.Kind,
	})
}
