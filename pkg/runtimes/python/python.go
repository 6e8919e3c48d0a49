// Package python provides functions written in python.
//
// Jobs are executed locally by an Executor, and other actions are executed by the platform.
package python

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/logger"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry/base"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtime"
)

const Kind = "python"

var pythonVersions = []string{"PYTHON3_9", "PYTHON3_10", "PYTHON3_11"}

type Function struct {
	Source        *base.Source `json:"source,omitempty"`
	Image         string       `json:"image,omitempty"`
	BaseImage     string       `json:"base_image,omitempty"`
	PythonVersion string       `json:"python_version,omitempty"`
	Requirements  []string     `json:"requirements,omitempty"`
}

func (f *Function) Validate() error {
	if f.Source.Empty() {
		return fmt.Errorf("%w: python function needs source", dherr.ErrValidation)
	}
	if err := f.Source.Validate(); err != nil {
		return err
	}
	if f.PythonVersion != "" && !slices.Contains(pythonVersions, f.PythonVersion) {
		return fmt.Errorf(
			"%w: python_version should be one of %v, but %s", dherr.ErrValidation, pythonVersions, f.PythonVersion,
		)
	}
	if err := base.ValidateImage("image", f.Image); err != nil {
		return err
	}
	return base.ValidateImage("base_image", f.BaseImage)
}

type Job struct {
	base.FunctionTask
	BackoffLimit *int `json:"backoff_limit,omitempty"`
}

type Serve struct {
	base.FunctionTask
	Replicas *int `json:"replicas,omitempty"`
}

type Build struct {
	base.FunctionTask
	Instructions []string `json:"instructions,omitempty"`
}

//go:embed wrapper.py
var wrapper string

// Runtime executes python jobs.
type Runtime struct {
	env      runtime.Env
	executor Executor
}

// Option configures Runtime.
type Option func(*Runtime)

// WithExecutor replaces the default Interpreter.
func WithExecutor(e Executor) Option {
	return func(r *Runtime) {
		r.executor = e
	}
}

// NewFactory returns a runtime.Factory of python runtimes with options.
func NewFactory(options ...Option) runtime.Factory {
	return func(env runtime.Env) (runtime.Runtime, error) {
		if env.Logger == nil {
			env.Logger = logger.Null()
		}
		r := &Runtime{env: env, executor: Interpreter{Logger: env.Logger}}
		for _, opt := range options {
			opt(r)
		}
		return r, nil
	}
}

func (*Runtime) Build(executable, task, run fields.Bag) (fields.Bag, error) {
	return runtime.Merge(executable, task, run), nil
}

// Run executes a job.
//
// The handler in spec.source is called with spec.inputs and spec.parameters as keyword arguments.
// Returned values are named after spec.outputs (a list of names), or output_{index}.
// When the handler returns a dict, its keys are names.
//
// Returned pathlib.Path are produced as artifacts. Others are results.
func (r *Runtime) Run(ctx context.Context, run fields.Bag) (*runtime.Result, error) {
	spec := run.Map("spec")
	task, err := domain.ParseExecutableString(spec.Str("task"))
	if err != nil {
		return nil, err
	}
	if _, action := domain.SplitKind(task.Kind); action != "job" {
		return nil, dherr.NewErrNotLocallyExecutable(task.Kind)
	}

	source := new(base.Source)
	if err := spec.Map("source").Decode(source); err != nil {
		return nil, fmt.Errorf("%w: source: %s", dherr.ErrValidation, err)
	}
	code, ok, err := source.Text()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: source code is not inline", dherr.ErrValidation)
	}

	dir, err := os.MkdirTemp(r.env.TmpDir, "python-")
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer os.RemoveAll(dir)

	outputs := spec.Strings("outputs")
	params := map[string]any{
		"handler":    source.Handler,
		"inputs":     map[string]any(spec.Map("inputs")),
		"parameters": map[string]any(spec.Map("parameters")),
		"outputs":    outputs,
	}
	if err := writeJSON(filepath.Join(dir, "params.json"), params); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte(code), os.FileMode(0o644)); err != nil {
		return nil, xe.Wrap(err)
	}
	script := filepath.Join(dir, "__dhwrapper__.py")
	if err := os.WriteFile(script, []byte(wrapper), os.FileMode(0o644)); err != nil {
		return nil, xe.Wrap(err)
	}

	r.env.Logger.Infof("executing %s in %s", run.Str("key"), dir)
	if err := r.executor.Execute(ctx, dir, script); err != nil {
		return &runtime.Result{State: domain.Error, Message: err.Error()}, err
	}

	return readOutputs(filepath.Join(dir, "out.json"), run.Str("id"))
}

type output struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
	Path  string `json:"path,omitempty"`
}

func readOutputs(path string, runID string) (*runtime.Result, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, xe.WrapWithNote("handler has not written outputs", err)
	}
	outs := map[string]output{}
	if err := json.Unmarshal(buf, &outs); err != nil {
		return nil, xe.Wrap(err)
	}

	names := make([]string, 0, len(outs))
	for n := range outs {
		names = append(names, n)
	}
	slices.Sort(names)

	result := &runtime.Result{State: domain.Completed, Results: fields.Bag{}}
	for _, name := range names {
		o := outs[name]
		switch o.Type {
		case "file":
			kept, err := keep(o.Path, runID)
			if err != nil {
				return nil, err
			}
			result.Produced = append(result.Produced, runtime.Produced{
				Output: name, Type: domain.Artifact, Kind: "artifact", Name: name,
				Spec: fields.Bag{"path": kept, "src_path": kept},
			})
		default:
			result.Results[name] = o.Value
		}
	}
	return result, nil
}

// keep copies a file produced by a run out of the scratch directory.
func keep(path string, runID string) (string, error) {
	dest := filepath.Join(os.TempDir(), "digitalhub-outputs", runID, filepath.Base(path))
	if err := os.MkdirAll(filepath.Dir(dest), os.FileMode(0o755)); err != nil {
		return "", xe.Wrap(err)
	}
	src, err := os.Open(path)
	if err != nil {
		return "", xe.Wrap(err)
	}
	defer src.Close()
	dst, err := os.Create(dest)
	if err != nil {
		return "", xe.Wrap(err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", xe.Wrap(err)
	}
	return dest, nil
}

func writeJSON(path string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return xe.Wrap(err)
	}
	return xe.Wrap(os.WriteFile(path, buf, os.FileMode(0o644)))
}

// Extension registers python kinds with default Interpreter.
func Extension(reg *registry.Registry) error {
	return ExtensionWith()(reg)
}

// ExtensionWith registers python kinds with options.
func ExtensionWith(options ...Option) registry.Extension {
	return func(reg *registry.Registry) error {
		return base.Executable(
			reg,
			registry.Descriptor{
				EntityType: domain.Function, Kind: Kind,
				Schema:  func() registry.Schema { return &Function{} },
				Runtime: NewFactory(options...),
			},
			map[string]func() registry.Schema{
				"job":   func() registry.Schema { return &Job{} },
				"serve": func() registry.Schema { return &Serve{} },
				"build": func() registry.Schema { return &Build{} },
			},
			nil,
		)
	}
}
