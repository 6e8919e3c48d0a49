package sdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtime"
	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/retry"
)

// Run is an execution of a task.
type Run struct {
	Object
}

func wrapRun(o Object) *Run {
	return &Run{Object: o}
}

// LocalExecution reports the run is executed in this process.
func (r *Run) LocalExecution() bool {
	return r.Spec.Bool("local_execution")
}

func (r *Run) runtime() (runtime.Runtime, error) {
	return r.sdk.Registry.Runtime(r.Kind, r.sdk.runtimeEnv(r.Project))
}

// Build merges specs of the executable, the task and the run with the runtime,
// and saves the run as BUILT.
func (r *Run) Build(ctx context.Context) error {
	pc, err := r.context()
	if err != nil {
		return err
	}
	taskRef, err := domain.ParseExecutableString(r.Spec.Str("task"))
	if err != nil {
		return err
	}
	task, err := pc.Read(ctx, domain.Task, taskRef.ID)
	if err != nil {
		return xe.WrapWithNote("reading task of "+r.Key, err)
	}

	exec, _ := domain.SplitKind(r.Kind)
	et, err := r.sdk.Registry.ExecutableType(exec)
	if err != nil {
		return err
	}
	execRef, err := domain.ParseExecutableString(task.Map("spec").Str(string(et)))
	if err != nil {
		return err
	}
	executable, err := read(ctx, pc, et, execRef.Name, execRef.ID)
	if err != nil {
		return xe.WrapWithNote("reading "+string(et)+" of "+r.Key, err)
	}

	rt, err := r.runtime()
	if err != nil {
		return err
	}
	spec, err := rt.Build(executable, task, r.ToDict())
	if err != nil {
		return err
	}
	r.Spec = spec
	r.Status.State = domain.Built
	return r.Save(ctx, true)
}

// Run executes the run in this process, when it is a local execution.
//
// Runs executed by the platform are refreshed only.
//
// # Returns
//
// - error: ErrEntity, if the run is not BUILT nor STOPPED.
// ErrNotLocallyExecutable, if the runtime is executed only by the platform.
// Errors from the runtime; then the run is saved in ERROR state.
func (r *Run) Run(ctx context.Context) error {
	if !r.LocalExecution() {
		return r.Refresh(ctx)
	}
	pc, err := r.context()
	if err != nil {
		return err
	}
	if st := r.State(); !st.LocallyRunnable() {
		return fmt.Errorf("%w: run %s is %s, not ready to run", dherr.ErrEntity, r.Key, st)
	}
	rt, err := r.runtime()
	if err != nil {
		return err
	}

	pc.SetRun(r.Key)
	defer pc.UnsetRun()

	r.Status.State = domain.Running
	if err := r.Save(ctx, true); err != nil {
		return err
	}

	result, err := rt.Run(ctx, r.ToDict())
	if err != nil {
		return r.fail(ctx, err)
	}

	outputs, err := r.logProduced(ctx, result.Produced)
	if err != nil {
		return r.fail(ctx, err)
	}
	if err := r.Refresh(ctx); err != nil {
		return err
	}
	status := result.StatusDict()
	r.Status.State = domain.State(status.Str("state"))
	r.Status.Message = status.Str("message")
	if results := status.Map("results"); results != nil {
		r.Status.Results = results
	}
	if len(outputs) != 0 {
		if r.Status.Outputs == nil {
			r.Status.Outputs = map[string]string{}
		}
		for name, key := range outputs {
			r.Status.Outputs[name] = key
		}
	}
	return r.Save(ctx, true)
}

// fail records cause in the run, and returns it.
func (r *Run) fail(ctx context.Context, cause error) error {
	if err := r.Refresh(ctx); err != nil {
		r.sdk.Logger.Warnf("cannot refresh run %s: %s", r.Key, err)
	}
	r.Status.State = domain.Error
	r.Status.Message = cause.Error()
	if err := r.Save(ctx, true); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// logProduced creates entities the runtime has produced.
//
// # Returns
//
// - map[string]string: output name to key of the produced entity.
//
// - error
func (r *Run) logProduced(ctx context.Context, produced []runtime.Produced) (map[string]string, error) {
	outputs := map[string]string{}
	p := r.projectOf()
	for _, pr := range produced {
		f := p.materials(pr.Type)
		m, err := f.New(ctx, Params{Name: pr.Name, Kind: pr.Kind, Spec: pr.Spec})
		if err != nil {
			return nil, xe.WrapWithNote("logging output "+pr.Output, err)
		}
		outputs[pr.Output] = m.Key
	}
	return outputs, nil
}

func (r *Run) operation(ctx context.Context, op string) error {
	pc, err := r.context()
	if err != nil {
		return err
	}
	if pc.Local() {
		return dherr.NewBackendError(dherr.ErrNotSupported, op+" "+r.Key, op+" is not available with local backend", nil)
	}
	if _, err := pc.Client.CreateObject(ctx, client.OperationAPI(r.Project, domain.Run, r.ID, op), nil); err != nil {
		return err
	}
	return r.Refresh(ctx)
}

// Stop asks the platform to stop the run.
func (r *Run) Stop(ctx context.Context) error {
	return r.operation(ctx, client.OpStop)
}

// Resume asks the platform to resume the stopped run.
func (r *Run) Resume(ctx context.Context) error {
	return r.operation(ctx, client.OpResume)
}

// Logs of the run from the platform. The local backend has none.
func (r *Run) Logs(ctx context.Context) ([]fields.Bag, error) {
	pc, err := r.context()
	if err != nil {
		return nil, err
	}
	if pc.Local() {
		return nil, nil
	}
	return pc.Client.ListObjects(ctx, client.OperationAPI(r.Project, domain.Run, r.ID, client.OpLogs), nil)
}

// Results are values returned by the run.
func (r *Run) Results() fields.Bag {
	return r.Status.Results
}

// Outputs reads entities the run has produced, by output name.
func (r *Run) Outputs(ctx context.Context) (map[string]*Object, error) {
	out := make(map[string]*Object, len(r.Status.Outputs))
	for name := range r.Status.Outputs {
		o, err := r.Output(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = o
	}
	return out, nil
}

// Output reads the entity produced as the named output.
//
// # Returns
//
// - *Object
//
// - error: ErrEntityNotExists, if the run has no such output.
func (r *Run) Output(ctx context.Context, name string) (*Object, error) {
	key, ok := r.Status.Outputs[name]
	if !ok {
		return nil, dherr.NewBackendError(
			dherr.ErrEntityNotExists, "output "+name, fmt.Sprintf("run %s has no output '%s'", r.Key, name), nil,
		)
	}
	return r.resolve(ctx, key)
}

// Inputs reads entities given to the run in spec.inputs, by parameter name.
//
// # Returns
//
// - map[string]*Object
//
// - error: ErrInvalidKey, if an input is not a key. Errors reading the entity.
func (r *Run) Inputs(ctx context.Context) (map[string]*Object, error) {
	inputs := r.Spec.Map("inputs")
	out := make(map[string]*Object, len(inputs))
	for name, v := range inputs {
		key, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: input '%s' of run %s should be a key: %v", dherr.ErrInvalidKey, name, r.Key, v)
		}
		o, err := r.resolve(ctx, key)
		if err != nil {
			return nil, err
		}
		out[name] = o
	}
	return out, nil
}

// Result is the named value returned by the run. It reports whether there is.
func (r *Run) Result(name string) (any, bool) {
	v, ok := r.Status.Results[name]
	return v, ok
}

// Values are results named in spec.values.
func (r *Run) Values() fields.Bag {
	out := fields.Bag{}
	for _, name := range r.Spec.Strings("values") {
		if v, ok := r.Status.Results[name]; ok {
			out[name] = v
		}
	}
	return out
}

func (r *Run) resolve(ctx context.Context, key string) (*Object, error) {
	k, err := domain.ParseKey(key)
	if err != nil {
		return nil, err
	}
	b, err := r.sdk.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	e, err := r.sdk.Registry.BuildFromDict(k.EntityType, b, false)
	if err != nil {
		return nil, err
	}
	return &Object{Entity: e, sdk: r.sdk}, nil
}

// Wait refreshes the run every interval until it ends: COMPLETED, ERROR or STOPPED, for example.
func (r *Run) Wait(ctx context.Context, interval time.Duration) error {
	started := time.Now()
	_, err := retry.Poll(ctx, retry.Static(interval), func() (domain.State, error) {
		if err := r.Refresh(ctx); err != nil {
			return "", err
		}
		st := r.State()
		if !st.Terminal() {
			r.sdk.Logger.Debugf("run %s is %s (%s elapsed)", r.Key, st, time.Since(started).Round(time.Second))
			return st, retry.ErrRetry
		}
		return st, nil
	})
	return err
}
