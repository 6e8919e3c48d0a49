package sdk

import (
	"context"
	"fmt"
	"time"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
)

// WorkflowAction is the action workflows run.
const WorkflowAction = "pipeline"

// Executable is a function or a workflow.
type Executable struct {
	Object
}

func wrapExecutable(o Object) *Executable {
	return &Executable{Object: o}
}

// RunOptions controls how runs are made and executed.
type RunOptions struct {
	// LocalExecution executes the run in this process. Otherwise the platform executes it.
	LocalExecution bool

	// Wait blocks until the run ends, when the platform executes it.
	Wait bool

	// WaitInterval is the polling interval of Wait. DefaultWaitInterval when zero.
	WaitInterval time.Duration

	// TaskSpec is spec of the task, used when the task is created.
	TaskSpec fields.Bag

	// Spec of the run, like inputs, parameters and outputs.
	Spec fields.Bag
}

// DefaultWaitInterval is the polling interval of Run.Wait.
const DefaultWaitInterval = 5 * time.Second

func (o RunOptions) interval() time.Duration {
	if o.WaitInterval <= 0 {
		return DefaultWaitInterval
	}
	return o.WaitInterval
}

func (e *Executable) tasks() Family[*Task] {
	return e.projectOf().Tasks()
}

func (e *Executable) runs() Family[*Run] {
	return e.projectOf().Runs()
}

// findTask returns the task of kind for this executable, or nil.
func (e *Executable) findTask(ctx context.Context, kind string) (*Task, error) {
	found, err := e.tasks().List(ctx, client.Params{string(e.Type): e.ExecutableString(), "kind": kind})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (e *Executable) taskParams(kind string, spec fields.Bag) Params {
	s := spec.Clone()
	if s == nil {
		s = fields.Bag{}
	}
	s[string(e.Type)] = e.ExecutableString()
	return Params{Kind: kind, Spec: s}
}

// NewTask creates a task of kind.
//
// # Returns
//
// - *Task
//
// - error: ErrEntity, if the task already exists. Use UpdateTask to modify it.
func (e *Executable) NewTask(ctx context.Context, kind string, spec fields.Bag) (*Task, error) {
	t, err := e.findTask(ctx, kind)
	if err != nil {
		return nil, err
	}
	if t != nil {
		return nil, fmt.Errorf(
			"%w: task %s already exists for %s. If you want to update it, use UpdateTask instead",
			dherr.ErrEntity, kind, e.Key,
		)
	}
	return e.tasks().New(ctx, e.taskParams(kind, spec))
}

// GetTask returns the task of kind.
//
// # Returns
//
// - *Task
//
// - error: ErrEntityNotExists, if there is not.
func (e *Executable) GetTask(ctx context.Context, kind string) (*Task, error) {
	t, err := e.findTask(ctx, kind)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, dherr.NewBackendError(
			dherr.ErrEntityNotExists, "get task", fmt.Sprintf("task %s of %s not found", kind, e.Key), nil,
		)
	}
	return t, nil
}

// UpdateTask overwrites spec of the task of kind with spec.
func (e *Executable) UpdateTask(ctx context.Context, kind string, spec fields.Bag) (*Task, error) {
	t, err := e.GetTask(ctx, kind)
	if err != nil {
		return nil, err
	}
	t.Spec = fields.Merge(t.Spec, spec)
	t.Spec[string(e.Type)] = e.ExecutableString()
	if err := e.sdk.Registry.ValidateSpec(domain.Task, t.Kind, t.Spec); err != nil {
		return nil, err
	}
	return e.tasks().Update(ctx, t)
}

// DeleteTask deletes the task of kind. With cascade, its runs are deleted too.
func (e *Executable) DeleteTask(ctx context.Context, kind string, cascade bool) (fields.Bag, error) {
	t, err := e.GetTask(ctx, kind)
	if err != nil {
		return nil, err
	}
	return e.tasks().Delete(ctx, t.Key, "", DeleteOptions{Cascade: cascade})
}

func (e *Executable) getOrCreateTask(ctx context.Context, kind string, spec fields.Bag) (*Task, error) {
	t, err := e.findTask(ctx, kind)
	if err != nil {
		return nil, err
	}
	if t != nil {
		return t, nil
	}
	return e.tasks().New(ctx, e.taskParams(kind, spec))
}

// ListRuns lists runs of this executable. params are additional filters.
func (e *Executable) ListRuns(ctx context.Context, params client.Params) ([]*Run, error) {
	return e.runs().List(ctx, params.With(string(e.Type), e.ExecutableString()))
}

// GetRun returns a run by key or id.
func (e *Executable) GetRun(ctx context.Context, ref string) (*Run, error) {
	return e.runs().Get(ctx, ref, "")
}

// DeleteRun deletes a run by key or id.
func (e *Executable) DeleteRun(ctx context.Context, ref string) (fields.Bag, error) {
	if !domain.IsKey(ref) {
		return e.runs().Delete(ctx, "", ref, DeleteOptions{})
	}
	return e.runs().Delete(ctx, ref, "", DeleteOptions{})
}

// Run performs action.
//
// The task of action is created if missing, and a new run is made from it.
// Runs with LocalExecution are built and executed in this process.
// Others are executed by the platform.
//
// # Args
//
// - context.Context
//
// - action: like "job". Workflows take WorkflowAction.
//
// - RunOptions
//
// # Returns
//
// - *Run
//
// - error: ErrUnknownKind, if the action is not registered for the kind.
// ErrNotSupported, if the platform is asked to run against the local backend.
// Errors of the runtime, for local executions. The run is returned also then.
func (e *Executable) Run(ctx context.Context, action string, opts RunOptions) (*Run, error) {
	pc, err := e.context()
	if err != nil {
		return nil, err
	}
	if pc.Local() && e.Type == domain.Workflow {
		return nil, dherr.NewBackendError(
			dherr.ErrNotSupported, "run "+e.Key, "workflows cannot run with local backend", nil,
		)
	}
	if pc.Local() && !opts.LocalExecution {
		return nil, dherr.NewBackendError(
			dherr.ErrNotSupported, "run "+e.Key, "cannot run remote "+string(e.Type)+" with local backend", nil,
		)
	}

	taskKind, err := e.sdk.Registry.TaskKind(e.Kind, action)
	if err != nil {
		return nil, err
	}
	runKind, err := e.sdk.Registry.RunKind(e.Kind)
	if err != nil {
		return nil, err
	}
	task, err := e.getOrCreateTask(ctx, taskKind, opts.TaskSpec)
	if err != nil {
		return nil, err
	}

	run, err := task.newRun(runKind, opts)
	if err != nil {
		return nil, err
	}
	run.AddRelationship(domain.RunOf, e.Key)
	if err := run.Save(ctx, false); err != nil {
		return nil, err
	}

	if !opts.LocalExecution {
		if opts.Wait {
			return run, run.Wait(ctx, opts.interval())
		}
		return run, nil
	}
	if err := run.Build(ctx); err != nil {
		return run, err
	}
	return run, run.Run(ctx)
}
