package sdk

import (
	"context"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
)

// Task is an action to be performed on a function or a workflow.
type Task struct {
	Object
}

func wrapTask(o Object) *Task {
	return &Task{Object: o}
}

// executable returns the type and the reference of the function or the workflow of this task.
func (t *Task) executable() (domain.EntityType, string) {
	for _, et := range []domain.EntityType{domain.Function, domain.Workflow} {
		if ref := t.Spec.Str(string(et)); ref != "" {
			return et, ref
		}
	}
	return "", ""
}

func (t *Task) newRun(runKind string, opts RunOptions) (*Run, error) {
	spec := opts.Spec.Clone()
	if spec == nil {
		spec = fields.Bag{}
	}
	spec["task"] = t.TaskString()
	spec["local_execution"] = opts.LocalExecution
	if et, ref := t.executable(); et != "" {
		spec[string(et)] = ref
	}
	return t.projectOf().Runs().newUnsaved(Params{Kind: runKind, Spec: spec})
}

// Run creates a new run of this task, without executing it.
//
// # Args
//
// - context.Context
//
// - runKind: kind of the run, "<executable kind>+run".
//
// - RunOptions: LocalExecution and Spec are used.
func (t *Task) Run(ctx context.Context, runKind string, opts RunOptions) (*Run, error) {
	r, err := t.newRun(runKind, opts)
	if err != nil {
		return nil, err
	}
	if err := r.Save(ctx, false); err != nil {
		return nil, err
	}
	return r, nil
}
