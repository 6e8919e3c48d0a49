// Package runtime defines how runs are built and executed.
//
// A runtime is chosen by the executable kind of a run ("container" for "container+run").
// Runtimes are provided by extensions under runtimes/.
package runtime

import (
	"context"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/logger"
)

type Runtime interface {
	// Build merges specs of the executable (function or workflow), the task and the run.
	//
	// # Args
	//
	// - executable, task, run: entity dictionaries. Only their "spec" are merged.
	//
	// # Returns
	//
	// - fields.Bag: spec of the run to be executed.
	// Run overrides task, and task overrides executable. Merge is shallow.
	//
	// - error
	Build(executable, task, run fields.Bag) (fields.Bag, error)

	// Run executes the run.
	//
	// # Args
	//
	// - context.Context
	//
	// - fields.Bag: the run dictionary, with spec built by Build.
	//
	// # Returns
	//
	// - *Result: outcome of the run.
	//
	// - error: ErrNotLocallyExecutable when this runtime delegates execution to
	// an external engine. Otherwise, an error caused while executing.
	Run(ctx context.Context, run fields.Bag) (*Result, error)
}

// Env is what runtimes are created with.
type Env struct {
	// project of the run.
	Project string

	// directory for scratch files. Runtimes remove what they create.
	TmpDir string

	Logger logger.Logger

	// Resolver reads entities referred by runs, like inputs. It may be nil.
	Resolver Resolver
}

// Resolver reads an entity by its key.
type Resolver interface {
	Resolve(ctx context.Context, key string) (fields.Bag, error)
}

// Factory creates a runtime for the project.
type Factory func(env Env) (Runtime, error)

// Produced is an entity made by a run, which should be persisted and recorded in run outputs.
type Produced struct {
	// output parameter name
	Output string

	Type domain.EntityType
	Kind string
	Name string
	Spec fields.Bag
}

// Result of a run.
type Result struct {
	// state after execution. Zero value means COMPLETED.
	State   domain.State
	Message string

	// results of the run, like metrics or returned values.
	Results fields.Bag

	Produced []Produced
}

// StatusDict converts the result into the status dictionary of the run.
//
// Outputs are not included; they are recorded after produced entities are saved.
func (r *Result) StatusDict() fields.Bag {
	state := r.State
	if state == "" {
		state = domain.Completed
	}
	out := fields.Bag{"state": string(state)}
	if r.Message != "" {
		out["message"] = r.Message
	}
	if r.Results != nil {
		out["results"] = map[string]any(r.Results.Clone())
	}
	return out
}

// Merge specs of executable, task and run dictionaries. Later wins.
func Merge(executable, task, run fields.Bag) fields.Bag {
	return fields.Merge(
		executable.Map("spec"), task.Map("spec"), run.Map("spec"),
	).Clone()
}

// Delegated is a runtime whose runs are executed by an external engine only.
//
// Build merges specs, and Run always fails with ErrNotLocallyExecutable.
type Delegated struct{}

func (Delegated) Build(executable, task, run fields.Bag) (fields.Bag, error) {
	return Merge(executable, task, run), nil
}

func (Delegated) Run(_ context.Context, run fields.Bag) (*Result, error) {
	return nil, dherr.NewErrNotLocallyExecutable(run.Str("kind"))
}

// NewDelegated is a Factory for Delegated.
func NewDelegated(Env) (Runtime, error) {
	return Delegated{}, nil
}
