// Package dbt provides SQL transformations of tables.
//
// A dbt function is a SELECT statement. Tables in the statement are referred by {{ ref('name') }},
// where name is an input of the run. The result is materialized into a new table
// "{output}_v{run id}" and recorded as a table dataitem.
package dbt

import (
	"context"
	"fmt"
	"regexp"

	"github.com/scc-digitalhub/digitalhub-go/pkg/conn/postgres"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/logger"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry/base"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtime"
)

const Kind = "dbt"

// OutputTable is the key of spec.outputs naming the output table.
const OutputTable = "output_table"

type Function struct {
	Source *base.Source `json:"source,omitempty"`
}

func (f *Function) Validate() error {
	if f.Source.Empty() {
		return fmt.Errorf("%w: dbt function needs source", dherr.ErrValidation)
	}
	return f.Source.Validate()
}

type Run struct {
	base.Run
}

func (r *Run) Validate() error {
	if err := r.Run.Validate(); err != nil {
		return err
	}
	if out, ok := r.Outputs[OutputTable]; ok {
		if s, _ := out.(string); s == "" {
			return fmt.Errorf("%w: outputs.%s should be a table name", dherr.ErrValidation, OutputTable)
		}
	}
	return nil
}

// Opener opens the database where transformations run.
type Opener func(ctx context.Context) (postgres.Pool, error)

// Runtime of dbt.
type Runtime struct {
	env  runtime.Env
	open Opener
}

// NewFactory returns a runtime.Factory of dbt runtimes.
//
// When open is nil, the database is configured by POSTGRES_* environment variables.
func NewFactory(open Opener) runtime.Factory {
	if open == nil {
		open = func(ctx context.Context) (postgres.Pool, error) {
			return postgres.Open(ctx, postgres.ConfigFromEnv())
		}
	}
	return func(env runtime.Env) (runtime.Runtime, error) {
		if env.Logger == nil {
			env.Logger = logger.Null()
		}
		return &Runtime{env: env, open: open}, nil
	}
}

func (*Runtime) Build(executable, task, run fields.Bag) (fields.Bag, error) {
	return runtime.Merge(executable, task, run), nil
}

var refPattern = regexp.MustCompile(`\{\{\s*ref\(\s*['"]([^'"]+)['"]\s*\)\s*\}\}`)

// Render replaces {{ ref('name') }} in sql with tables[name].
//
// # Returns
//
// - string: rendered SQL
//
// - error: ErrValidation, if sql refers a name not in tables.
func Render(sql string, tables map[string]postgres.Table) (string, error) {
	var missing []string
	rendered := refPattern.ReplaceAllStringFunc(sql, func(m string) string {
		name := refPattern.FindStringSubmatch(m)[1]
		t, ok := tables[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return t.Identifier()
	})
	if len(missing) != 0 {
		return "", fmt.Errorf("%w: sql refers unknown inputs %v", dherr.ErrValidation, missing)
	}
	return rendered, nil
}

// Run materializes the transformation.
func (r *Runtime) Run(ctx context.Context, run fields.Bag) (*runtime.Result, error) {
	spec := run.Map("spec")
	project := run.Str("project")

	outputName := spec.Map("outputs").Str(OutputTable)
	if outputName == "" {
		return nil, fmt.Errorf("%w: outputs.%s is required", dherr.ErrValidation, OutputTable)
	}

	source := new(base.Source)
	if err := spec.Map("source").Decode(source); err != nil {
		return nil, fmt.Errorf("%w: source: %s", dherr.ErrValidation, err)
	}
	sql, ok, err := source.Text()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: source code is not inline", dherr.ErrValidation)
	}

	tables, err := r.inputs(ctx, spec.Map("inputs"))
	if err != nil {
		return nil, err
	}
	query, err := Render(sql, tables)
	if err != nil {
		return nil, err
	}

	pool, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	var database, schema string
	if err := pool.QueryRow(ctx, `select current_database(), current_schema()`).Scan(&database, &schema); err != nil {
		return nil, postgres.Classify("connecting database", err)
	}
	out := postgres.Table{
		Database: database, Schema: schema,
		Name: fmt.Sprintf("%s_v%s", outputName, run.Str("id")),
	}

	if err := materialize(ctx, pool, out, query); err != nil {
		return &runtime.Result{State: domain.Error, Message: err.Error()}, err
	}
	r.env.Logger.Infof("materialized %s for %s", out.Path(), project)

	return &runtime.Result{
		State: domain.Completed,
		Produced: []runtime.Produced{
			{
				Output: OutputTable, Type: domain.Dataitem, Kind: "table", Name: outputName,
				Spec: fields.Bag{"path": out.Path()},
			},
		},
	}, nil
}

func materialize(ctx context.Context, pool postgres.Pool, out postgres.Table, query string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return postgres.Classify("begin", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`CREATE TABLE %s AS (%s)`, out.Identifier(), query)); err != nil {
		return postgres.Classify("materializing "+out.Path(), err)
	}
	return postgres.Classify("commit", tx.Commit(ctx))
}

// inputs resolves input dataitems into their tables.
func (r *Runtime) inputs(ctx context.Context, inputs fields.Bag) (map[string]postgres.Table, error) {
	tables := map[string]postgres.Table{}
	for name, v := range inputs {
		ref, _ := v.(string)
		path := ref
		if domain.IsKey(ref) {
			if r.env.Resolver == nil {
				return nil, fmt.Errorf("%w: input %s cannot be resolved", dherr.ErrValidation, name)
			}
			d, err := r.env.Resolver.Resolve(ctx, ref)
			if err != nil {
				return nil, xe.WrapWithNote("input "+name, err)
			}
			path = d.Map("spec").Str("path")
		}
		t, err := postgres.ParseTablePath(path)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", name, err)
		}
		tables[name] = t
	}
	return tables, nil
}

// Extension registers dbt kinds, executed on the database configured by environment variables.
func Extension(reg *registry.Registry) error {
	return ExtensionWith(nil)(reg)
}

// ExtensionWith registers dbt kinds executed on the database which open connects.
func ExtensionWith(open Opener) registry.Extension {
	return func(reg *registry.Registry) error {
		return base.Executable(
			reg,
			registry.Descriptor{
				EntityType: domain.Function, Kind: Kind,
				Schema:  func() registry.Schema { return &Function{} },
				Runtime: NewFactory(open),
			},
			map[string]func() registry.Schema{"transform": nil},
			func() registry.Schema { return &Run{} },
		)
	}
}
