package list

import (
	"context"
	"log"

	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/common"
	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Name        string `flag:"name" alias:"n" help:"entities having the name"`
	Kind        string `flag:"kind" alias:"k" help:"entities of the kind"`
	State       string `flag:"state" help:"entities in the state, like COMPLETED"`
	AllVersions bool   `flag:"all-versions" alias:"a" help:"every version, not only the latest"`
}

func (f Flags) params() client.Params {
	p := client.Params{}
	if f.Name != "" {
		p["name"] = f.Name
	}
	if f.Kind != "" {
		p["kind"] = f.Kind
	}
	if f.State != "" {
		p["state"] = f.State
	}
	if f.AllVersions {
		p["versions"] = "all"
	}
	return p
}

const (
	ARG_PROJECT = "PROJECT"
	ARG_TYPE    = "TYPE"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List entities of a type in a project.",
		Flags{},
		flarc.Args{
			{
				Name: ARG_PROJECT, Required: true,
				Help: "name of the project",
			},
			{
				Name: ARG_TYPE, Required: true,
				Help: "entity type: artifact, dataitem, model, function, workflow, task, run or secret",
			},
		},
		common.NewTask(Task()),
	)
}

func Task() common.Task[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		s *sdk.SDK,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		et, err := domain.AsEntityType(cl.Args()[ARG_TYPE][0])
		if err != nil {
			return err
		}
		p, err := s.GetProject(ctx, cl.Args()[ARG_PROJECT][0], sdk.ProjectOptions{})
		if err != nil {
			return err
		}
		found, err := p.Entities(et).List(ctx, cl.Flags().params())
		if err != nil {
			return err
		}
		out := make([]fields.Bag, 0, len(found))
		for _, o := range found {
			out = append(out, o.ToDict())
		}
		return common.Print(cl.Stdout(), out)
	}
}
