package show

import (
	"context"
	"log"

	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/common"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/youta-t/flarc"
)

const ARG_NAME = "NAME"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show a project with its contents.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "name of the project",
			},
		},
		common.NewTask(Task()),
	)
}

func Task() common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		s *sdk.SDK,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		p, err := s.GetProject(ctx, cl.Args()[ARG_NAME][0], sdk.ProjectOptions{})
		if err != nil {
			return err
		}
		return common.Print(cl.Stdout(), p.ToDict())
	}
}
