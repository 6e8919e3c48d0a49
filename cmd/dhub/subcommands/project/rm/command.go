package rm

import (
	"context"
	"log"

	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/common"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Cascade bool `flag:"cascade" help:"delete every entity of the project"`
}

const ARG_NAME = "NAME"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Delete a project.",
		Flags{},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "name of the project",
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
		name := cl.Args()[ARG_NAME][0]
		resp, err := s.DeleteProject(ctx, name, sdk.ProjectDeleteOptions{Cascade: cl.Flags().Cascade})
		if err != nil {
			return err
		}
		logger.Printf("project %s is deleted.", name)
		return common.Print(cl.Stdout(), resp)
	}
}
