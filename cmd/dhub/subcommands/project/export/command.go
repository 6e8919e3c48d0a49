package export

import (
	"context"
	"fmt"
	"log"

	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/common"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Context string `flag:"context" alias:"C" help:"directory to write files into. By default, spec.context of the project"`
}

const ARG_NAME = "NAME"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Export a project and its contents as YAML files.",
		Flags{},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "name of the project",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Export a project into a YAML file, and each of its contents into another file.

The project file refers content files by metadata.ref.
Pass the project file to "import" to create the project again.
`),
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
		p, err := s.GetProject(ctx, cl.Args()[ARG_NAME][0], sdk.ProjectOptions{Context: cl.Flags().Context})
		if err != nil {
			return err
		}
		path, err := p.Export(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cl.Stdout(), path)
		return err
	}
}
