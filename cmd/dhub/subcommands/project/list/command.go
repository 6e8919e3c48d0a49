package list

import (
	"context"
	"log"

	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/common"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List projects in the platform.",
		struct{}{},
		flarc.Args{},
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
		projects, err := s.ListProjects(ctx, false)
		if err != nil {
			return err
		}
		out := make([]fields.Bag, 0, len(projects))
		for _, p := range projects {
			out = append(out, p.ToDict())
		}
		return common.Print(cl.Stdout(), out)
	}
}
