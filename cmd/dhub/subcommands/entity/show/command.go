package show

import (
	"context"
	"log"

	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/common"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/youta-t/flarc"
)

const ARG_KEY = "KEY"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show an entity.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_KEY, Required: true,
				Help: "key of the entity, like store://{project}/{type}/{kind}/{name}:{id}",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Show the entity of KEY.

When KEY has no id (store://{project}/{type}/{kind}/{name}), the latest version is shown.
`),
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
		o, err := common.Object(ctx, s, cl.Args()[ARG_KEY][0])
		if err != nil {
			return err
		}
		return common.Print(cl.Stdout(), o.ToDict())
	}
}
