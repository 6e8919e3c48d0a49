package rm

import (
	"context"
	"log"

	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/common"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/youta-t/flarc"
)

type Flags struct {
	AllVersions bool `flag:"all-versions" alias:"a" help:"delete every version having the name"`
	Cascade     bool `flag:"cascade" help:"delete dependents, like tasks of a function"`
}

const ARG_KEY = "KEY"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Delete an entity.",
		Flags{},
		flarc.Args{
			{
				Name: ARG_KEY, Required: true,
				Help: "key of the entity. Without id, --all-versions is required",
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
		key := cl.Args()[ARG_KEY][0]
		flags := cl.Flags()
		p, k, err := common.Project(ctx, s, key)
		if err != nil {
			return err
		}
		resp, err := p.Entities(k.EntityType).Delete(ctx, key, "", sdk.DeleteOptions{
			AllVersions: flags.AllVersions,
			Cascade:     flags.Cascade,
		})
		if err != nil {
			return err
		}
		logger.Printf("%s is deleted.", key)
		return common.Print(cl.Stdout(), resp)
	}
}
