package resume

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
		"Resume a stopped run.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_KEY, Required: true,
				Help: "key of the run",
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
		r, err := common.Run(ctx, s, cl.Args()[ARG_KEY][0])
		if err != nil {
			return err
		}
		if err := r.Resume(ctx); err != nil {
			return err
		}
		logger.Printf("run %s is %s.", r.Key, r.State())
		return nil
	}
}
