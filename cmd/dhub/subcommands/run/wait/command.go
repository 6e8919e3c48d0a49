package wait

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/common"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Interval string `flag:"interval" alias:"i" help:"polling interval, like 5s"`
	Timeout  string `flag:"timeout" help:"give up after this, like 10m. Empty waits forever"`
}

const ARG_KEY = "KEY"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Wait for a run to end, and show it.",
		Flags{Interval: sdk.DefaultWaitInterval.String()},
		flarc.Args{
			{
				Name: ARG_KEY, Required: true,
				Help: "key of the run",
			},
		},
		common.NewTask(Task()),
	)
}

func duration(flag string, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: --%s should be a duration, like 5s: %s", dherr.ErrValidation, flag, value)
	}
	return d, nil
}

func Task() common.Task[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		s *sdk.SDK,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		flags := cl.Flags()
		interval, err := duration("interval", flags.Interval)
		if err != nil {
			return err
		}
		if interval == 0 {
			interval = sdk.DefaultWaitInterval
		}
		timeout, err := duration("timeout", flags.Timeout)
		if err != nil {
			return err
		}
		if timeout != 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		r, err := common.Run(ctx, s, cl.Args()[ARG_KEY][0])
		if err != nil {
			return err
		}
		if err := r.Wait(ctx, interval); err != nil {
			return err
		}
		return common.Print(cl.Stdout(), r.ToDict())
	}
}
