package download

import (
	"context"
	"fmt"
	"log"

	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/common"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Overwrite bool `flag:"overwrite" alias:"o" help:"replace existing files"`
}

const (
	ARG_KEY  = "KEY"
	ARG_DEST = "DEST"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Download data of an artifact, a dataitem or a model.",
		Flags{},
		flarc.Args{
			{
				Name: ARG_KEY, Required: true,
				Help: "key of the artifact, dataitem or model",
			},
			{
				Name: ARG_DEST, Required: false,
				Help: "local directory or file. By default, a new temporary directory",
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
		args := cl.Args()
		m, err := common.Material(ctx, s, args[ARG_KEY][0])
		if err != nil {
			return err
		}
		dst := ""
		if d := args[ARG_DEST]; len(d) != 0 {
			dst = d[0]
		}
		path, err := m.Download(ctx, dst, cl.Flags().Overwrite)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cl.Stdout(), path)
		return err
	}
}
