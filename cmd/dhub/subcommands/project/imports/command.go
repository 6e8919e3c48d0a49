package imports

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/common"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/youta-t/flarc"
)

type Flags struct {
	ResetID bool   `flag:"reset-id" help:"give new ids to imported entities"`
	Load    bool   `flag:"load" help:"update the project if it exists"`
	Context string `flag:"context" alias:"C" help:"context directory of the project. By default, the directory of FILE"`
}

const ARG_FILE = "FILE"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Create a project from a YAML file.",
		Flags{},
		flarc.Args{
			{
				Name: ARG_FILE, Required: true,
				Help: "project file, as \"export\" writes",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Create a project from FILE, with entities listed in it.

If the project exists, it fails. Pass --load to update the project.
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
		flags := cl.Flags()
		path := cl.Args()[ARG_FILE][0]
		opts := sdk.ProjectOptions{Context: flags.Context}
		if opts.Context == "" {
			opts.Context = filepath.Dir(path)
		}

		var p *sdk.Project
		var err error
		if flags.Load {
			if flags.ResetID {
				logger.Printf("--reset-id is ignored with --load")
			}
			p, err = s.LoadProject(ctx, path, opts)
		} else {
			p, err = s.ImportProject(ctx, path, opts, flags.ResetID)
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cl.Stdout(), p.Key)
		return err
	}
}
