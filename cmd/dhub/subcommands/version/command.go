package version

import (
	"context"

	"github.com/scc-digitalhub/digitalhub-go/pkg/buildtime"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show version of this command.",
		struct{}{},
		flarc.Args{},
		func(ctx context.Context, c flarc.Commandline[struct{}], a []any) error {
			_, err := c.Stdout().Write([]byte(buildtime.VersionString() + "\n"))
			return err
		},
	)
}
