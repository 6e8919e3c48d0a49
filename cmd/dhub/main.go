package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/common"
	subentity "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/entity"
	subinit "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/init"
	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/logger"
	subproject "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/project"
	subrun "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/run"
	subver "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/version"
	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := try.To(common.Flags(".")).OrFatal(logger)
	init := try.To(subinit.New()).OrFatal(logger)
	project := try.To(subproject.New()).OrFatal(logger)
	entity := try.To(subentity.New()).OrFatal(logger)
	run := try.To(subrun.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	dhub := try.To(
		flarc.NewCommandGroup(
			"digitalhub commandline interface",
			cf,
			flarc.WithSubcommand("init", init),
			flarc.WithSubcommand("project", project),
			flarc.WithSubcommand("entity", entity),
			flarc.WithSubcommand("run", run),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, dhub, flarc.WithHelp(true)))
}
