package entity

import (
	entity_download "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/entity/download"
	entity_list "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/entity/list"
	entity_rm "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/entity/rm"
	entity_show "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/entity/show"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	show, err := entity_show.New()
	if err != nil {
		return nil, err
	}
	list, err := entity_list.New()
	if err != nil {
		return nil, err
	}
	rm, err := entity_rm.New()
	if err != nil {
		return nil, err
	}
	download, err := entity_download.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate entities of projects: artifacts, dataitems, models, functions, workflows, tasks, runs and secrets.",
		struct{}{},
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("rm", rm),
		flarc.WithSubcommand("download", download),
	)
}
