package project

import (
	project_export "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/project/export"
	project_import "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/project/imports"
	project_list "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/project/list"
	project_rm "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/project/rm"
	project_show "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/project/show"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	list, err := project_list.New()
	if err != nil {
		return nil, err
	}
	show, err := project_show.New()
	if err != nil {
		return nil, err
	}
	export, err := project_export.New()
	if err != nil {
		return nil, err
	}
	imp, err := project_import.New()
	if err != nil {
		return nil, err
	}
	rm, err := project_rm.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate projects.",
		struct{}{},
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("export", export),
		flarc.WithSubcommand("import", imp),
		flarc.WithSubcommand("rm", rm),
	)
}
