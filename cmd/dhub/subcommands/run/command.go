package run

import (
	run_logs "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/run/logs"
	run_resume "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/run/resume"
	run_stop "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/run/stop"
	run_wait "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/run/wait"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	stop, err := run_stop.New()
	if err != nil {
		return nil, err
	}
	resume, err := run_resume.New()
	if err != nil {
		return nil, err
	}
	logs, err := run_logs.New()
	if err != nil {
		return nil, err
	}
	wait, err := run_wait.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate runs executed by the platform.",
		struct{}{},
		flarc.WithSubcommand("stop", stop),
		flarc.WithSubcommand("resume", resume),
		flarc.WithSubcommand("logs", logs),
		flarc.WithSubcommand("wait", wait),
	)
}
