package init

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"

	cuierr "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/errors"
	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/common"
	"github.com/scc-digitalhub/digitalhub-go/pkg/configs"
	"github.com/youta-t/flarc"
)

type Flags struct {
	User         string `flag:"user" alias:"u" help:"user name for basic authentication"`
	Password     string `flag:"password" help:"password for basic authentication"`
	AccessToken  string `flag:"access-token" help:"access token for OAuth2"`
	RefreshToken string `flag:"refresh-token" help:"refresh token for OAuth2"`
	Issuer       string `flag:"issuer" help:"base URL of the token issuer"`
	ClientID     string `flag:"client-id" help:"client id for refreshing tokens"`
}

const ARG_ENDPOINT = "ENDPOINT"

type Option struct {
	dir string
}

// WithDir sets the directory where .dhprofile is written. By default, the working directory.
func WithDir(dir string) func(*Option) *Option {
	return func(o *Option) *Option {
		o.dir = dir
		return o
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{dir: "."}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Register the platform into your profile store, and use it in this directory.",
		Flags{},
		flarc.Args{
			{
				Name: ARG_ENDPOINT, Required: true,
				Help: "base URL of the platform core",
			},
		},
		common.NewTaskWithCommonFlag(Task(option.dir)),
		flarc.WithDescription(`
Register credentials for ENDPOINT into your profile store, as the profile given by --profile.

Then, "{{ .Command }}" writes the profile name into .dhprofile in the current directory.
Commands in the directory and its descendants use the profile.
`),
	)
}

func Task(dir string) common.TaskWithCommonFlag[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag common.CommonFlags,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		flags := cl.Flags()
		creds := configs.Credentials{
			Endpoint:     cl.Args()[ARG_ENDPOINT][0],
			Issuer:       flags.Issuer,
			User:         flags.User,
			Password:     flags.Password,
			AccessToken:  flags.AccessToken,
			RefreshToken: flags.RefreshToken,
			ClientID:     flags.ClientID,
		}
		if err := creds.Verify(); err != nil {
			return cuierr.NewCuiError(
				"invalid credentials", cuierr.WithCause(err),
				cuierr.WithAdvice("ENDPOINT should be an URL, like https://core.example.com ."),
			)
		}

		ps, err := configs.LoadProfileStore(commonFlag.ProfileStore)
		if errors.Is(err, configs.ErrProfileStoreNotFound) {
			ps = configs.ProfileStore{}
		} else if err != nil {
			return cuierr.NewCuiError(
				"failed to load profile store "+commonFlag.ProfileStore, cuierr.WithCause(err),
			)
		}

		if _, ok := ps[commonFlag.Profile]; ok {
			logger.Printf("profile '%s' is overwritten.", commonFlag.Profile)
		}
		ps[commonFlag.Profile] = &creds
		if err := ps.Save(commonFlag.ProfileStore); err != nil {
			return cuierr.NewCuiError(
				"failed to save profile store "+commonFlag.ProfileStore, cuierr.WithCause(err),
			)
		}

		profileFile := filepath.Join(dir, common.ProfileFile)
		if err := os.WriteFile(profileFile, []byte(commonFlag.Profile+"\n"), os.FileMode(0644)); err != nil {
			return cuierr.NewCuiError("failed to write "+profileFile, cuierr.WithCause(err))
		}
		logger.Printf("profile '%s' (%s) is in use at %s", commonFlag.Profile, creds.Endpoint, dir)
		return nil
	}
}
