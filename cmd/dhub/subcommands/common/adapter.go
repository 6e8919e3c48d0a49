package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/cheggaaa/pb/v3"
	cuierr "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/configs"
	dhlog "github.com/scc-digitalhub/digitalhub-go/pkg/logger"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/scc-digitalhub/digitalhub-go/pkg/store"
	"github.com/youta-t/flarc"
)

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger *log.Logger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		logger := log.New(cl.Stderr(), "", log.LstdFlags)
		logger.SetPrefix(fmt.Sprintf("[%s] ", cl.Fullname()))

		return cuierr.Explain(task(
			ctx,
			logger,
			commonFlag,
			cl,
			newpos,
		))
	}
}

type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	s *sdk.SDK,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTask runs task with an SDK talking to the platform of the profile.
//
// Without profile store, credentials are read from environment variables.
func NewTask[T any](task Task[T]) flarc.Task[T] {
	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		creds, err := Credentials(commonFlag)
		if err != nil {
			return err
		}

		s, err := sdk.New(
			sdk.WithCredentials(creds),
			sdk.WithLogger(dhlog.New("dhub", cl.Stderr(), commonFlag.LogLevel)),
			sdk.WithStores(Stores(cl.Stderr())),
		)
		if err != nil {
			return err
		}
		return task(ctx, logger, s, cl, params)
	})
}

// Credentials of the profile in common flags.
func Credentials(commonFlag CommonFlags) (configs.Credentials, error) {
	ps, err := configs.LoadProfileStore(commonFlag.ProfileStore)
	if errors.Is(err, configs.ErrProfileStoreNotFound) {
		creds := configs.FromEnv()
		if creds.Endpoint == "" {
			return configs.Credentials{}, cuierr.NewCuiError(
				"no profile store at "+commonFlag.ProfileStore,
				cuierr.WithAdvice("Run `dhub init` to register a profile, or set "+configs.EnvEndpoint+"."),
			)
		}
		return creds, nil
	}
	if err != nil {
		return configs.Credentials{}, cuierr.NewCuiError(
			"failed to load profile store "+commonFlag.ProfileStore, cuierr.WithCause(err),
		)
	}
	creds, err := ps.Get(commonFlag.Profile)
	if err != nil {
		return configs.Credentials{}, cuierr.NewCuiError(
			fmt.Sprintf("profile '%s' is not in %s", commonFlag.Profile, commonFlag.ProfileStore),
			cuierr.WithAdvice("Run `dhub init --profile "+commonFlag.Profile+" ENDPOINT` to register it."),
			cuierr.WithCause(err),
		)
	}
	return creds, nil
}

// Stores reports progress of downloads into w.
func Stores(w io.Writer) *store.Stores {
	st := store.Default()
	if r, ok := st.Remote.(*store.Remote); ok {
		r.Progress = ProgressBar(w)
	}
	if s3, ok := st.S3.(*store.S3); ok {
		s3.Progress = ProgressBar(w)
	}
	return st
}

const noBar pb.ProgressBarTemplate = `{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{with string . "suffix"}} {{.}}{{end}}`
const withBar pb.ProgressBarTemplate = `{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{percent . }}`

// ProgressBar is store.Progress drawing a bar into out.
func ProgressBar(out io.Writer) store.Progress {
	return func(label string, size int64, w io.Writer) io.WriteCloser {
		tpl := withBar
		if size < 0 {
			tpl = noBar
		}
		bar := tpl.New(int(size))
		bar.SetWriter(out)
		bar.Set(pb.Bytes, true)
		bar.Set("prefix", fmt.Sprintf("Downloading to %s:", Ellipsis(label, 60)))
		bar.Start()
		return &finishing{Writer: bar.NewProxyWriter(w), bar: bar}
	}
}

type finishing struct {
	io.Writer
	bar *pb.ProgressBar
}

func (f *finishing) Close() error {
	f.bar.Finish()
	return nil
}

func Ellipsis(s string, length int) string {
	if len(s) <= length {
		return s
	}

	l := len(s)
	return "[...]" + s[l-length+5:]
}
