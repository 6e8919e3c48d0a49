// Package errors presents errors to users of the commandline: a summary, an advice and a cause.
package errors

import (
	"errors"
	"fmt"
	"strings"

	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
)

type Verbose interface {
	Verbose() string
}

type CUIError interface {
	error
	Verbose
}

type cuierror struct {
	summary string
	advice  string
	verbose string
	base    error
}

func (ce *cuierror) Unwrap() error {
	return ce.base
}

func (ce *cuierror) Error() string {
	lines := []string{ce.summary}
	if ce.base != nil {
		lines[0] = fmt.Sprintf("%s: %s", ce.summary, ce.base.Error())
	}
	if ce.advice != "" {
		lines = append(lines, ce.advice)
	}
	return strings.Join(lines, "\n")
}

func (ce *cuierror) Verbose() string {
	message := []string{ce.Error()}
	if ce.verbose != "" {
		message = append(message, " ("+ce.verbose+") ")
	}

	switch base := ce.base.(type) {
	case nil:
		// no-op
	case Verbose:
		message = append(message, "caused by: ", base.Verbose())
	default:
		message = append(message, "caused by: ", base.Error())
	}
	return strings.Join(message, "\n")
}

type CuiErrorOption func(cerr *cuierror) *cuierror

func NewCuiError(
	summary string,
	options ...CuiErrorOption,
) CUIError {
	err := &cuierror{summary: summary}
	for _, o := range options {
		err = o(err)
	}
	return err
}

func WithVerbose(verbose string) CuiErrorOption {
	return func(cerr *cuierror) *cuierror {
		cerr.verbose = verbose
		return cerr
	}
}

func WithAdvice(advice string) CuiErrorOption {
	return func(cerr *cuierror) *cuierror {
		cerr.advice = advice
		return cerr
	}
}

func WithCause(err error) CuiErrorOption {
	return func(cerr *cuierror) *cuierror {
		cerr.base = err
		return cerr
	}
}

// Explain wraps errors of the SDK with advice for users. Other errors are returned as they are.
func Explain(err error) error {
	if err == nil {
		return nil
	}
	var cerr CUIError
	if errors.As(err, &cerr) {
		return err
	}

	summary, advice := "", ""
	switch {
	case errors.Is(err, dherr.ErrConfiguration):
		summary = "the platform is not configured"
		advice = "Run `dhub init` to register a profile, or set DHCORE_ENDPOINT."
	case errors.Is(err, dherr.ErrUnauthorized):
		summary = "unauthorized"
		advice = "Your token may be expired. Run `dhub init` again with new credentials."
	case errors.Is(err, dherr.ErrForbidden):
		summary = "forbidden"
		advice = "Ask your admin for permission."
	case errors.Is(err, dherr.ErrConnection), errors.Is(err, dherr.ErrTimeout):
		summary = "the platform is not reachable"
		advice = "Check the endpoint of your profile and your network."
	case errors.Is(err, dherr.ErrEntityNotExists):
		summary = "not found"
	case errors.Is(err, dherr.ErrEntityAlreadyExists):
		summary = "already exists"
	case errors.Is(err, dherr.ErrInvalidKey):
		summary = "invalid key"
		advice = "Keys are like store://{project}/{type}/{kind}/{name}:{id}"
	default:
		return err
	}
	return NewCuiError(summary, WithAdvice(advice), WithCause(err))
}
