// Package errors builds error responses of the core-compatible REST API.
//
// The body of an error response is
//
//	{"message": {"reason": "...", "advice": "...", "see": "..."}}
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
)

// ReasonDuplicated is the reason of 400 for entities created twice.
// Clients detect ErrEntityAlreadyExists by this text.
const ReasonDuplicated = "Duplicated entity"

type ErrorResponse struct {
	Message ErrorMessage `json:"message"`
}

type ErrorMessage struct {
	Reason string `json:"reason"`
	Advice string `json:"advice,omitempty"`
	See    string `json:"see,omitempty"`
	Cause  error  `json:"-"`
}

func (em *ErrorMessage) UnmarshalJSON(bytes []byte) error {
	f := new(struct {
		Reason *string `json:"reason"`
		Advice *string `json:"advice,omitempty"`
		See    *string `json:"see,omitempty"`
	})
	if err := json.Unmarshal(bytes, f); err != nil {
		return err
	}

	if f.Reason == nil {
		return fmt.Errorf(`required field missing: "reason"`)
	}
	em.Reason = *f.Reason

	if f.Advice != nil {
		em.Advice = *f.Advice
	}

	if f.See != nil {
		em.See = *f.See
	}

	return nil
}

func (e ErrorMessage) String() string {
	lines := []string{e.Reason}
	if e.Advice != "" {
		lines = append(lines, e.Advice)
	}
	if e.Cause != nil {
		lines = append(lines, fmt.Sprint(" caused by:", e.Cause.Error()))
	}
	return strings.Join(lines, "\n")
}

func (e ErrorMessage) Error() string {
	return e.String()
}

func (e ErrorMessage) Unwrap() error {
	return e.Cause
}

type ErrorMessageOption func(in *ErrorMessage) *ErrorMessage

func WithAdvice(advice string) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if advice != "" {
			in.Advice = advice
		}
		return in
	}
}

func WithError(err error) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if err != nil {
			in.Cause = err
		}
		return in
	}
}

func WithSee(see string) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if see != "" {
			in.See = see
		}
		return in
	}
}

func NewErrorMessage(code int, reason string, opts ...ErrorMessageOption) *echo.HTTPError {
	msg := ErrorMessage{Reason: reason}
	for _, opt := range opts {
		msg = *opt(&msg)
	}

	return echo.NewHTTPError(code, ErrorResponse{Message: msg}).SetInternal(msg)
}

func NotFound(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusNotFound,
		"not found",
		WithAdvice(advice),
		WithError(err),
	)
}

func BadRequest(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusBadRequest,
		"bad request",
		WithAdvice(advice),
		WithError(err),
	)
}

// Duplicated is 400, as the platform core answers for entities created twice.
func Duplicated(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusBadRequest,
		ReasonDuplicated,
		WithAdvice(advice),
		WithError(err),
	)
}

func NotImplemented(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusNotImplemented,
		"not implemented",
		WithAdvice(advice),
		WithError(err),
	)
}

func InternalServerError(err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusInternalServerError,
		"unexpected error",
		WithError(err),
	)
}

// FromError converts errors of a backend into responses.
//
// ErrEntityNotExists is 404, ErrEntityAlreadyExists is 400 (Duplicated),
// ErrNotSupported is 501, ErrStatus and entity errors are 400.
// Others are 500.
func FromError(err error) *echo.HTTPError {
	var herr *echo.HTTPError
	switch {
	case errors.As(err, &herr):
		return herr
	case errors.Is(err, dherr.ErrEntityNotExists):
		return NotFound(detailOf(err), err)
	case errors.Is(err, dherr.ErrEntityAlreadyExists):
		return Duplicated(detailOf(err), err)
	case errors.Is(err, dherr.ErrNotSupported):
		return NotImplemented(detailOf(err), err)
	case errors.Is(err, dherr.ErrStatus), errors.Is(err, dherr.ErrEntity):
		return BadRequest(detailOf(err), err)
	default:
		return InternalServerError(err)
	}
}

func detailOf(err error) string {
	var be *dherr.BackendError
	if errors.As(err, &be) && be.Detail != "" {
		return be.Detail
	}
	return err.Error()
}
