package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/logger"
)

// supported range of X-Api-Level of the core.
const (
	MinAPILevel = 14
	MaxAPILevel = 20

	// api level this library is written for.
	LibAPILevel = 15
)

// checkAPILevel checks X-Api-Level header, if any.
func checkAPILevel(resp *http.Response, op string, log logger.Logger) error {
	h := resp.Header.Get("X-Api-Level")
	if h == "" {
		return nil
	}
	level, err := strconv.Atoi(h)
	if err != nil {
		return dherr.NewBackendError(dherr.ErrAPILevel, op, "X-Api-Level is not a number: "+h, err)
	}
	if level < MinAPILevel || MaxAPILevel < level {
		return &dherr.BackendError{
			Kind: dherr.ErrAPILevel, Op: op, StatusCode: resp.StatusCode,
			Detail: "backend api level " + h + " is not supported. supported: " +
				strconv.Itoa(MinAPILevel) + " to " + strconv.Itoa(MaxAPILevel),
		}
	}
	if LibAPILevel < level {
		log.Warnf(
			"backend api level (%d) is higher than this library (%d). consider updating the library",
			level, LibAPILevel,
		)
	}
	return nil
}

// transportError classifies errors of http.Client.Do.
func transportError(op string, err error) error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return dherr.NewBackendError(dherr.ErrTimeout, op, "request to the core timed out", err)
	}
	return dherr.NewBackendError(dherr.ErrConnection, op, "unable to connect to the core", err)
}

// statusError builds an error from a non-2xx response.
//
// 400 is ErrMissingSpec or ErrEntityAlreadyExists when the message tells so,
// 401 is ErrUnauthorized, 403 is ErrForbidden, 404 is ErrEntityNotExists,
// and others are ErrStatus.
func statusError(resp *http.Response, op string) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &dherr.BackendError{
			Kind: dherr.ErrStatus, Op: op, StatusCode: resp.StatusCode,
			Detail: statusClass(resp) + ", cannot read server message", Err: err,
		}
	}
	text := string(body)

	kind := dherr.ErrStatus
	switch resp.StatusCode {
	case http.StatusBadRequest:
		switch {
		case strings.Contains(text, "missing spec"):
			kind = dherr.ErrMissingSpec
		case strings.Contains(text, "Duplicated entity"):
			kind = dherr.ErrEntityAlreadyExists
		}
	case http.StatusUnauthorized:
		kind = dherr.ErrUnauthorized
	case http.StatusForbidden:
		kind = dherr.ErrForbidden
	case http.StatusNotFound:
		kind = dherr.ErrEntityNotExists
	}

	return &dherr.BackendError{
		Kind: kind, Op: op, StatusCode: resp.StatusCode, Detail: parseErrorMessage(body),
	}
}

// parseErrorMessage extracts "message" of the error response. Otherwise, body as is.
//
// "message" is a string, or an object having "reason" and "advice".
func parseErrorMessage(body []byte) string {
	msg := struct {
		Message json.RawMessage `json:"message"`
	}{}
	if err := json.Unmarshal(body, &msg); err != nil || len(msg.Message) == 0 {
		return strings.TrimSpace(string(body))
	}
	var text string
	if err := json.Unmarshal(msg.Message, &text); err == nil {
		return text
	}
	structured := struct {
		Reason string `json:"reason"`
		Advice string `json:"advice"`
	}{}
	if err := json.Unmarshal(msg.Message, &structured); err == nil && structured.Reason != "" {
		if structured.Advice == "" {
			return structured.Reason
		}
		return structured.Reason + ": " + structured.Advice
	}
	return strings.TrimSpace(string(body))
}

// decodeLenient decodes JSON body. Empty or non-JSON body is decoded as an empty object.
func decodeLenient(body []byte, log logger.Logger) any {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		log.Debugf("response is not JSON, treated as empty: %s", err)
		return map[string]any{}
	}
	return v
}
