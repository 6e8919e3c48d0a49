package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Root categories. Every error the SDK raises on purpose is one of them.
var (
	// The backend (remote API, local store or its configuration) has failed.
	ErrBackend = errors.New("backend error")

	// An entity, its kind or its identifier is malformed or unknown.
	ErrEntity = errors.New("entity error")

	// An operation is requested for a project without active context.
	ErrContext = errors.New("context error")
)

// backend errors
var (
	ErrConfiguration       = fmt.Errorf("%w: configuration", ErrBackend)
	ErrConnection          = fmt.Errorf("%w: connection failed", ErrBackend)
	ErrTimeout             = fmt.Errorf("%w: timeout", ErrBackend)
	ErrStatus              = fmt.Errorf("%w: unexpected status", ErrBackend)
	ErrEntityAlreadyExists = fmt.Errorf("%w: entity already exists", ErrBackend)
	ErrEntityNotExists     = fmt.Errorf("%w: entity does not exist", ErrBackend)
	ErrMissingSpec         = fmt.Errorf("%w: missing spec", ErrBackend)
	ErrUnauthorized        = fmt.Errorf("%w: unauthorized", ErrBackend)
	ErrForbidden           = fmt.Errorf("%w: forbidden", ErrBackend)
	ErrAPILevel            = fmt.Errorf("%w: unsupported api level", ErrBackend)
	ErrNotSupported        = fmt.Errorf("%w: not supported by this backend", ErrBackend)
)

// entity errors
var (
	ErrUnknownKind           = fmt.Errorf("%w: unknown kind", ErrEntity)
	ErrKindAlreadyRegistered = fmt.Errorf("%w: kind already registered", ErrEntity)
	ErrInvalidKey            = fmt.Errorf("%w: invalid key", ErrEntity)
	ErrValidation            = fmt.Errorf("%w: validation failed", ErrEntity)
	ErrEntityTypeMismatch    = fmt.Errorf("%w: entity type mismatch", ErrEntity)
	ErrNotLocallyExecutable  = fmt.Errorf("%w: cannot execute locally", ErrEntity)
	ErrUnknownScheme         = fmt.Errorf("%w: unknown scheme", ErrEntity)
)

// context errors
var (
	ErrContextNotFound = fmt.Errorf("%w: context not found", ErrContext)
)

// BackendError is a failure of a backend operation.
//
// Kind is one of backend sentinel errors above, and errors.Is(be, be.Kind) holds.
type BackendError struct {
	// one of ErrConnection, ErrTimeout, ErrStatus, ...
	Kind error

	// operation, like "GET http://example.com/api/v1/projects/p".
	Op string

	// HTTP status code. 0 if the operation has not got any response.
	StatusCode int

	// message from backend, if any.
	Detail string

	// cause
	Err error
}

func (be *BackendError) Error() string {
	msg := []string{be.kind().Error()}
	if be.Op != "" {
		msg = append(msg, be.Op)
	}
	if be.StatusCode != 0 {
		msg = append(msg, fmt.Sprintf("status %d", be.StatusCode))
	}
	if be.Detail != "" {
		msg = append(msg, be.Detail)
	}
	if be.Err != nil {
		msg = append(msg, be.Err.Error())
	}
	return strings.Join(msg, ": ")
}

func (be *BackendError) kind() error {
	if be.Kind == nil {
		return ErrBackend
	}
	return be.Kind
}

func (be *BackendError) Unwrap() []error {
	if be.Err == nil {
		return []error{be.kind()}
	}
	return []error{be.kind(), be.Err}
}

// NewBackendError builds a BackendError.
func NewBackendError(kind error, op string, detail string, cause error) *BackendError {
	return &BackendError{Kind: kind, Op: op, Detail: detail, Err: cause}
}

// NewErrContextNotFound tells that no context for the project is active.
func NewErrContextNotFound(project string) error {
	return fmt.Errorf(
		"%w: Context '%s' not found. Get or create a project named '%s'.",
		ErrContextNotFound, project, project,
	)
}

func NewErrUnknownKind(entityType string, kind string) error {
	return fmt.Errorf("%w: %s '%s' is not registered", ErrUnknownKind, entityType, kind)
}

func NewErrNotLocallyExecutable(kind string) error {
	return fmt.Errorf("%w: runtime for '%s' requires remote execution", ErrNotLocallyExecutable, kind)
}
