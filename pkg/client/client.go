// Package client defines how the SDK talks to a backend.
//
// A backend is either the platform core, through REST, or an in-memory store in the process.
// Both speak the same API paths (see api.go) and exchange entities in their dictionary form.
package client

import (
	"context"
	"strconv"

	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
)

// Params are query parameters of a request.
type Params map[string]string

// With returns a copy of params having key=value.
func (p Params) With(key string, value string) Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[key] = value
	return out
}

// Bool reports the value for key is "true".
func (p Params) Bool(key string) bool {
	b, _ := strconv.ParseBool(p[key])
	return b
}

type Client interface {
	// CreateObject creates an object.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: api path, built by ContextAPI or BaseAPI
	//
	// - fields.Bag: object in dictionary form
	//
	// # Returns
	//
	// - fields.Bag: object created, as the backend records it
	//
	// - error: ErrEntityAlreadyExists if the object has been created already,
	// or other backend errors.
	CreateObject(ctx context.Context, api string, obj fields.Bag) (fields.Bag, error)

	// ReadObject reads an object.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: api path
	//
	// - Params: query parameters
	//
	// # Returns
	//
	// - fields.Bag: object found
	//
	// - error: ErrEntityNotExists if no such object, or other backend errors.
	ReadObject(ctx context.Context, api string, params Params) (fields.Bag, error)

	// UpdateObject replaces an object.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: api path
	//
	// - fields.Bag: new object
	//
	// # Returns
	//
	// - fields.Bag: object updated
	//
	// - error
	UpdateObject(ctx context.Context, api string, obj fields.Bag) (fields.Bag, error)

	// DeleteObject deletes an object.
	//
	// When api has no id and params has "name", all versions of the name are deleted.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: api path
	//
	// - Params: query parameters, like "cascade" and "name"
	//
	// # Returns
	//
	// - fields.Bag: response of backend. At least {"deleted": bool}.
	//
	// - error
	DeleteObject(ctx context.Context, api string, params Params) (fields.Bag, error)

	// ListObjects lists objects.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: api path, for collection
	//
	// - Params: filters. "name", "kind", "state", "function", "task" and "versions"
	//
	// # Returns
	//
	// - []fields.Bag: objects found
	//
	// - error
	ListObjects(ctx context.Context, api string, params Params) ([]fields.Bag, error)

	// IsLocal reports whether this is an in-process backend.
	IsLocal() bool
}
