// Package local provides a Client keeping entities in memory.
//
// It answers the same api paths as the platform core, so the SDK works without a backend.
// Nothing is persisted: entities live as long as the Client.
package local

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/entity"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
)

// versions of an entity sharing a name.
type versions struct {
	byID   map[string]fields.Bag
	latest string
}

// recompute latest by metadata.created. Unparsable timestamps are the oldest.
func (v *versions) recompute() {
	v.latest = ""
	var newest time.Time
	for _, id := range sortedKeys(v.byID) {
		created := createdOf(v.byID[id])
		if v.latest == "" || newest.Before(created) {
			v.latest = id
			newest = created
		}
	}
}

func createdOf(obj fields.Bag) time.Time {
	t, err := entity.ParseTimestamp(obj.Map("metadata").Str("created"))
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}

// Client is a client.Client on memory.
//
// Entities in a project are stored as db[project][entity type][name] -> versions.
// Tasks and runs have no name, and their id is used instead.
//
// Objects are copied on every read and write.
type Client struct {
	mu       sync.RWMutex
	projects map[string]fields.Bag
	db       map[string]map[domain.EntityType]map[string]*versions
}

var _ client.Client = &Client{}

func New() *Client {
	return &Client{
		projects: map[string]fields.Bag{},
		db:       map[string]map[domain.EntityType]map[string]*versions{},
	}
}

func (*Client) IsLocal() bool {
	return true
}

func notExists(op string, api client.API) error {
	return dherr.NewBackendError(
		dherr.ErrEntityNotExists, op,
		fmt.Sprintf("%s '%s' not found", api.EntityType, api.ID), nil,
	)
}

func notSupported(op string, api string) error {
	return dherr.NewBackendError(dherr.ErrNotSupported, op, api+" is not available on local backend", nil)
}

func (c *Client) CreateObject(_ context.Context, api string, obj fields.Bag) (fields.Bag, error) {
	op := "create " + api
	a, err := client.APIParse(api)
	if err != nil {
		return nil, err
	}
	if a.ID != "" || a.Operation != "" {
		return nil, notSupported(op, api)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !a.Context {
		if a.EntityType != domain.Project {
			return nil, notSupported(op, api)
		}
		name := obj.Str("name")
		if name == "" {
			return nil, dherr.NewBackendError(dherr.ErrStatus, op, "project has no name", nil)
		}
		if _, ok := c.projects[name]; ok {
			return nil, dherr.NewBackendError(
				dherr.ErrEntityAlreadyExists, op, fmt.Sprintf("project '%s' already exists", name), nil,
			)
		}
		c.projects[name] = obj.Clone()
		return obj.Clone(), nil
	}

	id := obj.Str("id")
	if id == "" {
		return nil, dherr.NewBackendError(dherr.ErrStatus, op, fmt.Sprintf("%s has no id", a.EntityType), nil)
	}
	named := c.table(a.Project, a.EntityType, true)
	if _, found := find(named, id); found != nil {
		return nil, dherr.NewBackendError(
			dherr.ErrEntityAlreadyExists, op,
			fmt.Sprintf("%s with id '%s' already exists", a.EntityType, id), nil,
		)
	}
	name := nameOf(obj)
	v, ok := named[name]
	if !ok {
		v = &versions{byID: map[string]fields.Bag{}}
		named[name] = v
	}
	stored := obj.Clone()
	if stored.Str("project") == "" {
		stored["project"] = a.Project
	}
	v.byID[id] = stored
	v.latest = id
	return stored.Clone(), nil
}

func (c *Client) ReadObject(_ context.Context, api string, params client.Params) (fields.Bag, error) {
	op := "read " + api
	a, err := client.APIParse(api)
	if err != nil {
		return nil, err
	}
	if a.Operation == client.OpLogs || a.Operation == client.OpFiles {
		return fields.Bag{}, nil
	}
	if a.Operation != "" || a.IsData() {
		return nil, notSupported(op, api)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if !a.Context {
		p, ok := c.projects[a.ID]
		if a.EntityType != domain.Project || !ok {
			return nil, notExists(op, a)
		}
		return c.withContents(p), nil
	}

	named := c.table(a.Project, a.EntityType, false)
	if a.ID == "" {
		// latest version of params["name"]
		v, ok := named[params["name"]]
		if !ok || v.latest == "" {
			a.ID = params["name"]
			return nil, notExists(op, a)
		}
		return v.byID[v.latest].Clone(), nil
	}
	obj, _ := find(named, a.ID)
	if obj == nil {
		return nil, notExists(op, a)
	}
	return obj.Clone(), nil
}

func (c *Client) UpdateObject(_ context.Context, api string, obj fields.Bag) (fields.Bag, error) {
	op := "update " + api
	a, err := client.APIParse(api)
	if err != nil {
		return nil, err
	}
	if a.ID == "" || a.Operation != "" || a.IsData() {
		return nil, notSupported(op, api)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !a.Context {
		if _, ok := c.projects[a.ID]; a.EntityType != domain.Project || !ok {
			return nil, notExists(op, a)
		}
		stored := obj.Clone()
		// contents are derived on read.
		if spec := stored.Map("spec"); spec != nil {
			for _, et := range domain.EmbeddedTypes() {
				delete(spec, et.Plural())
			}
		}
		c.projects[a.ID] = stored
		return c.withContents(stored), nil
	}

	named := c.table(a.Project, a.EntityType, false)
	current, v := find(named, a.ID)
	if current == nil {
		return nil, notExists(op, a)
	}
	stored := obj.Clone()
	if stored.Str("project") == "" {
		stored["project"] = a.Project
	}
	v.byID[a.ID] = stored
	return stored.Clone(), nil
}

func (c *Client) DeleteObject(_ context.Context, api string, params client.Params) (fields.Bag, error) {
	op := "delete " + api
	a, err := client.APIParse(api)
	if err != nil {
		return nil, err
	}
	if a.Operation != "" || a.IsData() {
		return nil, notSupported(op, api)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deleted := fields.Bag{"deleted": true}

	if !a.Context {
		if _, ok := c.projects[a.ID]; a.EntityType != domain.Project || !ok {
			return nil, notExists(op, a)
		}
		delete(c.projects, a.ID)
		if params.Bool("cascade") {
			delete(c.db, a.ID)
		}
		return deleted, nil
	}

	named := c.table(a.Project, a.EntityType, false)
	if a.ID == "" {
		name := params["name"]
		if _, ok := named[name]; name == "" || !ok {
			a.ID = name
			return nil, notExists(op, a)
		}
		delete(named, name)
		return deleted, nil
	}

	for name, v := range named {
		if _, ok := v.byID[a.ID]; !ok {
			continue
		}
		delete(v.byID, a.ID)
		if len(v.byID) == 0 {
			delete(named, name)
		} else if v.latest == a.ID {
			v.recompute()
		}
		return deleted, nil
	}
	return nil, notExists(op, a)
}

func (c *Client) ListObjects(_ context.Context, api string, params client.Params) ([]fields.Bag, error) {
	a, err := client.APIParse(api)
	if err != nil {
		return nil, err
	}
	if a.ID != "" {
		return nil, notSupported("list "+api, api)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var found []fields.Bag
	if !a.Context {
		if a.EntityType != domain.Project {
			return nil, notSupported("list "+api, api)
		}
		for _, name := range sortedKeys(c.projects) {
			found = append(found, c.projects[name].Clone())
		}
		return filter(found, params), nil
	}

	named := c.table(a.Project, a.EntityType, false)
	names := sortedKeys(named)
	if n, ok := params["name"]; ok {
		names = slices.DeleteFunc(names, func(name string) bool { return name != n })
	}
	for _, name := range names {
		v := named[name]
		if params["versions"] == "all" {
			for _, id := range sortedKeys(v.byID) {
				found = append(found, v.byID[id].Clone())
			}
			continue
		}
		found = append(found, v.byID[v.latest].Clone())
	}

	// newer first, as the platform does.
	slices.SortStableFunc(found, func(x, y fields.Bag) int {
		return createdOf(y).Compare(createdOf(x))
	})
	return filter(found, params), nil
}

// filter objects by kind, state, spec.function and spec.task.
func filter(objs []fields.Bag, params client.Params) []fields.Bag {
	match := func(obj fields.Bag) bool {
		if k, ok := params["kind"]; ok && obj.Str("kind") != k {
			return false
		}
		if s, ok := params["state"]; ok && obj.Map("status").Str("state") != s {
			return false
		}
		for _, f := range []string{"function", "workflow", "task"} {
			if v, ok := params[f]; ok && obj.Map("spec").Str(f) != v {
				return false
			}
		}
		return true
	}
	out := make([]fields.Bag, 0, len(objs))
	for _, obj := range objs {
		if match(obj) {
			out = append(out, obj)
		}
	}
	return out
}

// table returns the entities of the type in the project.
//
// When create is false and there is no such table, an empty one (not stored) is returned.
func (c *Client) table(project string, et domain.EntityType, create bool) map[string]*versions {
	byType, ok := c.db[project]
	if !ok {
		if !create {
			return map[string]*versions{}
		}
		byType = map[domain.EntityType]map[string]*versions{}
		c.db[project] = byType
	}
	named, ok := byType[et]
	if !ok {
		named = map[string]*versions{}
		if create {
			byType[et] = named
		}
	}
	return named
}

// withContents returns a copy of the project whose spec lists its entities, as the platform does.
//
// Specs of listed entities are dropped unless they are embedded.
func (c *Client) withContents(project fields.Bag) fields.Bag {
	p := project.Clone()
	spec := p.Map("spec")
	if spec == nil {
		spec = fields.Bag{}
	}
	name := p.Str("name")
	for _, et := range domain.EmbeddedTypes() {
		named := c.table(name, et, false)
		contents := make([]any, 0, len(named))
		for _, n := range sortedKeys(named) {
			v := named[n]
			obj := v.byID[v.latest].Clone()
			if !obj.Map("metadata").Bool("embedded") {
				delete(obj, "spec")
			}
			contents = append(contents, map[string]any(obj))
		}
		spec[et.Plural()] = contents
	}
	p["spec"] = map[string]any(spec)
	return p
}

func find(named map[string]*versions, id string) (fields.Bag, *versions) {
	for _, v := range named {
		if obj, ok := v.byID[id]; ok {
			return obj, v
		}
	}
	return nil, nil
}

func nameOf(obj fields.Bag) string {
	if n := obj.Str("name"); n != "" {
		return n
	}
	return obj.Str("id")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
