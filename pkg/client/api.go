package client

import (
	"fmt"
	"strings"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
)

const (
	APIBase    = "/api/v1"
	APIContext = APIBase + "/-"
)

// operations on a single entity, which follow its id in api paths.
const (
	OpStop   = "stop"
	OpResume = "resume"
	OpLogs   = "logs"
	OpFiles  = "files/info"
)

// BaseAPI is the path of projects.
//
//	/api/v1/{types}
//	/api/v1/{types}/{name}
func BaseAPI(entityType domain.EntityType, name ...string) string {
	return join(append([]string{APIBase, entityType.Plural()}, name...)...)
}

// ContextAPI is the path of entities in a project.
//
//	/api/v1/-/{project}/{types}
//	/api/v1/-/{project}/{types}/{id}
func ContextAPI(project string, entityType domain.EntityType, id ...string) string {
	return join(append([]string{APIContext, project, entityType.Plural()}, id...)...)
}

// OperationAPI is the path of an operation on an entity.
//
//	/api/v1/-/{project}/{types}/{id}/{operation}
func OperationAPI(project string, entityType domain.EntityType, id string, operation string) string {
	return join(APIContext, project, entityType.Plural(), id, operation)
}

// DataAPI is the path of values of entities, like secrets.
//
//	/api/v1/-/{project}/{types}/data
func DataAPI(project string, entityType domain.EntityType) string {
	return join(APIContext, project, entityType.Plural(), "data")
}

func join(path ...string) string {
	for i := range path {
		if i == 0 {
			path[i] = strings.TrimSuffix(path[i], "/")
			continue
		}
		path[i] = strings.Trim(path[i], "/")
	}
	return strings.Join(path, "/")
}

// API is a parsed api path.
type API struct {
	// true for paths under /api/v1/-/{project}
	Context bool

	// empty for base paths.
	Project string

	EntityType domain.EntityType

	// name for base paths, id for context paths. Empty for collections.
	ID string

	// trailing path after ID, like "stop".
	Operation string
}

func (a API) String() string {
	if !a.Context {
		if a.ID == "" {
			return BaseAPI(a.EntityType)
		}
		return BaseAPI(a.EntityType, a.ID)
	}
	if a.ID == "" {
		return ContextAPI(a.Project, a.EntityType)
	}
	if a.Operation != "" {
		return OperationAPI(a.Project, a.EntityType, a.ID, a.Operation)
	}
	return ContextAPI(a.Project, a.EntityType, a.ID)
}

// APIParse parses api paths built by BaseAPI, ContextAPI, OperationAPI or DataAPI.
//
// # Returns
//
// - API
//
// - error: ErrStatus wrapped in BackendError, if api is not one of them.
func APIParse(api string) (API, error) {
	invalid := func(reason string) (API, error) {
		return API{}, dherr.NewBackendError(dherr.ErrStatus, "parse api", fmt.Sprintf("%s: %s", reason, api), nil)
	}

	// query string is not part of path.
	if i := strings.IndexByte(api, '?'); 0 <= i {
		api = api[:i]
	}
	rest, ok := strings.CutPrefix(api, APIBase+"/")
	if !ok {
		return invalid("not under " + APIBase)
	}
	ret := API{}
	if r, ok := strings.CutPrefix(rest, "-/"); ok {
		ret.Context = true
		rest = r
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if ret.Context {
		if len(parts) < 2 || parts[0] == "" {
			return invalid("no project or entity type")
		}
		ret.Project = parts[0]
		parts = parts[1:]
	}

	et, err := domain.AsEntityType(parts[0])
	if err != nil {
		return invalid("unknown entity type")
	}
	ret.EntityType = et

	switch {
	case len(parts) == 1:
	case len(parts) == 2:
		ret.ID = parts[1]
	case ret.Context:
		ret.ID = parts[1]
		ret.Operation = strings.Join(parts[2:], "/")
	default:
		return invalid("too long")
	}
	return ret, nil
}

// IsData reports the api is DataAPI.
func (a API) IsData() bool {
	return a.Context && a.ID == "data" && a.Operation == ""
}
