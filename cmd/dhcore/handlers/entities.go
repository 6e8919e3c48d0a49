// Package handlers serves entities of a backend on the api paths of the platform core.
//
// Requests are dispatched by their path (see client.APIParse) to the backend as they are,
// so the server answers exactly what the backend does.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	apierr "github.com/scc-digitalhub/digitalhub-go/pkg/api/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
)

// query parameters of pagination. They are not passed to the backend.
const (
	ParamPage = "page"
	ParamSize = "size"
	ParamSort = "sort"
)

// Routes registers handlers of all api paths.
//
//	/api/v1/{types}[/{name}]
//	/api/v1/-/{project}/{types}[/{id}[/{operation}]]
func Routes(e *echo.Echo, backend client.Client, pageSize int) {
	base := client.APIBase
	ctxapi := client.APIContext

	create := CreateHandler(backend)
	read := ReadHandler(backend, pageSize)
	update := UpdateHandler(backend)
	remove := DeleteHandler(backend)

	e.POST(base+"/:types", create)
	e.GET(base+"/:types", read)
	e.GET(base+"/:types/:name", read)
	e.PUT(base+"/:types/:name", update)
	e.DELETE(base+"/:types/:name", remove)

	e.POST(ctxapi+"/:project/:types", create)
	e.GET(ctxapi+"/:project/:types", read)
	e.DELETE(ctxapi+"/:project/:types", remove)
	e.GET(ctxapi+"/:project/:types/:id", read)
	e.PUT(ctxapi+"/:project/:types/:id", update)
	e.DELETE(ctxapi+"/:project/:types/:id", remove)
	e.POST(ctxapi+"/:project/:types/:id/*", create)
	e.GET(ctxapi+"/:project/:types/:id/*", read)
}

// APILevel is a middleware setting X-Api-Level header on responses.
func APILevel(level int) echo.MiddlewareFunc {
	header := strconv.Itoa(level)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-Api-Level", header)
			return next(c)
		}
	}
}

func apiOf(c echo.Context) (client.API, error) {
	path := strings.TrimSuffix(c.Request().URL.Path, "/")
	a, err := client.APIParse(path)
	if err != nil {
		return client.API{}, apierr.BadRequest("path should be one of /api/v1/{types} or /api/v1/-/{project}/{types}", err)
	}
	return a, nil
}

func paramsOf(c echo.Context) client.Params {
	params := client.Params{}
	for k, vs := range c.QueryParams() {
		if len(vs) == 0 {
			continue
		}
		params[k] = vs[0]
	}
	return params
}

// bodyOf decodes JSON object in the request. Empty body is an empty object.
func bodyOf(c echo.Context) (fields.Bag, error) {
	body := fields.Bag{}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, apierr.BadRequest("request body should be a JSON object", err)
	}
	if body == nil {
		body = fields.Bag{}
	}
	return body, nil
}

func CreateHandler(backend client.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		a, err := apiOf(c)
		if err != nil {
			return err
		}
		body, err := bodyOf(c)
		if err != nil {
			return err
		}
		created, err := backend.CreateObject(c.Request().Context(), a.String(), body)
		if err != nil {
			return apierr.FromError(err)
		}
		return c.JSON(http.StatusOK, created)
	}
}

// ReadHandler reads an object, or lists objects in pages.
//
// Collections are listed, unless "name" is queried without "page":
// then, the latest version of the name is read.
func ReadHandler(backend client.Client, pageSize int) echo.HandlerFunc {
	return func(c echo.Context) error {
		a, err := apiOf(c)
		if err != nil {
			return err
		}
		params := paramsOf(c)
		ctx := c.Request().Context()

		_, paged := params[ParamPage]
		_, named := params["name"]
		if a.ID != "" || (named && !paged) {
			found, err := backend.ReadObject(ctx, a.String(), params)
			if err != nil {
				return apierr.FromError(err)
			}
			return c.JSON(http.StatusOK, found)
		}

		page, size, err := pagination(params, pageSize)
		if err != nil {
			return err
		}
		filters := client.Params{}
		for k, v := range params {
			switch k {
			case ParamPage, ParamSize, ParamSort:
			default:
				filters[k] = v
			}
		}
		found, err := backend.ListObjects(ctx, a.String(), filters)
		if err != nil {
			return apierr.FromError(err)
		}
		return c.JSON(http.StatusOK, Paginate(found, page, size))
	}
}

// MaxPageSize is the largest page size served. Larger requests get pages of this size.
const MaxPageSize = 1000

func pagination(params client.Params, pageSize int) (page int, size int, err error) {
	size = pageSize
	if s, ok := params[ParamSize]; ok {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return 0, 0, apierr.BadRequest(`"size" should be a positive number`, err)
		}
		size = min(n, MaxPageSize)
	}
	if p, ok := params[ParamPage]; ok {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, apierr.BadRequest(`"page" should be a number, 0 or more`, err)
		}
		page = n
	}
	return page, size, nil
}

// Paginate cuts out a page of objects, as the platform core responds.
//
//	{"content": [...], "number": page, "size": size, "totalElements": n, "totalPages": m, "first": bool, "last": bool}
//
// Pages beyond the last one are empty.
func Paginate(objects []fields.Bag, page int, size int) fields.Bag {
	total := len(objects)
	totalPages := total / size
	if total%size != 0 {
		totalPages += 1
	}

	content := []fields.Bag{}
	if page < totalPages {
		from := page * size
		to := from + min(size, total-from)
		content = objects[from:to]
	}
	return fields.Bag{
		"content":       content,
		"number":        page,
		"size":          size,
		"totalElements": total,
		"totalPages":    totalPages,
		"first":         page == 0,
		"last":          totalPages-1 <= page,
	}
}

func UpdateHandler(backend client.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		a, err := apiOf(c)
		if err != nil {
			return err
		}
		body, err := bodyOf(c)
		if err != nil {
			return err
		}
		updated, err := backend.UpdateObject(c.Request().Context(), a.String(), body)
		if err != nil {
			return apierr.FromError(err)
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func DeleteHandler(backend client.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		a, err := apiOf(c)
		if err != nil {
			return err
		}
		resp, err := backend.DeleteObject(c.Request().Context(), a.String(), paramsOf(c))
		if err != nil {
			return apierr.FromError(err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
