package mock

import (
	"context"
	"testing"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
)

// ObjectArgs are arguments of CreateObject and UpdateObject.
type ObjectArgs struct {
	API string
	Obj fields.Bag
}

// ParamsArgs are arguments of ReadObject, DeleteObject and ListObjects.
type ParamsArgs struct {
	API    string
	Params client.Params
}

func New(t *testing.T) *MockClient {
	return &MockClient{t: t}
}

// MockClient is a client.Client whose behaviour is given by Impl.
//
// Calling a method without Impl fails the test.
type MockClient struct {
	t *testing.T

	Local bool

	Impl struct {
		CreateObject func(ctx context.Context, api string, obj fields.Bag) (fields.Bag, error)
		ReadObject   func(ctx context.Context, api string, params client.Params) (fields.Bag, error)
		UpdateObject func(ctx context.Context, api string, obj fields.Bag) (fields.Bag, error)
		DeleteObject func(ctx context.Context, api string, params client.Params) (fields.Bag, error)
		ListObjects  func(ctx context.Context, api string, params client.Params) ([]fields.Bag, error)
	}
	Calls struct {
		CreateObject []ObjectArgs
		ReadObject   []ParamsArgs
		UpdateObject []ObjectArgs
		DeleteObject []ParamsArgs
		ListObjects  []ParamsArgs
	}
}

var _ client.Client = &MockClient{}

func (m *MockClient) CreateObject(ctx context.Context, api string, obj fields.Bag) (fields.Bag, error) {
	m.t.Helper()

	m.Calls.CreateObject = append(m.Calls.CreateObject, ObjectArgs{API: api, Obj: obj})
	if m.Impl.CreateObject == nil {
		m.t.Fatal("CreateObject is not ready to be called")
	}
	return m.Impl.CreateObject(ctx, api, obj)
}

func (m *MockClient) ReadObject(ctx context.Context, api string, params client.Params) (fields.Bag, error) {
	m.t.Helper()

	m.Calls.ReadObject = append(m.Calls.ReadObject, ParamsArgs{API: api, Params: params})
	if m.Impl.ReadObject == nil {
		m.t.Fatal("ReadObject is not ready to be called")
	}
	return m.Impl.ReadObject(ctx, api, params)
}

func (m *MockClient) UpdateObject(ctx context.Context, api string, obj fields.Bag) (fields.Bag, error) {
	m.t.Helper()

	m.Calls.UpdateObject = append(m.Calls.UpdateObject, ObjectArgs{API: api, Obj: obj})
	if m.Impl.UpdateObject == nil {
		m.t.Fatal("UpdateObject is not ready to be called")
	}
	return m.Impl.UpdateObject(ctx, api, obj)
}

func (m *MockClient) DeleteObject(ctx context.Context, api string, params client.Params) (fields.Bag, error) {
	m.t.Helper()

	m.Calls.DeleteObject = append(m.Calls.DeleteObject, ParamsArgs{API: api, Params: params})
	if m.Impl.DeleteObject == nil {
		m.t.Fatal("DeleteObject is not ready to be called")
	}
	return m.Impl.DeleteObject(ctx, api, params)
}

func (m *MockClient) ListObjects(ctx context.Context, api string, params client.Params) ([]fields.Bag, error) {
	m.t.Helper()

	m.Calls.ListObjects = append(m.Calls.ListObjects, ParamsArgs{API: api, Params: params})
	if m.Impl.ListObjects == nil {
		m.t.Fatal("ListObjects is not ready to be called")
	}
	return m.Impl.ListObjects(ctx, api, params)
}

func (m *MockClient) IsLocal() bool {
	return m.Local
}
