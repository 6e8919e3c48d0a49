package sdk

import (
	"context"
	"fmt"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
)

// Secret is a named value kept by the platform. The entity holds no value.
type Secret struct {
	Object
}

func wrapSecret(o Object) *Secret {
	return &Secret{Object: o}
}

func (s *Secret) dataAPI(op string) (client.Client, string, error) {
	pc, err := s.context()
	if err != nil {
		return nil, "", err
	}
	if pc.Local() {
		return nil, "", dherr.NewBackendError(
			dherr.ErrNotSupported, op+" "+s.Key, "secrets have no value with local backend", nil,
		)
	}
	return pc.Client, client.DataAPI(s.Project, domain.Secret), nil
}

// SetValue stores the value of the secret in the platform.
func (s *Secret) SetValue(ctx context.Context, value string) error {
	cl, api, err := s.dataAPI("set value of")
	if err != nil {
		return err
	}
	_, err = cl.UpdateObject(ctx, api, fields.Bag{s.Name: value})
	return err
}

// ReadValue reads the value of the secret from the platform.
//
// # Returns
//
// - string
//
// - error: ErrEntityNotExists, if the platform has no value for it.
func (s *Secret) ReadValue(ctx context.Context) (string, error) {
	cl, api, err := s.dataAPI("read value of")
	if err != nil {
		return "", err
	}
	resp, err := cl.ReadObject(ctx, api, client.Params{"keys": s.Name})
	if err != nil {
		return "", err
	}
	v, ok := resp[s.Name].(string)
	if !ok {
		return "", dherr.NewBackendError(
			dherr.ErrEntityNotExists, "read value of "+s.Key, fmt.Sprintf("secret '%s' has no value", s.Name), nil,
		)
	}
	return v, nil
}
