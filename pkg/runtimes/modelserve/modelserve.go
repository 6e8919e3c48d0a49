// Package modelserve provides functions serving models: sklearnserve, mlflowserve and huggingfaceserve.
package modelserve

import (
	"fmt"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry/base"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtime"
	"github.com/scc-digitalhub/digitalhub-go/pkg/uri"
)

// Kinds of functions.
var Kinds = []string{"sklearnserve", "mlflowserve", "huggingfaceserve"}

type Function struct {
	// path to the model files, or key of a model entity.
	Path      string `json:"path"`
	ModelName string `json:"model_name,omitempty"`
	Image     string `json:"image,omitempty"`
}

func (f *Function) Validate() error {
	if f.Path == "" {
		return fmt.Errorf("%w: path is required", dherr.ErrValidation)
	}
	if domain.IsKey(f.Path) {
		if _, err := domain.ParseKey(f.Path); err != nil {
			return fmt.Errorf("%w: path: %w", dherr.ErrValidation, err)
		}
	} else if _, err := uri.MapURIScheme(f.Path); err != nil {
		return fmt.Errorf("%w: path: %w", dherr.ErrValidation, err)
	}
	return base.ValidateImage("image", f.Image)
}

type Serve struct {
	base.FunctionTask
	Replicas    *int   `json:"replicas,omitempty"`
	ServiceType string `json:"service_type,omitempty"`
}

func Extension(reg *registry.Registry) error {
	for _, kind := range Kinds {
		if err := base.Executable(
			reg,
			registry.Descriptor{
				EntityType: domain.Function, Kind: kind,
				Schema:  func() registry.Schema { return &Function{} },
				Runtime: runtime.NewDelegated,
			},
			map[string]func() registry.Schema{
				"serve": func() registry.Schema { return &Serve{} },
			},
			nil,
		); err != nil {
			return err
		}
	}
	return nil
}
