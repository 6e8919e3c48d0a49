// Package mlrun provides functions executed by MLRun.
package mlrun

import (
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry/base"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtime"
)

const Kind = "mlrun"

type Function struct {
	Source       *base.Source `json:"source,omitempty"`
	Image        string       `json:"image,omitempty"`
	Tag          string       `json:"tag,omitempty"`
	Requirements []string     `json:"requirements,omitempty"`
}

func (f *Function) Validate() error {
	if f.Source != nil {
		if err := f.Source.Validate(); err != nil {
			return err
		}
	}
	return base.ValidateImage("image", f.Image)
}

type Build struct {
	base.FunctionTask
	Commands    []string `json:"commands,omitempty"`
	TargetImage string   `json:"target_image,omitempty"`
}

func (b *Build) Validate() error {
	if err := base.ValidateImage("target_image", b.TargetImage); err != nil {
		return err
	}
	return b.FunctionTask.Validate()
}

func Extension(reg *registry.Registry) error {
	return base.Executable(
		reg,
		registry.Descriptor{
			EntityType: domain.Function, Kind: Kind,
			Schema:  func() registry.Schema { return &Function{} },
			Runtime: runtime.NewDelegated,
		},
		map[string]func() registry.Schema{
			"job":   nil,
			"build": func() registry.Schema { return &Build{} },
		},
		nil,
	)
}
