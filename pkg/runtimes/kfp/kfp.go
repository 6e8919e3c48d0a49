// Package kfp provides workflows of Kubeflow Pipelines.
//
// Pipelines are executed by the platform.
package kfp

import (
	"fmt"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry/base"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtime"
)

const Kind = "kfp"

type Workflow struct {
	Source *base.Source `json:"source,omitempty"`
	Image  string       `json:"image,omitempty"`
	Tag    string       `json:"tag,omitempty"`
}

func (w *Workflow) Validate() error {
	if w.Source.Empty() {
		return fmt.Errorf("%w: kfp workflow needs source", dherr.ErrValidation)
	}
	if err := w.Source.Validate(); err != nil {
		return err
	}
	return base.ValidateImage("image", w.Image)
}

type Pipeline struct {
	base.WorkflowTask
	Schedule string `json:"schedule,omitempty"`
}

type Run struct {
	base.Run
	Workflow string `json:"workflow,omitempty"`
}

func Extension(reg *registry.Registry) error {
	return base.Executable(
		reg,
		registry.Descriptor{
			EntityType: domain.Workflow, Kind: Kind,
			Schema:  func() registry.Schema { return &Workflow{} },
			Runtime: runtime.NewDelegated,
		},
		map[string]func() registry.Schema{
			"pipeline": func() registry.Schema { return &Pipeline{} },
		},
		func() registry.Schema { return &Run{} },
	)
}
