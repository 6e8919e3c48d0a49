// Package container provides functions running container images.
//
// Runs of containers are executed by the platform. They cannot be executed locally.
package container

import (
	"fmt"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry/base"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtime"
	corev1 "k8s.io/api/core/v1"
)

const Kind = "container"

type Function struct {
	Image     string       `json:"image,omitempty"`
	BaseImage string       `json:"base_image,omitempty"`
	Command   string       `json:"command,omitempty"`
	Args      []string     `json:"args,omitempty"`
	Source    *base.Source `json:"source,omitempty"`
}

func (f *Function) Validate() error {
	if err := base.ValidateImage("image", f.Image); err != nil {
		return err
	}
	if err := base.ValidateImage("base_image", f.BaseImage); err != nil {
		return err
	}
	if f.Source != nil {
		return f.Source.Validate()
	}
	return nil
}

type Job struct {
	base.FunctionTask
	BackoffLimit *int   `json:"backoff_limit,omitempty"`
	Schedule     string `json:"schedule,omitempty"`
}

func (j *Job) Validate() error {
	if j.BackoffLimit != nil && *j.BackoffLimit < 0 {
		return fmt.Errorf("%w: backoff_limit is negative", dherr.ErrValidation)
	}
	return j.FunctionTask.Validate()
}

type Port struct {
	Port       int `json:"port"`
	TargetPort int `json:"target_port"`
}

type Serve struct {
	base.FunctionTask
	Replicas     *int               `json:"replicas,omitempty"`
	ServicePorts []Port             `json:"service_ports,omitempty"`
	ServiceType  corev1.ServiceType `json:"service_type,omitempty"`
}

func (s *Serve) Validate() error {
	switch s.ServiceType {
	case "", corev1.ServiceTypeClusterIP, corev1.ServiceTypeNodePort,
		corev1.ServiceTypeLoadBalancer, corev1.ServiceTypeExternalName:
	default:
		return fmt.Errorf("%w: unknown service_type '%s'", dherr.ErrValidation, s.ServiceType)
	}
	for _, p := range s.ServicePorts {
		if p.Port <= 0 || 65535 < p.Port || p.TargetPort <= 0 || 65535 < p.TargetPort {
			return fmt.Errorf("%w: port out of range: %+v", dherr.ErrValidation, p)
		}
	}
	if s.Replicas != nil && *s.Replicas < 0 {
		return fmt.Errorf("%w: replicas is negative", dherr.ErrValidation)
	}
	return s.FunctionTask.Validate()
}

type Deploy struct {
	base.FunctionTask
	Replicas *int `json:"replicas,omitempty"`
}

func (d *Deploy) Validate() error {
	if d.Replicas != nil && *d.Replicas < 0 {
		return fmt.Errorf("%w: replicas is negative", dherr.ErrValidation)
	}
	return d.FunctionTask.Validate()
}

type Build struct {
	base.FunctionTask
	Instructions []string `json:"instructions,omitempty"`
}

// Runtime of containers.
type Runtime struct {
	runtime.Delegated
}

func New(runtime.Env) (runtime.Runtime, error) {
	return Runtime{}, nil
}

// Build merges specs. The merged spec needs an image to run, except for builds.
func (Runtime) Build(executable, task, run fields.Bag) (fields.Bag, error) {
	spec := runtime.Merge(executable, task, run)
	_, action := domain.SplitKind(task.Str("kind"))
	if action != "build" && spec.Str("image") == "" {
		return nil, fmt.Errorf("%w: container needs image to %s", dherr.ErrValidation, action)
	}
	return spec, nil
}

// Extension registers container kinds.
func Extension(reg *registry.Registry) error {
	return base.Executable(
		reg,
		registry.Descriptor{
			EntityType: domain.Function, Kind: Kind,
			Schema:  func() registry.Schema { return &Function{} },
			Runtime: New,
		},
		map[string]func() registry.Schema{
			"job":    func() registry.Schema { return &Job{} },
			"serve":  func() registry.Schema { return &Serve{} },
			"deploy": func() registry.Schema { return &Deploy{} },
			"build":  func() registry.Schema { return &Build{} },
		},
		nil,
	)
}
