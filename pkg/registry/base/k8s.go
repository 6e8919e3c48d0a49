package base

import (
	"fmt"
	"regexp"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
)

type VolumeType string

const (
	PersistentVolumeClaim VolumeType = "persistent_volume_claim"
	EmptyDir              VolumeType = "empty_dir"
	Ephemeral             VolumeType = "ephemeral"
	SharedVolume          VolumeType = "shared_volume"
)

type Volume struct {
	VolumeType VolumeType     `json:"volume_type"`
	Name       string         `json:"name"`
	MountPath  string         `json:"mount_path"`
	Spec       map[string]any `json:"spec,omitempty"`
}

// Resources requested by a task.
//
// Values are Kubernetes quantities ("500m", "1Gi"), or numbers.
type Resources struct {
	CPU *resource.Quantity `json:"cpu,omitempty"`
	Mem *resource.Quantity `json:"mem,omitempty"`
	GPU *resource.Quantity `json:"gpu,omitempty"`
}

// K8s is the part of task specs configuring the pod which performs the task.
//
// Every task schema embeds it.
type K8s struct {
	Volumes      []Volume            `json:"volumes,omitempty"`
	Resources    *Resources          `json:"resources,omitempty"`
	Envs         []corev1.EnvVar     `json:"envs,omitempty"`
	Secrets      []string            `json:"secrets,omitempty"`
	Profile      string              `json:"profile,omitempty"`
	NodeSelector map[string]string   `json:"node_selector,omitempty"`
	Tolerations  []corev1.Toleration `json:"tolerations,omitempty"`
	Affinity     *corev1.Affinity    `json:"affinity,omitempty"`
}

var dns1123 = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

func (k K8s) Validate() error {
	for _, v := range k.Volumes {
		switch v.VolumeType {
		case PersistentVolumeClaim, EmptyDir, Ephemeral, SharedVolume:
		default:
			return fmt.Errorf("%w: volume '%s' has unknown volume_type '%s'", dherr.ErrValidation, v.Name, v.VolumeType)
		}
		if !dns1123.MatchString(v.Name) {
			return fmt.Errorf("%w: volume name '%s' is not a DNS label", dherr.ErrValidation, v.Name)
		}
		if v.MountPath == "" {
			return fmt.Errorf("%w: volume '%s' has no mount_path", dherr.ErrValidation, v.Name)
		}
		if size, ok := v.Spec["size"].(string); ok {
			if _, err := resource.ParseQuantity(size); err != nil {
				return fmt.Errorf("%w: volume '%s' size: %s", dherr.ErrValidation, v.Name, err)
			}
		}
	}
	if r := k.Resources; r != nil {
		for name, q := range map[string]*resource.Quantity{"cpu": r.CPU, "mem": r.Mem, "gpu": r.GPU} {
			if q != nil && q.Sign() < 0 {
				return fmt.Errorf("%w: resource %s is negative: %s", dherr.ErrValidation, name, q)
			}
		}
	}
	for _, e := range k.Envs {
		if e.Name == "" {
			return fmt.Errorf("%w: env without name", dherr.ErrValidation)
		}
	}
	for _, t := range k.Tolerations {
		switch t.Operator {
		case "", corev1.TolerationOpExists, corev1.TolerationOpEqual:
		default:
			return fmt.Errorf("%w: toleration has unknown operator '%s'", dherr.ErrValidation, t.Operator)
		}
	}
	return nil
}

// FunctionTask is the schema of tasks performed on functions.
type FunctionTask struct {
	Function string `json:"function"`
	K8s
}

func (t *FunctionTask) Validate() error {
	if err := validateReference("function", t.Function); err != nil {
		return err
	}
	return t.K8s.Validate()
}

// WorkflowTask is the schema of tasks performed on workflows.
type WorkflowTask struct {
	Workflow string `json:"workflow"`
	K8s
}

func (t *WorkflowTask) Validate() error {
	if err := validateReference("workflow", t.Workflow); err != nil {
		return err
	}
	return t.K8s.Validate()
}

// Run is the schema common to runs.
type Run struct {
	Task           string         `json:"task"`
	LocalExecution bool           `json:"local_execution,omitempty"`
	Inputs         map[string]any `json:"inputs,omitempty"`
	Outputs        map[string]any `json:"outputs,omitempty"`
	Parameters     map[string]any `json:"parameters,omitempty"`
}

func (r *Run) Validate() error {
	if r.Task == "" {
		return fmt.Errorf("%w: run has no task", dherr.ErrValidation)
	}
	for name, in := range r.Inputs {
		s, ok := in.(string)
		if !ok {
			continue
		}
		if domain.IsKey(s) {
			if _, err := domain.ParseKey(s); err != nil {
				return fmt.Errorf("%w: input '%s': %w", dherr.ErrValidation, name, err)
			}
		}
	}
	return nil
}

func validateReference(field string, ref string) error {
	if ref == "" {
		return fmt.Errorf("%w: %s is required", dherr.ErrValidation, field)
	}
	if _, err := domain.ParseExecutableString(ref); err != nil {
		return fmt.Errorf("%w: %s: %w", dherr.ErrValidation, field, err)
	}
	return nil
}
