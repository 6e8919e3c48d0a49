package entity

import (
	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
)

// File is a file of a material, as recorded in status.
type File struct {
	Path         string `json:"path" yaml:"path"`
	Name         string `json:"name" yaml:"name"`
	ContentType  string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Size         int64  `json:"size,omitempty" yaml:"size,omitempty"`
	Hash         string `json:"hash,omitempty" yaml:"hash,omitempty"`
	LastModified string `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
}

// Status is derived state of an entity. Runs record their outcome here.
type Status struct {
	State   domain.State
	Message string

	// output parameter name -> key of the produced entity.
	Outputs map[string]string

	Results fields.Bag

	Files []File

	Extra fields.Bag
}

var statusKeys = []string{"state", "message", "outputs", "results", "files"}

func (s Status) ToDict() fields.Bag {
	out := fields.Bag{}
	for k, v := range s.Extra {
		out[k] = v
	}
	if s.State != "" {
		out["state"] = string(s.State)
	}
	if s.Message != "" {
		out["message"] = s.Message
	}
	if s.Outputs != nil {
		outputs := map[string]any{}
		for k, v := range s.Outputs {
			outputs[k] = v
		}
		out["outputs"] = outputs
	}
	if s.Results != nil {
		out["results"] = map[string]any(s.Results.Clone())
	}
	if len(s.Files) != 0 {
		files := make([]any, 0, len(s.Files))
		for _, f := range s.Files {
			if b, err := fields.FromStruct(f); err == nil {
				files = append(files, map[string]any(b))
			}
		}
		out["files"] = files
	}
	return out
}

// StatusFromDict reads Status. Unknown fields go to Extra.
//
// The state is taken as it is, even if it is not known to this SDK.
func StatusFromDict(b fields.Bag) Status {
	s := Status{
		State:   domain.State(b.Str("state")),
		Message: b.Str("message"),
	}

	if outputs := b.Map("outputs"); outputs != nil {
		s.Outputs = map[string]string{}
		for k, v := range outputs {
			switch vv := v.(type) {
			case string:
				s.Outputs[k] = vv
			default:
				// backend may give output entities as objects with key.
				if ob := fields.AsBag(v); ob != nil {
					s.Outputs[k] = ob.Str("key")
				}
			}
		}
	}
	if results := b.Map("results"); results != nil {
		s.Results = results.Clone()
	}
	for _, f := range b.Slice("files") {
		fb := fields.AsBag(f)
		if fb == nil {
			continue
		}
		var file File
		if err := fb.Decode(&file); err == nil {
			s.Files = append(s.Files, file)
		}
	}

	if extra := b.Without(statusKeys...); len(extra) != 0 {
		s.Extra = extra
	}
	return s
}
