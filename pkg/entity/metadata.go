package entity

import (
	"time"

	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
)

// TimestampLayout is the layout of timestamps in metadata.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Now returns current time formatted for metadata.
func Now() string {
	return time.Now().UTC().Format(TimestampLayout)
}

// ParseTimestamp parses timestamps in metadata.
//
// Layouts with and without fractional seconds are accepted.
func ParseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err == nil {
		return t, nil
	}
	return time.Parse(TimestampLayout, ts)
}

type Relationship struct {
	Type string `json:"type" yaml:"type"`
	Dest string `json:"dest" yaml:"dest"`
}

// Metadata is descriptive, user-editable attributes of an entity.
//
// Fields not listed here are kept in Extra.
type Metadata struct {
	Project     string
	Name        string
	Version     string
	Description string
	Labels      []string

	Created   string
	CreatedBy string
	Updated   string
	UpdatedBy string

	Embedded      bool
	Relationships []Relationship

	// path of the file this entity has been exported to.
	Ref string

	Extra fields.Bag
}

var metadataKeys = []string{
	"project", "name", "version", "description", "labels",
	"created", "created_by", "updated", "updated_by",
	"embedded", "relationships", "ref",
}

func (m Metadata) ToDict() fields.Bag {
	out := fields.Bag{}
	for k, v := range m.Extra {
		out[k] = v
	}

	put := func(key string, value string) {
		if value != "" {
			out[key] = value
		}
	}
	put("project", m.Project)
	put("name", m.Name)
	put("version", m.Version)
	put("description", m.Description)
	put("created", m.Created)
	put("created_by", m.CreatedBy)
	put("updated", m.Updated)
	put("updated_by", m.UpdatedBy)
	put("ref", m.Ref)

	if m.Labels != nil {
		labels := make([]any, len(m.Labels))
		for i := range m.Labels {
			labels[i] = m.Labels[i]
		}
		out["labels"] = labels
	}
	out["embedded"] = m.Embedded

	if len(m.Relationships) != 0 {
		rels := make([]any, 0, len(m.Relationships))
		for _, r := range m.Relationships {
			rels = append(rels, map[string]any{"type": r.Type, "dest": r.Dest})
		}
		out["relationships"] = rels
	}
	return out
}

// MetadataFromDict reads Metadata. Unknown fields go to Extra.
func MetadataFromDict(b fields.Bag) Metadata {
	m := Metadata{
		Project:     b.Str("project"),
		Name:        b.Str("name"),
		Version:     b.Str("version"),
		Description: b.Str("description"),
		Labels:      b.Strings("labels"),
		Created:     b.Str("created"),
		CreatedBy:   b.Str("created_by"),
		Updated:     b.Str("updated"),
		UpdatedBy:   b.Str("updated_by"),
		Embedded:    b.Bool("embedded"),
		Ref:         b.Str("ref"),
	}

	for _, r := range b.Slice("relationships") {
		rb := fields.AsBag(r)
		if rb == nil {
			continue
		}
		m.Relationships = append(m.Relationships, Relationship{Type: rb.Str("type"), Dest: rb.Str("dest")})
	}

	if extra := b.Without(metadataKeys...); len(extra) != 0 {
		m.Extra = extra
	}
	return m
}
