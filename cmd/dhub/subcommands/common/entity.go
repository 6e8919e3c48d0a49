package common

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
)

// Print writes v into w as indented JSON.
func Print(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}

// Project reads the project of key from the platform.
func Project(ctx context.Context, s *sdk.SDK, key string) (*sdk.Project, domain.Key, error) {
	k, err := domain.ParseKey(key)
	if err != nil {
		return nil, domain.Key{}, err
	}
	p, err := s.GetProject(ctx, k.Project, sdk.ProjectOptions{})
	if err != nil {
		return nil, domain.Key{}, err
	}
	return p, k, nil
}

// Object reads the entity of key.
func Object(ctx context.Context, s *sdk.SDK, key string) (*sdk.Object, error) {
	p, k, err := Project(ctx, s, key)
	if err != nil {
		return nil, err
	}
	if k.EntityType == domain.Project {
		return &p.Object, nil
	}
	return p.Entities(k.EntityType).Get(ctx, key, "")
}

// Material reads the artifact, dataitem or model of key.
func Material(ctx context.Context, s *sdk.SDK, key string) (*sdk.Material, error) {
	p, k, err := Project(ctx, s, key)
	if err != nil {
		return nil, err
	}
	switch k.EntityType {
	case domain.Artifact:
		return p.Artifacts().Get(ctx, key, "")
	case domain.Dataitem:
		return p.Dataitems().Get(ctx, key, "")
	case domain.Model:
		return p.Models().Get(ctx, key, "")
	default:
		return nil, fmt.Errorf("%w: %s has no data", dherr.ErrEntityTypeMismatch, key)
	}
}

// Run reads the run of key.
func Run(ctx context.Context, s *sdk.SDK, key string) (*sdk.Run, error) {
	p, _, err := Project(ctx, s, key)
	if err != nil {
		return nil, err
	}
	return p.Runs().Get(ctx, key, "")
}
