package base

import (
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
)

// ValidateImage checks s is a container image reference.
//
//	[<registry>[:<port>]/]<name>[:<tag>|@<digest>]
//
// Empty s is valid, as images are optional.
func ValidateImage(field string, s string) error {
	if s == "" {
		return nil
	}
	if _, err := name.ParseReference(s, name.WithDefaultRegistry("")); err != nil {
		return fmt.Errorf("%w: %s '%s' is not an image reference: %s", dherr.ErrValidation, field, s, err)
	}
	return nil
}
